package specialist

import (
	"context"
	"fmt"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Finance prices proposed initiatives against budgets and unit economics.
type Finance struct {
	base
}

// NewFinance creates the finance specialist.
func NewFinance(data *enterprise.Source) *Finance {
	return &Finance{base{category: models.CategoryFinance, data: data}}
}

// Evaluate sizes an investment envelope from remaining budget room and the
// LTV:CAC ratio. Finance runs after the revenue-side analyses, so its
// recommendation frames what the company can afford, not what to build.
func (f *Finance) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	ltvRecs, errLTV := f.data.Query("finance", map[string]string{"metric": "ltv"})
	cacRecs, errCAC := f.data.Query("finance", map[string]string{"metric": "cac"})
	dataOK := errLTV == nil && errCAC == nil && len(ltvRecs) > 0 && len(cacRecs) > 0

	// Total remaining room across all budget lines bounds the envelope.
	var room float64
	for _, e := range snap.ByKind(state.KindBudget) {
		room += e.Available()
	}
	envelope := room * 0.6

	action := fmt.Sprintf("Approve an investment envelope of $%.0f across the proposed initiatives", envelope)
	assumptions := []string{"initiative costs land within estimates"}
	if dataOK {
		ratio := ltvRecs[0].Number("value") / cacRecs[0].Number("value")
		action = fmt.Sprintf("%s; LTV:CAC of %.1f supports retention spend over acquisition spend", action, ratio)
	}

	cited := f.citations(task, snap)
	budgetLine, _ := f.budgetAvailable(snap)

	return f.finish(&models.Recommendation{
		ProposedAction:  action,
		Confidence:      f.confidence(0.7, len(cited), dataOK),
		EstimatedCost:   25_000,
		EstimatedImpact: 0.02,
		BudgetLine:      budgetLine,
		TimelineDays:    14,
		Risks:           []string{"envelope leaves no reserve for in-quarter surprises"},
		Assumptions:     assumptions,
		Citations:       cited,
		Claims: []models.MetricClaim{
			{Metric: "operating_cost", Direction: models.ClaimHold},
		},
		WhatWouldChangeMind: []string{"a revised revenue forecast shrinking the discretionary pool"},
	}, task), nil
}
