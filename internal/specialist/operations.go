package specialist

import (
	"context"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Operations advises on process and delivery.
type Operations struct {
	base
}

// NewOperations creates the operations specialist.
func NewOperations(data *enterprise.Source) *Operations {
	return &Operations{base{category: models.CategoryOperations, data: data}}
}

// Evaluate proposes onboarding and delivery fixes, the cheapest lever on
// early-lifecycle churn.
func (o *Operations) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	records, err := o.data.Query("workforce", nil)
	dataOK := err == nil && len(records) > 0

	cited := o.citations(task, snap)
	budgetLine, _ := o.budgetAvailable(snap)

	return o.finish(&models.Recommendation{
		ProposedAction:  "Rebuild the onboarding runbook and add a 30-day health checkpoint per account",
		Confidence:      o.confidence(0.65, len(cited), dataOK),
		EstimatedCost:   45_000,
		EstimatedImpact: 0.04,
		BudgetLine:      budgetLine,
		TimelineDays:    30,
		Risks:           []string{"checkpoint load lands on already-stretched delivery leads"},
		Assumptions:     []string{"early-lifecycle churn is onboarding-driven"},
		Citations:       cited,
		Claims: []models.MetricClaim{
			{Metric: "retention_rate", Direction: models.ClaimIncrease, Delta: 0.04},
		},
		WhatWouldChangeMind: []string{"cohort data showing churn is flat across onboarding quality"},
	}, task), nil
}
