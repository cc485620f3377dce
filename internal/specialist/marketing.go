package specialist

import (
	"context"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Marketing advises on campaigns and acquisition.
type Marketing struct {
	base
}

// NewMarketing creates the marketing specialist.
func NewMarketing(data *enterprise.Source) *Marketing {
	return &Marketing{base{category: models.CategoryMarketing, data: data}}
}

// Evaluate proposes a re-engagement program. Paid remarketing is part of the
// mix, so the recommendation honestly claims a CAC increase; whether that is
// acceptable is the resolver's and the governance gate's call, not ours.
func (m *Marketing) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	records, err := m.data.Query("finance", map[string]string{"metric": "cac"})
	dataOK := err == nil && len(records) > 0

	cacDelta := 250.0
	if dataOK {
		cacDelta = records[0].Number("value") * 0.08
	}

	cited := m.citations(task, snap)
	budgetLine, _ := m.budgetAvailable(snap)

	return m.finish(&models.Recommendation{
		ProposedAction:  "Launch a lifecycle re-engagement program with paid remarketing for dormant accounts",
		Confidence:      m.confidence(0.55, len(cited), dataOK),
		EstimatedCost:   150_000,
		EstimatedImpact: 0.06,
		BudgetLine:      budgetLine,
		TimelineDays:    45,
		Risks:           []string{"remarketing fatigue in the dormant cohort"},
		Assumptions:     []string{"dormant accounts are reachable through paid channels"},
		Citations:       cited,
		Claims: []models.MetricClaim{
			{Metric: "retention_rate", Direction: models.ClaimIncrease, Delta: 0.06},
			{Metric: "cac", Direction: models.ClaimIncrease, Delta: cacDelta},
		},
		WhatWouldChangeMind: []string{"organic re-engagement matching paid performance in an A/B holdout"},
	}, task), nil
}
