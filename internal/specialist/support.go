package specialist

import (
	"context"
	"fmt"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Support advises on service quality and churn signals.
type Support struct {
	base
}

// NewSupport creates the support specialist.
func NewSupport(data *enterprise.Source) *Support {
	return &Support{base{category: models.CategorySupport, data: data}}
}

// Evaluate targets first-response time, the strongest service-side churn
// signal in the support data.
func (s *Support) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	records, err := s.data.Query("support", map[string]string{"metric": "first_response_hours"})
	dataOK := err == nil && len(records) > 0

	action := "Cut first-response time with a follow-the-sun triage rotation"
	if dataOK {
		action = fmt.Sprintf("Cut first-response time from %.1fh to under 4h with a follow-the-sun triage rotation",
			records[0].Number("value"))
	}

	cited := s.citations(task, snap)
	budgetLine, _ := s.budgetAvailable(snap)

	return s.finish(&models.Recommendation{
		ProposedAction:  action,
		Confidence:      s.confidence(0.6, len(cited), dataOK),
		EstimatedCost:   70_000,
		EstimatedImpact: 0.05,
		BudgetLine:      budgetLine,
		TimelineDays:    40,
		Risks:           []string{"rotation coverage gaps during the transition"},
		Assumptions:     []string{"response time is the dominant dissatisfaction driver"},
		Citations:       cited,
		Claims: []models.MetricClaim{
			{Metric: "retention_rate", Direction: models.ClaimIncrease, Delta: 0.05},
			{Metric: "csat", Direction: models.ClaimIncrease, Delta: 0.05},
		},
		WhatWouldChangeMind: []string{"CSAT verbatims pointing at product gaps rather than response time"},
	}, task), nil
}
