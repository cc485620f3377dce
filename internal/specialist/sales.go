package specialist

import (
	"context"
	"fmt"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Sales advises on revenue retention and expansion.
type Sales struct {
	base
}

// NewSales creates the sales specialist.
func NewSales(data *enterprise.Source) *Sales {
	return &Sales{base{category: models.CategorySales, data: data}}
}

// Evaluate proposes a renewal motion sized from the CRM churn picture.
func (s *Sales) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	records, err := s.data.Query("crm", nil)
	dataOK := err == nil && len(records) > 0

	// Size the renewal desk to the worst-churning segment.
	var worst enterprise.Record
	for _, r := range records {
		if r.Number("churn_rate") > worst.Number("churn_rate") {
			worst = r
		}
	}

	cited := s.citations(task, snap)
	budgetLine, _ := s.budgetAvailable(snap)

	cost := 90_000.0
	impact := 0.05
	action := "Stand up a renewal desk with executive sponsors for at-risk accounts"
	if dataOK {
		cost = worst.Number("accounts") * 60
		if cost < 60_000 {
			cost = 60_000
		}
		impact = worst.Number("churn_rate") * 0.25
		action = fmt.Sprintf("Stand up a renewal desk targeting the %s segment (churn %.0f%%)",
			worst.Field("segment"), worst.Number("churn_rate")*100)
	}

	return s.finish(&models.Recommendation{
		ProposedAction:  action,
		Confidence:      s.confidence(0.6, len(cited), dataOK),
		EstimatedCost:   cost,
		EstimatedImpact: impact,
		BudgetLine:      budgetLine,
		TimelineDays:    60,
		Risks:           []string{"renewal desk cannot reach accounts already in cancellation"},
		Assumptions:     []string{"churn concentrates in the identified segment"},
		Citations:       cited,
		Claims: []models.MetricClaim{
			{Metric: "retention_rate", Direction: models.ClaimIncrease, Delta: impact},
		},
		WhatWouldChangeMind: []string{"exit interviews showing churn is price-driven, not service-driven"},
	}, task), nil
}
