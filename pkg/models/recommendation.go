package models

import "time"

// ClaimDirection is the direction a recommendation asserts a metric will move.
type ClaimDirection string

const (
	// ClaimIncrease asserts the metric rises under the proposed action.
	ClaimIncrease ClaimDirection = "increase"
	// ClaimDecrease asserts the metric falls under the proposed action.
	ClaimDecrease ClaimDirection = "decrease"
	// ClaimHold asserts the metric stays flat under the proposed action.
	ClaimHold ClaimDirection = "hold"
)

// Opposes returns true if the two directions are incompatible claims
// about the same metric.
func (d ClaimDirection) Opposes(other ClaimDirection) bool {
	if d == other {
		return false
	}
	// hold conflicts with either movement; increase conflicts with decrease.
	return true
}

// MetricClaim is a factual assertion a recommendation makes about a metric.
type MetricClaim struct {
	// Metric is the metric the claim is about (e.g. "cac").
	Metric string `json:"metric"`
	// Direction is the asserted movement.
	Direction ClaimDirection `json:"direction"`
	// Delta is the asserted magnitude, in the metric's unit, if quantified.
	Delta float64 `json:"delta,omitempty"`
}

// Recommendation is a specialist's structured answer for one sub-task.
// Owned by the specialist that produced it; read-only afterward.
type Recommendation struct {
	// SubTaskID is the sub-task this recommendation answers.
	SubTaskID string `json:"subtask_id"`
	// Category is the specialist domain that produced it.
	Category Category `json:"specialist_category"`
	// ProposedAction is the action the specialist recommends.
	ProposedAction string `json:"proposed_action"`
	// Confidence is the specialist's confidence in [0,1].
	Confidence float64 `json:"confidence"`
	// EstimatedCost is the cost of the action in dollars.
	EstimatedCost float64 `json:"estimated_cost"`
	// EstimatedImpact is the expected fractional lift on the goal's target metric.
	EstimatedImpact float64 `json:"estimated_impact"`
	// BudgetLine is the shared-state budget key the cost draws on.
	BudgetLine string `json:"budget_line,omitempty"`
	// HeadcountDelta is the number of new hires the action requires.
	HeadcountDelta int `json:"headcount_delta,omitempty"`
	// HeadcountLine is the shared-state headcount key the hires draw on.
	HeadcountLine string `json:"headcount_line,omitempty"`
	// TimelineDays is the expected execution timeline.
	TimelineDays int `json:"timeline_days,omitempty"`
	// Risks lists known risks of the action.
	Risks []string `json:"risk_list,omitempty"`
	// Assumptions lists assumptions the recommendation rests on.
	Assumptions []string `json:"assumption_list,omitempty"`
	// Citations reference the shared-state keys supporting the recommendation.
	Citations []string `json:"citation_list,omitempty"`
	// Claims are the metric assertions the recommendation makes.
	Claims []MetricClaim `json:"claims,omitempty"`
	// WhatWouldChangeMind lists evidence that would reverse the recommendation.
	WhatWouldChangeMind []string `json:"what_would_change_my_mind,omitempty"`
	// ProducedAt is when the specialist returned this recommendation.
	ProducedAt time.Time `json:"produced_at"`
}

// Unsupported returns true if the recommendation cites no shared-state entry.
func (r *Recommendation) Unsupported() bool {
	return len(r.Citations) == 0
}

// Score is the confidence×impact priority used for resource-overlap resolution.
func (r *Recommendation) Score() float64 {
	return r.Confidence * r.EstimatedImpact
}

// ClaimOn returns the recommendation's claim about a metric, if it makes one.
func (r *Recommendation) ClaimOn(metric string) (MetricClaim, bool) {
	for _, c := range r.Claims {
		if c.Metric == metric {
			return c, true
		}
	}
	return MetricClaim{}, false
}
