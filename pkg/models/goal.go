// Package models defines the shared data model for boardroom:
// goals, sub-tasks, recommendations, conflicts, resolutions, and plans.
package models

import "time"

// Category identifies a specialist domain.
type Category string

const (
	// CategorySales covers revenue retention and customer success.
	CategorySales Category = "sales"
	// CategoryMarketing covers campaigns and acquisition.
	CategoryMarketing Category = "marketing"
	// CategoryFinance covers budgeting and unit economics.
	CategoryFinance Category = "finance"
	// CategoryOperations covers process and delivery.
	CategoryOperations Category = "operations"
	// CategorySupport covers service and churn signals.
	CategorySupport Category = "support"
	// CategoryHR covers hiring and staffing.
	CategoryHR Category = "hr"
)

// Valid returns true if the category is a known specialist domain.
func (c Category) Valid() bool {
	switch c {
	case CategorySales, CategoryMarketing, CategoryFinance,
		CategoryOperations, CategorySupport, CategoryHR:
		return true
	default:
		return false
	}
}

// AllCategories returns the fixed set of specialist domains in a stable order.
func AllCategories() []Category {
	return []Category{
		CategorySales, CategoryMarketing, CategoryFinance,
		CategoryOperations, CategorySupport, CategoryHR,
	}
}

// ConstraintKind classifies a structured goal constraint.
type ConstraintKind string

const (
	// ConstraintBudgetCap bounds the total cost of the resulting plan.
	ConstraintBudgetCap ConstraintKind = "budget_cap"
	// ConstraintMetricHold forbids moving a named metric in a direction.
	ConstraintMetricHold ConstraintKind = "metric_hold"
	// ConstraintPolicy references an active shared-state policy by key.
	ConstraintPolicy ConstraintKind = "policy"
)

// GoalConstraint is one structured constraint attached to a goal.
type GoalConstraint struct {
	// Kind classifies the constraint.
	Kind ConstraintKind `json:"kind"`
	// Metric is the metric the constraint applies to, if any.
	Metric string `json:"metric,omitempty"`
	// Direction is the forbidden direction for metric_hold ("increase" or "decrease").
	Direction string `json:"direction,omitempty"`
	// Limit is the numeric bound for budget_cap constraints.
	Limit float64 `json:"limit,omitempty"`
	// Description is the human-readable form of the constraint.
	Description string `json:"description"`
}

// Goal is a structured strategic directive. Immutable once created.
type Goal struct {
	// ID is the unique identifier for this goal.
	ID string `json:"id"`
	// RawText is the original natural-language prompt.
	RawText string `json:"raw_text"`
	// Objective is the parsed objective kind (e.g. "improve_retention").
	Objective string `json:"objective"`
	// TargetMetric is the metric the goal moves (e.g. "retention_rate").
	TargetMetric string `json:"target_metric"`
	// TargetValue is the desired delta on the target metric (fractional).
	TargetValue float64 `json:"target_value"`
	// Constraints are the structured constraints attached to the goal.
	Constraints []GoalConstraint `json:"constraints,omitempty"`
	// MaxBudget is the declared budget ceiling for the whole plan. Zero means unbounded.
	MaxBudget float64 `json:"max_budget,omitempty"`
	// Deadline is when the goal should be achieved, if declared.
	Deadline time.Time `json:"deadline,omitzero"`
	// StateVersion is the shared-state version captured at submission.
	StateVersion int64 `json:"state_version"`
	// CreatedAt is when the goal was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// ForbidsIncrease reports whether any constraint forbids increasing the metric.
func (g *Goal) ForbidsIncrease(metric string) bool {
	for _, c := range g.Constraints {
		if c.Kind == ConstraintMetricHold && c.Metric == metric && c.Direction == "increase" {
			return true
		}
	}
	return false
}
