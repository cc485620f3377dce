package models

import (
	"fmt"
	"time"
)

// PlanState is the lifecycle state of a plan under resolution and review.
type PlanState string

const (
	// PlanDrafted means recommendations were collected but not yet reconciled.
	PlanDrafted PlanState = "drafted"
	// PlanConflictsDetected means the detection pass found conflicts.
	PlanConflictsDetected PlanState = "conflicts_detected"
	// PlanAutoResolved means every conflict was resolved without escalation.
	PlanAutoResolved PlanState = "auto_resolved"
	// PlanEscalated means at least one conflict requires governance.
	PlanEscalated PlanState = "escalated"
	// PlanGovernanceReviewed means the governance gate has reviewed the plan.
	PlanGovernanceReviewed PlanState = "governance_reviewed"
	// PlanApproved is terminal: the plan was approved.
	PlanApproved PlanState = "approved"
	// PlanRejected is terminal: the plan was rejected.
	PlanRejected PlanState = "rejected"
)

// Valid returns true if the state is a known value.
func (s PlanState) Valid() bool {
	switch s {
	case PlanDrafted, PlanConflictsDetected, PlanAutoResolved,
		PlanEscalated, PlanGovernanceReviewed, PlanApproved, PlanRejected:
		return true
	default:
		return false
	}
}

// Terminal returns true for approved and rejected.
func (s PlanState) Terminal() bool {
	return s == PlanApproved || s == PlanRejected
}

// planTransitions enumerates the legal forward edges. There are no
// back-transitions; a rejected or escalated plan requires a fresh
// decomposition run to retry.
var planTransitions = map[PlanState][]PlanState{
	PlanDrafted:            {PlanConflictsDetected, PlanAutoResolved},
	PlanConflictsDetected:  {PlanAutoResolved, PlanEscalated},
	PlanAutoResolved:       {PlanGovernanceReviewed},
	PlanEscalated:          {PlanGovernanceReviewed},
	PlanGovernanceReviewed: {PlanApproved, PlanRejected},
}

// CanTransition reports whether moving from s to next is legal.
func (s PlanState) CanTransition(next PlanState) bool {
	for _, allowed := range planTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is returned when a plan state change is illegal.
type ErrInvalidTransition struct {
	From PlanState
	To   PlanState
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid plan transition %s -> %s", e.From, e.To)
}

// ActionStatus is the fate of one recommendation within a final plan.
type ActionStatus string

const (
	// ActionAdopted means the action is part of the executed plan.
	ActionAdopted ActionStatus = "adopted"
	// ActionDeferred means the action lost a resource-overlap resolution and
	// is retained as an alternative, not discarded.
	ActionDeferred ActionStatus = "deferred"
	// ActionRemoved means the action was removed by a governance decision.
	ActionRemoved ActionStatus = "removed"
	// ActionEscalated means the action awaits an explicit CEO decision.
	ActionEscalated ActionStatus = "escalated"
)

// EscalationFlag marks how an action passed governance.
type EscalationFlag string

const (
	// FlagNone means the action breached no threshold.
	FlagNone EscalationFlag = ""
	// FlagEscalated means the action was flagged for CEO review.
	FlagEscalated EscalationFlag = "escalated"
	// FlagOverridden means the CEO explicitly approved the flagged action.
	FlagOverridden EscalationFlag = "escalated_and_overridden"
)

// PlanAction is one final action in a plan, derived from a recommendation
// or a merged group of recommendations.
type PlanAction struct {
	// SubTaskID is the originating sub-task (the winner, for merged groups).
	SubTaskID string `json:"subtask_id"`
	// Category is the owning specialist domain.
	Category Category `json:"category"`
	// Action is the action text.
	Action string `json:"action"`
	// Status is the action's fate within the plan.
	Status ActionStatus `json:"status"`
	// Flag marks escalation handling for threshold breaches.
	Flag EscalationFlag `json:"escalation_flag,omitempty"`
	// Cost is the action's cost in dollars.
	Cost float64 `json:"cost"`
	// Confidence is the producing specialist's confidence.
	Confidence float64 `json:"confidence"`
	// Impact is the expected fractional lift on the target metric.
	Impact float64 `json:"impact"`
	// HeadcountDelta is the hires the action requires.
	HeadcountDelta int `json:"headcount_delta,omitempty"`
	// Citations reference supporting shared-state keys.
	Citations []string `json:"citation_list,omitempty"`
	// Unsupported is set when the action carries no citations.
	Unsupported bool `json:"unsupported,omitempty"`
}

// AlignmentStatus summarizes cross-functional consistency of a plan.
type AlignmentStatus string

const (
	// AlignmentVerified means no unresolved policy conflict remains and all
	// offending recommendations were removed or demoted.
	AlignmentVerified AlignmentStatus = "VERIFIED"
	// AlignmentNeedsResolution means unresolved conflicts remain.
	AlignmentNeedsResolution AlignmentStatus = "NEEDS_RESOLUTION"
)

// Plan is the terminal artifact of a goal run. Immutable once emitted;
// superseded only by a new top-level goal submission.
type Plan struct {
	// ID is the unique identifier for this plan.
	ID string `json:"id"`
	// GoalID is the goal this plan answers.
	GoalID string `json:"goal_id"`
	// State is the plan's lifecycle state.
	State PlanState `json:"state"`
	// Actions is the ordered list of final actions.
	Actions []PlanAction `json:"actions"`
	// AggregateConfidence is the cost-weighted mean confidence of adopted actions.
	AggregateConfidence float64 `json:"aggregate_confidence"`
	// AggregateCost is the summed cost of adopted actions.
	AggregateCost float64 `json:"aggregate_cost"`
	// ResidualRisks lists risks the plan does not mitigate, including
	// blocked or failed sub-tasks.
	ResidualRisks []string `json:"residual_risks,omitempty"`
	// RequiredApprovals lists approvals the plan still needs.
	RequiredApprovals []string `json:"required_approvals,omitempty"`
	// Alignment is the cross-functional alignment status.
	Alignment AlignmentStatus `json:"cross_functional_alignment"`
	// BudgetByCategory breaks aggregate cost down by specialist domain.
	BudgetByCategory map[Category]float64 `json:"budget_by_category,omitempty"`
	// HeadcountByCategory breaks hires down by specialist domain.
	HeadcountByCategory map[Category]int `json:"headcount_by_category,omitempty"`
	// CreatedAt is when the plan was assembled.
	CreatedAt time.Time `json:"created_at"`
}

// AdoptedCost returns the summed cost of adopted actions only.
func (p *Plan) AdoptedCost() float64 {
	var total float64
	for _, a := range p.Actions {
		if a.Status == ActionAdopted {
			total += a.Cost
		}
	}
	return total
}

// Advance moves the plan to the next state, enforcing the state machine.
func (p *Plan) Advance(next PlanState) error {
	if !p.State.CanTransition(next) {
		return &ErrInvalidTransition{From: p.State, To: next}
	}
	p.State = next
	return nil
}
