// Package govern implements the governance gate: the only component allowed
// to approve a plan, and the only writer to shared state.
package govern

import (
	"errors"
	"fmt"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/config"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// ErrDecisionRequired indicates a plan with open escalations cannot be
// finalized without an explicit CEO decision.
var ErrDecisionRequired = errors.New("escalated plan requires a CEO decision")

// GovernanceRejection is the terminal outcome of a rejected plan.
type GovernanceRejection struct {
	GoalID    string
	Rationale string
}

func (e *GovernanceRejection) Error() string {
	return fmt.Sprintf("plan for goal %s rejected: %s", e.GoalID, e.Rationale)
}

// Thresholds are the review limits. A plan breaching any of them cannot be
// auto-approved.
type Thresholds struct {
	// CostCeiling is the adopted-cost limit in dollars.
	CostCeiling float64
	// ConfidenceFloor is the minimum aggregate confidence.
	ConfidenceFloor float64
	// HeadcountCeiling is the total new-hire limit.
	HeadcountCeiling int
	// MaxCategories is the most departments one plan may touch.
	MaxCategories int
}

// FromConfig builds thresholds from the governance config section.
func FromConfig(cfg config.GovernanceConfig) Thresholds {
	return Thresholds{
		CostCeiling:      cfg.CostCeiling,
		ConfidenceFloor:  cfg.ConfidenceFloor,
		HeadcountCeiling: cfg.HeadcountCeiling,
		MaxCategories:    cfg.MaxCategories,
	}
}

// EscalationItem is one reason a plan needs explicit approval.
type EscalationItem struct {
	// Reason is the machine-readable cause.
	Reason string `json:"reason"`
	// Detail is the human-readable explanation.
	Detail string `json:"detail"`
}

// Decision is the CEO's verdict on an escalated plan.
type Decision struct {
	// Approve adopts the plan, overriding its escalations.
	Approve bool
	// DecidedBy names the decision maker.
	DecidedBy string
	// Rationale explains the decision; recorded in the audit log.
	Rationale string
}

// Gate reviews plans against the thresholds and commits approved ones.
type Gate struct {
	thresholds Thresholds
	store      *state.Store
	log        *audit.Logger
}

// New creates a governance gate.
func New(thresholds Thresholds, store *state.Store, auditLog *audit.Logger) *Gate {
	return &Gate{thresholds: thresholds, store: store, log: auditLog}
}

// Review collects every reason the plan cannot be auto-approved: threshold
// breaches, conflicts the resolver escalated, and unsupported high-impact
// actions. An empty result means the plan qualifies for auto-approval.
func (g *Gate) Review(goal *models.Goal, plan *models.Plan, escalated []models.Conflict) []EscalationItem {
	var items []EscalationItem

	if g.thresholds.CostCeiling > 0 && plan.AdoptedCost() > g.thresholds.CostCeiling {
		items = append(items, EscalationItem{
			Reason: "cost_ceiling",
			Detail: fmt.Sprintf("adopted cost $%.0f exceeds ceiling $%.0f", plan.AdoptedCost(), g.thresholds.CostCeiling),
		})
	}
	if plan.AggregateConfidence < g.thresholds.ConfidenceFloor {
		items = append(items, EscalationItem{
			Reason: "confidence_floor",
			Detail: fmt.Sprintf("aggregate confidence %.2f below floor %.2f", plan.AggregateConfidence, g.thresholds.ConfidenceFloor),
		})
	}

	var headcount int
	categories := make(map[models.Category]bool)
	for _, a := range plan.Actions {
		if a.Status != models.ActionAdopted && a.Status != models.ActionEscalated {
			continue
		}
		headcount += a.HeadcountDelta
		categories[a.Category] = true

		if a.Unsupported && a.Impact >= 0.1 && a.Flag == models.FlagNone {
			items = append(items, EscalationItem{
				Reason: "unsupported_action",
				Detail: fmt.Sprintf("high-impact action %s cites no shared-state entry", a.SubTaskID),
			})
		}
	}
	if g.thresholds.HeadcountCeiling > 0 && headcount > g.thresholds.HeadcountCeiling {
		items = append(items, EscalationItem{
			Reason: "headcount_ceiling",
			Detail: fmt.Sprintf("%d new hires exceed ceiling %d", headcount, g.thresholds.HeadcountCeiling),
		})
	}
	if g.thresholds.MaxCategories > 0 && len(categories) > g.thresholds.MaxCategories {
		items = append(items, EscalationItem{
			Reason: "max_categories",
			Detail: fmt.Sprintf("%d departments affected, limit %d", len(categories), g.thresholds.MaxCategories),
		})
	}

	for _, c := range escalated {
		items = append(items, EscalationItem{
			Reason: string(c.Kind),
			Detail: c.Description,
		})
	}

	for _, item := range items {
		g.log.Append(audit.Record{
			Type: audit.TypeEscalation, GoalID: goal.ID,
			Actor:   "governance",
			Summary: item.Detail,
			Details: map[string]any{"reason": item.Reason},
		})
	}
	return items
}

// Finalize moves a reviewed plan to its terminal state.
//
// With no escalation items the plan auto-approves. With items, a Decision is
// mandatory: approval flags every escalated action as overridden; rejection
// returns a GovernanceRejection after recording it. Approved plans commit
// their budget and headcount usage to shared state, the system's only write.
func (g *Gate) Finalize(goal *models.Goal, plan *models.Plan, items []EscalationItem, decision *Decision) error {
	if err := plan.Advance(models.PlanGovernanceReviewed); err != nil {
		return err
	}

	if len(items) == 0 {
		if err := plan.Advance(models.PlanApproved); err != nil {
			return err
		}
		g.log.Append(audit.Record{
			Type: audit.TypeGovernanceDecision, GoalID: goal.ID,
			Actor:      "governance",
			Summary:    "auto-approved: all thresholds satisfied, no escalations",
			Confidence: plan.AggregateConfidence,
		})
		return g.commitApproved(goal, plan)
	}

	if decision == nil {
		for _, item := range items {
			plan.RequiredApprovals = append(plan.RequiredApprovals, item.Reason)
		}
		return ErrDecisionRequired
	}
	return g.Decide(goal, plan, items, decision)
}

// Decide records the CEO's verdict on a plan left in governance_reviewed by
// an earlier Finalize call.
func (g *Gate) Decide(goal *models.Goal, plan *models.Plan, items []EscalationItem, decision *Decision) error {
	if plan.State != models.PlanGovernanceReviewed {
		return &models.ErrInvalidTransition{From: plan.State, To: models.PlanGovernanceReviewed}
	}

	if !decision.Approve {
		if err := plan.Advance(models.PlanRejected); err != nil {
			return err
		}
		g.log.Append(audit.Record{
			Type: audit.TypeGovernanceDecision, GoalID: goal.ID,
			Actor:   decision.DecidedBy,
			Summary: fmt.Sprintf("rejected: %s", decision.Rationale),
			Details: map[string]any{"escalations": len(items)},
		})
		return &GovernanceRejection{GoalID: goal.ID, Rationale: decision.Rationale}
	}

	// Explicit approval overrides the escalations: every escalated action is
	// adopted and flagged so the override stays visible in the plan.
	for i := range plan.Actions {
		a := &plan.Actions[i]
		if a.Status == models.ActionEscalated || a.Flag == models.FlagEscalated {
			a.Status = models.ActionAdopted
			a.Flag = models.FlagOverridden
		}
	}
	if err := plan.Advance(models.PlanApproved); err != nil {
		return err
	}
	g.log.Append(audit.Record{
		Type: audit.TypeGovernanceDecision, GoalID: goal.ID,
		Actor:   decision.DecidedBy,
		Summary: fmt.Sprintf("approved with overrides: %s", decision.Rationale),
		Details: map[string]any{"escalations": len(items)},
	})
	return g.commitApproved(goal, plan)
}

// commitApproved writes the plan's adopted budget and headcount usage to
// shared state in one serialized transaction.
func (g *Gate) commitApproved(goal *models.Goal, plan *models.Plan) error {
	snap := g.store.Snapshot()

	byCategory := make(map[models.Category]*models.PlanAction)
	costs := make(map[models.Category]float64)
	hires := make(map[models.Category]int)
	for i := range plan.Actions {
		a := &plan.Actions[i]
		if a.Status != models.ActionAdopted {
			continue
		}
		byCategory[a.Category] = a
		costs[a.Category] += a.Cost
		hires[a.Category] += a.HeadcountDelta
	}

	var writes []state.Entry
	for _, cat := range models.AllCategories() {
		if _, ok := byCategory[cat]; !ok {
			continue
		}

		if cost := costs[cat]; cost > 0 {
			key := fmt.Sprintf("budget:%s", cat)
			entry, ok := snap.Get(key)
			if !ok {
				entry = state.Entry{Key: key, Kind: state.KindBudget, Unit: "USD"}
			}
			entry.Used += cost
			writes = append(writes, entry)
		}
		if delta := hires[cat]; delta > 0 {
			key := fmt.Sprintf("headcount:%s", cat)
			entry, ok := snap.Get(key)
			if !ok {
				entry = state.Entry{Key: key, Kind: state.KindHeadcount, Unit: "FTE"}
			}
			entry.Used += float64(delta)
			writes = append(writes, entry)
		}
	}
	if len(writes) == 0 {
		return nil
	}

	version, err := g.store.Commit("governance", writes)
	if err != nil {
		return fmt.Errorf("commit approved plan: %w", err)
	}
	g.log.Append(audit.Record{
		Type: audit.TypeStateCommit, GoalID: goal.ID,
		Actor:   "governance",
		Summary: fmt.Sprintf("committed %d state writes for approved plan %s", len(writes), plan.ID),
		Details: map[string]any{"state_version": version},
	})
	return nil
}
