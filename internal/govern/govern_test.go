package govern

import (
	"errors"
	"testing"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

func testThresholds() Thresholds {
	return Thresholds{
		CostCeiling:      500_000,
		ConfidenceFloor:  0.6,
		HeadcountCeiling: 20,
		MaxCategories:    3,
	}
}

func testStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.NewStore()
	if err := s.Seed([]state.Entry{
		{Key: "budget:sales", Kind: state.KindBudget, Limit: 300_000, Used: 50_000, Unit: "USD"},
		{Key: "headcount:sales", Kind: state.KindHeadcount, Limit: 50, Used: 42, Unit: "FTE"},
	}); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}

func modestPlan() *models.Plan {
	return &models.Plan{
		ID:     "p1",
		GoalID: "g1",
		State:  models.PlanAutoResolved,
		Actions: []models.PlanAction{
			{SubTaskID: "g1-sales", Category: models.CategorySales, Status: models.ActionAdopted,
				Cost: 120_000, Confidence: 0.85, Impact: 0.12, HeadcountDelta: 2,
				Citations: []string{"budget:sales"}},
			{SubTaskID: "g1-support", Category: models.CategorySupport, Status: models.ActionAdopted,
				Cost: 80_000, Confidence: 0.75, Impact: 0.08,
				Citations: []string{"metric:csat"}},
		},
		AggregateConfidence: 0.81,
		AggregateCost:       200_000,
	}
}

func TestReview_CleanPlanHasNoItems(t *testing.T) {
	g := New(testThresholds(), testStore(t), audit.NewLogger())
	items := g.Review(&models.Goal{ID: "g1"}, modestPlan(), nil)
	if len(items) != 0 {
		t.Fatalf("items = %+v, want none", items)
	}
}

func TestReview_ThresholdBreaches(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Plan)
		reason string
	}{
		{"cost ceiling", func(p *models.Plan) {
			p.Actions[0].Cost = 600_000
		}, "cost_ceiling"},
		{"confidence floor", func(p *models.Plan) {
			p.AggregateConfidence = 0.4
		}, "confidence_floor"},
		{"headcount ceiling", func(p *models.Plan) {
			p.Actions[0].HeadcountDelta = 25
		}, "headcount_ceiling"},
		{"unsupported high impact", func(p *models.Plan) {
			p.Actions[0].Citations = nil
			p.Actions[0].Unsupported = true
		}, "unsupported_action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(testThresholds(), testStore(t), audit.NewLogger())
			plan := modestPlan()
			tt.mutate(plan)

			items := g.Review(&models.Goal{ID: "g1"}, plan, nil)
			found := false
			for _, item := range items {
				if item.Reason == tt.reason {
					found = true
				}
			}
			if !found {
				t.Errorf("items = %+v, want reason %q", items, tt.reason)
			}
		})
	}
}

func TestReview_MaxCategories(t *testing.T) {
	plan := modestPlan()
	plan.Actions = append(plan.Actions,
		models.PlanAction{SubTaskID: "g1-ops", Category: models.CategoryOperations, Status: models.ActionAdopted, Cost: 10_000},
		models.PlanAction{SubTaskID: "g1-hr", Category: models.CategoryHR, Status: models.ActionAdopted, Cost: 10_000},
	)

	g := New(testThresholds(), testStore(t), audit.NewLogger())
	items := g.Review(&models.Goal{ID: "g1"}, plan, nil)
	found := false
	for _, item := range items {
		if item.Reason == "max_categories" {
			found = true
		}
	}
	if !found {
		t.Errorf("items = %+v, want max_categories (4 departments > 3)", items)
	}
}

func TestReview_EscalatedConflictsCarryThrough(t *testing.T) {
	g := New(testThresholds(), testStore(t), audit.NewLogger())
	escalated := []models.Conflict{{
		ID: "cf-1", Kind: models.ConflictPolicyViolation,
		Severity: models.SeverityCritical, Description: "CAC hold violated",
	}}

	items := g.Review(&models.Goal{ID: "g1"}, modestPlan(), escalated)
	if len(items) != 1 || items[0].Reason != "policy_violation" {
		t.Fatalf("items = %+v, want the escalated conflict", items)
	}
}

func TestFinalize_AutoApproveCommitsState(t *testing.T) {
	store := testStore(t)
	auditLog := audit.NewLogger()
	g := New(testThresholds(), store, auditLog)
	plan := modestPlan()

	if err := g.Finalize(&models.Goal{ID: "g1"}, plan, nil, nil); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if plan.State != models.PlanApproved {
		t.Errorf("State = %s, want approved", plan.State)
	}

	// Sales budget and headcount usage advanced; support budget line created.
	snap := store.Snapshot()
	sales, _ := snap.Get("budget:sales")
	if sales.Used != 170_000 {
		t.Errorf("budget:sales used = %v, want 170000", sales.Used)
	}
	hc, _ := snap.Get("headcount:sales")
	if hc.Used != 44 {
		t.Errorf("headcount:sales used = %v, want 44", hc.Used)
	}
	support, ok := snap.Get("budget:support")
	if !ok || support.Used != 80_000 {
		t.Errorf("budget:support = %+v, ok=%v", support, ok)
	}
	if sales.Actor != "governance" {
		t.Errorf("commit actor = %q, want governance", sales.Actor)
	}

	var committed bool
	for _, r := range auditLog.ByGoal("g1") {
		if r.Type == audit.TypeStateCommit {
			committed = true
		}
	}
	if !committed {
		t.Error("state commit was not audit-logged")
	}
}

func TestFinalize_EscalatedNeedsDecision(t *testing.T) {
	g := New(testThresholds(), testStore(t), audit.NewLogger())
	plan := modestPlan()
	items := []EscalationItem{{Reason: "cost_ceiling", Detail: "over budget"}}

	err := g.Finalize(&models.Goal{ID: "g1"}, plan, items, nil)
	if !errors.Is(err, ErrDecisionRequired) {
		t.Fatalf("Finalize() error = %v, want ErrDecisionRequired", err)
	}
	if plan.State != models.PlanGovernanceReviewed {
		t.Errorf("State = %s, want governance_reviewed (awaiting decision)", plan.State)
	}
	if len(plan.RequiredApprovals) != 1 || plan.RequiredApprovals[0] != "cost_ceiling" {
		t.Errorf("RequiredApprovals = %v", plan.RequiredApprovals)
	}
}

func TestFinalize_ApproveWithOverrides(t *testing.T) {
	store := testStore(t)
	g := New(testThresholds(), store, audit.NewLogger())
	plan := modestPlan()
	plan.Actions[0].Flag = models.FlagEscalated
	items := []EscalationItem{{Reason: "policy_violation", Detail: "CAC hold violated"}}

	err := g.Finalize(&models.Goal{ID: "g1"}, plan, items, &Decision{
		Approve: true, DecidedBy: "ceo", Rationale: "strategic priority outweighs the hold this quarter",
	})
	if err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}
	if plan.State != models.PlanApproved {
		t.Errorf("State = %s, want approved", plan.State)
	}
	if plan.Actions[0].Flag != models.FlagOverridden {
		t.Errorf("Flag = %s, want escalated_and_overridden", plan.Actions[0].Flag)
	}
	if plan.Actions[0].Status != models.ActionAdopted {
		t.Errorf("Status = %s, want adopted", plan.Actions[0].Status)
	}
}

func TestFinalize_Reject(t *testing.T) {
	g := New(testThresholds(), testStore(t), audit.NewLogger())
	plan := modestPlan()
	items := []EscalationItem{{Reason: "confidence_floor", Detail: "too speculative"}}

	err := g.Finalize(&models.Goal{ID: "g1"}, plan, items, &Decision{
		Approve: false, DecidedBy: "ceo", Rationale: "resubmit with firmer evidence",
	})
	var rejection *GovernanceRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("Finalize() error = %v, want GovernanceRejection", err)
	}
	if plan.State != models.PlanRejected {
		t.Errorf("State = %s, want rejected", plan.State)
	}
	if rejection.GoalID != "g1" {
		t.Errorf("rejection.GoalID = %s", rejection.GoalID)
	}
}

func TestDecide_AfterAwaitingDecision(t *testing.T) {
	store := testStore(t)
	g := New(testThresholds(), store, audit.NewLogger())
	plan := modestPlan()
	items := []EscalationItem{{Reason: "cost_ceiling", Detail: "over budget"}}

	if err := g.Finalize(&models.Goal{ID: "g1"}, plan, items, nil); !errors.Is(err, ErrDecisionRequired) {
		t.Fatalf("Finalize() error = %v, want ErrDecisionRequired", err)
	}

	err := g.Decide(&models.Goal{ID: "g1"}, plan, items, &Decision{
		Approve: true, DecidedBy: "ceo", Rationale: "accepted the overspend",
	})
	if err != nil {
		t.Fatalf("Decide() failed: %v", err)
	}
	if plan.State != models.PlanApproved {
		t.Errorf("State = %s, want approved", plan.State)
	}
}

func TestFinalize_RespectsStateMachine(t *testing.T) {
	g := New(testThresholds(), testStore(t), audit.NewLogger())
	plan := modestPlan()
	plan.State = models.PlanDrafted // cannot jump straight to reviewed

	err := g.Finalize(&models.Goal{ID: "g1"}, plan, nil, nil)
	var invalid *models.ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("Finalize() error = %v, want ErrInvalidTransition", err)
	}
}
