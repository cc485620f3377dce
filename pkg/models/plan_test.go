package models

import (
	"errors"
	"testing"
)

func TestPlanState_Valid(t *testing.T) {
	tests := []struct {
		name  string
		state PlanState
		want  bool
	}{
		{"drafted is valid", PlanDrafted, true},
		{"conflicts_detected is valid", PlanConflictsDetected, true},
		{"auto_resolved is valid", PlanAutoResolved, true},
		{"escalated is valid", PlanEscalated, true},
		{"governance_reviewed is valid", PlanGovernanceReviewed, true},
		{"approved is valid", PlanApproved, true},
		{"rejected is valid", PlanRejected, true},
		{"empty string is invalid", PlanState(""), false},
		{"unknown state is invalid", PlanState("pending"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.Valid(); got != tt.want {
				t.Errorf("PlanState(%q).Valid() = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestPlanState_Transitions(t *testing.T) {
	tests := []struct {
		name string
		from PlanState
		to   PlanState
		want bool
	}{
		{"drafted to conflicts_detected", PlanDrafted, PlanConflictsDetected, true},
		{"drafted to auto_resolved when clean", PlanDrafted, PlanAutoResolved, true},
		{"conflicts to auto_resolved", PlanConflictsDetected, PlanAutoResolved, true},
		{"conflicts to escalated", PlanConflictsDetected, PlanEscalated, true},
		{"auto_resolved to reviewed", PlanAutoResolved, PlanGovernanceReviewed, true},
		{"escalated to reviewed", PlanEscalated, PlanGovernanceReviewed, true},
		{"reviewed to approved", PlanGovernanceReviewed, PlanApproved, true},
		{"reviewed to rejected", PlanGovernanceReviewed, PlanRejected, true},
		{"no skip from drafted to approved", PlanDrafted, PlanApproved, false},
		{"no back-transition from escalated", PlanEscalated, PlanDrafted, false},
		{"approved is terminal", PlanApproved, PlanGovernanceReviewed, false},
		{"rejected is terminal", PlanRejected, PlanDrafted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPlan_Advance_Invalid(t *testing.T) {
	p := &Plan{State: PlanDrafted}
	err := p.Advance(PlanApproved)
	if err == nil {
		t.Fatal("Advance(drafted -> approved) should fail")
	}
	var invalid *ErrInvalidTransition
	if !errors.As(err, &invalid) {
		t.Fatalf("error = %T, want *ErrInvalidTransition", err)
	}
	if p.State != PlanDrafted {
		t.Errorf("state mutated on invalid transition: %s", p.State)
	}
}

func TestPlan_AdoptedCost(t *testing.T) {
	p := &Plan{Actions: []PlanAction{
		{SubTaskID: "a", Status: ActionAdopted, Cost: 100_000},
		{SubTaskID: "b", Status: ActionDeferred, Cost: 50_000},
		{SubTaskID: "c", Status: ActionAdopted, Cost: 25_000},
		{SubTaskID: "d", Status: ActionRemoved, Cost: 999_999},
	}}
	if got := p.AdoptedCost(); got != 125_000 {
		t.Errorf("AdoptedCost() = %v, want 125000", got)
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range AllCategories() {
		if !c.Valid() {
			t.Errorf("Category(%q).Valid() = false, want true", c)
		}
	}
	if Category("legal").Valid() {
		t.Error("unknown category should be invalid")
	}
	if Category("").Valid() {
		t.Error("empty category should be invalid")
	}
}

func TestClaimDirection_Opposes(t *testing.T) {
	tests := []struct {
		a, b ClaimDirection
		want bool
	}{
		{ClaimIncrease, ClaimDecrease, true},
		{ClaimIncrease, ClaimHold, true},
		{ClaimHold, ClaimDecrease, true},
		{ClaimIncrease, ClaimIncrease, false},
		{ClaimHold, ClaimHold, false},
	}
	for _, tt := range tests {
		if got := tt.a.Opposes(tt.b); got != tt.want {
			t.Errorf("%s.Opposes(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRecommendation_Unsupported(t *testing.T) {
	r := &Recommendation{SubTaskID: "s1"}
	if !r.Unsupported() {
		t.Error("recommendation with no citations should be unsupported")
	}
	r.Citations = []string{"budget:marketing"}
	if r.Unsupported() {
		t.Error("cited recommendation should be supported")
	}
}
