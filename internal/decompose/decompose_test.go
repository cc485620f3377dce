package decompose

import (
	"reflect"
	"testing"

	"github.com/blackoak/boardroom/internal/graph"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

func testSnapshot(t *testing.T) *state.Snapshot {
	t.Helper()
	s := state.NewStore()
	if err := s.Seed([]state.Entry{
		{Key: "budget:marketing", Kind: state.KindBudget, Limit: 200_000},
		{Key: "budget:sales", Kind: state.KindBudget, Limit: 300_000},
		{Key: "policy:no_cac_increase", Kind: state.KindPolicy, Metric: "cac", Direction: "increase"},
		{Key: "metric:retention_rate", Kind: state.KindMetric, Value: 0.72},
		{Key: "headcount:hr", Kind: state.KindHeadcount, Limit: 10},
	}); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s.Snapshot()
}

func retentionGoal() *models.Goal {
	return &models.Goal{
		ID:           "g1",
		Objective:    "improve_retention",
		TargetMetric: "retention_rate",
		TargetValue:  0.15,
	}
}

func TestDecompose_RetentionShape(t *testing.T) {
	tasks, err := Decompose(retentionGoal(), testSnapshot(t))
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}
	if len(tasks) != 6 {
		t.Fatalf("got %d sub-tasks, want 6", len(tasks))
	}

	byID := make(map[string]*models.SubTask)
	for _, task := range tasks {
		byID[task.ID] = task
		if task.GoalID != "g1" {
			t.Errorf("%s.GoalID = %q", task.ID, task.GoalID)
		}
		if task.Status != models.SubTaskPending {
			t.Errorf("%s.Status = %s, want pending", task.ID, task.Status)
		}
	}

	finance := byID["g1-finance"]
	if finance == nil {
		t.Fatal("missing g1-finance")
	}
	if len(finance.DependsOn) != 4 {
		t.Errorf("finance depends on %v, want 4 deps", finance.DependsOn)
	}

	hr := byID["g1-hr"]
	if hr == nil {
		t.Fatal("missing g1-hr")
	}
	if len(hr.DependsOn) != 1 || hr.DependsOn[0] != "g1-operations" {
		t.Errorf("hr depends on %v, want [g1-operations]", hr.DependsOn)
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	snap := testSnapshot(t)
	first, err := Decompose(retentionGoal(), snap)
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}
	second, err := Decompose(retentionGoal(), snap)
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID ||
			first[i].Category != second[i].Category ||
			first[i].TaskType != second[i].TaskType ||
			!reflect.DeepEqual(first[i].DependsOn, second[i].DependsOn) ||
			!reflect.DeepEqual(first[i].RequiredKeys, second[i].RequiredKeys) {
			t.Errorf("sub-task %d differs between runs:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

func TestDecompose_AllObjectivesAcyclic(t *testing.T) {
	snap := testSnapshot(t)
	for objective := range objectiveTemplates {
		t.Run(objective, func(t *testing.T) {
			goal := &models.Goal{ID: "gx", Objective: objective}
			tasks, err := Decompose(goal, snap)
			if err != nil {
				t.Fatalf("Decompose(%s) failed: %v", objective, err)
			}

			g := graph.New()
			if err := g.Build(tasks); err != nil {
				t.Fatalf("graph build failed: %v", err)
			}
			if g.HasCycle() {
				t.Error("decomposition produced a cycle")
			}

			// Every sub-task is reachable: repeated Ready/MarkComplete drains the graph.
			done := 0
			for {
				wave := g.Ready()
				if len(wave) == 0 {
					break
				}
				for _, id := range wave {
					g.MarkComplete(id)
					done++
				}
			}
			if done != len(tasks) {
				t.Errorf("drained %d of %d sub-tasks", done, len(tasks))
			}
		})
	}
}

func TestDecompose_RequiredKeysFromSnapshot(t *testing.T) {
	tasks, err := Decompose(retentionGoal(), testSnapshot(t))
	if err != nil {
		t.Fatalf("Decompose() failed: %v", err)
	}

	for _, task := range tasks {
		if task.Category != models.CategoryMarketing {
			continue
		}
		var hasPolicy bool
		for _, key := range task.RequiredKeys {
			if key == "policy:no_cac_increase" {
				hasPolicy = true
			}
		}
		if !hasPolicy {
			t.Errorf("marketing required keys %v missing the CAC policy", task.RequiredKeys)
		}
	}
}

func TestDecompose_UnknownObjective(t *testing.T) {
	goal := &models.Goal{ID: "g9", Objective: "conquer_mars"}
	if _, err := Decompose(goal, testSnapshot(t)); err == nil {
		t.Fatal("Decompose() should fail on an unknown objective")
	}
}
