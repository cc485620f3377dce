package specialist

import (
	"context"
	"testing"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/registry"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

func testData(t *testing.T) *enterprise.Source {
	t.Helper()
	data, err := enterprise.NewSource()
	if err != nil {
		t.Fatalf("NewSource() failed: %v", err)
	}
	return data
}

func testSnapshot(t *testing.T) *state.Snapshot {
	t.Helper()
	s := state.NewStore()
	if err := s.Seed([]state.Entry{
		{Key: "budget:sales", Kind: state.KindBudget, Limit: 300_000, Used: 50_000},
		{Key: "budget:marketing", Kind: state.KindBudget, Limit: 200_000},
		{Key: "policy:no_cac_increase", Kind: state.KindPolicy, Metric: "cac", Direction: "increase"},
		{Key: "metric:retention_rate", Kind: state.KindMetric, Value: 0.72},
		{Key: "headcount:support", Kind: state.KindHeadcount, Limit: 30, Used: 28},
	}); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s.Snapshot()
}

func taskFor(cat models.Category, keys ...string) *models.SubTask {
	return &models.SubTask{
		ID:           "g1-" + string(cat),
		GoalID:       "g1",
		Category:     cat,
		RequiredKeys: keys,
		Status:       models.SubTaskPending,
	}
}

// all six specialists satisfy the registry contract and produce well-formed
// recommendations
func TestAll_RegistryContract(t *testing.T) {
	data := testData(t)
	specs := []registry.Specialist{
		NewSales(data), NewMarketing(data), NewFinance(data),
		NewOperations(data), NewSupport(data), NewHR(data),
	}

	snap := testSnapshot(t)
	for _, spec := range specs {
		t.Run(string(spec.Category()), func(t *testing.T) {
			task := taskFor(spec.Category(), "metric:retention_rate", "budget:sales")
			rec, err := spec.Evaluate(context.Background(), task, snap)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}

			if rec.SubTaskID != task.ID {
				t.Errorf("SubTaskID = %s, want %s", rec.SubTaskID, task.ID)
			}
			if rec.Category != spec.Category() {
				t.Errorf("Category = %s, want %s", rec.Category, spec.Category())
			}
			if rec.ProposedAction == "" {
				t.Error("empty ProposedAction")
			}
			if rec.Confidence < 0.1 || rec.Confidence > 0.95 {
				t.Errorf("Confidence = %v outside [0.1, 0.95]", rec.Confidence)
			}
			if rec.Unsupported() {
				t.Error("recommendation cites nothing despite resolvable required keys")
			}
			if rec.ProducedAt.IsZero() {
				t.Error("ProducedAt not stamped")
			}
		})
	}
}

func TestMarketing_ClaimsCACIncrease(t *testing.T) {
	rec, err := NewMarketing(testData(t)).Evaluate(context.Background(),
		taskFor(models.CategoryMarketing, "policy:no_cac_increase", "budget:marketing"), testSnapshot(t))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	claim, ok := rec.ClaimOn("cac")
	if !ok {
		t.Fatal("marketing must declare its CAC claim")
	}
	if claim.Direction != models.ClaimIncrease {
		t.Errorf("CAC claim direction = %s, want increase", claim.Direction)
	}
	if claim.Delta <= 0 {
		t.Errorf("CAC claim delta = %v, want positive", claim.Delta)
	}
}

func TestHR_RespectsHiringRoom(t *testing.T) {
	// Only 2 FTE of room exist in the snapshot; HR must not propose more.
	rec, err := NewHR(testData(t)).Evaluate(context.Background(),
		taskFor(models.CategoryHR, "headcount:support"), testSnapshot(t))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if rec.HeadcountDelta > 2 {
		t.Errorf("HeadcountDelta = %d, want at most 2", rec.HeadcountDelta)
	}
	if rec.HeadcountLine != "headcount:support" {
		t.Errorf("HeadcountLine = %q, want the hiring limit the hires draw on", rec.HeadcountLine)
	}
}

func TestCitations_SkipUnresolvableKeys(t *testing.T) {
	rec, err := NewSales(testData(t)).Evaluate(context.Background(),
		taskFor(models.CategorySales, "budget:sales", "metric:ghost"), testSnapshot(t))
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	for _, c := range rec.Citations {
		if c == "metric:ghost" {
			t.Error("cited a key absent from the snapshot")
		}
	}
}

func TestEvaluate_HonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFinance(testData(t)).Evaluate(ctx,
		taskFor(models.CategoryFinance, "budget:sales"), testSnapshot(t))
	if err == nil {
		t.Fatal("Evaluate() should fail on a cancelled context")
	}
}
