package state

import (
	"strings"
	"testing"
	"time"
)

func seedEntries() []Entry {
	return []Entry{
		{Key: "budget:marketing", Kind: KindBudget, Limit: 200_000, Used: 50_000, Unit: "USD"},
		{Key: "budget:sales", Kind: KindBudget, Limit: 300_000, Used: 100_000, Unit: "USD"},
		{Key: "policy:no_cac_increase", Kind: KindPolicy, Metric: "cac", Direction: "increase",
			Description: "customer acquisition cost must not rise"},
		{Key: "metric:retention_rate", Kind: KindMetric, Value: 0.72, Unit: "ratio"},
	}
}

func TestStore_SeedAndSnapshot(t *testing.T) {
	s := NewStore()
	if err := s.Seed(seedEntries()); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	if s.Version() != 1 {
		t.Errorf("Version() = %d, want 1", s.Version())
	}

	snap := s.Snapshot()
	if snap.Version != 1 {
		t.Errorf("snapshot version = %d, want 1", snap.Version)
	}
	if snap.Len() != 4 {
		t.Errorf("snapshot has %d entries, want 4", snap.Len())
	}

	e, ok := snap.Get("budget:marketing")
	if !ok {
		t.Fatal("budget:marketing missing from snapshot")
	}
	if e.Actor != "system" {
		t.Errorf("seeded actor = %q, want system", e.Actor)
	}
	if e.Available() != 150_000 {
		t.Errorf("Available() = %v, want 150000", e.Available())
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore()
	if err := s.Seed(seedEntries()); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}

	before := s.Snapshot()

	_, err := s.Commit("governance", []Entry{
		{Key: "budget:marketing", Kind: KindBudget, Limit: 200_000, Used: 180_000, Unit: "USD"},
	})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}

	// The snapshot taken before the commit must not observe it.
	e, _ := before.Get("budget:marketing")
	if e.Used != 50_000 {
		t.Errorf("snapshot observed later commit: used = %v", e.Used)
	}

	after := s.Snapshot()
	if after.Version != 2 {
		t.Errorf("post-commit version = %d, want 2", after.Version)
	}
	e, _ = after.Get("budget:marketing")
	if e.Used != 180_000 {
		t.Errorf("new snapshot used = %v, want 180000", e.Used)
	}
}

func TestStore_CommitRequiresActor(t *testing.T) {
	s := NewStore()
	if _, err := s.Commit("", []Entry{{Key: "metric:nps", Kind: KindMetric}}); err == nil {
		t.Fatal("Commit with empty actor should fail")
	}
}

func TestStore_CommitRejectsHardLimitBreach(t *testing.T) {
	s := NewStore()
	_, err := s.Commit("governance", []Entry{
		{Key: "budget:finance", Kind: KindBudget, Limit: 100_000, Used: 120_000, Hard: true},
	})
	if err == nil {
		t.Fatal("hard-limit breach should fail the commit")
	}
	if !strings.Contains(err.Error(), "hard limit exceeded") {
		t.Errorf("error = %v, want hard limit message", err)
	}
	if s.Version() != 0 {
		t.Errorf("failed commit bumped version to %d", s.Version())
	}
}

func TestStore_CommitStampsVersionAndTime(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewStore()
	s.clock = func() time.Time { return fixed }

	v, err := s.Commit("governance", []Entry{
		{Key: "headcount:hr", Kind: KindHeadcount, Limit: 10, Used: 4, Unit: "FTE"},
	})
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if v != 1 {
		t.Errorf("Commit() version = %d, want 1", v)
	}

	e, _ := s.Snapshot().Get("headcount:hr")
	if e.Version != 1 || e.Actor != "governance" || !e.UpdatedAt.Equal(fixed) {
		t.Errorf("stamped entry = %+v", e)
	}
}

func TestSnapshot_ByKind(t *testing.T) {
	s := NewStore()
	if err := s.Seed(seedEntries()); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}

	budgets := s.Snapshot().ByKind(KindBudget)
	if len(budgets) != 2 {
		t.Fatalf("ByKind(budget) returned %d entries, want 2", len(budgets))
	}
	if budgets[0].Key != "budget:marketing" || budgets[1].Key != "budget:sales" {
		t.Errorf("ByKind not sorted: %s, %s", budgets[0].Key, budgets[1].Key)
	}
}
