// Package state provides the versioned shared state store: company policies,
// budgets, headcount limits, metrics, and active commitments.
//
// Readers take immutable snapshots; writes happen only through Commit, which
// is serialized and attributed. Specialists never write; the governance gate
// is the single writer.
package state

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// EntryKind classifies a shared-state entry.
type EntryKind string

const (
	// KindPolicy is an active business policy (e.g. a metric hold).
	KindPolicy EntryKind = "policy"
	// KindBudget is a departmental budget line with a limit and usage.
	KindBudget EntryKind = "budget"
	// KindHeadcount is a hiring limit for a department.
	KindHeadcount EntryKind = "headcount"
	// KindMetric is a tracked company metric's current value.
	KindMetric EntryKind = "metric"
	// KindCommitment is an active cross-department commitment.
	KindCommitment EntryKind = "commitment"
)

// Valid returns true if the kind is a known value.
func (k EntryKind) Valid() bool {
	switch k {
	case KindPolicy, KindBudget, KindHeadcount, KindMetric, KindCommitment:
		return true
	default:
		return false
	}
}

// Entry is one versioned shared-state record.
type Entry struct {
	// Key uniquely identifies the entry (e.g. "budget:marketing").
	Key string `json:"key" yaml:"key"`
	// Kind classifies the entry.
	Kind EntryKind `json:"kind" yaml:"kind"`
	// Description is the human-readable form.
	Description string `json:"description" yaml:"description"`
	// Limit is the ceiling for budget and headcount entries.
	Limit float64 `json:"limit,omitempty" yaml:"limit,omitempty"`
	// Used is current consumption against Limit.
	Used float64 `json:"used,omitempty" yaml:"used,omitempty"`
	// Value is the current value for metric entries.
	Value float64 `json:"value,omitempty" yaml:"value,omitempty"`
	// Unit is the unit of Limit/Value (e.g. "USD", "FTE", "ratio").
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`
	// Hard marks a limit that may never be exceeded, even with approval.
	Hard bool `json:"hard,omitempty" yaml:"hard,omitempty"`
	// Metric names the governed metric for policy entries.
	Metric string `json:"metric,omitempty" yaml:"metric,omitempty"`
	// Direction is the forbidden movement for policy entries.
	Direction string `json:"direction,omitempty" yaml:"direction,omitempty"`
	// Version is the store version at which this entry was last written.
	Version int64 `json:"version"`
	// Actor is who wrote the entry last.
	Actor string `json:"actor"`
	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Available returns the remaining room on a limited entry.
func (e Entry) Available() float64 {
	return e.Limit - e.Used
}

// Store is the versioned shared state store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	version int64
	db      *DB
	clock   func() time.Time
}

// NewStore creates an empty store at version zero.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
		clock:   time.Now,
	}
}

// AttachDB attaches a persistence backend. Existing persisted entries are
// loaded and become the store's current state.
func (s *Store) AttachDB(db *DB) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, version, err := db.LoadEntries()
	if err != nil {
		return fmt.Errorf("load persisted state: %w", err)
	}
	for _, e := range entries {
		s.entries[e.Key] = e
	}
	if version > s.version {
		s.version = version
	}
	s.db = db
	return nil
}

// Version returns the current store version.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Seed commits initial entries attributed to the system actor.
func (s *Store) Seed(entries []Entry) error {
	_, err := s.Commit("system", entries)
	return err
}

// Commit applies a set of entry writes in a single serialized transaction,
// attributing each to the actor and stamping the new store version.
// A write that would push a hard-limited entry past its limit fails the
// whole commit.
func (s *Store) Commit(actor string, writes []Entry) (int64, error) {
	if actor == "" {
		return 0, fmt.Errorf("commit requires an actor")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range writes {
		if w.Key == "" {
			return 0, fmt.Errorf("commit contains entry with empty key")
		}
		if w.Hard && w.Used > w.Limit {
			return 0, fmt.Errorf("hard limit exceeded on %s: used %.0f > limit %.0f", w.Key, w.Used, w.Limit)
		}
	}

	s.version++
	now := s.clock()
	committed := make([]Entry, 0, len(writes))
	for _, w := range writes {
		w.Version = s.version
		w.Actor = actor
		w.UpdatedAt = now
		s.entries[w.Key] = w
		committed = append(committed, w)
	}

	if s.db != nil {
		if err := s.db.SaveCommit(s.version, actor, now, committed); err != nil {
			return 0, fmt.Errorf("persist commit: %w", err)
		}
	}
	return s.version, nil
}

// Snapshot returns an immutable view of the store as of now. Snapshots are
// safe for concurrent use and never observe later commits.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make(map[string]Entry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	return &Snapshot{
		Version: s.version,
		TakenAt: s.clock(),
		entries: entries,
	}
}

// Snapshot is a consistent read-only view of the store at one version.
type Snapshot struct {
	// Version is the store version the snapshot was taken at.
	Version int64
	// TakenAt is when the snapshot was taken.
	TakenAt time.Time

	entries map[string]Entry
}

// Get returns the entry for a key.
func (sn *Snapshot) Get(key string) (Entry, bool) {
	e, ok := sn.entries[key]
	return e, ok
}

// Has reports whether the snapshot contains the key.
func (sn *Snapshot) Has(key string) bool {
	_, ok := sn.entries[key]
	return ok
}

// ByKind returns entries of a kind, sorted by key.
func (sn *Snapshot) ByKind(kind EntryKind) []Entry {
	var out []Entry
	for _, e := range sn.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Keys returns all keys in the snapshot, sorted.
func (sn *Snapshot) Keys() []string {
	keys := make([]string, 0, len(sn.entries))
	for k := range sn.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries in the snapshot.
func (sn *Snapshot) Len() int {
	return len(sn.entries)
}
