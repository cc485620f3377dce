// Package audit provides the append-only decision log. Every decision point
// in a goal run (submission, decomposition, dispatch, recommendations,
// conflicts, resolutions, escalations, governance decisions, state commits)
// produces one immutable record, strictly ordered by sequence number and
// chained by integrity hash.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RecordType classifies an audit record.
type RecordType string

const (
	TypeGoalSubmitted      RecordType = "goal_submitted"
	TypeDecomposition      RecordType = "decomposition"
	TypeDispatch           RecordType = "dispatch"
	TypeRecommendation     RecordType = "recommendation"
	TypeFailure            RecordType = "failure"
	TypeConflictDetected   RecordType = "conflict_detected"
	TypeResolution         RecordType = "resolution"
	TypeEscalation         RecordType = "escalation"
	TypeGovernanceDecision RecordType = "governance_decision"
	TypeStateCommit        RecordType = "state_commit"
	TypePlanEmitted        RecordType = "plan_emitted"
	TypeCancellation       RecordType = "cancellation"
)

// ConfidenceBand buckets a confidence value for at-a-glance review.
type ConfidenceBand string

const (
	BandVeryLow  ConfidenceBand = "very_low"
	BandLow      ConfidenceBand = "low"
	BandMedium   ConfidenceBand = "medium"
	BandHigh     ConfidenceBand = "high"
	BandVeryHigh ConfidenceBand = "very_high"
)

// BandFor returns the band for a confidence in [0,1].
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence < 0.2:
		return BandVeryLow
	case confidence < 0.4:
		return BandLow
	case confidence < 0.6:
		return BandMedium
	case confidence < 0.8:
		return BandHigh
	default:
		return BandVeryHigh
	}
}

// Record is one immutable audit entry.
type Record struct {
	// Seq is the global sequence number, assigned on append.
	Seq int64 `json:"seq"`
	// Type classifies the decision point.
	Type RecordType `json:"type"`
	// GoalID is the goal run the record belongs to.
	GoalID string `json:"goal_id"`
	// SubTaskID is the sub-task involved, if any.
	SubTaskID string `json:"subtask_id,omitempty"`
	// Actor is who made the decision (parser, engine, resolver, governance, ceo).
	Actor string `json:"actor"`
	// Summary is the human-readable decision summary.
	Summary string `json:"summary"`
	// Details carries structured inputs and outputs of the decision.
	Details map[string]any `json:"details,omitempty"`
	// Citations reference the shared-state keys consulted.
	Citations []string `json:"citations,omitempty"`
	// Confidence is the decision confidence, where applicable.
	Confidence float64 `json:"confidence,omitempty"`
	// Band is the bucketed confidence, set on append when Confidence > 0.
	Band ConfidenceBand `json:"confidence_band,omitempty"`
	// At is when the record was appended.
	At time.Time `json:"at"`
	// PrevHash is the integrity hash of the preceding record.
	PrevHash string `json:"prev_hash"`
	// Hash is this record's integrity hash, covering all fields above.
	Hash string `json:"hash"`
}

// computeHash derives the integrity hash for a record whose Hash field is
// still empty. Details are serialized as canonical JSON so the hash is stable.
func computeHash(r Record) string {
	r.Hash = ""
	payload, _ := json.Marshal(r)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Sink persists appended records. Append failures surface to the caller;
// the in-memory log is the source of truth for the current process.
type Sink interface {
	Save(r Record) error
}

// Logger is the append-only audit log.
type Logger struct {
	mu      sync.Mutex
	records []Record
	seq     int64
	sink    Sink
	clock   func() time.Time
}

// NewLogger creates an empty in-memory audit log.
func NewLogger() *Logger {
	return &Logger{clock: time.Now}
}

// AttachSink attaches a persistence sink and replays any records it already
// holds into the in-memory log.
func (l *Logger) AttachSink(sink Sink) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if loader, ok := sink.(interface{ Load() ([]Record, error) }); ok {
		existing, err := loader.Load()
		if err != nil {
			return fmt.Errorf("load audit records: %w", err)
		}
		l.records = append(l.records, existing...)
		sort.Slice(l.records, func(i, j int) bool { return l.records[i].Seq < l.records[j].Seq })
		if n := len(l.records); n > 0 {
			l.seq = l.records[n-1].Seq
		}
	}
	l.sink = sink
	return nil
}

// Append assigns the next sequence number, stamps time, band, and integrity
// hash, and appends the record. Records are immutable once appended.
func (l *Logger) Append(r Record) (Record, error) {
	if r.Type == "" {
		return Record{}, fmt.Errorf("audit record requires a type")
	}
	if r.Actor == "" {
		return Record{}, fmt.Errorf("audit record requires an actor")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	r.Seq = l.seq
	r.At = l.clock()
	if r.Confidence > 0 {
		r.Band = BandFor(r.Confidence)
	}
	if n := len(l.records); n > 0 {
		r.PrevHash = l.records[n-1].Hash
	}
	r.Hash = computeHash(r)

	l.records = append(l.records, r)
	if l.sink != nil {
		if err := l.sink.Save(r); err != nil {
			log.Error().Err(err).Int64("seq", r.Seq).Str("type", string(r.Type)).Msg("audit sink save failed")
			return r, fmt.Errorf("persist audit record: %w", err)
		}
	}
	return r, nil
}

// All returns every record in sequence order.
func (l *Logger) All() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// ByGoal returns the records for one goal run, in causal (sequence) order.
func (l *Logger) ByGoal(goalID string) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Record
	for _, r := range l.records {
		if r.GoalID == goalID {
			out = append(out, r)
		}
	}
	return out
}

// Verify walks the hash chain and reports the first tampered record, if any.
func (l *Logger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := ""
	for _, r := range l.records {
		if r.PrevHash != prev {
			return fmt.Errorf("audit record %d: broken chain", r.Seq)
		}
		if computeHash(r) != r.Hash {
			return fmt.Errorf("audit record %d: hash mismatch", r.Seq)
		}
		prev = r.Hash
	}
	return nil
}

// Summary aggregates a log for reporting.
type Summary struct {
	// Total is the number of records.
	Total int `json:"total"`
	// ByType counts records per type.
	ByType map[RecordType]int `json:"by_type"`
	// Escalations counts escalation records.
	Escalations int `json:"escalations"`
	// AvgConfidence is the mean confidence over records that carry one.
	AvgConfidence float64 `json:"avg_confidence"`
	// Goals is the number of distinct goals seen.
	Goals int `json:"goals"`
}

// Report summarizes the records for a goal, or the whole log if goalID is empty.
func (l *Logger) Report(goalID string) Summary {
	var records []Record
	if goalID == "" {
		records = l.All()
	} else {
		records = l.ByGoal(goalID)
	}

	s := Summary{ByType: make(map[RecordType]int)}
	goals := make(map[string]bool)
	var confSum float64
	var confN int
	for _, r := range records {
		s.Total++
		s.ByType[r.Type]++
		if r.Type == TypeEscalation {
			s.Escalations++
		}
		if r.Confidence > 0 {
			confSum += r.Confidence
			confN++
		}
		if r.GoalID != "" {
			goals[r.GoalID] = true
		}
	}
	if confN > 0 {
		s.AvgConfidence = confSum / float64(confN)
	}
	s.Goals = len(goals)
	return s
}
