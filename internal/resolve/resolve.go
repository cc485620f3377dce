package resolve

import (
	"errors"
	"fmt"
	"sort"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// ErrUnresolvableConflict marks a conflict no automatic strategy can settle.
// It never aborts a run; the conflict escalates to the governance gate.
var ErrUnresolvableConflict = errors.New("conflict cannot be auto-resolved")

// Outcome is the result of resolving one goal's conflicts.
type Outcome struct {
	// Conflicts is every detected conflict, in detection order.
	Conflicts []models.Conflict
	// Resolutions records how each conflict was settled, including escalations.
	Resolutions []models.Resolution
	// Escalated lists the conflicts deferred to governance.
	Escalated []models.Conflict
	// Deferred holds sub-task IDs whose recommendations lost a prioritization.
	Deferred map[string]bool
}

// AutoResolved reports whether every conflict settled without escalation.
func (o *Outcome) AutoResolved() bool {
	return len(o.Escalated) == 0
}

// Resolver settles detected conflicts by fixed precedence and records every
// decision in the audit log.
type Resolver struct {
	log *audit.Logger
}

// New creates a resolver.
func New(auditLog *audit.Logger) *Resolver {
	return &Resolver{log: auditLog}
}

// Run detects and resolves conflicts for a completed goal run.
//
// Precedence: policy violations and budget overruns always escalate; resource
// overlaps resolve by confidence×impact with the loser deferred, falling back
// to fewer unmet assumptions, then escalation; contradictory claims resolve
// by citation support and escalate when both or neither side is supported.
func (r *Resolver) Run(goal *models.Goal, recs []*models.Recommendation, snap *state.Snapshot) *Outcome {
	outcome := &Outcome{
		Conflicts: Detect(goal, recs, snap),
		Deferred:  make(map[string]bool),
	}

	byID := make(map[string]*models.Recommendation, len(recs))
	for _, rec := range recs {
		byID[rec.SubTaskID] = rec
	}

	for _, conflict := range outcome.Conflicts {
		r.log.Append(audit.Record{
			Type: audit.TypeConflictDetected, GoalID: goal.ID,
			Actor:   "resolver",
			Summary: conflict.Description,
			Details: map[string]any{
				"conflict_id": conflict.ID,
				"kind":        string(conflict.Kind),
				"severity":    string(conflict.Severity),
			},
		})

		var resolution models.Resolution
		switch conflict.Kind {
		case models.ConflictResourceOverlap:
			resolution = r.resolveOverlap(conflict, byID)
		case models.ConflictContradictoryClaim:
			resolution = r.resolveContradiction(conflict, byID, snap)
		default:
			// Policy violations and budget overruns are never settled here.
			resolution = models.Resolution{
				ConflictID:      conflict.ID,
				Strategy:        models.StrategyEscalate,
				ResultingAction: "escalated to governance gate",
				Rationale:       fmt.Sprintf("%s conflicts always require governance review", conflict.Kind),
			}
		}

		outcome.Resolutions = append(outcome.Resolutions, resolution)
		if resolution.Strategy == models.StrategyEscalate {
			outcome.Escalated = append(outcome.Escalated, conflict)
			r.log.Append(audit.Record{
				Type: audit.TypeEscalation, GoalID: goal.ID,
				Actor:   "resolver",
				Summary: fmt.Sprintf("conflict %s escalated: %s", conflict.ID, resolution.Rationale),
				Details: map[string]any{"conflict_id": conflict.ID, "kind": string(conflict.Kind)},
			})
		} else {
			if resolution.LoserID != "" {
				outcome.Deferred[resolution.LoserID] = true
			}
			r.log.Append(audit.Record{
				Type: audit.TypeResolution, GoalID: goal.ID,
				Actor:     "resolver",
				Summary:   resolution.ResultingAction,
				Citations: resolution.Citations,
				Details: map[string]any{
					"conflict_id": conflict.ID,
					"strategy":    string(resolution.Strategy),
					"rationale":   resolution.Rationale,
				},
			})
		}
	}

	return outcome
}

// resolveOverlap prioritizes the contenders on one budget line by
// confidence×impact; the loser is deferred, not discarded.
func (r *Resolver) resolveOverlap(conflict models.Conflict, byID map[string]*models.Recommendation) models.Resolution {
	contenders := make([]*models.Recommendation, 0, len(conflict.RecommendationIDs))
	for _, id := range conflict.RecommendationIDs {
		if rec, ok := byID[id]; ok {
			contenders = append(contenders, rec)
		}
	}
	if len(contenders) < 2 {
		return models.Resolution{
			ConflictID:      conflict.ID,
			Strategy:        models.StrategyEscalate,
			ResultingAction: "escalated to governance gate",
			Rationale:       "overlap contenders missing from recommendation set",
		}
	}

	sort.Slice(contenders, func(i, j int) bool {
		si, sj := contenders[i].Score(), contenders[j].Score()
		if si != sj {
			return si > sj
		}
		// Score tie: the recommendation resting on fewer assumptions wins.
		return len(contenders[i].Assumptions) < len(contenders[j].Assumptions)
	})

	winner, runnerUp := contenders[0], contenders[1]
	if winner.Score() == runnerUp.Score() && len(winner.Assumptions) == len(runnerUp.Assumptions) {
		return models.Resolution{
			ConflictID:      conflict.ID,
			Strategy:        models.StrategyEscalate,
			ResultingAction: "escalated to governance gate",
			Rationale: fmt.Sprintf("%v: %s and %s tie on score and assumptions",
				ErrUnresolvableConflict, winner.SubTaskID, runnerUp.SubTaskID),
		}
	}

	return models.Resolution{
		ConflictID: conflict.ID,
		Strategy:   models.StrategyPrioritize,
		ResultingAction: fmt.Sprintf("adopted %s on %s, deferred %s",
			winner.SubTaskID, conflict.ResourceKey, runnerUp.SubTaskID),
		Rationale: fmt.Sprintf("score %.3f beats %.3f on confidence×impact",
			winner.Score(), runnerUp.Score()),
		WinnerID:  winner.SubTaskID,
		LoserID:   runnerUp.SubTaskID,
		Citations: []string{conflict.ResourceKey},
	}
}

// resolveContradiction re-queries the cited state keys: a claim backed by
// entries the other side cannot match wins. Both sides supported, or neither,
// is irreconcilable here and escalates.
func (r *Resolver) resolveContradiction(conflict models.Conflict, byID map[string]*models.Recommendation, snap *state.Snapshot) models.Resolution {
	if len(conflict.RecommendationIDs) != 2 {
		return escalateContradiction(conflict, "claim conflict is not pairwise")
	}
	a, okA := byID[conflict.RecommendationIDs[0]]
	b, okB := byID[conflict.RecommendationIDs[1]]
	if !okA || !okB {
		return escalateContradiction(conflict, "claimants missing from recommendation set")
	}

	aSupported := citedInSnapshot(a, snap)
	bSupported := citedInSnapshot(b, snap)

	switch {
	case aSupported && !bSupported:
		return prioritizeClaim(conflict, a, b)
	case bSupported && !aSupported:
		return prioritizeClaim(conflict, b, a)
	default:
		return escalateContradiction(conflict, fmt.Sprintf(
			"%v: both sides equally supported on %s", ErrUnresolvableConflict, conflict.Metric))
	}
}

func prioritizeClaim(conflict models.Conflict, winner, loser *models.Recommendation) models.Resolution {
	return models.Resolution{
		ConflictID: conflict.ID,
		Strategy:   models.StrategyPrioritize,
		ResultingAction: fmt.Sprintf("trusted %s on %s, deferred %s",
			winner.SubTaskID, conflict.Metric, loser.SubTaskID),
		Rationale: "claim is backed by current shared-state citations; the opposing claim is not",
		WinnerID:  winner.SubTaskID,
		LoserID:   loser.SubTaskID,
		Citations: winner.Citations,
	}
}

func escalateContradiction(conflict models.Conflict, rationale string) models.Resolution {
	return models.Resolution{
		ConflictID:      conflict.ID,
		Strategy:        models.StrategyEscalate,
		ResultingAction: "escalated to governance gate",
		Rationale:       rationale,
	}
}

// citedInSnapshot reports whether any of the recommendation's citations
// resolve against the current snapshot.
func citedInSnapshot(rec *models.Recommendation, snap *state.Snapshot) bool {
	for _, key := range rec.Citations {
		if snap.Has(key) {
			return true
		}
	}
	return false
}
