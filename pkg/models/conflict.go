package models

// ConflictKind classifies a detected contradiction between recommendations.
type ConflictKind string

const (
	// ConflictResourceOverlap means two recommendations draw the same
	// constrained budget or headcount line beyond its limit.
	ConflictResourceOverlap ConflictKind = "resource_overlap"
	// ConflictPolicyViolation means a recommendation contradicts an active
	// shared-state policy.
	ConflictPolicyViolation ConflictKind = "policy_violation"
	// ConflictContradictoryClaim means two recommendations assert
	// incompatible facts about the same metric.
	ConflictContradictoryClaim ConflictKind = "contradictory_claim"
	// ConflictBudgetExceeded means the summed cost of all recommendations
	// exceeds the goal's declared budget constraint.
	ConflictBudgetExceeded ConflictKind = "budget_exceeded"
)

// Valid returns true if the kind is a known value.
func (k ConflictKind) Valid() bool {
	switch k {
	case ConflictResourceOverlap, ConflictPolicyViolation,
		ConflictContradictoryClaim, ConflictBudgetExceeded:
		return true
	default:
		return false
	}
}

// Severity ranks how serious a conflict is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Conflict is one detected contradiction, created by the resolver.
type Conflict struct {
	// ID is the unique identifier for this conflict.
	ID string `json:"id"`
	// Kind classifies the conflict.
	Kind ConflictKind `json:"conflict_kind"`
	// RecommendationIDs are the sub-task IDs of the recommendations involved.
	RecommendationIDs []string `json:"recommendation_ids"`
	// Severity ranks the conflict.
	Severity Severity `json:"severity"`
	// Description explains what was detected.
	Description string `json:"description"`
	// ResourceKey is the contended shared-state key, for resource conflicts.
	ResourceKey string `json:"resource_key,omitempty"`
	// Metric is the disputed metric, for claim and policy conflicts.
	Metric string `json:"metric,omitempty"`
}

// ResolutionStrategy is how a conflict was resolved.
type ResolutionStrategy string

const (
	// StrategyMerge combines the conflicting recommendations into one action.
	StrategyMerge ResolutionStrategy = "merge"
	// StrategyPrioritize adopts one recommendation and defers the other.
	StrategyPrioritize ResolutionStrategy = "prioritize"
	// StrategyEscalate defers the decision to the governance gate.
	StrategyEscalate ResolutionStrategy = "escalate"
	// StrategyReject drops the offending recommendation outright.
	StrategyReject ResolutionStrategy = "reject"
)

// Resolution records how one conflict was settled.
type Resolution struct {
	// ConflictID is the conflict this resolution settles.
	ConflictID string `json:"conflict_id"`
	// Strategy is the applied resolution strategy.
	Strategy ResolutionStrategy `json:"strategy"`
	// ResultingAction describes the outcome (adopted/deferred/escalated recs).
	ResultingAction string `json:"resulting_action"`
	// Rationale explains why this strategy was chosen.
	Rationale string `json:"rationale"`
	// WinnerID is the adopted recommendation for prioritize resolutions.
	WinnerID string `json:"winner_id,omitempty"`
	// LoserID is the deferred recommendation for prioritize resolutions.
	LoserID string `json:"loser_id,omitempty"`
	// Citations reference the shared-state keys supporting the resolution.
	Citations []string `json:"citation_list,omitempty"`
}

// Unsupported returns true if the resolution cites no shared-state entry.
func (r *Resolution) Unsupported() bool {
	return len(r.Citations) == 0
}
