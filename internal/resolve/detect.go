// Package resolve reconciles specialist recommendations: a total detection
// pass finds every conflict between them, then a precedence-driven resolution
// pass settles what it safely can and escalates the rest.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Detect runs the full detection pass. It is deterministic: recommendations
// are ordered by sub-task ID and every unordered pair is checked exactly once.
func Detect(goal *models.Goal, recs []*models.Recommendation, snap *state.Snapshot) []models.Conflict {
	ordered := make([]*models.Recommendation, len(recs))
	copy(ordered, recs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SubTaskID < ordered[j].SubTaskID })

	var conflicts []models.Conflict
	var conflictN int
	nextID := func() string {
		conflictN++
		return fmt.Sprintf("cf-%d", conflictN)
	}

	// Budget and headcount lines: recommendations drawing the same constrained
	// line beyond its remaining room overlap on that resource.
	conflicts = append(conflicts, lineOverlaps(ordered, snap, nextID, "$%.0f",
		func(r *models.Recommendation) (string, float64) {
			return r.BudgetLine, r.EstimatedCost
		})...)
	conflicts = append(conflicts, lineOverlaps(ordered, snap, nextID, "%.0f FTE",
		func(r *models.Recommendation) (string, float64) {
			if r.HeadcountDelta <= 0 {
				return "", 0
			}
			return r.HeadcountLine, float64(r.HeadcountDelta)
		})...)

	// Policy checks are per-recommendation against active policies and the
	// goal's own metric holds.
	for _, rec := range ordered {
		for _, policy := range snap.ByKind(state.KindPolicy) {
			if c := policyViolation(rec, policy.Metric, policy.Direction, policy.Key); c != nil {
				c.ID = nextID()
				conflicts = append(conflicts, *c)
			}
		}
		for _, gc := range goal.Constraints {
			if gc.Kind != models.ConstraintMetricHold {
				continue
			}
			if snapHasPolicyFor(snap, gc.Metric, gc.Direction) {
				continue // already checked via the state policy
			}
			if c := policyViolation(rec, gc.Metric, gc.Direction, ""); c != nil {
				c.ID = nextID()
				conflicts = append(conflicts, *c)
			}
		}
	}

	// Contradictory claims: every unordered pair, every shared metric.
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			a, b := ordered[i], ordered[j]
			for _, claim := range a.Claims {
				other, ok := b.ClaimOn(claim.Metric)
				if !ok || !claim.Direction.Opposes(other.Direction) {
					continue
				}
				conflicts = append(conflicts, models.Conflict{
					ID:                nextID(),
					Kind:              models.ConflictContradictoryClaim,
					RecommendationIDs: []string{a.SubTaskID, b.SubTaskID},
					Severity:          models.SeverityHigh,
					Metric:            claim.Metric,
					Description: fmt.Sprintf("%s claims %s will %s, %s claims it will %s",
						a.SubTaskID, claim.Metric, claim.Direction, b.SubTaskID, other.Direction),
				})
			}
		}
	}

	// Total cost against the goal's declared ceiling.
	if goal.MaxBudget > 0 {
		var total float64
		var ids []string
		for _, rec := range ordered {
			total += rec.EstimatedCost
			ids = append(ids, rec.SubTaskID)
		}
		if total > goal.MaxBudget {
			conflicts = append(conflicts, models.Conflict{
				ID:                nextID(),
				Kind:              models.ConflictBudgetExceeded,
				RecommendationIDs: ids,
				Severity:          models.SeverityHigh,
				Description: fmt.Sprintf("combined cost $%.0f exceeds goal budget $%.0f",
					total, goal.MaxBudget),
			})
		}
	}

	return conflicts
}

// lineOverlaps finds resource overlaps on one kind of constrained line.
// lineOf maps a recommendation to the line it draws on and its demand; an
// empty line means the recommendation does not draw on this kind.
func lineOverlaps(recs []*models.Recommendation, snap *state.Snapshot, nextID func() string,
	amountFmt string, lineOf func(*models.Recommendation) (string, float64)) []models.Conflict {

	byLine := make(map[string][]*models.Recommendation)
	demand := make(map[string]float64)
	for _, rec := range recs {
		line, d := lineOf(rec)
		if line == "" {
			continue
		}
		byLine[line] = append(byLine[line], rec)
		demand[line] += d
	}

	lines := make([]string, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Strings(lines)

	var conflicts []models.Conflict
	for _, line := range lines {
		group := byLine[line]
		if len(group) < 2 {
			continue
		}
		entry, ok := snap.Get(line)
		if !ok {
			continue
		}
		if demand[line] <= entry.Available() {
			continue
		}
		ids := make([]string, 0, len(group))
		for _, rec := range group {
			ids = append(ids, rec.SubTaskID)
		}
		conflicts = append(conflicts, models.Conflict{
			ID:                nextID(),
			Kind:              models.ConflictResourceOverlap,
			RecommendationIDs: ids,
			Severity:          models.SeverityMedium,
			ResourceKey:       line,
			Description: fmt.Sprintf("%s demand %s exceeds available %s across %s",
				line, fmt.Sprintf(amountFmt, demand[line]), fmt.Sprintf(amountFmt, entry.Available()),
				strings.Join(ids, ", ")),
		})
	}
	return conflicts
}

// policyViolation checks one recommendation against one metric hold.
// A recommendation violates a hold on "headcount" by requesting hires, and
// any other hold by claiming the forbidden movement of the metric.
func policyViolation(rec *models.Recommendation, metric, direction, policyKey string) *models.Conflict {
	violates := false
	if metric == "headcount" && direction == "increase" {
		violates = rec.HeadcountDelta > 0
	} else if claim, ok := rec.ClaimOn(metric); ok {
		violates = string(claim.Direction) == direction
	}
	if !violates {
		return nil
	}

	desc := fmt.Sprintf("%s moves %s %s despite an active hold", rec.SubTaskID, metric, direction)
	return &models.Conflict{
		Kind:              models.ConflictPolicyViolation,
		RecommendationIDs: []string{rec.SubTaskID},
		Severity:          models.SeverityCritical,
		ResourceKey:       policyKey,
		Metric:            metric,
		Description:       desc,
	}
}

func snapHasPolicyFor(snap *state.Snapshot, metric, direction string) bool {
	for _, p := range snap.ByKind(state.KindPolicy) {
		if p.Metric == metric && p.Direction == direction {
			return true
		}
	}
	return false
}
