// Package parse turns a natural-language goal submission into a structured
// Goal. A rule-based parser covers the known goal shapes; an Anthropic-backed
// parser sits behind the same interface for free-form text.
package parse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackoak/boardroom/pkg/models"
)

// ErrParseAmbiguity indicates the goal text could not be parsed into a
// recognized objective. Recoverable: the caller should rephrase and resubmit.
var ErrParseAmbiguity = errors.New("goal text is ambiguous")

// Parsed is the parser's structured reading of the goal text.
type Parsed struct {
	// Objective is the recognized objective kind (e.g. "improve_retention").
	Objective string
	// TargetMetric is the metric the goal moves.
	TargetMetric string
	// TargetValue is the desired fractional delta on the target metric.
	TargetValue float64
	// Constraints are constraints recognized from the text.
	Constraints []models.GoalConstraint
	// MaxBudget is a budget ceiling recognized from the text. Zero if none.
	MaxBudget float64
}

// Parser extracts structure from goal text.
type Parser interface {
	Parse(ctx context.Context, text string) (*Parsed, error)
}

// Submission is one goal submission: raw text plus optional structured
// fields that take precedence over whatever the parser extracts.
type Submission struct {
	// Text is the natural-language goal.
	Text string
	// Constraints are explicit structured constraints, merged after parsing.
	Constraints []models.GoalConstraint
	// MaxBudget overrides any parsed budget ceiling when non-zero.
	MaxBudget float64
	// Deadline is the declared deadline, if any.
	Deadline time.Time
}

// Submit parses a submission into an immutable Goal, capturing the shared
// state version the run will reason against. Structured submission fields
// win over parsed ones; parsed constraints not restated are kept.
func Submit(ctx context.Context, p Parser, sub Submission, stateVersion int64) (*models.Goal, error) {
	if sub.Text == "" {
		return nil, fmt.Errorf("%w: empty goal text", ErrParseAmbiguity)
	}

	parsed, err := p.Parse(ctx, sub.Text)
	if err != nil {
		return nil, err
	}

	goal := &models.Goal{
		ID:           uuid.New().String()[:8],
		RawText:      sub.Text,
		Objective:    parsed.Objective,
		TargetMetric: parsed.TargetMetric,
		TargetValue:  parsed.TargetValue,
		Constraints:  mergeConstraints(parsed.Constraints, sub.Constraints),
		MaxBudget:    parsed.MaxBudget,
		Deadline:     sub.Deadline,
		StateVersion: stateVersion,
		CreatedAt:    time.Now(),
	}
	if sub.MaxBudget > 0 {
		goal.MaxBudget = sub.MaxBudget
	}
	if goal.MaxBudget > 0 {
		goal.Constraints = append(goal.Constraints, models.GoalConstraint{
			Kind:        models.ConstraintBudgetCap,
			Limit:       goal.MaxBudget,
			Description: fmt.Sprintf("total plan cost must stay under $%.0f", goal.MaxBudget),
		})
	}
	return goal, nil
}

// mergeConstraints overlays explicit constraints on parsed ones. An explicit
// constraint replaces a parsed constraint of the same kind and metric.
func mergeConstraints(parsed, explicit []models.GoalConstraint) []models.GoalConstraint {
	out := make([]models.GoalConstraint, 0, len(parsed)+len(explicit))
	for _, pc := range parsed {
		replaced := false
		for _, ec := range explicit {
			if ec.Kind == pc.Kind && ec.Metric == pc.Metric {
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, pc)
		}
	}
	return append(out, explicit...)
}
