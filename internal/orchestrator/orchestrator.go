// Package orchestrator runs the whole goal pipeline: parse, decompose,
// execute, resolve, review. One Submit call takes a natural-language goal to
// a terminal (or decision-awaiting) plan.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/decompose"
	"github.com/blackoak/boardroom/internal/engine"
	"github.com/blackoak/boardroom/internal/govern"
	"github.com/blackoak/boardroom/internal/parse"
	"github.com/blackoak/boardroom/internal/registry"
	"github.com/blackoak/boardroom/internal/resolve"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// DecisionFunc supplies the CEO decision for an escalated plan. Returning
// nil leaves the plan awaiting a decision.
type DecisionFunc func(goal *models.Goal, plan *models.Plan, items []govern.EscalationItem) *govern.Decision

// Orchestrator wires the pipeline components and tracks active runs.
type Orchestrator struct {
	store    *state.Store
	registry *registry.Registry
	log      *audit.Logger
	parser   parse.Parser

	specialistTimeout time.Duration
	decide            DecisionFunc

	mu         sync.Mutex
	thresholds govern.Thresholds
	runs       map[string]context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParser sets the goal parser. Defaults to the rule-based parser.
func WithParser(p parse.Parser) Option {
	return func(o *Orchestrator) { o.parser = p }
}

// WithThresholds sets the governance thresholds.
func WithThresholds(t govern.Thresholds) Option {
	return func(o *Orchestrator) { o.thresholds = t }
}

// WithSpecialistTimeout bounds each specialist Evaluate call.
func WithSpecialistTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.specialistTimeout = d }
}

// WithDecisionFunc sets the CEO decision callback for escalated plans.
func WithDecisionFunc(f DecisionFunc) Option {
	return func(o *Orchestrator) { o.decide = f }
}

// New creates an orchestrator over a shared-state store, a specialist
// registry, and an audit log.
func New(store *state.Store, reg *registry.Registry, auditLog *audit.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:             store,
		registry:          reg,
		log:               auditLog,
		parser:            parse.NewRuleParser(),
		specialistTimeout: 30 * time.Second,
		thresholds: govern.Thresholds{
			CostCeiling:      500_000,
			ConfidenceFloor:  0.6,
			HeadcountCeiling: 20,
			MaxCategories:    3,
		},
		runs: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunResult is everything a Submit call produced.
type RunResult struct {
	// Goal is the parsed goal.
	Goal *models.Goal
	// Plan is the assembled plan in its final state.
	Plan *models.Plan
	// Failures lists specialists that failed or timed out.
	Failures []models.SpecialistFailure
	// Escalations lists why the plan needed (or needs) explicit approval.
	Escalations []govern.EscalationItem
	// AwaitingDecision is set when the plan sits in governance_reviewed
	// without a CEO decision.
	AwaitingDecision bool
	// Rejected is set when governance rejected the plan.
	Rejected bool
	// Cancelled is set when the run was cancelled mid-execution.
	Cancelled bool
}

// Submit runs one goal end to end.
func (o *Orchestrator) Submit(ctx context.Context, sub parse.Submission) (*RunResult, error) {
	goal, err := parse.Submit(ctx, o.parser, sub, o.store.Version())
	if err != nil {
		return nil, err
	}
	o.log.Append(audit.Record{
		Type: audit.TypeGoalSubmitted, GoalID: goal.ID,
		Actor:     "parser",
		Summary:   fmt.Sprintf("goal %q parsed as %s", goal.RawText, goal.Objective),
		Details:   map[string]any{"target_metric": goal.TargetMetric, "target_value": goal.TargetValue, "state_version": goal.StateVersion},
	})

	snap := o.store.Snapshot()
	tasks, err := decompose.Decompose(goal, snap)
	if err != nil {
		o.log.Append(audit.Record{
			Type: audit.TypeFailure, GoalID: goal.ID,
			Actor:   "decomposer",
			Summary: fmt.Sprintf("decomposition failed: %v", err),
		})
		return nil, err
	}
	taskIDs := make([]string, len(tasks))
	for i, task := range tasks {
		taskIDs[i] = task.ID
	}
	o.log.Append(audit.Record{
		Type: audit.TypeDecomposition, GoalID: goal.ID,
		Actor:   "decomposer",
		Summary: fmt.Sprintf("decomposed into %d sub-tasks", len(tasks)),
		Details: map[string]any{"subtasks": taskIDs},
	})

	runCtx, cancel := context.WithCancel(ctx)
	o.trackRun(goal.ID, cancel)
	defer o.untrackRun(goal.ID)

	eng := engine.New(o.registry, o.store, o.log, o.specialistTimeout)
	engResult, err := eng.Run(runCtx, goal, tasks)
	if err != nil {
		return nil, err
	}

	outcome := resolve.New(o.log).Run(goal, engResult.Recommendations, o.store.Snapshot())
	plan := buildPlan(goal, tasks, engResult, outcome)

	if err := advancePlan(plan, outcome); err != nil {
		return nil, err
	}

	result := &RunResult{
		Goal:      goal,
		Plan:      plan,
		Failures:  engResult.Failures,
		Cancelled: engResult.Cancelled,
	}

	gate := govern.New(o.currentThresholds(), o.store, o.log)
	items := gate.Review(goal, plan, outcome.Escalated)
	result.Escalations = items

	var decision *govern.Decision
	if len(items) > 0 && o.decide != nil {
		decision = o.decide(goal, plan, items)
	}

	switch err := gate.Finalize(goal, plan, items, decision); {
	case err == nil:
	case errors.Is(err, govern.ErrDecisionRequired):
		result.AwaitingDecision = true
	default:
		var rejection *govern.GovernanceRejection
		if errors.As(err, &rejection) {
			result.Rejected = true
		} else {
			return nil, err
		}
	}

	// Alignment is settled only after governance: an approved plan has
	// either no policy conflicts or explicit overrides for them.
	if plan.State == models.PlanApproved {
		plan.Alignment = models.AlignmentVerified
	} else if len(outcome.Escalated) > 0 {
		plan.Alignment = models.AlignmentNeedsResolution
	} else {
		plan.Alignment = models.AlignmentVerified
	}

	o.log.Append(audit.Record{
		Type: audit.TypePlanEmitted, GoalID: goal.ID,
		Actor:      "orchestrator",
		Summary:    fmt.Sprintf("plan %s emitted in state %s", plan.ID, plan.State),
		Confidence: plan.AggregateConfidence,
		Details: map[string]any{
			"actions":   len(plan.Actions),
			"cost":      plan.AggregateCost,
			"alignment": string(plan.Alignment),
		},
	})
	log.Info().Str("goal", goal.ID).Str("plan", plan.ID).Str("state", string(plan.State)).Msg("run finished")
	return result, nil
}

// UpdateThresholds replaces the governance thresholds. Safe to call while
// runs are active; each run uses the thresholds current at its governance
// review. This is the hook for live config reloads.
func (o *Orchestrator) UpdateThresholds(t govern.Thresholds) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.thresholds = t
}

func (o *Orchestrator) currentThresholds() govern.Thresholds {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.thresholds
}

// Cancel cancels an active run. Returns false if the goal is not running.
func (o *Orchestrator) Cancel(goalID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	cancel, ok := o.runs[goalID]
	if ok {
		cancel()
	}
	return ok
}

// ActiveRuns returns the goal IDs currently executing, sorted.
func (o *Orchestrator) ActiveRuns() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.runs))
	for id := range o.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (o *Orchestrator) trackRun(goalID string, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs[goalID] = cancel
}

func (o *Orchestrator) untrackRun(goalID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.runs, goalID)
}

// advancePlan walks the plan through its pre-review states based on what the
// resolver found.
func advancePlan(plan *models.Plan, outcome *resolve.Outcome) error {
	if len(outcome.Conflicts) == 0 {
		return plan.Advance(models.PlanAutoResolved)
	}
	if err := plan.Advance(models.PlanConflictsDetected); err != nil {
		return err
	}
	if outcome.AutoResolved() {
		return plan.Advance(models.PlanAutoResolved)
	}
	return plan.Advance(models.PlanEscalated)
}
