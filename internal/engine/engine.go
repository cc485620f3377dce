// Package engine executes a decomposed goal: sub-tasks run in dependency
// waves, each wave fanned out concurrently against one shared-state snapshot.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/blackoak/boardroom/internal/audit"
	"github.com/blackoak/boardroom/internal/graph"
	"github.com/blackoak/boardroom/internal/registry"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// Result is the outcome of executing one goal's sub-task DAG.
type Result struct {
	// Recommendations holds every specialist recommendation, one per
	// completed sub-task, in completion order within waves.
	Recommendations []*models.Recommendation
	// Failures records specialists that failed or timed out.
	Failures []models.SpecialistFailure
	// Blocked lists sub-task IDs ruled out by a failed dependency.
	Blocked []string
	// Cancelled is set when the run was cancelled between waves.
	Cancelled bool
}

// Engine runs sub-task waves against registered specialists.
type Engine struct {
	registry *registry.Registry
	store    *state.Store
	log      *audit.Logger
	timeout  time.Duration
}

// New creates an engine. timeout bounds each specialist Evaluate call.
func New(reg *registry.Registry, store *state.Store, auditLog *audit.Logger, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{registry: reg, store: store, log: auditLog, timeout: timeout}
}

// Run executes the sub-task DAG for a goal. Specialist failures are local:
// the failed sub-task's dependents are blocked and the rest of the run
// continues. Routing failures are structural and abort the run after being
// audit-logged. Cancellation is honored between waves; the partial result is
// returned with Cancelled set.
func (e *Engine) Run(ctx context.Context, goal *models.Goal, tasks []*models.SubTask) (*Result, error) {
	g := graph.New()
	if err := g.Build(tasks); err != nil {
		return nil, fmt.Errorf("build dependency graph: %w", err)
	}

	result := &Result{}
	for {
		if err := ctx.Err(); err != nil {
			e.cancelPending(goal, g, result)
			return result, nil
		}

		wave := g.Ready()
		if len(wave) == 0 {
			break
		}

		if err := e.runWave(ctx, goal, g, wave, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// runWave dispatches one wave concurrently against a single snapshot and
// waits for every sub-task in it before returning.
func (e *Engine) runWave(ctx context.Context, goal *models.Goal, g *graph.DependencyGraph, wave []string, result *Result) error {
	snap := e.store.Snapshot()
	log.Debug().Str("goal", goal.ID).Int("size", len(wave)).Int64("state_version", snap.Version).Msg("dispatching wave")

	// Resolve every specialist before dispatching anything: an unregistered
	// category is a wiring error, not a specialist failure.
	specialists := make(map[string]registry.Specialist, len(wave))
	for _, id := range wave {
		task := g.Task(id)
		spec, err := e.registry.Route(task.Category)
		if err != nil {
			e.failTask(goal, g, task, "unregistered_category", err.Error(), result)
			e.cancelPending(goal, g, result)
			return fmt.Errorf("route sub-task %s: %w", task.ID, err)
		}
		specialists[id] = spec
	}

	var mu sync.Mutex
	var failed []string

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, id := range wave {
		task := g.Task(id)
		spec := specialists[id]
		task.Status = models.SubTaskDispatched
		e.log.Append(audit.Record{
			Type: audit.TypeDispatch, GoalID: goal.ID, SubTaskID: task.ID,
			Actor:     "engine",
			Summary:   fmt.Sprintf("dispatched %s to %s specialist", task.TaskType, task.Category),
			Citations: task.RequiredKeys,
			Details:   map[string]any{"state_version": snap.Version},
		})

		grp.Go(func() error {
			callCtx, cancel := context.WithTimeout(grpCtx, e.timeout)
			defer cancel()

			rec, err := spec.Evaluate(callCtx, task, snap)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				reason := "evaluate_error"
				if errors.Is(err, context.DeadlineExceeded) {
					reason = "timeout"
				}
				task.Status = models.SubTaskFailed
				result.Failures = append(result.Failures, models.SpecialistFailure{
					SubTaskID:  task.ID,
					Category:   task.Category,
					Reason:     reason,
					Detail:     err.Error(),
					OccurredAt: time.Now(),
				})
				failed = append(failed, task.ID)
				e.log.Append(audit.Record{
					Type: audit.TypeFailure, GoalID: goal.ID, SubTaskID: task.ID,
					Actor:   fmt.Sprintf("specialist:%s", task.Category),
					Summary: fmt.Sprintf("%s specialist failed: %s", task.Category, reason),
					Details: map[string]any{"reason": reason, "error": err.Error()},
				})
				return nil
			}

			task.Status = models.SubTaskCompleted
			result.Recommendations = append(result.Recommendations, rec)
			e.log.Append(audit.Record{
				Type: audit.TypeRecommendation, GoalID: goal.ID, SubTaskID: task.ID,
				Actor:      fmt.Sprintf("specialist:%s", task.Category),
				Summary:    rec.ProposedAction,
				Citations:  rec.Citations,
				Confidence: rec.Confidence,
				Details:    map[string]any{"cost": rec.EstimatedCost, "impact": rec.EstimatedImpact},
			})
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return err
	}

	// Wave barrier: settle completions and blocked propagation before the
	// next Ready pass.
	for _, id := range wave {
		if g.Task(id).Status == models.SubTaskCompleted {
			g.MarkComplete(id)
		}
	}
	for _, id := range failed {
		blocked := g.MarkFailed(id)
		result.Blocked = append(result.Blocked, blocked...)
		for _, blockedID := range blocked {
			e.log.Append(audit.Record{
				Type: audit.TypeFailure, GoalID: goal.ID, SubTaskID: blockedID,
				Actor:   "engine",
				Summary: fmt.Sprintf("blocked by failed dependency %s", id),
				Details: map[string]any{"failed_dependency": id},
			})
		}
	}
	return nil
}

// failTask marks a sub-task failed for a structural reason and blocks its
// dependents.
func (e *Engine) failTask(goal *models.Goal, g *graph.DependencyGraph, task *models.SubTask, reason, detail string, result *Result) {
	task.Status = models.SubTaskFailed
	result.Failures = append(result.Failures, models.SpecialistFailure{
		SubTaskID:  task.ID,
		Category:   task.Category,
		Reason:     reason,
		Detail:     detail,
		OccurredAt: time.Now(),
	})
	e.log.Append(audit.Record{
		Type: audit.TypeFailure, GoalID: goal.ID, SubTaskID: task.ID,
		Actor:   "engine",
		Summary: fmt.Sprintf("sub-task failed: %s", reason),
		Details: map[string]any{"reason": reason, "error": detail},
	})
	result.Blocked = append(result.Blocked, g.MarkFailed(task.ID)...)
}

// cancelPending marks every non-terminal sub-task cancelled and audit-logs
// the partial run.
func (e *Engine) cancelPending(goal *models.Goal, g *graph.DependencyGraph, result *Result) {
	result.Cancelled = true
	for _, task := range g.Pending() {
		if task.Status.Terminal() {
			continue
		}
		task.Status = models.SubTaskCancelled
		e.log.Append(audit.Record{
			Type: audit.TypeCancellation, GoalID: goal.ID, SubTaskID: task.ID,
			Actor:   "engine",
			Summary: "sub-task cancelled before dispatch",
		})
	}
	e.log.Append(audit.Record{
		Type: audit.TypeCancellation, GoalID: goal.ID,
		Actor:   "engine",
		Summary: fmt.Sprintf("run cancelled with %d recommendations collected", len(result.Recommendations)),
	})
}
