// Package graph provides the sub-task dependency graph used for wave scheduling.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/blackoak/boardroom/pkg/models"
)

// ErrCyclicDependency indicates decomposition produced a circular dependency.
var ErrCyclicDependency = errors.New("cyclic dependency detected")

// DependencyGraph is a directed acyclic graph of sub-task dependencies.
// Sub-tasks are nodes; edges represent "blocked by" relationships.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps sub-task ID to the sub-task itself.
	nodes map[string]*models.SubTask
	// edges maps sub-task ID to the IDs it depends on.
	edges map[string][]string
	// completed tracks sub-tasks whose specialists returned a recommendation.
	completed map[string]bool
	// blocked tracks sub-tasks ruled out by a failed dependency.
	blocked map[string]bool
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]*models.SubTask),
		edges:     make(map[string][]string),
		completed: make(map[string]bool),
		blocked:   make(map[string]bool),
	}
}

// Build constructs the graph from decomposed sub-tasks.
// Returns ErrCyclicDependency if a cycle exists, or an error if a dependency
// references an unknown sub-task.
func (g *DependencyGraph) Build(tasks []*models.SubTask) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, task := range tasks {
		g.nodes[task.ID] = task
		g.edges[task.ID] = nil
	}

	for _, task := range tasks {
		for _, depID := range task.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return fmt.Errorf("sub-task %s depends on unknown sub-task %s", task.ID, depID)
			}
			g.edges[task.ID] = append(g.edges[task.ID], depID)
		}
	}

	if g.hasCycleLocked() {
		return ErrCyclicDependency
	}
	return nil
}

// HasCycle returns true if the graph contains a circular dependency.
// Uses depth-first search with coloring to detect back edges.
func (g *DependencyGraph) HasCycle() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycleLocked()
}

// hasCycleLocked assumes the lock is held.
// Color states: 0 = unvisited, 1 = in progress, 2 = done.
func (g *DependencyGraph) hasCycleLocked() bool {
	colors := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = 1
		for _, depID := range g.edges[id] {
			switch colors[depID] {
			case 1:
				return true
			case 0:
				if visit(depID) {
					return true
				}
			}
		}
		colors[id] = 2
		return false
	}

	for id := range g.nodes {
		if colors[id] == 0 && visit(id) {
			return true
		}
	}
	return false
}

// Ready returns the IDs of sub-tasks with no unmet dependencies that are
// neither completed, blocked, nor in a terminal status. These form the next
// wave and may be dispatched concurrently. The result is sorted for
// deterministic scheduling.
func (g *DependencyGraph) Ready() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for id, task := range g.nodes {
		if g.completed[id] || g.blocked[id] || task.Status.Terminal() {
			continue
		}
		if task.Status == models.SubTaskDispatched {
			continue
		}

		eligible := true
		for _, depID := range g.edges[id] {
			if !g.completed[depID] {
				eligible = false
				break
			}
		}
		if eligible {
			ready = append(ready, id)
		}
	}

	sort.Strings(ready)
	return ready
}

// MarkComplete records that a sub-task's specialist finished successfully,
// unblocking its dependents for subsequent Ready calls.
func (g *DependencyGraph) MarkComplete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[id] = true
}

// MarkFailed records a failed sub-task and transitively blocks every
// sub-task that depends on it. Blocked sub-tasks get their status and
// reason set so they surface in the plan rather than silently vanishing.
// Returns the IDs that were newly blocked.
func (g *DependencyGraph) MarkFailed(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var newlyBlocked []string
	queue := []string{id}
	for len(queue) > 0 {
		failed := queue[0]
		queue = queue[1:]
		for _, depID := range g.dependentsLocked(failed) {
			if g.blocked[depID] || g.completed[depID] {
				continue
			}
			g.blocked[depID] = true
			if task := g.nodes[depID]; task != nil && task.Status == models.SubTaskPending {
				task.Status = models.SubTaskBlocked
				task.BlockedReason = "dependency_failed:" + failed
			}
			newlyBlocked = append(newlyBlocked, depID)
			queue = append(queue, depID)
		}
	}

	sort.Strings(newlyBlocked)
	return newlyBlocked
}

// Pending returns sub-tasks that have not reached a terminal status.
func (g *DependencyGraph) Pending() []*models.SubTask {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var pending []*models.SubTask
	for id, task := range g.nodes {
		if g.completed[id] || task.Status.Terminal() {
			continue
		}
		pending = append(pending, task)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return pending
}

// Task returns the sub-task for an ID, or nil if not found.
func (g *DependencyGraph) Task(id string) *models.SubTask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Dependents returns the IDs of sub-tasks that depend on the given one.
func (g *DependencyGraph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dependentsLocked(id)
}

// dependentsLocked assumes the lock is held.
func (g *DependencyGraph) dependentsLocked(id string) []string {
	var dependents []string
	for nodeID, deps := range g.edges {
		for _, depID := range deps {
			if depID == id {
				dependents = append(dependents, nodeID)
				break
			}
		}
	}
	sort.Strings(dependents)
	return dependents
}

// Size returns the number of sub-tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
