// Package registry maps specialist domains to their implementations and
// routes sub-tasks to the right one.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// ErrUnregisteredCategory indicates a sub-task routed to a category with no
// registered specialist.
var ErrUnregisteredCategory = errors.New("no specialist registered for category")

// Specialist evaluates sub-tasks for one domain. Implementations read the
// snapshot they are given and never write shared state.
type Specialist interface {
	// Category is the domain the specialist serves.
	Category() models.Category
	// Evaluate produces a recommendation for the sub-task against the snapshot.
	Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error)
}

// Registry holds the registered specialists.
type Registry struct {
	mu          sync.RWMutex
	specialists map[models.Category]Specialist
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{specialists: make(map[models.Category]Specialist)}
}

// Register adds a specialist under its category, replacing any previous one.
// Rejects specialists whose category is not a known domain.
func (r *Registry) Register(s Specialist) error {
	cat := s.Category()
	if !cat.Valid() {
		return fmt.Errorf("invalid specialist category %q", cat)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.specialists[cat] = s
	return nil
}

// Route returns the specialist for a category.
func (r *Registry) Route(cat models.Category) (Specialist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.specialists[cat]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredCategory, cat)
	}
	return s, nil
}

// Categories returns the registered categories, sorted.
func (r *Registry) Categories() []models.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cats := make([]models.Category, 0, len(r.specialists))
	for c := range r.specialists {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}
