// Package specialist implements the six domain advisors. Each one reads the
// shared-state snapshot and the enterprise data source, and returns a
// structured recommendation; none of them ever writes state.
package specialist

import (
	"context"
	"time"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// base carries what every specialist shares: its domain and the read-only
// enterprise data source.
type base struct {
	category models.Category
	data     *enterprise.Source
}

func (b *base) Category() models.Category { return b.category }

// citations returns the sub-task's required keys that actually resolve in
// the snapshot. Keys missing from the snapshot are not citable evidence.
func (b *base) citations(task *models.SubTask, snap *state.Snapshot) []string {
	var cited []string
	for _, key := range task.RequiredKeys {
		if snap.Has(key) {
			cited = append(cited, key)
		}
	}
	return cited
}

// confidence scales a base level by evidence coverage: each resolved citation
// adds a little, missing enterprise data subtracts. Clamped to [0.1, 0.95].
func (b *base) confidence(baseLevel float64, citations int, dataAvailable bool) float64 {
	c := baseLevel + 0.05*float64(citations)
	if !dataAvailable {
		c -= 0.2
	}
	if c > 0.95 {
		c = 0.95
	}
	if c < 0.1 {
		c = 0.1
	}
	return c
}

// budgetAvailable returns the remaining room on the category's budget line.
func (b *base) budgetAvailable(snap *state.Snapshot) (string, float64) {
	key := "budget:" + string(b.category)
	if entry, ok := snap.Get(key); ok {
		return key, entry.Available()
	}
	return key, 0
}

// finish stamps the common recommendation fields.
func (b *base) finish(rec *models.Recommendation, task *models.SubTask) *models.Recommendation {
	rec.SubTaskID = task.ID
	rec.Category = b.category
	rec.ProducedAt = time.Now()
	return rec
}

// checkCtx lets long evaluations honor cancellation and timeouts.
func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
