package specialist

import (
	"context"
	"fmt"

	"github.com/blackoak/boardroom/internal/enterprise"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// HR advises on hiring and staffing.
type HR struct {
	base
}

// NewHR creates the HR specialist.
func NewHR(data *enterprise.Source) *HR {
	return &HR{base{category: models.CategoryHR, data: data}}
}

// Evaluate staffs the initiatives within the remaining hiring room. The
// headcount delta is capped at what the limits allow; HR never proposes
// hires the limits cannot absorb.
func (h *HR) Evaluate(ctx context.Context, task *models.SubTask, snap *state.Snapshot) (*models.Recommendation, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}

	records, err := h.data.Query("workforce", nil)
	dataOK := err == nil && len(records) > 0

	// Hires draw on one hiring limit: the line with the most room left.
	var line string
	var room int
	for _, e := range snap.ByKind(state.KindHeadcount) {
		if int(e.Available()) > room {
			room = int(e.Available())
			line = e.Key
		}
	}

	hires := 3
	if hires > room {
		hires = room
	}

	cited := h.citations(task, snap)
	budgetLine, _ := h.budgetAvailable(snap)

	action := fmt.Sprintf("Backfill %d delivery and support roles to staff the retention push", hires)
	if hires == 0 {
		action = "Reassign existing staff to the retention push; hiring limits leave no room for backfills"
	}

	return h.finish(&models.Recommendation{
		ProposedAction:  action,
		Confidence:      h.confidence(0.6, len(cited), dataOK),
		EstimatedCost:   float64(hires) * 40_000,
		EstimatedImpact: 0.03,
		BudgetLine:      budgetLine,
		HeadcountDelta:  hires,
		HeadcountLine:   line,
		TimelineDays:    90,
		Risks:           []string{"90-day ramp delays impact past the goal window"},
		Assumptions:     []string{"open roles can be filled at market rates"},
		Citations:       cited,
		WhatWouldChangeMind: []string{
			"attrition data showing internal reassignment would destabilize other teams",
		},
	}, task), nil
}
