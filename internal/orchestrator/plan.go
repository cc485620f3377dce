package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackoak/boardroom/internal/engine"
	"github.com/blackoak/boardroom/internal/resolve"
	"github.com/blackoak/boardroom/pkg/models"
)

// buildPlan assembles the draft plan from the engine output and the
// resolver's outcome. The plan starts in drafted; advancePlan and the
// governance gate move it from there.
func buildPlan(goal *models.Goal, tasks []*models.SubTask, engResult *engine.Result, outcome *resolve.Outcome) *models.Plan {
	plan := &models.Plan{
		ID:                  uuid.New().String()[:8],
		GoalID:              goal.ID,
		State:               models.PlanDrafted,
		BudgetByCategory:    make(map[models.Category]float64),
		HeadcountByCategory: make(map[models.Category]int),
		CreatedAt:           time.Now(),
	}

	// Recommendations named in escalated conflicts carry the escalation flag
	// so a later override stays visible per action.
	flagged := make(map[string]bool)
	for _, c := range outcome.Escalated {
		for _, id := range c.RecommendationIDs {
			flagged[id] = true
		}
	}

	for _, rec := range engResult.Recommendations {
		action := models.PlanAction{
			SubTaskID:      rec.SubTaskID,
			Category:       rec.Category,
			Action:         rec.ProposedAction,
			Status:         models.ActionAdopted,
			Cost:           rec.EstimatedCost,
			Confidence:     rec.Confidence,
			Impact:         rec.EstimatedImpact,
			HeadcountDelta: rec.HeadcountDelta,
			Citations:      rec.Citations,
			Unsupported:    rec.Unsupported(),
		}
		if outcome.Deferred[rec.SubTaskID] {
			action.Status = models.ActionDeferred
		}
		if flagged[rec.SubTaskID] {
			action.Status = models.ActionEscalated
			action.Flag = models.FlagEscalated
		}
		plan.Actions = append(plan.Actions, action)

		if action.Status == models.ActionAdopted || action.Status == models.ActionEscalated {
			plan.BudgetByCategory[rec.Category] += rec.EstimatedCost
			plan.HeadcountByCategory[rec.Category] += rec.HeadcountDelta
		}
	}

	// Cost-weighted confidence over adopted and escalated actions.
	var weighted, totalCost float64
	for _, a := range plan.Actions {
		if a.Status != models.ActionAdopted && a.Status != models.ActionEscalated {
			continue
		}
		weighted += a.Confidence * a.Cost
		totalCost += a.Cost
	}
	plan.AggregateCost = totalCost
	if totalCost > 0 {
		plan.AggregateConfidence = weighted / totalCost
	}

	// Failed and blocked sub-tasks surface as residual risks instead of
	// silently narrowing the plan.
	for _, f := range engResult.Failures {
		plan.ResidualRisks = append(plan.ResidualRisks,
			fmt.Sprintf("%s analysis missing: sub-task %s failed (%s)", f.Category, f.SubTaskID, f.Reason))
	}
	for _, task := range tasks {
		switch task.Status {
		case models.SubTaskBlocked:
			plan.ResidualRisks = append(plan.ResidualRisks,
				fmt.Sprintf("%s analysis missing: sub-task %s blocked (%s)", task.Category, task.ID, task.BlockedReason))
		case models.SubTaskCancelled:
			plan.ResidualRisks = append(plan.ResidualRisks,
				fmt.Sprintf("%s analysis missing: sub-task %s cancelled", task.Category, task.ID))
		}
	}

	return plan
}
