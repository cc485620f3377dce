// Package decompose turns a structured goal into a typed sub-task DAG.
// Decomposition is template-driven and deterministic: the same goal against
// the same state version always yields the same sub-tasks, IDs included.
package decompose

import (
	"fmt"
	"time"

	"github.com/blackoak/boardroom/internal/graph"
	"github.com/blackoak/boardroom/internal/state"
	"github.com/blackoak/boardroom/pkg/models"
)

// template is one sub-task blueprint within an objective's decomposition.
type template struct {
	category    models.Category
	taskType    string
	description string
	// requiredKinds lists the state entry kinds the specialist needs.
	requiredKinds []state.EntryKind
	// dependsOn lists categories whose sub-tasks must complete first.
	dependsOn []models.Category
}

// objectiveTemplates maps each recognized objective to its decomposition.
// Finance always depends on the revenue-side analyses so it can price them;
// HR depends on operations so staffing follows the process changes.
var objectiveTemplates = map[string][]template{
	"improve_retention": {
		{models.CategorySales, "account_risk_review", "Identify at-risk accounts and renewal levers", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategoryMarketing, "retention_campaign", "Design retention-focused campaigns within acquisition constraints", []state.EntryKind{state.KindBudget, state.KindPolicy, state.KindMetric}, nil},
		{models.CategorySupport, "churn_analysis", "Analyze churn drivers from support signals and propose service fixes", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategoryOperations, "delivery_improvement", "Streamline onboarding and delivery to reduce early churn", []state.EntryKind{state.KindBudget, state.KindCommitment}, nil},
		{models.CategoryFinance, "retention_investment_case", "Price the proposed retention initiatives against budgets", []state.EntryKind{state.KindBudget, state.KindMetric}, []models.Category{models.CategorySales, models.CategoryMarketing, models.CategorySupport, models.CategoryOperations}},
		{models.CategoryHR, "staffing_plan", "Staff the retention initiatives within hiring limits", []state.EntryKind{state.KindHeadcount, state.KindPolicy}, []models.Category{models.CategoryOperations}},
	},
	"grow_revenue": {
		{models.CategorySales, "pipeline_expansion", "Expand pipeline coverage and upsell motion", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategoryMarketing, "demand_generation", "Scale demand generation within acquisition constraints", []state.EntryKind{state.KindBudget, state.KindPolicy, state.KindMetric}, nil},
		{models.CategoryOperations, "capacity_review", "Verify delivery capacity for the projected volume", []state.EntryKind{state.KindCommitment, state.KindMetric}, nil},
		{models.CategoryFinance, "revenue_investment_case", "Price the growth initiatives against budgets", []state.EntryKind{state.KindBudget, state.KindMetric}, []models.Category{models.CategorySales, models.CategoryMarketing, models.CategoryOperations}},
		{models.CategoryHR, "staffing_plan", "Staff the growth initiatives within hiring limits", []state.EntryKind{state.KindHeadcount, state.KindPolicy}, []models.Category{models.CategorySales, models.CategoryOperations}},
	},
	"reduce_costs": {
		{models.CategoryOperations, "process_audit", "Audit processes for automation and efficiency gains", []state.EntryKind{state.KindBudget, state.KindCommitment}, nil},
		{models.CategoryFinance, "spend_review", "Review discretionary spend and vendor contracts", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategorySupport, "deflection_review", "Reduce cost-to-serve via self-service and deflection", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategoryHR, "org_review", "Review staffing alignment to the reduced cost base", []state.EntryKind{state.KindHeadcount}, []models.Category{models.CategoryOperations, models.CategoryFinance}},
	},
	"improve_satisfaction": {
		{models.CategorySupport, "service_quality_review", "Diagnose satisfaction drivers and response-time gaps", []state.EntryKind{state.KindBudget, state.KindMetric}, nil},
		{models.CategoryOperations, "delivery_improvement", "Fix delivery issues surfacing in satisfaction scores", []state.EntryKind{state.KindCommitment}, nil},
		{models.CategoryFinance, "service_investment_case", "Price the service improvements against budgets", []state.EntryKind{state.KindBudget}, []models.Category{models.CategorySupport, models.CategoryOperations}},
		{models.CategoryHR, "staffing_plan", "Staff the service improvements within hiring limits", []state.EntryKind{state.KindHeadcount}, []models.Category{models.CategorySupport}},
	},
}

// SubTaskID derives the deterministic sub-task ID for a goal and category.
func SubTaskID(goalID string, cat models.Category) string {
	return fmt.Sprintf("%s-%s", goalID, cat)
}

// Decompose expands a goal into its sub-task DAG. The produced graph is
// explicitly cycle-checked; a template error surfaces as ErrCyclicDependency
// rather than a hung run.
func Decompose(goal *models.Goal, snap *state.Snapshot) ([]*models.SubTask, error) {
	templates, ok := objectiveTemplates[goal.Objective]
	if !ok {
		return nil, fmt.Errorf("no decomposition for objective %q", goal.Objective)
	}

	now := time.Now()
	tasks := make([]*models.SubTask, 0, len(templates))
	for _, tpl := range templates {
		task := &models.SubTask{
			ID:          SubTaskID(goal.ID, tpl.category),
			GoalID:      goal.ID,
			Category:    tpl.category,
			Description: fmt.Sprintf("%s (goal: %s)", tpl.description, goal.Objective),
			TaskType:    tpl.taskType,
			Status:      models.SubTaskPending,
			CreatedAt:   now,
		}
		for _, kind := range tpl.requiredKinds {
			for _, e := range snap.ByKind(kind) {
				task.RequiredKeys = append(task.RequiredKeys, e.Key)
			}
		}
		for _, dep := range tpl.dependsOn {
			task.DependsOn = append(task.DependsOn, SubTaskID(goal.ID, dep))
		}
		tasks = append(tasks, task)
	}

	// Validate the DAG up front so a bad template never reaches the engine.
	g := graph.New()
	if err := g.Build(tasks); err != nil {
		return nil, fmt.Errorf("decompose goal %s: %w", goal.ID, err)
	}
	return tasks, nil
}
