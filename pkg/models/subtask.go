package models

import "time"

// SubTaskStatus represents the current state of a sub-task.
type SubTaskStatus string

const (
	// SubTaskPending indicates the sub-task has not been dispatched.
	SubTaskPending SubTaskStatus = "pending"
	// SubTaskDispatched indicates the sub-task is with its specialist.
	SubTaskDispatched SubTaskStatus = "dispatched"
	// SubTaskCompleted indicates the specialist returned a recommendation.
	SubTaskCompleted SubTaskStatus = "completed"
	// SubTaskFailed indicates the specialist failed or timed out.
	SubTaskFailed SubTaskStatus = "failed"
	// SubTaskBlocked indicates a dependency failed, so the sub-task cannot run.
	SubTaskBlocked SubTaskStatus = "blocked"
	// SubTaskCancelled indicates the goal run was cancelled before dispatch.
	SubTaskCancelled SubTaskStatus = "cancelled"
)

// Valid returns true if the status is a known value.
func (s SubTaskStatus) Valid() bool {
	switch s {
	case SubTaskPending, SubTaskDispatched, SubTaskCompleted,
		SubTaskFailed, SubTaskBlocked, SubTaskCancelled:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status admits no further transitions.
func (s SubTaskStatus) Terminal() bool {
	switch s {
	case SubTaskCompleted, SubTaskFailed, SubTaskBlocked, SubTaskCancelled:
		return true
	default:
		return false
	}
}

// SubTask is one typed unit of work produced by decomposition.
// Created by the decomposer; only the execution engine advances its status.
// Sub-tasks are never deleted, only superseded by a new decomposition run.
type SubTask struct {
	// ID is the unique identifier for this sub-task.
	ID string `json:"id"`
	// GoalID is the goal this sub-task was decomposed from.
	GoalID string `json:"goal_id"`
	// Category is the specialist domain this sub-task routes to.
	Category Category `json:"category"`
	// Description tells the specialist what to evaluate.
	Description string `json:"description"`
	// TaskType is the decomposition template variant (e.g. "churn_analysis").
	TaskType string `json:"task_type"`
	// RequiredKeys lists the shared-state keys the specialist needs snapshotted.
	RequiredKeys []string `json:"required_keys,omitempty"`
	// DependsOn lists sub-task IDs that must complete before this one runs.
	DependsOn []string `json:"depends_on,omitempty"`
	// Status is the current state of the sub-task.
	Status SubTaskStatus `json:"status"`
	// BlockedReason records why the sub-task was blocked, if it was.
	BlockedReason string `json:"blocked_reason,omitempty"`
	// CreatedAt is when the decomposer produced this sub-task.
	CreatedAt time.Time `json:"created_at"`
}

// SpecialistFailure records a specialist that failed or timed out on a sub-task.
// A failure is local to its sub-task; it never aborts the goal run.
type SpecialistFailure struct {
	// SubTaskID is the sub-task the specialist was evaluating.
	SubTaskID string `json:"subtask_id"`
	// Category is the specialist domain that failed.
	Category Category `json:"category"`
	// Reason is a short machine-readable cause ("timeout", "evaluate_error", ...).
	Reason string `json:"reason"`
	// Detail carries the underlying error text, if any.
	Detail string `json:"detail,omitempty"`
	// OccurredAt is when the failure was recorded.
	OccurredAt time.Time `json:"occurred_at"`
}
