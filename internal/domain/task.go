package domain

import (
	"strings"
	"time"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(s), true
	default:
		return "", false
	}
}

type Task struct {
	ID          int64        `json:"id"`
	AccountID   int64        `json:"-"`
	JobID       *int64       `json:"jobId,omitempty"`
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	Completed   bool         `json:"completed"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	JobID       *int64     `json:"jobId,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	JobID       *int64     `json:"jobId,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// TaskFilter narrows list queries; nil/zero values mean no filter.
type TaskFilter struct {
	Completed *bool
	Priority  TaskPriority
	DueBefore *time.Time
	Limit     int
	Offset    int
}

func (r *CreateTaskRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	if r.Priority == "" {
		r.Priority = string(PriorityMedium)
	}
}

func (r *CreateTaskRequest) Validate() error {
	if r.Title == "" {
		return Validation("title is required")
	}
	if _, ok := ParseTaskPriority(r.Priority); !ok {
		return Validation("invalid task priority")
	}
	return nil
}

func (r *UpdateTaskRequest) Normalize() {
	if r.Title != nil {
		trimmed := strings.TrimSpace(*r.Title)
		r.Title = &trimmed
	}
}

func (r *UpdateTaskRequest) Validate() error {
	if r.Title != nil && *r.Title == "" {
		return Validation("title must not be empty")
	}
	if r.Priority != nil {
		if _, ok := ParseTaskPriority(*r.Priority); !ok {
			return Validation("invalid task priority")
		}
	}
	return nil
}
