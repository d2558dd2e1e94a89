package domain

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	Status      TaskStatus
	StartDate   *time.Time
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskPatch carries a partial update; nil fields keep their stored value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	StartDate   *time.Time
	DueDate     *time.Time
}

// TaskFilter narrows an owner's task list. Zero values disable a criterion.
type TaskFilter struct {
	Status TaskStatus
	From   *time.Time
	To     *time.Time
	Search string
}

// Attachment is a file stored alongside a task in object storage.
type Attachment struct {
	Key          string
	Name         string
	Size         int64
	LastModified *time.Time
	URL          string
}
