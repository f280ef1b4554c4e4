package model

import "time"

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// IsValid reports whether s is a member of the closed status set.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// IsValid reports whether p is a member of the closed priority set.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task represents a single task owned by a user.
// Deadline is a pointer so that "never set" stays absent: a nil pointer is
// omitted from JSON and is never written on partial updates.
type Task struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Title     string       `json:"title" gorm:"size:255;not null"`
	Status    TaskStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority  TaskPriority `json:"priority" gorm:"type:varchar(10);not null;default:'medium';index"`
	Deadline  *time.Time   `json:"deadline,omitempty"`
	UserID    uint         `json:"user_id" gorm:"not null;index"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
