package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
	TaskStatusArchived  = "archived"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`   // "pending" | "completed" | "archived"
	Priority    string     `json:"priority"` // "low" | "medium" | "high"
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

type TaskRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaskList struct {
	Tasks          []*Task `json:"tasks"`
	CompletedCount int     `json:"completed_count"`
	PendingCount   int     `json:"pending_count"`
}
