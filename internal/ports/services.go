package ports

import (
	"github.com/taskmaster/planner/internal/domain/entities"
)

// Request/Response Types

// Task related types
type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	DueDate     string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"omitempty,datetime=15:04"`
	IsRecurring bool   `json:"isRecurring"`
	Tag         string `json:"tag" validate:"omitempty,max=32"`
}

// Draft converts the request into a task draft.
func (r CreateTaskRequest) Draft() entities.TaskDraft {
	return entities.TaskDraft{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Time:        r.Time,
		IsRecurring: r.IsRecurring,
		Tag:         entities.Tag(r.Tag),
	}
}

type ToggleTaskResponse struct {
	Task      entities.Task  `json:"task"`
	Successor *entities.Task `json:"successor,omitempty"`
}

// Goal related types
type SetGoalRequest struct {
	Text string `json:"text" validate:"max=1000"`
}

type GoalResponse struct {
	YearMonth string `json:"yearMonth"`
	Text      string `json:"text"`
}

type SweepResponse struct {
	Notified []entities.Task `json:"notified"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
