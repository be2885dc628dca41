package services

import (
	"fmt"

	"github.com/taskmaster/planner/internal/domain/entities"
)

// NextOccurrence derives the successor of a completed recurring task: the same
// task due one calendar day later, incomplete, under a fresh id.
func NextOccurrence(done entities.Task, id string) (entities.Task, error) {
	due, err := entities.AddDays(done.DueDate, 1)
	if err != nil {
		return entities.Task{}, fmt.Errorf("next occurrence of %s: %w", done.ID, err)
	}

	return entities.Task{
		ID:          id,
		Title:       done.Title,
		Description: done.Description,
		DueDate:     due,
		Time:        done.Time,
		IsCompleted: false,
		IsRecurring: done.IsRecurring,
		Tag:         done.Tag,
	}, nil
}
