package ports

import (
	"context"
)

// Storage keys of the three independently persisted blobs.
const (
	KeyTasks           = "tasks"
	KeyMonthlyGoals    = "monthlyGoals"
	KeyNotifiedTaskIDs = "notifiedTaskIds"
)

// KeyValueStore defines the blob storage the planner persists its state in.
// Get reports found=false for an absent key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Notifier delivers user-facing reminders.
type Notifier interface {
	RequestPermission(ctx context.Context) error
	IsPermitted() bool
	Fire(ctx context.Context, title, body string) error
}
