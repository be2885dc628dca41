package notify

import (
	"context"
	"sync/atomic"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// LogNotifier writes reminders to the application log
type LogNotifier struct {
	logger    *logger.Logger
	permitted atomic.Bool
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier; granted pre-approves it.
func NewLogNotifier(log *logger.Logger, granted bool) *LogNotifier {
	n := &LogNotifier{logger: log.WithComponent("notifier")}
	n.permitted.Store(granted)
	return n
}

// RequestPermission always succeeds: the log has no user to ask.
func (n *LogNotifier) RequestPermission(context.Context) error {
	n.permitted.Store(true)
	return nil
}

func (n *LogNotifier) IsPermitted() bool {
	return n.permitted.Load()
}

func (n *LogNotifier) Fire(_ context.Context, title, body string) error {
	if !n.IsPermitted() {
		return entities.ErrPermissionDenied
	}
	n.logger.Infow("Reminder", "title", title, "body", body)
	return nil
}
