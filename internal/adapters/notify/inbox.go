package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/ports"
)

// Alert is one delivered reminder
type Alert struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	FiredAt time.Time `json:"firedAt"`
	Seen    bool      `json:"seen"`
}

// Inbox keeps the most recent reminders in memory for clients to poll.
// Permission is granted by the client, mirroring a browser prompt.
type Inbox struct {
	mu        sync.Mutex
	alerts    []Alert
	capacity  int
	permitted bool
	clock     func() time.Time
}

var _ ports.Notifier = (*Inbox)(nil)

// NewInbox creates an inbox holding at most capacity alerts.
func NewInbox(capacity int, granted bool) *Inbox {
	if capacity <= 0 {
		capacity = 100
	}
	return &Inbox{capacity: capacity, permitted: granted, clock: time.Now}
}

func (b *Inbox) RequestPermission(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.permitted = true
	return nil
}

// Revoke withdraws permission; later sweeps fire nothing.
func (b *Inbox) Revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.permitted = false
}

func (b *Inbox) IsPermitted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.permitted
}

func (b *Inbox) Fire(_ context.Context, title, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.permitted {
		return entities.ErrPermissionDenied
	}

	b.alerts = append(b.alerts, Alert{
		ID:      uuid.NewString(),
		Title:   title,
		Body:    body,
		FiredAt: b.clock(),
	})
	if over := len(b.alerts) - b.capacity; over > 0 {
		b.alerts = append([]Alert(nil), b.alerts[over:]...)
	}
	return nil
}

// Alerts returns the retained alerts, newest last. With markSeen the returned
// alerts are flagged as seen for later calls.
func (b *Inbox) Alerts(markSeen bool) []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := append([]Alert(nil), b.alerts...)
	if markSeen {
		for i := range b.alerts {
			b.alerts[i].Seen = true
		}
	}
	return out
}

// Unseen returns the alerts not yet marked seen.
func (b *Inbox) Unseen() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Alert
	for _, a := range b.alerts {
		if !a.Seen {
			out = append(out, a)
		}
	}
	return out
}
