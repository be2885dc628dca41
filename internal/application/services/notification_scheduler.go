package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

const (
	DefaultSweepInterval = 60 * time.Second
	DefaultDueSoonWindow = 30 * time.Minute
)

// PendingReader supplies the incomplete tasks a sweep inspects. Get confirms
// a candidate still exists before its reminder fires.
type PendingReader interface {
	Pending() []entities.Task
	Get(id string) (entities.Task, bool)
}

// SchedulerConfig tunes the reminder sweep
type SchedulerConfig struct {
	Interval time.Duration
	Window   time.Duration
	Location *time.Location
	Clock    func() time.Time
	Metrics  *SchedulerMetrics
}

// NotificationScheduler fires one reminder per task when it comes within the
// due-soon window. A task moves from silent to notified exactly once; the
// only way back is deleting it, which purges its id.
//
// Overdue tasks are never notified: a reminder after the due time is noise.
type NotificationScheduler struct {
	mu       sync.Mutex
	tasks    PendingReader
	kv       ports.KeyValueStore
	notifier ports.Notifier
	logger   *logger.Logger

	interval time.Duration
	window   time.Duration
	loc      *time.Location
	clock    func() time.Time
	metrics  *SchedulerMetrics

	notified map[string]struct{}
	dirty    bool
}

// NewNotificationScheduler creates a scheduler. Zero config values fall back
// to a 60s interval, a 30m window, local time and the wall clock.
func NewNotificationScheduler(tasks PendingReader, kv ports.KeyValueStore, notifier ports.Notifier, log *logger.Logger, cfg SchedulerConfig) *NotificationScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultDueSoonWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &NotificationScheduler{
		tasks:    tasks,
		kv:       kv,
		notifier: notifier,
		logger:   log.WithComponent("notification_scheduler"),
		interval: cfg.Interval,
		window:   cfg.Window,
		loc:      cfg.Location,
		clock:    cfg.Clock,
		metrics:  cfg.Metrics,
		notified: make(map[string]struct{}),
	}
}

// Init loads the persisted notified set. Unreadable state starts empty.
func (n *NotificationScheduler) Init(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.notified = make(map[string]struct{})

	raw, found, err := n.kv.Get(ctx, ports.KeyNotifiedTaskIDs)
	if err != nil {
		n.logger.LogPersistenceFailure("load", ports.KeyNotifiedTaskIDs, err)
		return
	}
	if !found || raw == "" {
		return
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		n.logger.LogPersistenceFailure("load", ports.KeyNotifiedTaskIDs, err)
		return
	}
	for _, id := range ids {
		n.notified[id] = struct{}{}
	}
}

// Sweep fires reminders for incomplete, not yet notified tasks due within
// (now, now+window]. It returns the tasks notified by this call. Nothing
// fires while the notifier lacks permission.
func (n *NotificationScheduler) Sweep(ctx context.Context, now time.Time) []entities.Task {
	n.metrics.sweep()

	if !n.notifier.IsPermitted() {
		n.metrics.skip()
		n.logger.Debugw("Skipping sweep", "reason", entities.ErrPermissionDenied)
		return nil
	}

	pending := n.tasks.Pending()

	// n.mu is held across the Get re-check below. A delete that lands after
	// the re-check blocks in Forget until this sweep has marked the id, then
	// purges it.
	n.mu.Lock()
	defer n.mu.Unlock()

	var fired []entities.Task
	for _, t := range pending {
		if t.IsCompleted {
			continue
		}
		if _, done := n.notified[t.ID]; done {
			continue
		}

		due, err := t.DueAt(n.loc)
		if err != nil {
			n.logger.Warnw("Task has no usable due time", "task_id", t.ID, "error", err)
			continue
		}
		delta := due.Sub(now)
		if delta <= 0 || delta > n.window {
			continue
		}
		if current, ok := n.tasks.Get(t.ID); !ok || current.IsCompleted {
			continue
		}

		if err := n.notifier.Fire(ctx, t.Title, reminderBody(t)); err != nil {
			n.metrics.failure()
			n.logger.Warnw("Reminder not delivered", "task_id", t.ID, "error", err)
			continue
		}

		n.notified[t.ID] = struct{}{}
		n.dirty = true
		n.metrics.fire()
		fired = append(fired, t)
		n.logger.Infow("Reminder fired", "task_id", t.ID, "due_in", delta.Round(time.Second).String())
	}

	n.persist(ctx)
	return fired
}

// SweepNow runs a sweep at the scheduler's current time.
func (n *NotificationScheduler) SweepNow(ctx context.Context) []entities.Task {
	return n.Sweep(ctx, n.clock())
}

// Forget purges a task id from the notified set.
func (n *NotificationScheduler) Forget(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.notified[id]; !ok {
		return
	}
	delete(n.notified, id)
	n.dirty = true
	n.persist(context.Background())
}

// Notified reports whether a reminder already fired for id.
func (n *NotificationScheduler) Notified(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.notified[id]
	return ok
}

// NotifiedIDs returns the notified set in sorted order.
func (n *NotificationScheduler) NotifiedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sortedIDs()
}

// Handle stops a running sweep loop
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Stop halts the timer and waits for an in-flight sweep to finish. It is safe
// to call more than once.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Start sweeps immediately and then every interval until ctx is cancelled or
// the returned handle is stopped.
func (n *NotificationScheduler) Start(ctx context.Context) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		n.logger.Infow("Reminder sweeps started", "interval", n.interval.String(), "window", n.window.String())
		n.SweepNow(ctx)

		for {
			select {
			case <-ticker.C:
				n.SweepNow(ctx)
			case <-ctx.Done():
				n.logger.Infow("Reminder sweeps stopped")
				return
			}
		}
	}()

	return h
}

func (n *NotificationScheduler) sortedIDs() []string {
	ids := make([]string, 0, len(n.notified))
	for id := range n.notified {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// persist writes the notified set when it changed. Must be called with mu
// held. A failed write stays dirty and is retried by the next sweep.
func (n *NotificationScheduler) persist(ctx context.Context) {
	if !n.dirty {
		return
	}
	raw, err := json.Marshal(n.sortedIDs())
	if err == nil {
		err = n.kv.Set(ctx, ports.KeyNotifiedTaskIDs, string(raw))
	}
	if err != nil {
		n.logger.LogPersistenceFailure("save", ports.KeyNotifiedTaskIDs, err)
		return
	}
	n.dirty = false
}

func reminderBody(t entities.Task) string {
	body := fmt.Sprintf("Due at %s", t.Time)
	if t.Description != "" {
		body += ": " + t.Description
	}
	return body
}
