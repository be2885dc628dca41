package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/ports"
)

var errUnavailable = errors.New("storage unavailable")

// fakeKV is an in-memory key/value store whose writes can be made to fail.
type fakeKV struct {
	mu       sync.Mutex
	data     map[string]string
	failSets bool
	failGets bool
	sets     int
}

var _ ports.KeyValueStore = (*fakeKV)(nil)

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGets {
		return "", false, errUnavailable
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSets {
		return errUnavailable
	}
	f.sets++
	f.data[key] = value
	return nil
}

func (f *fakeKV) Close() error { return nil }

func (f *fakeKV) setFailing(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSets = fail
}

func (f *fakeKV) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

// fakeNotifier records every reminder it is asked to deliver.
type fakeNotifier struct {
	mu        sync.Mutex
	permitted bool
	fail      error
	fired     []string
}

var _ ports.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) RequestPermission(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.permitted = true
	return nil
}

func (n *fakeNotifier) IsPermitted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permitted
}

func (n *fakeNotifier) Fire(_ context.Context, title, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.fired = append(n.fired, title)
	return nil
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.fired...)
}

func counterIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func draft(title, date, clock string) entities.TaskDraft {
	return entities.TaskDraft{Title: title, DueDate: date, Time: clock}
}
