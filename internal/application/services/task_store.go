package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// IDGenerator produces unique task identifiers
type IDGenerator func() string

// NewID returns a time-ordered UUID string.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DeleteListener is called with the id of every task removed from the store.
type DeleteListener func(id string)

// ToggleResult describes the outcome of a completion toggle
type ToggleResult struct {
	Task      entities.Task
	Successor *entities.Task
}

// TaskStoreOption configures a TaskStore
type TaskStoreOption func(*TaskStore)

// WithIDGenerator replaces the default UUID generator
func WithIDGenerator(fn IDGenerator) TaskStoreOption {
	return func(s *TaskStore) {
		s.newID = fn
	}
}

// TaskStore owns the task collection and the monthly goals. The collection is
// kept sorted by due date then time after every mutation, and each mutation
// is written through to the key/value store. A failed write leaves the key
// dirty so the next mutation retries it.
type TaskStore struct {
	mu     sync.RWMutex
	kv     ports.KeyValueStore
	logger *logger.Logger
	newID  IDGenerator

	tasks []entities.Task
	goals map[string]string

	tasksDirty bool
	goalsDirty bool

	listeners []DeleteListener
}

// NewTaskStore creates an empty store. Call Init to load persisted state.
func NewTaskStore(kv ports.KeyValueStore, log *logger.Logger, opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		kv:     kv,
		logger: log.WithComponent("task_store"),
		newID:  NewID,
		goals:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads tasks and monthly goals. Unreadable state is logged and replaced
// by empty defaults.
func (s *TaskStore) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = s.loadTasks(ctx)
	s.goals = s.loadGoals(ctx)

	s.logger.Infow("Task store loaded", "tasks", len(s.tasks), "goals", len(s.goals))
}

func (s *TaskStore) loadTasks(ctx context.Context) []entities.Task {
	raw, found, err := s.kv.Get(ctx, ports.KeyTasks)
	if err != nil {
		s.logger.LogPersistenceFailure("load", ports.KeyTasks, err)
		return nil
	}
	if !found || raw == "" {
		return nil
	}

	tasks, skipped, err := entities.UpgradeTasks([]byte(raw), s.newID)
	if err != nil {
		s.logger.LogPersistenceFailure("load", ports.KeyTasks, err)
		return nil
	}
	for _, skip := range skipped {
		s.logger.Warnw("Dropped stored task", "error", skip)
	}
	return tasks
}

func (s *TaskStore) loadGoals(ctx context.Context) map[string]string {
	goals := make(map[string]string)

	raw, found, err := s.kv.Get(ctx, ports.KeyMonthlyGoals)
	if err != nil {
		s.logger.LogPersistenceFailure("load", ports.KeyMonthlyGoals, err)
		return goals
	}
	if !found || raw == "" {
		return goals
	}
	if err := json.Unmarshal([]byte(raw), &goals); err != nil {
		s.logger.LogPersistenceFailure("load", ports.KeyMonthlyGoals, err)
		return make(map[string]string)
	}
	return goals
}

// OnDelete registers a listener invoked after a task is deleted.
func (s *TaskStore) OnDelete(fn DeleteListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Add validates a draft and inserts it as a new incomplete task.
func (s *TaskStore) Add(ctx context.Context, draft entities.TaskDraft) (entities.Task, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return entities.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := entities.NewTask(s.uniqueID(), draft)
	s.tasks = append(s.tasks, task)
	entities.SortTasks(s.tasks)
	s.tasksDirty = true
	s.persist(ctx)

	s.logger.LogTaskEvent("created", task.ID, map[string]interface{}{
		"due_date":  task.DueDate,
		"time":      task.Time,
		"recurring": task.IsRecurring,
	})
	return task, nil
}

// Toggle flips the completion state of a task. Completing a recurring task
// inserts its next occurrence; reopening it leaves that occurrence in place.
func (s *TaskStore) Toggle(ctx context.Context, id string) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ToggleResult{}, fmt.Errorf("toggle %s: %w", id, entities.ErrTaskNotFound)
	}

	s.tasks[idx].IsCompleted = !s.tasks[idx].IsCompleted
	result := ToggleResult{Task: s.tasks[idx]}

	if result.Task.IsCompleted && result.Task.IsRecurring {
		next, err := NextOccurrence(result.Task, s.uniqueID())
		if err != nil {
			// The stored date was validated on the way in, so this only
			// happens for corrupted state. Keep the toggle itself.
			s.logger.Errorw("Failed to derive next occurrence", "task_id", id, "error", err)
		} else {
			s.tasks = append(s.tasks, next)
			result.Successor = &next
		}
	}

	entities.SortTasks(s.tasks)
	s.tasksDirty = true
	s.persist(ctx)

	meta := map[string]interface{}{"completed": result.Task.IsCompleted}
	if result.Successor != nil {
		meta["successor_id"] = result.Successor.ID
		meta["successor_due"] = result.Successor.DueDate
	}
	s.logger.LogTaskEvent("toggled", id, meta)
	return result, nil
}

// Delete removes a task. Deleting an unknown id is a no-op.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.tasksDirty = true
	s.persist(ctx)
	listeners := append([]DeleteListener(nil), s.listeners...)
	s.mu.Unlock()

	// Listeners run outside the lock; they may read the store.
	for _, fn := range listeners {
		fn(id)
	}

	s.logger.LogTaskEvent("deleted", id, nil)
	return nil
}

// SetMonthlyGoal upserts the goal for a YYYY-MM key. An empty text removes
// the key.
func (s *TaskStore) SetMonthlyGoal(ctx context.Context, yearMonth, text string) error {
	if _, err := entities.ParseYearMonth(yearMonth); err != nil {
		return &entities.ValidationError{Field: "yearMonth", Message: "year-month must be YYYY-MM"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.goals[yearMonth]
	switch {
	case text == "" && !exists:
		return nil
	case text == "":
		delete(s.goals, yearMonth)
	case exists && current == text:
		return nil
	default:
		s.goals[yearMonth] = text
	}

	s.goalsDirty = true
	s.persist(ctx)
	return nil
}

// MonthlyGoal returns the goal text for a YYYY-MM key, or "".
func (s *TaskStore) MonthlyGoal(yearMonth string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals[yearMonth]
}

// MonthlyGoals returns a copy of every goal.
func (s *TaskStore) MonthlyGoals() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.goals))
	for k, v := range s.goals {
		out[k] = v
	}
	return out
}

// Tasks returns a sorted snapshot of the collection.
func (s *TaskStore) Tasks() []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Task(nil), s.tasks...)
}

// Pending returns the incomplete tasks in due order.
func (s *TaskStore) Pending() []entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Task
	for _, t := range s.tasks {
		if !t.IsCompleted {
			out = append(out, t)
		}
	}
	return out
}

// Get looks up a task by id.
func (s *TaskStore) Get(id string) (entities.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.tasks[idx], true
	}
	return entities.Task{}, false
}

// Close writes any state a previous failure left unsaved.
func (s *TaskStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persist(ctx)
	if s.tasksDirty || s.goalsDirty {
		return &entities.PersistenceError{Op: "flush", Key: strings.Join(s.dirtyKeys(), ","), Err: fmt.Errorf("state not saved")}
	}
	return nil
}

func (s *TaskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) uniqueID() string {
	for {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *TaskStore) dirtyKeys() []string {
	var keys []string
	if s.tasksDirty {
		keys = append(keys, ports.KeyTasks)
	}
	if s.goalsDirty {
		keys = append(keys, ports.KeyMonthlyGoals)
	}
	sort.Strings(keys)
	return keys
}

// persist writes every dirty blob. Must be called with mu held.
func (s *TaskStore) persist(ctx context.Context) {
	if s.tasksDirty {
		tasks := s.tasks
		if tasks == nil {
			tasks = []entities.Task{}
		}
		if s.write(ctx, ports.KeyTasks, tasks) {
			s.tasksDirty = false
		}
	}
	if s.goalsDirty {
		if s.write(ctx, ports.KeyMonthlyGoals, s.goals) {
			s.goalsDirty = false
		}
	}
}

func (s *TaskStore) write(ctx context.Context, key string, v interface{}) bool {
	raw, err := json.Marshal(v)
	if err == nil {
		err = s.kv.Set(ctx, key, string(raw))
	}
	if err != nil {
		s.logger.LogPersistenceFailure("save", key, &entities.PersistenceError{Op: "save", Key: key, Err: err})
		return false
	}
	return true
}
