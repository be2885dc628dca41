package entities

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Record versions describe the shapes stored task blobs have gone through.
//
//	0: no time of day, isRecurring may be absent
//	1: time and isRecurring present, no tag
//	2: current shape
const (
	RecordVersionLegacy    = 0
	RecordVersionRecurring = 1
	RecordVersionCurrent   = 2
)

// TaskRecord is the permissive form of a stored task. Every field is optional
// and may carry an unexpected JSON type.
type TaskRecord map[string]json.RawMessage

func (r TaskRecord) str(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (r TaskRecord) boolean(key string) (value, ok bool) {
	raw, present := r[key]
	if !present {
		return false, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	return value, true
}

func (r TaskRecord) set(key string, v interface{}) {
	raw, _ := json.Marshal(v)
	r[key] = raw
}

// Version reports the oldest shape the record still conforms to.
func (r TaskRecord) Version() int {
	if _, ok := r.boolean("isRecurring"); !ok || r.str("time") == "" {
		return RecordVersionLegacy
	}
	if !Tag(r.str("tag")).Valid() {
		return RecordVersionRecurring
	}
	return RecordVersionCurrent
}

// recordMigrations[i] upgrades a record from version i to i+1.
var recordMigrations = []func(TaskRecord){
	func(r TaskRecord) {
		if r.str("time") == "" {
			r.set("time", DefaultTime)
		}
		if _, ok := r.boolean("isRecurring"); !ok {
			r.set("isRecurring", false)
		}
	},
	func(r TaskRecord) {
		tag, ok := ParseTag(r.str("tag"))
		if !ok {
			tag = TagOther
		}
		r.set("tag", tag)
	},
}

// Upgrade applies every migration step from the record's version onward and
// maps the result onto a Task. Records without a usable title or due date are
// rejected.
func (r TaskRecord) Upgrade() (Task, error) {
	for v := r.Version(); v < RecordVersionCurrent; v++ {
		recordMigrations[v](r)
	}

	completed, _ := r.boolean("isCompleted")
	recurring, _ := r.boolean("isRecurring")
	t := Task{
		ID:          r.str("id"),
		Title:       r.str("title"),
		Description: r.str("description"),
		DueDate:     r.str("dueDate"),
		Time:        r.str("time"),
		IsCompleted: completed,
		IsRecurring: recurring,
		Tag:         Tag(r.str("tag")),
	}

	if strings.TrimSpace(t.Title) == "" {
		return Task{}, &ValidationError{Field: "title", Message: "stored task has no title"}
	}
	if _, err := ParseDate(t.DueDate); err != nil {
		return Task{}, &ValidationError{Field: "dueDate", Message: err.Error()}
	}
	clock, err := padClock(t.Time)
	if err != nil {
		return Task{}, &ValidationError{Field: "time", Message: err.Error()}
	}
	t.Time = clock
	return t, nil
}

// UpgradeTasks decodes a stored task blob and upgrades each record. Records
// missing an id get one from newID; duplicate ids keep the first occurrence.
// Rejected records are reported in skipped and do not fail the load.
func UpgradeTasks(data []byte, newID func() string) (tasks []Task, skipped []error, err error) {
	var records []TaskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, fmt.Errorf("decode task records: %w", err)
	}

	seen := make(map[string]bool, len(records))
	tasks = make([]Task, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			skipped = append(skipped, fmt.Errorf("record %d: not an object", i))
			continue
		}
		t, err := rec.Upgrade()
		if err != nil {
			skipped = append(skipped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		if t.ID == "" {
			t.ID = newID()
		}
		if seen[t.ID] {
			skipped = append(skipped, fmt.Errorf("record %d: duplicate id %s", i, t.ID))
			continue
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}

	SortTasks(tasks)
	return tasks, skipped, nil
}

// SortTasks orders tasks by due date then time, keeping insertion order for
// ties.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].SortKey() < tasks[j].SortKey()
	})
}
