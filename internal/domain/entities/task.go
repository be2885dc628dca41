package entities

import (
	"strings"
	"time"
)

// Tag is the category a task belongs to. Values are persisted verbatim, so the
// constants keep the literals older records were written with.
type Tag string

const (
	TagWork     Tag = "仕事"
	TagPersonal Tag = "プライベート"
	TagSchool   Tag = "学校"
	TagOther    Tag = "その他"
)

// DefaultTime is the time of day assigned to tasks that were stored without one.
const DefaultTime = "09:00"

// Tags lists the closed category set in display order.
var Tags = []Tag{TagWork, TagPersonal, TagSchool, TagOther}

var tagAliases = map[string]Tag{
	"work":     TagWork,
	"personal": TagPersonal,
	"private":  TagPersonal,
	"school":   TagSchool,
	"other":    TagOther,
}

// ParseTag accepts either the stored literal or its English alias.
func ParseTag(s string) (Tag, bool) {
	s = strings.TrimSpace(s)
	for _, t := range Tags {
		if s == string(t) {
			return t, true
		}
	}
	t, ok := tagAliases[strings.ToLower(s)]
	return t, ok
}

// Valid reports whether t is one of the known categories.
func (t Tag) Valid() bool {
	for _, known := range Tags {
		if t == known {
			return true
		}
	}
	return false
}

// Task represents a dated, timed unit of work
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Time        string `json:"time"`
	IsCompleted bool   `json:"isCompleted"`
	IsRecurring bool   `json:"isRecurring"`
	Tag         Tag    `json:"tag"`
}

// SortKey orders tasks chronologically when compared lexically.
func (t Task) SortKey() string {
	return t.DueDate + "T" + t.Time
}

// DueAt combines the due date and time of day in loc.
func (t Task) DueAt(loc *time.Location) (time.Time, error) {
	d, err := ParseDate(t.DueDate)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, err := ParseClock(t.Time)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// TaskDraft carries everything needed to create a task except its identity
// and completion state.
type TaskDraft struct {
	Title       string
	Description string
	DueDate     string
	Time        string
	IsRecurring bool
	Tag         Tag
}

// Normalize fills the optional fields with their defaults.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = strings.TrimSpace(d.Title)
	if d.Time == "" {
		d.Time = DefaultTime
	}
	if d.Tag == "" {
		d.Tag = TagOther
	} else if t, ok := ParseTag(string(d.Tag)); ok {
		d.Tag = t
	}
	return d
}

// Validate checks a normalized draft.
func (d TaskDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if _, err := ParseDate(d.DueDate); err != nil {
		return &ValidationError{Field: "dueDate", Message: "due date must be YYYY-MM-DD"}
	}
	if _, _, err := ParseClock(d.Time); err != nil {
		return &ValidationError{Field: "time", Message: "time must be HH:MM"}
	}
	if !d.Tag.Valid() {
		return &ValidationError{Field: "tag", Message: "unknown tag " + string(d.Tag)}
	}
	return nil
}

// NewTask builds an incomplete task from a draft.
func NewTask(id string, d TaskDraft) Task {
	return Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Time:        d.Time,
		IsRecurring: d.IsRecurring,
		Tag:         d.Tag,
	}
}
