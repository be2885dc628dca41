package services

import (
	"sort"
	"time"

	"github.com/taskmaster/planner/internal/domain/entities"
)

// TaskReader is the read-only view of the store the derived views need.
type TaskReader interface {
	Tasks() []entities.Task
	MonthlyGoal(yearMonth string) string
}

// Progress counts the tasks due on one day
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// Percent returns the completed share in [0, 100].
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// AllDone reports the celebratory state: something was due and all of it
// is done.
func (p Progress) AllDone() bool {
	return p.Total > 0 && p.Completed == p.Total
}

// DayView is everything shown for a single date
type DayView struct {
	Date     string          `json:"date"`
	Weekday  string          `json:"weekday"`
	Tasks    []entities.Task `json:"tasks"`
	Stamped  bool            `json:"stamped"`
	Progress Progress        `json:"progress"`
	Percent  float64         `json:"percent"`
	Prev     string          `json:"prev,omitempty"`
	Next     string          `json:"next,omitempty"`
}

// MonthView is the month calendar grid
type MonthView struct {
	YearMonth string    `json:"yearMonth"`
	Goal      string    `json:"goal"`
	Leading   int       `json:"leadingBlanks"`
	Days      []DayView `json:"days"`
	Prev      string    `json:"prev"`
	Next      string    `json:"next"`
}

// DayBuckets groups every task by its due date, recurring or not. Each bucket
// is ordered by time of day.
func DayBuckets(tasks []entities.Task) map[string][]entities.Task {
	buckets := make(map[string][]entities.Task)
	for _, t := range tasks {
		buckets[t.DueDate] = append(buckets[t.DueDate], t)
	}
	for _, bucket := range buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Time < bucket[j].Time
		})
	}
	return buckets
}

// ProgressByDay counts total and completed tasks per due date.
func ProgressByDay(tasks []entities.Task) map[string]Progress {
	counts := make(map[string]Progress)
	for _, t := range tasks {
		p := counts[t.DueDate]
		p.Total++
		if t.IsCompleted {
			p.Completed++
		}
		counts[t.DueDate] = p
	}
	return counts
}

// StampedDays returns the dates on which at least one task is due and every
// task due is completed.
func StampedDays(tasks []entities.Task) map[string]bool {
	stamped := make(map[string]bool)
	for date, p := range ProgressByDay(tasks) {
		if p.AllDone() {
			stamped[date] = true
		}
	}
	return stamped
}

// DayProgress returns the completion counts for one date.
func DayProgress(tasks []entities.Task, date string) Progress {
	var p Progress
	for _, t := range tasks {
		if t.DueDate != date {
			continue
		}
		p.Total++
		if t.IsCompleted {
			p.Completed++
		}
	}
	return p
}

// Aggregator derives calendar and schedule views from the current tasks.
// It holds no state of its own.
type Aggregator struct {
	reader TaskReader
}

// NewAggregator creates an aggregator reading from r
func NewAggregator(r TaskReader) *Aggregator {
	return &Aggregator{reader: r}
}

// DayBuckets groups the current tasks by due date.
func (a *Aggregator) DayBuckets() map[string][]entities.Task {
	return DayBuckets(a.reader.Tasks())
}

// StampedDays returns the fully completed dates.
func (a *Aggregator) StampedDays() map[string]bool {
	return StampedDays(a.reader.Tasks())
}

// DayProgress returns the completion counts for date.
func (a *Aggregator) DayProgress(date string) (Progress, error) {
	if _, err := entities.ParseDate(date); err != nil {
		return Progress{}, &entities.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	return DayProgress(a.reader.Tasks(), date), nil
}

// DaySchedule returns the tasks of one date with links to its neighbours.
func (a *Aggregator) DaySchedule(date string) (DayView, error) {
	d, err := entities.ParseDate(date)
	if err != nil {
		return DayView{}, &entities.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}

	tasks := a.reader.Tasks()
	view := dayView(d, DayBuckets(tasks), ProgressByDay(tasks))
	view.Prev = entities.FormatDate(d.AddDate(0, 0, -1))
	view.Next = entities.FormatDate(d.AddDate(0, 0, 1))
	return view, nil
}

// WeekSchedule returns the seven days, Sunday first, of the week containing
// date.
func (a *Aggregator) WeekSchedule(date string) ([]DayView, error) {
	d, err := entities.ParseDate(date)
	if err != nil {
		return nil, &entities.ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}

	tasks := a.reader.Tasks()
	buckets, counts := DayBuckets(tasks), ProgressByDay(tasks)

	start := d.AddDate(0, 0, -int(d.Weekday()))
	week := make([]DayView, 0, 7)
	for i := 0; i < 7; i++ {
		week = append(week, dayView(start.AddDate(0, 0, i), buckets, counts))
	}
	return week, nil
}

// MonthCalendar builds the grid for a YYYY-MM month: the number of blank
// cells before the 1st (Sunday first) and one cell per day.
func (a *Aggregator) MonthCalendar(yearMonth string) (MonthView, error) {
	first, err := entities.ParseYearMonth(yearMonth)
	if err != nil {
		return MonthView{}, &entities.ValidationError{Field: "yearMonth", Message: "year-month must be YYYY-MM"}
	}

	tasks := a.reader.Tasks()
	buckets, counts := DayBuckets(tasks), ProgressByDay(tasks)

	n := entities.DaysIn(first)
	view := MonthView{
		YearMonth: yearMonth,
		Goal:      a.reader.MonthlyGoal(yearMonth),
		Leading:   int(first.Weekday()),
		Days:      make([]DayView, 0, n),
		Prev:      first.AddDate(0, -1, 0).Format(entities.YearMonthLayout),
		Next:      first.AddDate(0, 1, 0).Format(entities.YearMonthLayout),
	}
	for day := 0; day < n; day++ {
		view.Days = append(view.Days, dayView(first.AddDate(0, 0, day), buckets, counts))
	}
	return view, nil
}

func dayView(d time.Time, buckets map[string][]entities.Task, counts map[string]Progress) DayView {
	date := entities.FormatDate(d)
	p := counts[date]
	tasks := buckets[date]
	if tasks == nil {
		tasks = []entities.Task{}
	}
	return DayView{
		Date:     date,
		Weekday:  d.Weekday().String(),
		Tasks:    tasks,
		Stamped:  p.AllDone(),
		Progress: p,
		Percent:  p.Percent(),
	}
}
