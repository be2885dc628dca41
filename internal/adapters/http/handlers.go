package http

import (
	"errors"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/planner/internal/adapters/notify"
	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	store  *services.TaskStore
	logger *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(store *services.TaskStore, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		store:  store,
		logger: logger,
	}
}

// ListTasks returns every task, or those due on ?date=
func (h *TaskHandler) ListTasks(c echo.Context) error {
	tasks := h.store.Tasks()

	if date := c.QueryParam("date"); date != "" {
		if _, err := entities.ParseDate(date); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		tasks = services.DayBuckets(tasks)[date]
	}
	if tasks == nil {
		tasks = []entities.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.store.Add(c.Request().Context(), req.Draft())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, task)
}

// ToggleTask flips a task's completion state
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	result, err := h.store.Toggle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.ToggleTaskResponse{
		Task:      result.Task,
		Successor: result.Successor,
	})
}

// DeleteTask removes a task; unknown ids succeed as well
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CalendarHandler serves the derived calendar and schedule views
type CalendarHandler struct {
	aggregator *services.Aggregator
	logger     *logger.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(aggregator *services.Aggregator, logger *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetMonth returns the month grid for :yearMonth
func (h *CalendarHandler) GetMonth(c echo.Context) error {
	view, err := h.aggregator.MonthCalendar(c.Param("yearMonth"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetDay returns the schedule for :date
func (h *CalendarHandler) GetDay(c echo.Context) error {
	view, err := h.aggregator.DaySchedule(c.Param("date"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// GetWeek returns the Sunday-first week containing :date
func (h *CalendarHandler) GetWeek(c echo.Context) error {
	week, err := h.aggregator.WeekSchedule(c.Param("date"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, week)
}

// GetProgress returns completion counts for :date
func (h *CalendarHandler) GetProgress(c echo.Context) error {
	p, err := h.aggregator.DayProgress(c.Param("date"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"date":      c.Param("date"),
		"completed": p.Completed,
		"total":     p.Total,
		"percent":   p.Percent(),
		"allDone":   p.AllDone(),
	})
}

// GetStamps returns the fully completed dates, optionally limited to ?month=
func (h *CalendarHandler) GetStamps(c echo.Context) error {
	month := c.QueryParam("month")
	if month != "" {
		if _, err := entities.ParseYearMonth(month); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
		}
	}

	dates := []string{}
	for date := range h.aggregator.StampedDays() {
		if month == "" || entities.YearMonthOf(date) == month {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	return c.JSON(http.StatusOK, dates)
}

// GoalHandler handles monthly goal requests
type GoalHandler struct {
	store  *services.TaskStore
	logger *logger.Logger
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(store *services.TaskStore, logger *logger.Logger) *GoalHandler {
	return &GoalHandler{
		store:  store,
		logger: logger,
	}
}

// ListGoals returns every monthly goal
func (h *GoalHandler) ListGoals(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.MonthlyGoals())
}

// GetGoal returns the goal for :yearMonth
func (h *GoalHandler) GetGoal(c echo.Context) error {
	ym := c.Param("yearMonth")
	if _, err := entities.ParseYearMonth(ym); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "year-month must be YYYY-MM")
	}
	return c.JSON(http.StatusOK, ports.GoalResponse{YearMonth: ym, Text: h.store.MonthlyGoal(ym)})
}

// SetGoal upserts the goal for :yearMonth; empty text clears it
func (h *GoalHandler) SetGoal(c echo.Context) error {
	var req ports.SetGoalRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ym := c.Param("yearMonth")
	if err := h.store.SetMonthlyGoal(c.Request().Context(), ym, req.Text); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, ports.GoalResponse{YearMonth: ym, Text: h.store.MonthlyGoal(ym)})
}

// NotificationHandler exposes reminder state to clients
type NotificationHandler struct {
	scheduler *services.NotificationScheduler
	notifier  ports.Notifier
	inbox     *notify.Inbox
	logger    *logger.Logger
}

// NewNotificationHandler creates a new notification handler. inbox may be nil
// when reminders go to the log.
func NewNotificationHandler(scheduler *services.NotificationScheduler, notifier ports.Notifier, inbox *notify.Inbox, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		scheduler: scheduler,
		notifier:  notifier,
		inbox:     inbox,
		logger:    logger,
	}
}

// ListAlerts returns delivered reminders; ?unseen=true limits to new ones
// and ?ack=true marks them seen
func (h *NotificationHandler) ListAlerts(c echo.Context) error {
	if h.inbox == nil {
		return c.JSON(http.StatusOK, []notify.Alert{})
	}

	var alerts []notify.Alert
	if c.QueryParam("unseen") == "true" {
		alerts = h.inbox.Unseen()
		if c.QueryParam("ack") == "true" {
			h.inbox.Alerts(true)
		}
	} else {
		alerts = h.inbox.Alerts(c.QueryParam("ack") == "true")
	}
	if alerts == nil {
		alerts = []notify.Alert{}
	}
	return c.JSON(http.StatusOK, alerts)
}

// RequestPermission grants the notifier permission to deliver reminders
func (h *NotificationHandler) RequestPermission(c echo.Context) error {
	if err := h.notifier.RequestPermission(c.Request().Context()); err != nil {
		h.logger.Warnw("Notification permission not granted", "error", err)
		return echo.NewHTTPError(http.StatusForbidden, entities.ErrPermissionDenied.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"permitted": h.notifier.IsPermitted()})
}

// RevokePermission withdraws inbox delivery permission
func (h *NotificationHandler) RevokePermission(c echo.Context) error {
	if h.inbox == nil {
		return echo.NewHTTPError(http.StatusConflict, "Notifier permission cannot be revoked")
	}
	h.inbox.Revoke()
	h.logger.Infow("Notification permission revoked")
	return c.JSON(http.StatusOK, map[string]bool{"permitted": h.notifier.IsPermitted()})
}

// GetPermission reports whether reminders will be delivered
func (h *NotificationHandler) GetPermission(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"permitted": h.notifier.IsPermitted()})
}

// Sweep runs a reminder sweep now
func (h *NotificationHandler) Sweep(c echo.Context) error {
	fired := h.scheduler.SweepNow(c.Request().Context())
	if fired == nil {
		fired = []entities.Task{}
	}
	return c.JSON(http.StatusOK, ports.SweepResponse{Notified: fired})
}

// toHTTPError maps domain errors onto status codes
func toHTTPError(err error) error {
	var ve *entities.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	case errors.Is(err, entities.ErrTaskNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	case errors.Is(err, entities.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}
}
