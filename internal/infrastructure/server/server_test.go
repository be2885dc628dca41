package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/planner/internal/adapters/notify"
	"github.com/taskmaster/planner/internal/adapters/storage"
	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/domain/entities"
	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

var testNow = time.Date(2024, time.January, 31, 7, 40, 0, 0, time.UTC)

type testEnv struct {
	handler http.Handler
	store   *services.TaskStore
	inbox   *notify.Inbox
	auth    *services.AuthService
}

func newTestEnv(t *testing.T, jwtSecret string) *testEnv {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Version: "test", Timezone: "UTC"},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: "*",
			RateLimitRequests:  1000,
			RateLimitWindow:    time.Minute,
			JWTSecret:          jwtSecret,
			JWTIssuer:          "planner",
			JWTExpiresIn:       time.Hour,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	log := logger.NewNop()
	kv := storage.NewMemoryStore()
	registry := prometheus.NewRegistry()

	store := services.NewTaskStore(kv, log)
	store.Init(context.Background())

	inbox := notify.NewInbox(10, false)
	scheduler := services.NewNotificationScheduler(store, kv, inbox, log, services.SchedulerConfig{
		Location: time.UTC,
		Clock:    func() time.Time { return testNow },
		Metrics:  services.NewSchedulerMetrics(registry),
	})
	scheduler.Init(context.Background())
	store.OnDelete(scheduler.Forget)
	services.RegisterStoreMetrics(registry, store)

	auth := services.NewAuthService(cfg.Security, log)
	srv, err := New(cfg, Deps{
		Store:     store,
		Scheduler: scheduler,
		Notifier:  inbox,
		Inbox:     inbox,
		Auth:      auth,
		Storage:   kv,
		Registry:  registry,
	}, log)
	require.NoError(t, err)

	return &testEnv{handler: srv.Handler(), store: store, inbox: inbox, auth: auth}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestCreateAndListTasks(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"Evening","dueDate":"2024-01-31","time":"20:00","tag":"work"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created entities.Task
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, entities.TagWork, created.Tag)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"Morning","dueDate":"2024-01-31"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"Tomorrow","dueDate":"2024-02-01","time":"06:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []entities.Task
	decode(t, rec, &all)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Morning", "Evening", "Tomorrow"}, []string{all[0].Title, all[1].Title, all[2].Title})
	assert.Equal(t, entities.DefaultTime, all[0].Time)
	assert.Equal(t, entities.TagOther, all[0].Tag)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?date=2024-02-01", "")
	var day []entities.Task
	decode(t, rec, &day)
	require.Len(t, day, 1)
	assert.Equal(t, "Tomorrow", day[0].Title)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?date=2024-02-02", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/tasks?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t, "")

	bodies := []string{
		`{"dueDate":"2024-01-31"}`,
		`{"title":"x","dueDate":"2024-02-30"}`,
		`{"title":"x","dueDate":"2024-01-31","time":"25:00"}`,
		`{"title":"x","dueDate":"2024-01-31","tag":"hobby"}`,
		`{"title":"   ","dueDate":"2024-01-31"}`,
		`not json`,
	}
	for _, body := range bodies {
		rec := env.do(t, http.MethodPost, "/api/v1/tasks", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, env.store.Tasks())
}

func TestToggleAndDelete(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPost, "/api/v1/tasks", `{"title":"Stretch","dueDate":"2024-01-31","time":"08:00","isRecurring":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var task entities.Task
	decode(t, rec, &task)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks/"+task.ID+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var toggled ports.ToggleTaskResponse
	decode(t, rec, &toggled)
	assert.True(t, toggled.Task.IsCompleted)
	require.NotNil(t, toggled.Successor)
	assert.Equal(t, "2024-02-01", toggled.Successor.DueDate)
	assert.Equal(t, "08:00", toggled.Successor.Time)

	rec = env.do(t, http.MethodPost, "/api/v1/tasks/missing/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/v1/tasks/missing", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Len(t, env.store.Tasks(), 1)
}

func TestCalendarViews(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	task, err := env.store.Add(ctx, entities.TaskDraft{Title: "Done", DueDate: "2024-02-01"})
	require.NoError(t, err)
	_, err = env.store.Toggle(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, env.store.SetMonthlyGoal(ctx, "2024-02", "Stay consistent"))

	rec := env.do(t, http.MethodGet, "/api/v1/calendar/2024-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var month services.MonthView
	decode(t, rec, &month)
	assert.Equal(t, 4, month.Leading)
	assert.Len(t, month.Days, 29)
	assert.Equal(t, "Stay consistent", month.Goal)
	assert.True(t, month.Days[0].Stamped)

	rec = env.do(t, http.MethodGet, "/api/v1/calendar/2024-2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/schedule/week/2024-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var week []services.DayView
	decode(t, rec, &week)
	require.Len(t, week, 7)
	assert.Equal(t, "2024-01-28", week[0].Date)

	rec = env.do(t, http.MethodGet, "/api/v1/schedule/day/2024-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var day services.DayView
	decode(t, rec, &day)
	assert.Equal(t, "2024-01-31", day.Prev)
	assert.Len(t, day.Tasks, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/progress/2024-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"date":"2024-02-01","completed":1,"total":1,"percent":100,"allDone":true}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/stamps?month=2024-02", "")
	assert.JSONEq(t, `["2024-02-01"]`, rec.Body.String())
	rec = env.do(t, http.MethodGet, "/api/v1/stamps?month=2024-03", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGoals(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodPut, "/api/v1/goals/2024-03", `{"text":"Run 50km"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"yearMonth":"2024-03","text":"Run 50km"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/goals/2024-03", "")
	assert.JSONEq(t, `{"yearMonth":"2024-03","text":"Run 50km"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/goals", "")
	assert.JSONEq(t, `{"2024-03":"Run 50km"}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/v1/goals/2024-03", `{"text":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/v1/goals", "")
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = env.do(t, http.MethodPut, "/api/v1/goals/March", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationsFlow(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.store.Add(context.Background(), entities.TaskDraft{Title: "Standup", DueDate: "2024-01-31", Time: "08:00"})
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/api/v1/notifications/sweep", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"notified":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/permission", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"permitted":true}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/sweep", "")
	var sweep ports.SweepResponse
	decode(t, rec, &sweep)
	require.Len(t, sweep.Notified, 1)
	assert.Equal(t, "Standup", sweep.Notified[0].Title)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/sweep", "")
	decode(t, rec, &sweep)
	assert.Empty(t, sweep.Notified)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications?unseen=true&ack=true", "")
	var alerts []notify.Alert
	decode(t, rec, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Due at 08:00", alerts[0].Body)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications?unseen=true", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/v1/notifications/permission", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"permitted":false}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/notifications/permission", "")
	assert.JSONEq(t, `{"permitted":false}`, rec.Body.String())
}

func TestAuthGuardsAPI(t *testing.T) {
	env := newTestEnv(t, "0123456789abcdef-secret")

	rec := env.do(t, http.MethodGet, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks", "", "Authorization", "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/tasks", "", "Authorization", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := env.auth.IssueToken("test")
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/v1/tasks", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpsEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/detailed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detailed struct {
		Status string `json:"status"`
		Checks struct {
			Storage struct {
				Status string `json:"status"`
			} `json:"storage"`
		} `json:"checks"`
	}
	decode(t, rec, &detailed)
	assert.Equal(t, "ok", detailed.Status)
	assert.Equal(t, "ok", detailed.Checks.Storage.Status)

	env.do(t, http.MethodGet, "/api/v1/tasks", "")
	rec = env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "planner_tasks 0")
	assert.Contains(t, body, "planner_reminder_sweeps_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestNewRequiresCoreServices(t *testing.T) {
	_, err := New(&config.Config{}, Deps{}, logger.NewNop())
	assert.Error(t, err)
}

func TestErrorHandlerDetailsOnlyInDebug(t *testing.T) {
	for _, debug := range []bool{false, true} {
		e := echo.New()
		e.Debug = debug
		handle := customErrorHandler(logger.NewNop())

		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		handle(echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(errors.New("disk full")), c)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp ports.ErrorResponse
		decode(t, rec, &resp)
		assert.Equal(t, "Internal server error", resp.Message)
		if debug {
			assert.Equal(t, "disk full", resp.Details["error"])
		} else {
			assert.Empty(t, resp.Details)
		}
	}
}
