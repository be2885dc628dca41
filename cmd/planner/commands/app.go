package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskmaster/planner/internal/adapters/notify"
	"github.com/taskmaster/planner/internal/adapters/storage"
	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/logger"
	"github.com/taskmaster/planner/internal/ports"
)

// app wires the long-lived components every command shares
type app struct {
	cfg       *config.Config
	logger    *logger.Logger
	kv        ports.KeyValueStore
	store     *services.TaskStore
	scheduler *services.NotificationScheduler
	notifier  ports.Notifier
	inbox     *notify.Inbox
	registry  *prometheus.Registry
}

func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	kv, err := storage.Open(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Close()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	a := &app{
		cfg:      cfg,
		logger:   appLogger,
		kv:       kv,
		registry: prometheus.NewRegistry(),
	}

	switch cfg.Notifications.Notifier {
	case config.NotifierInbox:
		a.inbox = notify.NewInbox(cfg.Notifications.InboxSize, cfg.Notifications.Granted)
		a.notifier = a.inbox
	default:
		a.notifier = notify.NewLogNotifier(appLogger, cfg.Notifications.Granted)
	}

	a.store = services.NewTaskStore(kv, appLogger)
	a.scheduler = services.NewNotificationScheduler(a.store, kv, a.notifier, appLogger, services.SchedulerConfig{
		Interval: cfg.Notifications.Interval,
		Window:   cfg.Notifications.Window,
		Location: loc,
		Metrics:  services.NewSchedulerMetrics(a.registry),
	})
	a.store.OnDelete(a.scheduler.Forget)
	services.RegisterStoreMetrics(a.registry, a.store)

	a.store.Init(ctx)
	a.scheduler.Init(ctx)

	return a, nil
}

// close flushes unsaved state and releases the storage backend
func (a *app) close(ctx context.Context) error {
	err := a.store.Close(ctx)
	if cerr := a.kv.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		a.logger.Errorw("Shutdown incomplete", "error", err)
	}
	a.logger.Close()
	return err
}

func loggerFor(cfg *config.Config) *logger.Logger {
	l, err := logger.New(cfg.Logger)
	if err != nil {
		return logger.NewNop()
	}
	return l
}
