package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/infrastructure/config"
	"github.com/taskmaster/planner/internal/infrastructure/database"
	"github.com/taskmaster/planner/internal/infrastructure/server"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the planner API server",
		Long:  "Start the HTTP API together with the background reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the PostgreSQL key/value schema (up, down, version)",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration("down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewSweepCommand runs one reminder sweep and exits
func NewSweepCommand() *cobra.Command {
	var grant bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one due-soon reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if grant {
				if err := a.notifier.RequestPermission(ctx); err != nil {
					return err
				}
			}
			if !a.notifier.IsPermitted() {
				fmt.Println(color.YellowString("Notifications are not permitted; nothing was sent (use --grant)"))
				return nil
			}

			fired := a.scheduler.SweepNow(ctx)
			if len(fired) == 0 {
				fmt.Println("No tasks due soon")
				return nil
			}

			cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
			fmt.Printf("Sent %d reminder(s):\n", len(fired))
			for _, t := range fired {
				fmt.Printf("  %s %s %s\n", cyan(t.Time), t.Title, color.HiBlackString(t.ID))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&grant, "grant", false, "Grant notification permission before sweeping")
	return cmd
}

// NewTokenCommand issues an API bearer token
func NewTokenCommand() *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for API clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			auth := services.NewAuthService(cfg.Security, loggerFor(cfg))
			token, expiresAt, err := auth.IssueToken(client)
			if err != nil {
				if errors.Is(err, services.ErrAuthDisabled) {
					return fmt.Errorf("%w: set JWT_SECRET", err)
				}
				return err
			}

			fmt.Println(token)
			fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&client, "client", "cli", "Client name recorded in the token")
	return cmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print planner version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Planner %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	srv, err := server.New(a.cfg, server.Deps{
		Store:     a.store,
		Scheduler: a.scheduler,
		Notifier:  a.notifier,
		Inbox:     a.inbox,
		Auth:      services.NewAuthService(a.cfg.Security, a.logger),
		Storage:   a.kv,
		Registry:  a.registry,
	}, a.logger)
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	var sweeps *services.Handle
	if a.cfg.Notifications.Enabled {
		sweeps = a.scheduler.Start(ctx)
	}

	a.logger.Infow("Starting planner API server",
		"port", a.cfg.Server.Port,
		"environment", a.cfg.App.Environment,
		"storage", a.cfg.Storage.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port))
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		a.logger.Errorw("Server shutdown failed", "error", serr)
	}
	if sweeps != nil {
		sweeps.Stop()
	}
	if cerr := a.close(shutdownCtx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func openDatabase() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func runMigration(direction string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	changed, err := db.Migrate(direction)
	if err != nil {
		return err
	}

	if !changed {
		fmt.Println("No migrations to run")
	} else {
		fmt.Printf("Migration %s completed successfully\n", direction)
	}
	return nil
}

func showMigrationVersion() error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}
