package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/planner/cmd/planner/commands"
)

// @title Planner API
// @version 1.0
// @description Tasks, calendar views, monthly goals and due-soon reminders

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "Personal task planner",
		Long:          `Planner keeps dated tasks with optional daily recurrence, monthly goals and due-soon reminders, and serves calendar views over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewTaskCommand())
	rootCmd.AddCommand(commands.NewGoalCommand())
	rootCmd.AddCommand(commands.NewSweepCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
