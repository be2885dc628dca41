package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskmaster/planner/internal/application/services"
	"github.com/taskmaster/planner/internal/domain/entities"
)

// NewTaskCommand creates the task management command
func NewTaskCommand() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
		Long:  "Add, list, toggle and delete tasks in the configured store",
	}

	taskCmd.AddCommand(newTaskAddCommand())
	taskCmd.AddCommand(newTaskListCommand())
	taskCmd.AddCommand(newTaskToggleCommand())
	taskCmd.AddCommand(newTaskDeleteCommand())
	return taskCmd
}

func newTaskAddCommand() *cobra.Command {
	var draft entities.TaskDraft
	var tag string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft.Title = strings.Join(args, " ")
			if tag != "" {
				parsed, ok := entities.ParseTag(tag)
				if !ok {
					return fmt.Errorf("unknown tag %q", tag)
				}
				draft.Tag = parsed
			}

			return withApp(func(ctx context.Context, a *app) error {
				task, err := a.store.Add(ctx, draft)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s\n", color.GreenString("Added"), formatTask(task))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&draft.DueDate, "date", "", "Due date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&draft.Time, "time", entities.DefaultTime, "Time of day HH:MM")
	cmd.Flags().StringVar(&draft.Description, "description", "", "Task description")
	cmd.Flags().BoolVar(&draft.IsRecurring, "daily", false, "Repeat the task every day")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag: 仕事, プライベート, 学校, その他 (or work, private, school, other)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newTaskListCommand() *cobra.Command {
	var date, month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				agg := services.NewAggregator(a.store)

				if date != "" {
					view, err := agg.DaySchedule(date)
					if err != nil {
						return err
					}
					printDay(view)
					return nil
				}

				tasks := a.store.Tasks()
				if month != "" {
					if _, err := entities.ParseYearMonth(month); err != nil {
						return fmt.Errorf("month must be YYYY-MM")
					}
					if goal := a.store.MonthlyGoal(month); goal != "" {
						fmt.Printf("%s %s\n\n", color.New(color.FgMagenta, color.Bold).Sprint("Goal:"), goal)
					}
				}

				buckets := services.DayBuckets(tasks)
				stamped := services.StampedDays(tasks)
				printed, lastDate := 0, ""
				for _, t := range tasks {
					if month != "" && !strings.HasPrefix(t.DueDate, month+"-") {
						continue
					}
					if t.DueDate != lastDate {
						lastDate = t.DueDate
						header := t.DueDate
						if stamped[t.DueDate] {
							header += " " + color.YellowString("★")
						}
						fmt.Printf("%s (%d)\n", color.New(color.FgCyan, color.Bold).Sprint(header), len(buckets[t.DueDate]))
					}
					fmt.Printf("  %s\n", formatTask(t))
					printed++
				}
				if printed == 0 {
					fmt.Println("No tasks")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Show the schedule of one date YYYY-MM-DD")
	cmd.Flags().StringVar(&month, "month", "", "Limit to one month YYYY-MM")
	return cmd
}

func newTaskToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				result, err := a.store.Toggle(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Println(formatTask(result.Task))
				if result.Successor != nil {
					fmt.Printf("%s %s\n", color.CyanString("Next:"), formatTask(*result.Successor))
				}
				return nil
			})
		},
	}
}

func newTaskDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Printf("%s %s\n", color.RedString("Deleted"), args[0])
				return nil
			})
		},
	}
}

// NewGoalCommand creates the monthly goal command
func NewGoalCommand() *cobra.Command {
	goalCmd := &cobra.Command{
		Use:   "goal",
		Short: "Monthly goal commands",
	}

	goalCmd.AddCommand(&cobra.Command{
		Use:   "set YYYY-MM TEXT",
		Short: "Set the goal of a month; empty text clears it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.store.SetMonthlyGoal(ctx, args[0], text); err != nil {
					return err
				}
				if text == "" {
					fmt.Printf("Cleared goal for %s\n", args[0])
				} else {
					fmt.Printf("Goal for %s: %s\n", args[0], text)
				}
				return nil
			})
		},
	})

	goalCmd.AddCommand(&cobra.Command{
		Use:   "get YYYY-MM",
		Short: "Print the goal of a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := entities.ParseYearMonth(args[0]); err != nil {
				return fmt.Errorf("month must be YYYY-MM")
			}
			return withApp(func(ctx context.Context, a *app) error {
				goal := a.store.MonthlyGoal(args[0])
				if goal == "" {
					fmt.Println(color.HiBlackString("No goal set"))
					return nil
				}
				fmt.Println(goal)
				return nil
			})
		},
	})

	return goalCmd
}

func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, a); err != nil {
		a.close(ctx)
		return err
	}
	return a.close(ctx)
}

func printDay(view services.DayView) {
	header := fmt.Sprintf("%s %s", view.Date, view.Weekday)
	if view.Stamped {
		header += " " + color.YellowString("★")
	}
	fmt.Printf("%s  %d/%d (%.0f%%)\n", color.New(color.FgCyan, color.Bold).Sprint(header),
		view.Progress.Completed, view.Progress.Total, view.Percent)
	if len(view.Tasks) == 0 {
		fmt.Println("  No tasks")
	}
	for _, t := range view.Tasks {
		fmt.Printf("  %s\n", formatTask(t))
	}
}

func formatTask(t entities.Task) string {
	check := "[ ]"
	if t.IsCompleted {
		check = color.GreenString("[x]")
	}
	title := t.Title
	if t.IsRecurring {
		title += " " + color.CyanString("(daily)")
	}
	return fmt.Sprintf("%s %s %s %s %s", check, t.Time, title, tagColor(t.Tag)(string(t.Tag)), color.HiBlackString(t.ID))
}

func tagColor(tag entities.Tag) func(a ...interface{}) string {
	switch tag {
	case entities.TagWork:
		return color.New(color.FgBlue).SprintFunc()
	case entities.TagPersonal:
		return color.New(color.FgGreen).SprintFunc()
	case entities.TagSchool:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgHiBlack).SprintFunc()
	}
}
