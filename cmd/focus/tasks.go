package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focustasks/filter"
	"focustasks/tracker"
)

func newAddCmd(app *App) *cobra.Command {
	var (
		date   string
		clock  string
		allDay bool
		typ    string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: strings.TrimSpace(`
  focus add "Stand-up" --date 2024-05-10 --time 09:30 --type work
  focus add "Renew passport" --date 2024-06-01 --all-day
  focus add "Someday"
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := tracker.AddTaskInput{
				AddInput: tracker.AddInput{
					Title: strings.Join(args, " "),
					Date:  date,
					Time:  clock,
					// Without a date there is no clock to read either.
					AllDay: allDay || (strings.TrimSpace(date) == "" && strings.TrimSpace(clock) == ""),
				},
				TypeID: typ,
			}
			res, err := app.session.AddTask(cmd.Context(), in)
			if errors.Is(err, tracker.ErrMissingTime) {
				return fmt.Errorf("%w (pass --time or --all-day)", err)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s\n", renderTask(*res.Task, app.session.Types, app.session.Now()))
			fmt.Fprintln(out, mutedStyle.Render(renderStats(res.Stats)))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Deadline date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&clock, "time", "", "Deadline time (HH:MM)")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "Deadline is the end of the day")
	cmd.Flags().StringVar(&typ, "type", "", "Type id or name (default: the first type)")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks in a view",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := filter.ParseKind(strings.ToLower(strings.TrimSpace(view)))
			if !ok {
				return fmt.Errorf("unknown filter %q (one of %s)", view, kindNames())
			}
			out := cmd.OutOrStdout()
			now := app.session.Now()
			tasks := app.session.View(kind)

			fmt.Fprintln(out, mutedStyle.Render(renderStats(app.session.Stats())))
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintln(out, renderTask(t, app.session.Types, now))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&view, "filter", "f", string(filter.All), "View: "+kindNames())
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between open and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			verb := "Reopened"
			if res.Task.Completed {
				verb = "Completed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, res.Task.Title)
			return nil
		},
	}
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", res.Task.Title)
			return nil
		},
	}
}

func newClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", plural(res.Removed, "completed task"))
			return nil
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today, overdue and upcoming counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(app.session.Stats()))
			return nil
		},
	}
}

func kindNames() string {
	names := make([]string, 0, len(filter.Kinds))
	for _, k := range filter.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
