package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focustasks/notify"
	"focustasks/tracker"
)

func newThemeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show or set the color theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := app.session.Prefs
			if len(args) == 1 {
				theme := strings.ToLower(strings.TrimSpace(args[0]))
				if err := prefs.SetTheme(cmd.Context(), theme); err != nil {
					return fmt.Errorf("%w (one of %s)", err, strings.Join(tracker.Themes, ", "))
				}
			}
			theme, err := prefs.Theme(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", theme)
			return nil
		},
	}
}

func newNotifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Manage overdue reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "on",
		Short: "Enable reminders and scan right away",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.SetNotifications(cmd.Context(), true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders on (%s sent)\n", plural(len(res.Sent), "reminder"))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "off",
		Short: "Disable reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.session.SetNotifications(cmd.Context(), false); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reminders off")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether reminders are on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := app.session.Prefs.NotificationsEnabled(cmd.Context())
			if err != nil {
				return err
			}
			state := "off"
			if on {
				state = "on"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reminders %s\n", state)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Run one reminder scan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := app.session.Scan(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%s sent\n", plural(len(res.Sent), "reminder"))
			return nil
		},
	})
	return cmd
}

func newWatchCmd(app *App) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay running and remind about overdue tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			on, err := app.session.Prefs.NotificationsEnabled(ctx)
			if err != nil {
				return err
			}
			if !on {
				fmt.Fprintln(cmd.ErrOrStderr(), "Reminders are off; run `focus notify on` first.")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching every %s (Ctrl+C to stop)\n", interval)
			app.session.Resume(ctx)
			if _, err := notify.StartPoller(ctx, interval, func(ctx context.Context) {
				app.session.Scan(ctx)
			}, app.logger); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", notify.DefaultPollInterval, "Scan interval")
	return cmd
}
