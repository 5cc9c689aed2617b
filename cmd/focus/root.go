package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"focustasks/logger"
	"focustasks/storage"
	"focustasks/syncclient"
	"focustasks/tracker"
)

// keyRelayToken holds the device token the relay issued, if any.
const keyRelayToken = "focus-relay-token-v1"

type App struct {
	DBPath   string
	Server   string
	LogLevel string
	Timezone string

	// Now is overridden in tests.
	Now func() time.Time

	kv      *storage.SQLite
	session *tracker.Session
	client  *syncclient.Client
	loc     *time.Location
	logger  *log.Logger
}

func NewRootCmd() *cobra.Command {
	_ = godotenv.Load()
	return newRootCmd(&App{Now: time.Now})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "focus",
		Short:        "Focus Tasks: deadlines, types and reminders from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  focus add "Pay rent" --date 2024-06-01 --time 09:00
  focus list --filter overdue
  focus done 3f2a
  focus notify on
  focus watch
`),
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("FOCUS_DB", defaultDBPath()), "Path to the local database")
	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("FOCUS_SERVER", ""), "Relay server URL (empty disables sync)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("FOCUS_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.Timezone, "tz", envOr("TZ", ""), "IANA timezone deadlines are read in (default: system)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.open(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close(cmd.Context())
	}

	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newDoneCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newClearCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newTypesCmd(app))
	cmd.AddCommand(newThemeCmd(app))
	cmd.AddCommand(newNotifyCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newSyncCmd(app))
	cmd.AddCommand(newWatchCmd(app))

	return cmd
}

func (app *App) open(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app.logger = logger.New(logger.Options{Writer: cmd.ErrOrStderr(), Level: app.LogLevel, Prefix: "focus"})

	loc, err := resolveLocation(app.Timezone)
	if err != nil {
		return err
	}
	app.loc = loc

	kv, err := storage.OpenSQLite(app.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", app.DBPath, err)
	}
	app.kv = kv

	opts := tracker.SessionOptions{
		Options: tracker.Options{
			Location: loc,
			Now:      app.Now,
			Logger:   app.logger,
		},
		Notifier: terminalNotifier{w: cmd.OutOrStdout()},
	}

	if app.Server != "" {
		token, _, err := kv.Get(ctx, keyRelayToken)
		if err != nil {
			return err
		}
		app.client = syncclient.New(app.Server, syncclient.WithToken(token))
		deviceID, err := tracker.NewPrefs(kv).DeviceID(ctx)
		if err != nil {
			return err
		}
		opts.Syncer = syncclient.NewDebouncer(app.client, deviceID, syncclient.DefaultDelay, app.logger)
	}

	sess, err := tracker.Open(ctx, kv, opts)
	if err != nil {
		return err
	}
	app.session = sess
	return nil
}

func (app *App) close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	if app.session != nil {
		// Sync failures never fail a local command.
		if err := app.session.Close(ctx); err != nil {
			app.logger.Warn("sync failed", "err", err)
		}
	}
	if app.kv != nil {
		errs = append(errs, app.kv.Close())
	}
	return errors.Join(errs...)
}

// timezoneName is what the relay is told about this device.
func (app *App) timezoneName() string {
	if app.loc != nil && app.loc != time.Local && app.loc.String() != "Local" {
		return app.loc.String()
	}
	now := time.Now()
	if app.Now != nil {
		now = app.Now()
	}
	name, exact := localZoneName(time.Local, now, os.Getenv, os.Readlink)
	if !exact && app.logger != nil {
		app.logger.Warn("could not determine the local IANA timezone; pass --tz", "reported", name)
	}
	return name
}

// localZoneName finds the IANA name of loc, the system zone, from TZ or the
// /etc/localtime symlink. Failing both it falls back to a fixed Etc/GMT zone
// with loc's current offset; exact is false in that case unless the offset is
// zero.
func localZoneName(loc *time.Location, now time.Time, getenv func(string) string, readlink func(string) (string, error)) (name string, exact bool) {
	if tz := strings.TrimPrefix(strings.TrimSpace(getenv("TZ")), ":"); tz != "" && !strings.HasPrefix(tz, "/") {
		if _, err := time.LoadLocation(tz); err == nil {
			return tz, true
		}
	}
	if target, err := readlink("/etc/localtime"); err == nil {
		if i := strings.LastIndex(target, "zoneinfo/"); i >= 0 {
			tz := target[i+len("zoneinfo/"):]
			if _, err := time.LoadLocation(tz); err == nil {
				return tz, true
			}
		}
	}

	_, offset := now.In(loc).Zone()
	switch {
	case offset == 0:
		return "UTC", true
	case offset%3600 == 0:
		// Etc/GMT signs are inverted: UTC-5 is Etc/GMT+5.
		return fmt.Sprintf("Etc/GMT%+d", -offset/3600), false
	}
	return "UTC", false
}

func resolveLocation(name string) (*time.Location, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), ":")
	if name == "" || strings.HasPrefix(name, "/") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q", name)
	}
	return loc, nil
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "focus", "focus.db")
	}
	return "focus.db"
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
