package scheduler

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"focustasks/services"
)

// DispatchSpec runs at second zero of every minute.
const DispatchSpec = "0 * * * * *"

// StartScheduler runs the reminder dispatcher every minute. The caller stops
// the returned cron.
func StartScheduler(ctx context.Context, dispatcher *services.Dispatcher, logger *log.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(DispatchSpec, func() {
		RunDispatch(ctx, dispatcher, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add cron job: %w", err)
	}

	c.Start()
	logger.Info("Scheduler started", "spec", DispatchSpec)
	return c, nil
}

// RunDispatch is one scheduled run. Errors are logged; the next run retries.
func RunDispatch(ctx context.Context, dispatcher *services.Dispatcher, logger *log.Logger) {
	if !dispatcher.Enabled() {
		return
	}
	logger.Debug("Running scheduled notification job...")
	sum, err := dispatcher.DispatchDue(ctx)
	if err != nil {
		logger.Error("Cron dispatch failed", "err", err)
		return
	}
	if sum.Sent > 0 || sum.Failed > 0 || sum.Retired > 0 {
		logger.Info("reminders dispatched", "devices", sum.Devices, "sent", sum.Sent, "failed", sum.Failed, "retired", sum.Retired)
	}
}
