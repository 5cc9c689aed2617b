package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// DefaultPollInterval is how often the client re-scans while running.
const DefaultPollInterval = 30 * time.Second

// StartPoller runs fn every interval until ctx is cancelled. The returned
// cron is already started.
func StartPoller(ctx context.Context, interval time.Duration, fn func(context.Context), logger *log.Logger) (*cron.Cron, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		logger.Debug("running notification scan")
		fn(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule poller: %w", err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
