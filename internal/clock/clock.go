// Package clock drives the once-per-second countdown refresh.
package clock

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Spec fires on every second.
const Spec = "* * * * * *"

// Clock calls a tick function once per second. A tick that is still running
// when the next one is due causes that one to be skipped.
type Clock struct {
	cron   *cron.Cron
	onTick func(time.Time)
}

// New creates a stopped clock.
func New(onTick func(time.Time)) *Clock {
	return &Clock{
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		onTick: onTick,
	}
}

// Start schedules the tick and starts the clock.
func (c *Clock) Start() error {
	if _, err := c.cron.AddFunc(Spec, func() { c.onTick(time.Now()) }); err != nil {
		return err
	}
	c.cron.Start()
	slog.Debug("clock started")
	return nil
}

// Stop stops the clock and waits for a running tick to return.
func (c *Clock) Stop() {
	<-c.cron.Stop().Done()
}
