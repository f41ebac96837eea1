package store

import (
	"context"
	"log/slog"

	"github.com/sdibella/deriv-dashboard/internal/metrics"
	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Source returns the config to persist as it is cached at call time. ok is
// false when nothing is loaded.
type Source func(ctx context.Context) (cfg model.Config, ok bool, err error)

// BackgroundPersister saves watch-list edits without blocking the caller.
// An edit only marks the config dirty; the config sent is read from Source
// when the save starts, so a save can never carry state older than the cache.
// Edits that arrive while a save is in flight coalesce into one more save.
// Failures are logged, not retried.
type BackgroundPersister struct {
	backend Backend
	wake    chan struct{}

	// Source must be set before Run.
	Source Source

	// OnResult, if set, is called after every save attempt from the
	// persister goroutine.
	OnResult func(err error)
}

func NewBackgroundPersister(b Backend) *BackgroundPersister {
	return &BackgroundPersister{
		backend: b,
		wake:    make(chan struct{}, 1),
	}
}

// Persist marks the cached config dirty.
func (p *BackgroundPersister) Persist() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run saves queued configs until ctx is done.
func (p *BackgroundPersister) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			p.flush(ctx)
		}
	}
}

func (p *BackgroundPersister) flush(ctx context.Context) {
	if p.Source == nil {
		return
	}
	cfg, ok, err := p.Source(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("watch-list persist skipped, config unavailable", "err", err)
		}
		return
	}
	if !ok {
		return
	}

	err = p.backend.SaveConfig(ctx, cfg)
	if err != nil {
		metrics.ConfigPersists.WithLabelValues(metrics.ResultError).Inc()
		slog.Warn("watch-list persist failed", "symbols", len(cfg.Symbols), "err", err)
	} else {
		metrics.ConfigPersists.WithLabelValues(metrics.ResultOK).Inc()
		slog.Debug("watch-list persisted", "symbols", len(cfg.Symbols))
	}
	if p.OnResult != nil {
		p.OnResult(err)
	}
}
