// Package engine owns the dashboard stores and runs every mutation on a
// single goroutine.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/journal"
	"github.com/sdibella/deriv-dashboard/internal/metrics"
	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/store"
	"github.com/sdibella/deriv-dashboard/internal/view"
)

// User-visible notifications for request failures.
const (
	MsgLoadFailed  = "Failed to load configuration"
	MsgSaveFailed  = "Failed to save configuration"
	MsgSaved       = "Configuration saved"
	MsgPersistFail = "Failed to save watch-list"
)

// ErrNoConfig is returned by config edits before the first load.
var ErrNoConfig = errors.New("configuration not loaded")

// Backend is the bot's request/response API.
type Backend interface {
	store.Backend
	FetchStatus(ctx context.Context) (json.RawMessage, error)
}

// Renderer receives every computed view model. Render is called from the
// engine goroutine and must not block.
type Renderer interface {
	Render(m view.Model)
}

// Recorder journals engine input. *journal.Journal implements it.
type Recorder interface {
	Log(event any) error
}

type Options struct {
	InboxSize    int
	ConsoleLimit int
	Journal      Recorder
	Now          func() time.Time
}

// Engine is the event dispatcher. Producers post into its inbox; Run applies
// each event to the store that owns the data and re-renders.
type Engine struct {
	inbox    chan Event
	backend  Backend
	renderer Renderer
	journal  Recorder
	now      func() time.Time

	screener *store.Screener
	trades   *store.Trades
	account  *store.Account
	console  *store.Console
	config   *store.ConfigStore

	running   bool
	connected bool

	last     view.Model
	rendered bool
}

// New creates an engine. persister receives watch-list edits; it may be nil.
func New(backend Backend, persister store.Persister, r Renderer, opts Options) *Engine {
	if opts.InboxSize <= 0 {
		opts.InboxSize = 256
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		inbox:    make(chan Event, opts.InboxSize),
		backend:  backend,
		renderer: r,
		journal:  opts.Journal,
		now:      opts.Now,
		screener: store.NewScreener(),
		trades:   store.NewTrades(),
		account:  store.NewAccount(),
		console:  store.NewConsole(opts.ConsoleLimit),
		config:   store.NewConfigStore(persister),
	}
}

// Submit queues ev, blocking until there is room or ctx is done.
func (e *Engine) Submit(ctx context.Context, ev Event) error {
	select {
	case e.inbox <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues ev if the inbox has room.
func (e *Engine) TrySubmit(ev Event) bool {
	select {
	case e.inbox <- ev:
		return true
	default:
		return false
	}
}

// Run processes events until ctx is done. It must run in a single goroutine.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("engine started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopping")
			return
		case ev := <-e.inbox:
			e.process(ev)
		}
	}
}

func (e *Engine) process(ev Event) {
	switch ev := ev.(type) {
	case Push:
		e.record(journal.NewPush(ev.Name, ev.Data, ev.At))
		if e.dispatch(ev) {
			e.render()
		}
	case Tick:
		e.tick(ev.At)
	case call:
		ev.fn()
		close(ev.done)
	}
}

// do runs fn on the engine goroutine and waits for it to finish.
func (e *Engine) do(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	if err := e.Submit(ctx, c); err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReplayEvent applies a recorded push synchronously, without journaling.
// Only for use while Run is not running.
func (e *Engine) ReplayEvent(p Push) {
	if e.dispatch(p) {
		e.render()
	}
}

// ReplayConfig applies a recorded config synchronously, without journaling.
func (e *Engine) ReplayConfig(cfg model.Config) {
	e.applyConfig(cfg)
}

// View returns the last rendered model. Only safe while Run is not running.
func (e *Engine) View() view.Model { return e.last }

func (e *Engine) tick(at time.Time) {
	if !e.rendered {
		return
	}
	e.last = e.last.WithCountdowns(at)
	if e.renderer != nil {
		e.renderer.Render(e.last)
	}
}

func (e *Engine) render() {
	in := view.Input{
		Rows:      e.screener.Snapshot(),
		Trades:    e.trades.Snapshot(),
		Running:   e.running,
		Connected: e.connected,
		Console:   e.console.Lines(),
	}
	in.Config, in.HasConfig = e.config.Get()
	in.Account, in.HasAccount = e.account.Get()
	if n, ok := e.console.Notice(); ok {
		in.Notice = &n
	}

	e.last = view.Compute(in, e.now())
	e.rendered = true
	metrics.Renders.Inc()
	metrics.ScreenerRows.Set(float64(len(in.Rows)))
	if e.renderer != nil {
		e.renderer.Render(e.last)
	}
}

func (e *Engine) record(event any) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Log(event); err != nil {
		slog.Warn("journal write failed", "err", err)
	}
}

func (e *Engine) notify(level, msg string) {
	e.console.SetNotice(model.Notice{Level: level, Message: msg, At: e.now()})
}

// applyConfig replaces the cached config and re-derives dependent state.
func (e *Engine) applyConfig(cfg model.Config) {
	ch := e.config.Replace(cfg)
	if ch.ResetsScreener() {
		slog.Info("screener reset", "strategy", cfg.ActiveStrategy, "contract", cfg.Contract())
		e.screener.Reset()
	}
	for _, sym := range ch.Removed {
		e.screener.Remove(sym)
	}
	e.render()
}

// LoadConfig fetches the config from the backend and replaces the cache.
func (e *Engine) LoadConfig(ctx context.Context) error {
	cfg, err := e.backend.FetchConfig(ctx)
	if err != nil {
		_ = e.do(ctx, func() {
			e.notify(model.LevelError, MsgLoadFailed)
			e.render()
		})
		return fmt.Errorf("load config: %w", err)
	}
	return e.do(ctx, func() {
		e.record(journal.NewConfig(cfg, e.now()))
		e.applyConfig(cfg)
	})
}

// SaveConfig sends cfg to the backend and, only once the backend confirms,
// replaces the cache. On failure the cache is left as it was.
func (e *Engine) SaveConfig(ctx context.Context, cfg model.Config) error {
	if err := e.backend.SaveConfig(ctx, cfg); err != nil {
		metrics.ConfigSaves.WithLabelValues(metrics.ResultError).Inc()
		slog.Warn("config save failed", "err", err)
		_ = e.do(ctx, func() {
			e.notify(model.LevelError, MsgSaveFailed)
			e.render()
		})
		return fmt.Errorf("save config: %w", err)
	}
	metrics.ConfigSaves.WithLabelValues(metrics.ResultOK).Inc()
	return e.do(ctx, func() {
		e.record(journal.NewConfig(cfg, e.now()))
		e.notify(model.LevelInfo, MsgSaved)
		e.applyConfig(cfg)
	})
}

// MutateSymbols adds or removes one watch-list symbol. The edit is visible
// immediately; persisting it happens in the background. A removed symbol's
// screener row is dropped.
func (e *Engine) MutateSymbols(ctx context.Context, op store.SymbolOp, symbol string) (bool, error) {
	var changed, loaded bool
	err := e.do(ctx, func() {
		_, loaded = e.config.Get()
		if !loaded {
			return
		}
		changed = e.config.MutateSymbols(op, symbol)
		if !changed {
			return
		}
		if op == store.SymbolRemove {
			e.screener.Remove(symbol)
		}
		if cfg, ok := e.config.Get(); ok {
			e.record(journal.NewConfig(cfg, e.now()))
		}
		e.render()
	})
	if err != nil {
		return false, err
	}
	if !loaded {
		return false, ErrNoConfig
	}
	return changed, nil
}

// Config returns the cached config, or false before the first load.
func (e *Engine) Config(ctx context.Context) (model.Config, bool, error) {
	var (
		cfg model.Config
		ok  bool
	)
	err := e.do(ctx, func() { cfg, ok = e.config.Get() })
	return cfg, ok, err
}

// Seed fetches the backend status document and feeds it through the normal
// push path.
func (e *Engine) Seed(ctx context.Context) error {
	data, err := e.backend.FetchStatus(ctx)
	if err != nil {
		return fmt.Errorf("seed status: %w", err)
	}
	return e.Submit(ctx, Push{Name: EventStatus, Data: data, At: e.now()})
}

// Notify shows a notification from outside the engine goroutine.
func (e *Engine) Notify(ctx context.Context, level, msg string) error {
	return e.do(ctx, func() {
		e.notify(level, msg)
		e.render()
	})
}
