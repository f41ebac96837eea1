package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/botapi"
	"github.com/sdibella/deriv-dashboard/internal/clock"
	"github.com/sdibella/deriv-dashboard/internal/config"
	"github.com/sdibella/deriv-dashboard/internal/dashboard"
	"github.com/sdibella/deriv-dashboard/internal/engine"
	"github.com/sdibella/deriv-dashboard/internal/journal"
	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/store"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	record := flag.Bool("journal", false, "record pushes and config changes to a session journal")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}
	if *record {
		cfg.JournalEnabled = true
	}

	// Logging
	logLevel := cfg.SlogLevel()
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("deriv dashboard starting",
		"api", cfg.BotAPIURL,
		"ws", cfg.BotWSURL,
		"addr", cfg.Addr(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Init journal
	var recorder engine.Recorder
	if cfg.JournalEnabled {
		path := journal.SessionPath(cfg.JournalDir, time.Now())
		j, err := journal.New(path)
		if err != nil {
			slog.Error("journal init failed", "err", err)
			os.Exit(1)
		}
		defer j.Close()
		if err := j.Log(journal.NewSessionStart(cfg.BotAPIURL, cfg.BotWSURL)); err != nil {
			slog.Error("failed to journal session start", "err", err)
		}
		recorder = j
		slog.Info("journal opened", "path", path)
	}

	client := botapi.NewClient(cfg)
	persister := store.NewBackgroundPersister(client)
	board := dashboard.NewBoard()
	eng := engine.New(client, persister, board, engine.Options{
		InboxSize: cfg.InboxSize,
		Journal:   recorder,
	})
	persister.Source = eng.Config
	persister.OnResult = func(err error) {
		if err == nil {
			return
		}
		if nerr := eng.Notify(ctx, model.LevelError, engine.MsgPersistFail); nerr != nil && ctx.Err() == nil {
			slog.Warn("failed to post notice", "err", nerr)
		}
	}

	ws := botapi.NewWSClient(cfg.BotWSURL, func(ctx context.Context, event string, data json.RawMessage) error {
		return eng.Submit(ctx, engine.Push{Name: event, Data: data, At: time.Now()})
	})

	clk := clock.New(func(at time.Time) {
		if !eng.TrySubmit(engine.Tick{At: at}) {
			slog.Debug("tick dropped, inbox full")
		}
	})

	engineDone := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(engineDone)
	}()
	go persister.Run(ctx)
	go func() {
		if err := ws.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("bot ws error", "err", err)
		}
	}()
	if err := clk.Start(); err != nil {
		slog.Error("clock start failed", "err", err)
		os.Exit(1)
	}
	defer clk.Stop()

	// Initial state; failures leave the dashboard running on pushes alone.
	go func() {
		if err := eng.LoadConfig(ctx); err != nil {
			slog.Error("initial config load failed", "err", err)
		}
		if err := eng.Seed(ctx); err != nil {
			slog.Warn("initial status fetch failed", "err", err)
		}
	}()

	srv, err := dashboard.NewServer(dashboard.ConfigFrom(cfg, client.LogsURL()), board, eng, ws)
	if err != nil {
		slog.Error("dashboard init failed", "err", err)
		os.Exit(1)
	}
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("dashboard listening", "url", "http://"+cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			cancel()
		}
	}()

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "err", err)
	}
	cancel()
	// The engine writes the journal; it must be idle before the file closes.
	<-engineDone

	slog.Info("dashboard stopped")
}
