package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sdibella/deriv-dashboard/internal/replay"
)

func main() {
	file := flag.String("file", "", "journal file to replay")
	dir := flag.String("dir", "", "replay the newest session in this directory (default JOURNAL_DIR or .)")
	summaryOnly := flag.Bool("summary", false, "print only the session summary")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	_ = godotenv.Load()

	path := *file
	if path == "" {
		d := *dir
		if d == "" {
			d = os.Getenv("JOURNAL_DIR")
		}
		if d == "" {
			d = "."
		}
		latest, err := replay.Latest(d)
		if err != nil {
			slog.Error("no journal to replay", "err", err)
			os.Exit(1)
		}
		path = latest
	}

	res, err := replay.File(path)
	if err != nil {
		slog.Error("replay failed", "path", path, "err", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	var out any = res
	if *summaryOnly {
		out = res.Summary
	}
	if err := enc.Encode(out); err != nil {
		slog.Error("failed to write result", "err", err)
		os.Exit(1)
	}
}
