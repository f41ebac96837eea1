// Package replay rebuilds the dashboard view from a recorded session journal.
package replay

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/engine"
	"github.com/sdibella/deriv-dashboard/internal/journal"
	"github.com/sdibella/deriv-dashboard/internal/view"
)

// Result is the outcome of replaying one journal.
type Result struct {
	View    view.Model `json:"view"`
	Summary Summary    `json:"summary"`
}

// Run feeds entries through a fresh engine in file order. The view clock
// follows entry timestamps, so countdowns read as they did at the last entry.
func Run(entries []journal.Entry) Result {
	var now time.Time
	eng := engine.New(nil, nil, nil, engine.Options{
		Now: func() time.Time { return now },
	})

	for _, e := range entries {
		switch {
		case e.Push != nil:
			if at := journal.At(e.Push.Time); !at.IsZero() {
				now = at
			}
			eng.ReplayEvent(engine.Push{Name: e.Push.Event, Data: e.Push.Data, At: now})
		case e.Config != nil:
			if at := journal.At(e.Config.Time); !at.IsZero() {
				now = at
			}
			eng.ReplayConfig(e.Config.Config)
		}
	}

	a := NewAnalyzer()
	a.ProcessEntries(entries)
	return Result{View: eng.View(), Summary: a.ComputeSummary()}
}

// File replays one journal file.
func File(path string) (Result, error) {
	entries, err := journal.ParseJournal(path)
	if err != nil {
		return Result{}, err
	}
	return Run(entries), nil
}

// Latest resolves the newest session journal in dir.
func Latest(dir string) (string, error) {
	sessions, err := journal.DiscoverSessions(dir)
	if err != nil {
		return "", fmt.Errorf("failed to discover sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no journal sessions found in %s", dir)
	}
	return filepath.Join(dir, sessions[0].Filename), nil
}
