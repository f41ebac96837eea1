package replay

import (
	"sort"
	"time"

	"github.com/sdibella/deriv-dashboard/internal/engine"
	"github.com/sdibella/deriv-dashboard/internal/journal"
	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Analyzer aggregates journal entries into a session summary.
type Analyzer struct {
	events    map[string]int
	malformed int
	configs   int
	symbols   map[string]struct{}
	strategy  string

	equityCurve []EquityPoint
	start, end  time.Time
}

type EquityPoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

type EventCount struct {
	Event string `json:"event"`
	Count int    `json:"count"`
}

// Summary describes one recorded session.
type Summary struct {
	Start          time.Time    `json:"start"`
	End            time.Time    `json:"end"`
	Events         []EventCount `json:"events"`
	Malformed      int          `json:"malformed"`
	ConfigChanges  int          `json:"config_changes"`
	Symbols        []string     `json:"symbols"`
	Strategy       string       `json:"strategy,omitempty"`
	StartBalance   float64      `json:"start_balance"`
	EndBalance     float64      `json:"end_balance"`
	PeakBalance    float64      `json:"peak_balance"`
	MaxDrawdownPct float64      `json:"max_drawdown_pct"`
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		events:  make(map[string]int),
		symbols: make(map[string]struct{}),
	}
}

// ProcessEntries folds entries into the running totals.
func (a *Analyzer) ProcessEntries(entries []journal.Entry) {
	for _, e := range entries {
		switch {
		case e.SessionStart != nil:
			a.seen(journal.At(e.SessionStart.Time))
		case e.Push != nil:
			a.processPush(*e.Push)
		case e.Config != nil:
			a.seen(journal.At(e.Config.Time))
			a.configs++
			a.strategy = string(e.Config.Config.ActiveStrategy)
		}
	}
}

func (a *Analyzer) seen(t time.Time) {
	if t.IsZero() {
		return
	}
	if a.start.IsZero() || t.Before(a.start) {
		a.start = t
	}
	if t.After(a.end) {
		a.end = t
	}
}

func (a *Analyzer) processPush(p journal.Push) {
	at := journal.At(p.Time)
	a.seen(at)
	a.events[p.Event]++

	switch p.Event {
	case engine.EventAccountUpdate, engine.EventStatus:
		var snap model.AccountSnapshot
		if !model.Decode(p.Data, &snap) {
			a.malformed++
			return
		}
		a.equityCurve = append(a.equityCurve, EquityPoint{Time: at, Balance: snap.TotalBalance.Float()})
	case engine.EventScreenerUpdate:
		var upd model.ScreenerUpdate
		if !model.Decode(p.Data, &upd) || upd.Symbol == "" {
			a.malformed++
			return
		}
		a.symbols[string(upd.Symbol)] = struct{}{}
	}
}

// ComputeSummary returns summary statistics for the entries seen so far.
func (a *Analyzer) ComputeSummary() Summary {
	s := Summary{
		Start:         a.start,
		End:           a.end,
		Malformed:     a.malformed,
		ConfigChanges: a.configs,
		Strategy:      a.strategy,
		Symbols:       make([]string, 0, len(a.symbols)),
	}
	for ev, n := range a.events {
		s.Events = append(s.Events, EventCount{Event: ev, Count: n})
	}
	sort.Slice(s.Events, func(i, j int) bool {
		if s.Events[i].Count != s.Events[j].Count {
			return s.Events[i].Count > s.Events[j].Count
		}
		return s.Events[i].Event < s.Events[j].Event
	})
	for sym := range a.symbols {
		s.Symbols = append(s.Symbols, sym)
	}
	sort.Strings(s.Symbols)

	if len(a.equityCurve) == 0 {
		return s
	}
	s.StartBalance = a.equityCurve[0].Balance
	s.EndBalance = a.equityCurve[len(a.equityCurve)-1].Balance

	// Max drawdown from equity curve
	peak := 0.0
	for _, ep := range a.equityCurve {
		if ep.Balance > peak {
			peak = ep.Balance
		}
		if peak > 0 {
			if dd := (peak - ep.Balance) / peak * 100; dd > s.MaxDrawdownPct {
				s.MaxDrawdownPct = dd
			}
		}
	}
	s.PeakBalance = peak
	return s
}

// GetEquityCurve returns the equity curve, sampled to 1000 points if longer.
func (a *Analyzer) GetEquityCurve() []EquityPoint {
	if len(a.equityCurve) <= 1000 {
		return a.equityCurve
	}

	sampled := make([]EquityPoint, 1000)
	step := float64(len(a.equityCurve)-1) / 999.0
	for i := 0; i < 1000; i++ {
		sampled[i] = a.equityCurve[int(float64(i)*step)]
	}
	return sampled
}
