package store

import (
	"sort"

	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Screener holds the latest analytics row per symbol. Rows are never expired;
// a symbol whose producer goes quiet keeps its last row until Reset or Remove.
//
// Like every store in this package it is owned by the engine goroutine and is
// not safe for concurrent use.
type Screener struct {
	rows map[string]model.ScreenerRow
}

// NewScreener creates an empty screener store.
func NewScreener() *Screener {
	return &Screener{rows: make(map[string]model.ScreenerRow)}
}

// Upsert replaces the row for symbol. An empty symbol is ignored.
func (s *Screener) Upsert(symbol string, row model.ScreenerRow) bool {
	if symbol == "" {
		return false
	}
	s.rows[symbol] = row
	return true
}

// Remove drops the row for symbol, if any.
func (s *Screener) Remove(symbol string) {
	delete(s.rows, symbol)
}

// Reset clears every row. Called when the strategy or contract mode changes,
// since row schemas differ between them.
func (s *Screener) Reset() {
	clear(s.rows)
}

// Get returns the row for symbol.
func (s *Screener) Get(symbol string) (model.ScreenerRow, bool) {
	row, ok := s.rows[symbol]
	return row, ok
}

// Len returns the number of rows.
func (s *Screener) Len() int { return len(s.rows) }

// Snapshot returns all rows ordered by ascending symbol.
func (s *Screener) Snapshot() []model.KeyedRow {
	out := make([]model.KeyedRow, 0, len(s.rows))
	for sym, row := range s.rows {
		out = append(out, model.KeyedRow{Symbol: sym, Row: row})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Symbol < out[j].Symbol
	})
	return out
}
