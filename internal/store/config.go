package store

import (
	"context"

	"github.com/sdibella/deriv-dashboard/internal/model"
)

// Backend is the request/response side of the bot API that owns the config.
type Backend interface {
	FetchConfig(ctx context.Context) (model.Config, error)
	SaveConfig(ctx context.Context, cfg model.Config) error
}

// Persister is told that the cached config changed and should be saved.
// Persist must not block.
type Persister interface {
	Persist()
}

// SymbolOp is a single watch-list edit.
type SymbolOp int

const (
	SymbolAdd SymbolOp = iota + 1
	SymbolRemove
)

func (op SymbolOp) String() string {
	switch op {
	case SymbolAdd:
		return "add"
	case SymbolRemove:
		return "remove"
	}
	return "unknown"
}

// ParseSymbolOp maps "add" and "remove" to their SymbolOp.
func ParseSymbolOp(s string) (SymbolOp, bool) {
	switch s {
	case "add":
		return SymbolAdd, true
	case "remove":
		return SymbolRemove, true
	}
	return 0, false
}

// Change describes what a config replacement changed, so the caller can
// re-derive dependent state.
type Change struct {
	First           bool
	StrategyChanged bool
	ModeChanged     bool
	Removed         []string
}

// ResetsScreener reports whether existing screener rows became invalid.
func (c Change) ResetsScreener() bool {
	return c.StrategyChanged || c.ModeChanged
}

// ConfigStore caches the single user configuration. The backend stays the
// source of truth; the cache is replaced on load and on confirmed saves, and
// edited in place only by optimistic watch-list changes.
type ConfigStore struct {
	cfg       *model.Config
	persister Persister
}

// NewConfigStore creates an empty store. p may be nil, in which case watch-list
// edits are local only.
func NewConfigStore(p Persister) *ConfigStore {
	return &ConfigStore{persister: p}
}

// Get returns a copy of the cached config, or false before the first load.
func (s *ConfigStore) Get() (model.Config, bool) {
	if s.cfg == nil {
		return model.Config{}, false
	}
	return s.cfg.Clone(), true
}

// Replace swaps the whole cached config and reports what changed.
func (s *ConfigStore) Replace(cfg model.Config) Change {
	cfg = cfg.Clone()
	var ch Change
	if s.cfg == nil {
		ch.First = true
	} else {
		ch.StrategyChanged = s.cfg.ActiveStrategy != cfg.ActiveStrategy
		ch.ModeChanged = s.cfg.Contract() != cfg.Contract()
		for _, sym := range s.cfg.Symbols {
			if !cfg.Symbols.Contains(sym) {
				ch.Removed = append(ch.Removed, sym)
			}
		}
	}
	s.cfg = &cfg
	return ch
}

// OverrideStrategy applies a strategy reported by the server. It reports
// whether the cached strategy changed. Nothing is persisted.
func (s *ConfigStore) OverrideStrategy(id string) bool {
	if s.cfg == nil || id == "" || string(s.cfg.ActiveStrategy) == id {
		return false
	}
	s.cfg.ActiveStrategy = model.Text(id)
	return true
}

// MutateSymbols applies op to the cached watch-list and asks the persister to
// save the whole config without waiting. There is no rollback if
// the persist later fails. It reports whether the list changed.
func (s *ConfigStore) MutateSymbols(op SymbolOp, symbol string) bool {
	if s.cfg == nil {
		return false
	}
	before := len(s.cfg.Symbols)
	switch op {
	case SymbolAdd:
		s.cfg.Symbols = s.cfg.Symbols.With(symbol)
	case SymbolRemove:
		s.cfg.Symbols = s.cfg.Symbols.Without(symbol)
	default:
		return false
	}
	if len(s.cfg.Symbols) == before {
		return false
	}
	if s.persister != nil {
		s.persister.Persist()
	}
	return true
}
