package store

import "github.com/sdibella/deriv-dashboard/internal/model"

// Trades holds the active trade list. Each update replaces it wholesale.
type Trades struct {
	list []model.ActiveTrade
}

func NewTrades() *Trades { return &Trades{} }

// Set replaces the trade list.
func (t *Trades) Set(list []model.ActiveTrade) {
	t.list = append([]model.ActiveTrade(nil), list...)
}

// Snapshot returns a copy of the trade list.
func (t *Trades) Snapshot() []model.ActiveTrade {
	return append([]model.ActiveTrade(nil), t.list...)
}

// Account holds the last account snapshot. No history is kept.
type Account struct {
	snap *model.AccountSnapshot
}

func NewAccount() *Account { return &Account{} }

// Set replaces the snapshot.
func (a *Account) Set(snap model.AccountSnapshot) {
	a.snap = &snap
}

// Get returns the snapshot and whether one was ever received.
func (a *Account) Get() (model.AccountSnapshot, bool) {
	if a.snap == nil {
		return model.AccountSnapshot{}, false
	}
	return *a.snap, true
}
