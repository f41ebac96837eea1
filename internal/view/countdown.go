package view

import (
	"fmt"
	"time"
)

// Expired is shown once a countdown reaches zero.
const Expired = "Expired"

// FormatCountdown renders the time left until epoch (unix seconds) as H:MM:SS.
// A zero or negative epoch means there is nothing to count down to.
func FormatCountdown(epoch int64, now time.Time) string {
	if epoch <= 0 {
		return ""
	}
	left := epoch - now.Unix()
	if left <= 0 {
		return Expired
	}
	return fmt.Sprintf("%d:%02d:%02d", left/3600, left%3600/60, left%60)
}

// WithCountdowns returns a copy of m with every countdown recomputed for now.
// Nothing else changes, and m itself is left untouched so that published
// copies stay valid.
func (m Model) WithCountdowns(now time.Time) Model {
	out := m
	out.GeneratedAt = now

	out.Rows = make([]RowView, len(m.Rows))
	for i, r := range m.Rows {
		r.Countdown = FormatCountdown(r.ExpiryEpoch, now)
		out.Rows[i] = r
	}
	out.Trades = make([]TradeView, len(m.Trades))
	for i, t := range m.Trades {
		t.Countdown = FormatCountdown(t.ExpiryEpoch, now)
		out.Trades[i] = t
	}
	return out
}
