package engine

import (
	"log/slog"

	"github.com/sdibella/deriv-dashboard/internal/metrics"
	"github.com/sdibella/deriv-dashboard/internal/model"
)

const labelUnknown = "unknown"

// dispatch routes one push to the store that owns its data. It reports
// whether the view needs a render.
func (e *Engine) dispatch(p Push) bool {
	switch p.Name {
	case EventBotStatus:
		var st model.BotStatus
		if !e.decode(p, &st) {
			return false
		}
		e.running = bool(st.Running)

	case EventConnectionStatus:
		var st model.ConnectionStatus
		if !e.decode(p, &st) {
			return false
		}
		e.connected = bool(st.Connected)

	case EventAccountUpdate:
		var snap model.AccountSnapshot
		if !e.decode(p, &snap) {
			return false
		}
		e.setAccount(snap)

	case EventTradesUpdate:
		var upd model.TradesUpdate
		if !e.decode(p, &upd) {
			return false
		}
		e.trades.Set(upd.Trades)

	case EventScreenerUpdate:
		var upd model.ScreenerUpdate
		if !e.decode(p, &upd) {
			return false
		}
		if upd.Symbol == "" {
			metrics.EventsMalformed.WithLabelValues(p.Name).Inc()
			slog.Warn("screener update without symbol dropped")
			return false
		}
		upd.Data.ReceivedAt = p.At
		e.screener.Upsert(string(upd.Symbol), upd.Data)

	case EventConsoleLog:
		var line model.LogLine
		if !e.decode(p, &line) {
			return false
		}
		e.console.Append(line.Normalized())

	case EventConsoleCleared:
		metrics.EventsReceived.WithLabelValues(p.Name).Inc()
		e.console.Clear()

	case EventError, EventSuccess:
		var msg model.Message
		if !e.decode(p, &msg) {
			return false
		}
		level, text := model.LevelError, string(msg.Message)
		if p.Name == EventSuccess {
			level = model.LevelInfo
		}
		if text == "" {
			text = "Unknown error"
			if p.Name == EventSuccess {
				text = "Done"
			}
		}
		e.notify(level, text)

	case EventStatus:
		var st model.StatusSnapshot
		if !e.decode(p, &st) {
			return false
		}
		e.running = bool(st.Running)
		e.trades.Set(st.OpenTrades)
		e.setAccount(st.AccountSnapshot)

	default:
		metrics.EventsReceived.WithLabelValues(labelUnknown).Inc()
		slog.Debug("unknown event ignored", "event", p.Name)
		return false
	}
	return true
}

// decode counts the event and decodes its payload. A payload that is not an
// object is counted as malformed and the event is dropped.
func (e *Engine) decode(p Push, v any) bool {
	metrics.EventsReceived.WithLabelValues(p.Name).Inc()
	if !model.Decode(p.Data, v) {
		metrics.EventsMalformed.WithLabelValues(p.Name).Inc()
		slog.Warn("malformed event dropped", "event", p.Name, "bytes", len(p.Data))
		return false
	}
	return true
}

// setAccount stores the snapshot and applies a server-side strategy switch.
func (e *Engine) setAccount(snap model.AccountSnapshot) {
	e.account.Set(snap)
	if e.config.OverrideStrategy(string(snap.ActiveStrategy)) {
		slog.Info("strategy changed by server", "strategy", snap.ActiveStrategy)
		e.screener.Reset()
	}
}
