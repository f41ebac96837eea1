package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_received_total",
			Help: "Push events received from the bot backend (by event name).",
		},
		[]string{"event"},
	)

	EventsMalformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_malformed_total",
			Help: "Push events whose payload could not be used (by event name).",
		},
		[]string{"event"},
	)

	ConfigSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_config_saves_total",
			Help: "Explicit config saves (by result).",
		},
		[]string{"result"},
	)

	ConfigPersists = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_config_persists_total",
			Help: "Background watch-list persists (by result).",
		},
		[]string{"result"},
	)

	CommandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_commands_sent_total",
			Help: "Commands sent to the bot backend (by command).",
		},
		[]string{"command"},
	)

	ScreenerRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dashboard_screener_rows",
			Help: "Rows currently held by the screener store.",
		},
	)

	Renders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_renders_total",
			Help: "View models published to the renderer.",
		},
	)
)

func init() {
	prometheus.MustRegister(EventsReceived, EventsMalformed, ConfigSaves, ConfigPersists, CommandsSent, ScreenerRows, Renders)
}

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)
