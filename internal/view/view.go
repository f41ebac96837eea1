// Package view turns store snapshots into the render-ready dashboard model.
// Everything here is a pure function of its inputs.
package view

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/strategy"
)

// Default confidence thresholds per contract mode.
const (
	ThresholdRiseFall   = 72.0
	ThresholdMultiplier = 68.0
)

// Confidence classes.
const (
	ClassConfirmed = "confirmed"
	ClassPending   = "pending"
)

// Alignment states.
const (
	Aligned = "aligned"
	Mixed   = "mixed"
)

// StreakBadgeMin is the loss streak at which a row gets a warning badge.
const StreakBadgeMin = 3

// Input is everything a render depends on.
type Input struct {
	Config     model.Config
	HasConfig  bool
	Rows       []model.KeyedRow
	Trades     []model.ActiveTrade
	Account    model.AccountSnapshot
	HasAccount bool
	Running    bool
	Connected  bool
	Console    []model.LogLine
	Notice     *model.Notice
}

// Model is the render-ready dashboard state.
type Model struct {
	GeneratedAt time.Time `json:"generated_at"`
	Loaded      bool      `json:"loaded"`

	Strategy     string   `json:"strategy"`
	StrategyName string   `json:"strategy_name"`
	Contract     string   `json:"contract"`
	Symbols      []string `json:"symbols"`
	Layout       Layout   `json:"layout"`

	Running   bool `json:"running"`
	Connected bool `json:"connected"`

	Rows    []RowView       `json:"rows"`
	Trades  []TradeView     `json:"trades"`
	Account *AccountView    `json:"account,omitempty"`
	Console []model.LogLine `json:"console"`
	Notice  *model.Notice   `json:"notice,omitempty"`
}

// RowView is one formatted screener row.
type RowView struct {
	Symbol         string   `json:"symbol"`
	Confidence     float64  `json:"confidence"`
	ConfidenceText string   `json:"confidence_text"`
	Threshold      float64  `json:"threshold"`
	Class          string   `json:"class"`
	Direction      string   `json:"direction"`
	DirectionLabel string   `json:"direction_label"`
	Signal         string   `json:"signal"`
	Cells          []string `json:"cells"`
	Alignment      string   `json:"alignment,omitempty"`
	Label          string   `json:"label,omitempty"`
	Desc           string   `json:"desc,omitempty"`
	Streak         int      `json:"streak"`
	StreakBadge    bool     `json:"streak_badge"`
	DeadHours      bool     `json:"dead_hours"`

	Forecast   *ForecastView `json:"forecast,omitempty"`
	Target     string        `json:"target,omitempty"`
	Stop       string        `json:"stop,omitempty"`
	RewardRisk string        `json:"rr,omitempty"`

	ExpiryEpoch int64  `json:"expiry_epoch"`
	Countdown   string `json:"countdown"`
}

type ForecastView struct {
	Direction   string `json:"direction"`
	Correlation string `json:"correlation"`
}

// TradeView is one formatted active trade.
type TradeView struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	EntryPrice  string `json:"entry_price"`
	Stake       string `json:"stake"`
	PnL         string `json:"pnl"`
	Profit      bool   `json:"profit"`
	FreeRide    bool   `json:"free_ride"`
	ExpiryEpoch int64  `json:"expiry_epoch"`
	Countdown   string `json:"countdown"`
}

// AccountView holds the formatted account KPIs.
type AccountView struct {
	Balance     string `json:"balance"`
	NetPnL      string `json:"net_pnl"`
	RealizedPnL string `json:"realized_pnl"`
	FloatingPnL string `json:"floating_pnl"`
	TotalTrades int    `json:"total_trades"`
	WinRate     string `json:"win_rate"`
	AvgPnL      string `json:"avg_pnl"`
	Mode        string `json:"mode"`
}

// Compute builds the full view model.
func Compute(in Input, now time.Time) Model {
	cfg := in.Config
	if !in.HasConfig {
		cfg = model.DefaultConfig()
	}
	id := strategy.ID(cfg.ActiveStrategy)

	m := Model{
		GeneratedAt:  now,
		Loaded:       in.HasConfig,
		Strategy:     string(id),
		StrategyName: id.Name(),
		Contract:     cfg.Contract(),
		Symbols:      append([]string{}, cfg.Symbols...),
		Layout:       Columns(cfg),
		Running:      in.Running,
		Connected:    in.Connected,
		Rows:         make([]RowView, 0, len(in.Rows)),
		Trades:       make([]TradeView, 0, len(in.Trades)),
		Console:      append([]model.LogLine{}, in.Console...),
	}
	if in.Notice != nil {
		n := *in.Notice
		m.Notice = &n
	}
	for _, kr := range in.Rows {
		m.Rows = append(m.Rows, Row(cfg, m.Layout, kr, now))
	}
	for _, t := range in.Trades {
		m.Trades = append(m.Trades, Trade(t, now))
	}
	if in.HasAccount {
		av := Account(in.Account)
		m.Account = &av
	}
	return m
}

// Row formats one screener row for the given layout.
func Row(cfg model.Config, layout Layout, kr model.KeyedRow, now time.Time) RowView {
	r := kr.Row
	mode := cfg.Contract()
	threshold := DefaultThreshold(mode)
	if r.Threshold.Valid {
		threshold = r.Threshold.Value
	}
	conf := r.Confidence.Float()

	rv := RowView{
		Symbol:         kr.Symbol,
		Confidence:     conf,
		ConfidenceText: decimal.NewFromFloat(conf).StringFixed(1) + "%",
		Threshold:      threshold,
		Class:          Classify(conf, threshold),
		Direction:      orNeutral(string(r.Direction)),
		DirectionLabel: DirectionLabel(string(r.Direction), mode),
		Signal:         SignalLabel(string(r.Signal)),
		Label:          string(r.Label),
		Desc:           string(r.Desc),
		Streak:         r.Streak.Int(),
		StreakBadge:    r.Streak.Int() >= StreakBadgeMin,
		DeadHours:      bool(r.DeadHours),
		Target:         price(r.Target),
		Stop:           price(r.Stop),
		ExpiryEpoch:    r.ExpiryEpoch(),
	}
	if r.RewardRisk.Valid {
		rv.RewardRisk = decimal.NewFromFloat(r.RewardRisk.Value).StringFixed(2)
	}
	if r.Forecast.Present {
		rv.Forecast = &ForecastView{
			Direction:   orNeutral(string(r.Forecast.Direction)),
			Correlation: decimal.NewFromFloat(r.Forecast.Correlation.Float()).StringFixed(2),
		}
	}

	summaries := r.Summaries()
	if layout.Kind == strategy.LayoutAlignment.String() {
		rv.Alignment = Alignment(cfg.Timeframes(), summaries)
	}

	rv.Cells = make([]string, len(layout.Columns))
	for i, col := range layout.Columns {
		switch col.Key {
		case ColSmallTF:
			rv.Cells[i] = orNeutral(summaries[0])
		case ColMidTF:
			rv.Cells[i] = orNeutral(summaries[1])
		case ColHighTF:
			rv.Cells[i] = orNeutral(summaries[2])
		case ColAlignment:
			rv.Cells[i] = strings.ToUpper(rv.Alignment)
		case ColSignal:
			rv.Cells[i] = rv.Signal
		case ColDirection:
			rv.Cells[i] = rv.DirectionLabel
		case ColTrend:
			rv.Cells[i] = score(r.Trend)
		case ColMomentum:
			rv.Cells[i] = score(r.Momentum)
		case ColVolatility:
			rv.Cells[i] = score(r.Volatility)
		case ColStructure:
			rv.Cells[i] = score(r.Structure)
		}
	}

	rv.Countdown = FormatCountdown(rv.ExpiryEpoch, now)
	return rv
}

// Trade formats one active trade.
func Trade(t model.ActiveTrade, now time.Time) TradeView {
	status := string(t.Status)
	if status == "" {
		status = "Active"
	}
	epoch := int64(t.ExpiryTime.Float())
	return TradeView{
		ID:          string(t.ID),
		Symbol:      string(t.Symbol),
		Type:        string(t.Type),
		Status:      status,
		EntryPrice:  decimal.NewFromFloat(t.EntryPrice.Float()).String(),
		Stake:       money(t.Stake.Float()),
		PnL:         money(t.PnL.Float()),
		Profit:      t.PnL.Float() >= 0,
		FreeRide:    bool(t.FreeRide),
		ExpiryEpoch: epoch,
		Countdown:   FormatCountdown(epoch, now),
	}
}

// Account formats the account KPIs.
func Account(a model.AccountSnapshot) AccountView {
	mode := "LIVE"
	if a.IsDemo {
		mode = "DEMO"
	}
	return AccountView{
		Balance:     money(a.TotalBalance.Float()),
		NetPnL:      money(a.NetProfit.Float()),
		RealizedPnL: money(a.NetTradeProfit.Float()),
		FloatingPnL: decimal.NewFromFloat(a.NetProfit.Float()).
			Sub(decimal.NewFromFloat(a.NetTradeProfit.Float())).StringFixed(2),
		TotalTrades: a.TotalTrades.Int(),
		WinRate:     money(a.WinRate.Float()) + "%",
		AvgPnL:      money(a.AvgPnL.Float()),
		Mode:        mode,
	}
}

// DefaultThreshold returns the confidence threshold for rows that carry none.
func DefaultThreshold(contract string) float64 {
	if contract == model.ContractMultiplier {
		return ThresholdMultiplier
	}
	return ThresholdRiseFall
}

// Classify reports whether a confidence clears the threshold in either
// direction.
func Classify(confidence, threshold float64) string {
	if math.Abs(confidence) >= threshold {
		return ClassConfirmed
	}
	return ClassPending
}

// DirectionLabel returns the display label for a direction. Multiplier
// contracts are bought and sold rather than called and put.
func DirectionLabel(direction, contract string) string {
	d := orNeutral(direction)
	if contract != model.ContractMultiplier {
		return d
	}
	switch strings.ToUpper(d) {
	case model.DirectionCall:
		return "BUY"
	case model.DirectionPut:
		return "SELL"
	}
	return d
}

// SignalLabel normalizes a breakout signal. The producer's WAIT is shown as
// NEUTRAL.
func SignalLabel(signal string) string {
	s := strings.TrimSpace(signal)
	if s == "" || strings.EqualFold(s, "WAIT") {
		return model.DirectionNeutral
	}
	return s
}

// Alignment reports whether every enabled timeframe points the same way.
// Summaries are bucketed by substring, so "STRONG_BUY" counts as BUY. With no
// enabled timeframe the result is Mixed.
func Alignment(toggles [3]model.Timeframe, summaries [3]string) string {
	var active []string
	for i, tf := range toggles {
		if !tf.Off() {
			active = append(active, strings.ToUpper(summaries[i]))
		}
	}
	if len(active) == 0 {
		return Mixed
	}
	if all(active, "BUY") || all(active, "SELL") {
		return Aligned
	}
	return Mixed
}

func all(list []string, word string) bool {
	for _, s := range list {
		if !strings.Contains(s, word) {
			return false
		}
	}
	return true
}

func orNeutral(s string) string {
	if strings.TrimSpace(s) == "" {
		return model.DirectionNeutral
	}
	return s
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func score(n model.Num) string {
	return decimal.NewFromFloat(n.Float()).StringFixed(1)
}

func price(o model.OptNum) string {
	if !o.Valid {
		return ""
	}
	return decimal.NewFromFloat(o.Value).String()
}
