package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Directions and contract modes as sent by the producer.
const (
	DirectionCall    = "CALL"
	DirectionPut     = "PUT"
	DirectionNeutral = "NEUTRAL"

	ContractMultiplier = "multiplier"
	ContractRiseFall   = "rise_fall"
)

// Forecast is the optional echo-forecast block attached to a screener row.
type Forecast struct {
	Direction   Text `json:"direction"`
	Correlation Num  `json:"correlation"`
	Present     bool `json:"-"`
}

func (f *Forecast) UnmarshalJSON(b []byte) error {
	*f = Forecast{}
	if !isObject(b) {
		return nil
	}
	type plain Forecast
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*f = Forecast(p)
	f.Present = true
	return nil
}

// ScreenerRow is one symbol's latest analytics snapshot. A new row for a
// symbol replaces the old one entirely.
type ScreenerRow struct {
	Confidence Num    `json:"confidence"`
	Threshold  OptNum `json:"threshold"`
	Direction  Text   `json:"direction"`
	Signal     Text   `json:"signal"`
	Label      Text   `json:"label"`
	Desc       Text   `json:"desc"`

	Trend      Num `json:"trend"`
	Momentum   Num `json:"momentum"`
	Volatility Num `json:"volatility"`
	Structure  Num `json:"structure"`

	SummarySmall Text `json:"summary_small"`
	SummaryMid   Text `json:"summary_mid"`
	SummaryHigh  Text `json:"summary_high"`

	Forecast   Forecast `json:"forecast"`
	Target     OptNum   `json:"target"`
	Stop       OptNum   `json:"stop"`
	RewardRisk OptNum   `json:"rr"`

	Expiry    OptNum `json:"expiry"`     // seconds from receipt
	ExpiryMin OptNum `json:"expiry_min"` // minutes from receipt, older producers

	DeadHours Flag `json:"is_dead_hours"`
	Streak    Num  `json:"streak"`

	// ReceivedAt is stamped by the dispatcher, never decoded.
	ReceivedAt time.Time `json:"-"`
}

func (r *ScreenerRow) UnmarshalJSON(b []byte) error {
	*r = ScreenerRow{}
	if !isObject(b) {
		return nil
	}
	type plain ScreenerRow
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*r = ScreenerRow(p)
	return nil
}

// ExpiryOffset returns the expiry offset relative to receipt. Zero means the
// row carries no expiry.
func (r ScreenerRow) ExpiryOffset() time.Duration {
	switch {
	case r.Expiry.Valid && r.Expiry.Value > 0:
		return time.Duration(r.Expiry.Value * float64(time.Second))
	case r.ExpiryMin.Valid && r.ExpiryMin.Value > 0:
		return time.Duration(r.ExpiryMin.Value * float64(time.Minute))
	}
	return 0
}

// ExpiryEpoch returns the absolute expiry in unix seconds, or 0.
func (r ScreenerRow) ExpiryEpoch() int64 {
	off := r.ExpiryOffset()
	if off <= 0 || r.ReceivedAt.IsZero() {
		return 0
	}
	return r.ReceivedAt.Add(off).Unix()
}

// Summaries returns the small, mid and high timeframe summaries in order.
func (r ScreenerRow) Summaries() [3]string {
	return [3]string{string(r.SummarySmall), string(r.SummaryMid), string(r.SummaryHigh)}
}

// KeyedRow pairs a screener row with its symbol.
type KeyedRow struct {
	Symbol string
	Row    ScreenerRow
}

// ActiveTrade is one open contract as reported by the producer.
type ActiveTrade struct {
	ID         Text `json:"id"`
	Symbol     Text `json:"symbol"`
	Type       Text `json:"type"`
	Status     Text `json:"status"`
	EntryPrice Num  `json:"entry_spot_price"`
	Stake      Num  `json:"stake"`
	PnL        Num  `json:"pnl"`
	ExpiryTime Num  `json:"expiry_time"`
	FreeRide   Flag `json:"is_freeride"`
}

func (t *ActiveTrade) UnmarshalJSON(b []byte) error {
	*t = ActiveTrade{}
	if !isObject(b) {
		return nil
	}
	type plain ActiveTrade
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*t = ActiveTrade(p)
	return nil
}

// Trades decodes a trade list, skipping entries that are not objects. When an
// id repeats the later entry wins.
type Trades []ActiveTrade

func (ts *Trades) UnmarshalJSON(b []byte) error {
	*ts = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	out := make(Trades, 0, len(raw))
	index := make(map[Text]int, len(raw))
	for _, item := range raw {
		if !isObject(item) {
			continue
		}
		var t ActiveTrade
		_ = json.Unmarshal(item, &t)
		if t.ID != "" {
			if i, ok := index[t.ID]; ok {
				out[i] = t
				continue
			}
			index[t.ID] = len(out)
		}
		out = append(out, t)
	}
	*ts = out
	return nil
}

// AccountSnapshot holds the account KPIs of one account_update.
type AccountSnapshot struct {
	TotalBalance   Num  `json:"total_balance"`
	NetProfit      Num  `json:"net_profit"`
	NetTradeProfit Num  `json:"net_trade_profit"`
	TotalTrades    Num  `json:"total_trades"`
	WinRate        Num  `json:"win_rate"`
	AvgPnL         Num  `json:"avg_pnl"`
	IsDemo         Flag `json:"is_demo"`
	ActiveStrategy Text `json:"active_strategy"`
}

// FloatingPnL is the unrealized part of the net PnL.
func (a AccountSnapshot) FloatingPnL() float64 {
	return float64(a.NetProfit) - float64(a.NetTradeProfit)
}

// Log levels of console lines.
const (
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// LogLine is one console line pushed by the producer.
type LogLine struct {
	Timestamp Text `json:"timestamp"`
	Level     Text `json:"level"`
	Message   Text `json:"message"`
}

// Normalized returns l with an unknown level mapped to info.
func (l LogLine) Normalized() LogLine {
	switch lvl := strings.ToLower(strings.TrimSpace(string(l.Level))); lvl {
	case LevelWarning, LevelError:
		l.Level = Text(lvl)
	case "warn":
		l.Level = LevelWarning
	default:
		l.Level = LevelInfo
	}
	return l
}

// Notice is the single user-visible notification (error or success).
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Event payloads.

type BotStatus struct {
	Running Flag `json:"running"`
}

type ConnectionStatus struct {
	Connected Flag `json:"connected"`
}

type TradesUpdate struct {
	Trades Trades `json:"trades"`
}

type ScreenerUpdate struct {
	Symbol Text        `json:"symbol"`
	Data   ScreenerRow `json:"data"`
}

type Message struct {
	Message Text `json:"message"`
}

// StatusSnapshot is the backend's status document used to seed the stores at
// startup. It carries the account fields at top level.
type StatusSnapshot struct {
	AccountSnapshot
	Running    Flag   `json:"running"`
	OpenTrades Trades `json:"open_trades"`
}
