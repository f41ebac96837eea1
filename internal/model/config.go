package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Timeframe is a strategy-7 timeframe selector in seconds. Zero means OFF.
type Timeframe int

// TimeframeOff disables a timeframe column.
const TimeframeOff Timeframe = 0

// Off reports whether the timeframe is switched off.
func (t Timeframe) Off() bool { return t <= 0 }

// Label returns the short display name, e.g. "5m" or "1h".
func (t Timeframe) Label() string {
	switch {
	case t.Off():
		return "OFF"
	case t%86400 == 0:
		return strconv.Itoa(int(t/86400)) + "d"
	case t%3600 == 0:
		return strconv.Itoa(int(t/3600)) + "h"
	case t%60 == 0:
		return strconv.Itoa(int(t/60)) + "m"
	}
	return strconv.Itoa(int(t)) + "s"
}

// UnmarshalJSON accepts "OFF", a number, or a numeric string. Any other value
// leaves the current setting unchanged.
func (t *Timeframe) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil && strings.EqualFold(strings.TrimSpace(s), "OFF") {
			*t = TimeframeOff
			return nil
		}
	}
	if v, ok := parseNum(b); ok && v >= 0 {
		*t = Timeframe(v)
	}
	return nil
}

// MarshalJSON writes the selector the way the backend stores it: "OFF" or the
// period in seconds as a string.
func (t Timeframe) MarshalJSON() ([]byte, error) {
	if t.Off() {
		return []byte(`"OFF"`), nil
	}
	return json.Marshal(strconv.Itoa(int(t)))
}

// Symbols is the watch-list. Decoding drops blanks and duplicates.
type Symbols []string

func (s *Symbols) UnmarshalJSON(b []byte) error {
	*s = nil
	var raw []Text
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	var out Symbols
	for _, r := range raw {
		out = out.With(string(r))
	}
	*s = out
	return nil
}

// MarshalJSON writes an empty list as [] rather than null.
func (s Symbols) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// Contains reports whether symbol is on the list.
func (s Symbols) Contains(symbol string) bool {
	for _, v := range s {
		if v == symbol {
			return true
		}
	}
	return false
}

// With returns the list with symbol appended, unless it is blank or present.
func (s Symbols) With(symbol string) Symbols {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" || s.Contains(symbol) {
		return s
	}
	out := make(Symbols, len(s), len(s)+1)
	copy(out, s)
	return append(out, symbol)
}

// Without returns the list with symbol removed.
func (s Symbols) Without(symbol string) Symbols {
	out := make(Symbols, 0, len(s))
	for _, v := range s {
		if v != symbol {
			out = append(out, v)
		}
	}
	return out
}

// Config is the user configuration owned by the backend. The dashboard holds
// a cached copy.
type Config struct {
	ActiveStrategy Text `json:"active_strategy"`
	ContractType   Text `json:"contract_type"`

	Strat7SmallTF Timeframe `json:"strat7_small_tf"`
	Strat7MidTF   Timeframe `json:"strat7_mid_tf"`
	Strat7HighTF  Timeframe `json:"strat7_high_tf"`

	MaxDailyLossPct    Num  `json:"max_daily_loss_pct"`
	MaxDailyProfitPct  Num  `json:"max_daily_profit_pct"`
	TPEnabled          Flag `json:"tp_enabled"`
	TPValue            Num  `json:"tp_value"`
	SLEnabled          Flag `json:"sl_enabled"`
	SLValue            Num  `json:"sl_value"`
	ForceCloseEnabled  Flag `json:"force_close_enabled"`
	ForceCloseDuration Num  `json:"force_close_duration"`

	UseFixedBalance Flag `json:"use_fixed_balance"`
	BalanceValue    Num  `json:"balance_value"`
	EntryType       Text `json:"entry_type"`
	MultiplierValue Num  `json:"multiplier_value"`
	CustomExpiry    Text `json:"custom_expiry"`
	LogLevel        Text `json:"log_level"`

	IsDemo   Flag `json:"is_demo"`
	APIToken Text `json:"deriv_api_token"`
	AppID    Text `json:"deriv_app_id"`

	Symbols Symbols `json:"symbols"`
}

// DefaultConfig mirrors the backend defaults for keys it may omit.
func DefaultConfig() Config {
	return Config{
		ActiveStrategy:    "strategy_1",
		ContractType:      ContractRiseFall,
		Strat7SmallTF:     60,
		Strat7MidTF:       300,
		Strat7HighTF:      3600,
		MaxDailyLossPct:   5,
		MaxDailyProfitPct: 10,
		IsDemo:            true,
		CustomExpiry:      "default",
	}
}

// UnmarshalJSON starts from DefaultConfig so absent keys keep their defaults.
// A document that is not an object decodes to the defaults.
func (c *Config) UnmarshalJSON(b []byte) error {
	*c = DefaultConfig()
	if !isObject(b) {
		return nil
	}
	type plain Config
	p := plain(DefaultConfig())
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*c = Config(p)
	return nil
}

// Contract returns the normalized contract mode.
func (c Config) Contract() string {
	if strings.EqualFold(strings.TrimSpace(string(c.ContractType)), ContractMultiplier) {
		return ContractMultiplier
	}
	return ContractRiseFall
}

// Timeframes returns the small, mid and high selectors in order.
func (c Config) Timeframes() [3]Timeframe {
	return [3]Timeframe{c.Strat7SmallTF, c.Strat7MidTF, c.Strat7HighTF}
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	if c.Symbols != nil {
		c.Symbols = append(Symbols(nil), c.Symbols...)
	}
	return c
}

// Overlay returns base with the keys present in data applied on top of it.
// Keys data leaves out keep their base value. It reports false when data is
// not a JSON object.
func Overlay(base Config, data []byte) (Config, bool) {
	if !isObject(data) {
		return base, false
	}
	type plain Config
	p := plain(base.Clone())
	if err := json.Unmarshal(data, &p); err != nil {
		return base, false
	}
	return Config(p), true
}

// Redacted returns a copy without credentials, for anything leaving the
// process.
func (c Config) Redacted() Config {
	c = c.Clone()
	c.APIToken = ""
	return c
}
