package strategy

// ID identifies one of the backend's trading strategies.
type ID string

const (
	Strategy1 ID = "strategy_1"
	Strategy2 ID = "strategy_2"
	Strategy3 ID = "strategy_3"
	Strategy4 ID = "strategy_4"
	Strategy5 ID = "strategy_5"
	Strategy6 ID = "strategy_6"
	Strategy7 ID = "strategy_7"

	Default = Strategy1
)

// Layout is the family of screener columns a strategy is rendered with.
type Layout int

const (
	// LayoutPillars shows the four numeric pillar scores.
	LayoutPillars Layout = iota
	// LayoutBreakout shows a qualitative signal and a direction column.
	LayoutBreakout
	// LayoutAlignment shows the multi-timeframe summaries and their alignment.
	LayoutAlignment
)

func (l Layout) String() string {
	switch l {
	case LayoutBreakout:
		return "breakout"
	case LayoutAlignment:
		return "alignment"
	}
	return "pillars"
}

var names = map[ID]string{
	Strategy1: "Slow (Daily / 1h)",
	Strategy2: "Moderate",
	Strategy3: "Fast",
	Strategy4: "SNR Price Action",
	Strategy5: "Intelligence Screener v2.0",
	Strategy6: "Intelligence Legacy v1.0",
	Strategy7: "Intelligent Multi-TF Alignment",
}

// All returns the known strategies in order.
func All() []ID {
	return []ID{Strategy1, Strategy2, Strategy3, Strategy4, Strategy5, Strategy6, Strategy7}
}

// Known reports whether id is one of the enumerated strategies.
func (id ID) Known() bool {
	_, ok := names[id]
	return ok
}

// Name returns the display name, or the raw id for unknown strategies.
func (id ID) Name() string {
	if n, ok := names[id]; ok {
		return n
	}
	return string(id)
}

// Layout returns the column family for id. Unknown ids get pillars.
func (id ID) Layout() Layout {
	switch id {
	case Strategy1, Strategy2, Strategy3:
		return LayoutBreakout
	case Strategy7:
		return LayoutAlignment
	}
	return LayoutPillars
}
