package view

import (
	"github.com/sdibella/deriv-dashboard/internal/model"
	"github.com/sdibella/deriv-dashboard/internal/strategy"
)

// Column keys. Cells in a RowView are aligned with the layout's columns.
const (
	ColSmallTF    = "tf_small"
	ColMidTF      = "tf_mid"
	ColHighTF     = "tf_high"
	ColAlignment  = "alignment"
	ColSignal     = "signal"
	ColDirection  = "direction"
	ColTrend      = "trend"
	ColMomentum   = "momentum"
	ColVolatility = "volatility"
	ColStructure  = "structure"
)

// Column is one strategy-specific screener column.
type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Layout is the column set used for every row of one render.
type Layout struct {
	Kind    string   `json:"kind"`
	Columns []Column `json:"columns"`
}

var tfKeys = [3]string{ColSmallTF, ColMidTF, ColHighTF}

// Columns derives the screener columns from the config alone.
func Columns(cfg model.Config) Layout {
	kind := strategy.ID(cfg.ActiveStrategy).Layout()
	l := Layout{Kind: kind.String()}

	switch kind {
	case strategy.LayoutAlignment:
		for i, tf := range cfg.Timeframes() {
			if tf.Off() {
				continue
			}
			l.Columns = append(l.Columns, Column{Key: tfKeys[i], Title: tf.Label()})
		}
		l.Columns = append(l.Columns, Column{Key: ColAlignment, Title: "Alignment"})
	case strategy.LayoutBreakout:
		l.Columns = []Column{
			{Key: ColSignal, Title: "Signal"},
			{Key: ColDirection, Title: "Direction"},
		}
	default:
		l.Columns = []Column{
			{Key: ColTrend, Title: "Trend"},
			{Key: ColMomentum, Title: "Momentum"},
			{Key: ColVolatility, Title: "Volatility"},
			{Key: ColStructure, Title: "Structure"},
		}
	}
	return l
}
