package strategy

import "testing"

func TestLayout(t *testing.T) {
	tests := []struct {
		id   ID
		want Layout
	}{
		{Strategy1, LayoutBreakout},
		{Strategy2, LayoutBreakout},
		{Strategy3, LayoutBreakout},
		{Strategy4, LayoutPillars},
		{Strategy5, LayoutPillars},
		{Strategy6, LayoutPillars},
		{Strategy7, LayoutAlignment},
		{"strategy_99", LayoutPillars},
		{"", LayoutPillars},
	}
	for _, tt := range tests {
		if got := tt.id.Layout(); got != tt.want {
			t.Errorf("%q.Layout() = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Strategy7.Name(); got != "Intelligent Multi-TF Alignment" {
		t.Errorf("Strategy7.Name() = %q", got)
	}
	if got := ID("custom").Name(); got != "custom" {
		t.Errorf("unknown Name() = %q, want raw id", got)
	}
	for _, id := range All() {
		if !id.Known() {
			t.Errorf("%q.Known() = false", id)
		}
	}
	if ID("strategy_8").Known() {
		t.Error("strategy_8 should not be known")
	}
}
