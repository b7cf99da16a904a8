package indicator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/perp/domain"
)

func series(vs ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vs))
	for i, v := range vs {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

func TestBarTrend_Signals(t *testing.T) {
	b := NewBarTrend(3, decimal.Zero, decimal.Zero)

	tests := []struct {
		name   string
		prices []decimal.Decimal
		want   domain.Signal
	}{
		{"too short", series("1", "2", "3"), domain.Signal{}},
		{"two rises", series("5", "1", "2", "3"), domain.Signal{Long: true}},
		{"two falls", series("1", "5", "4", "3"), domain.Signal{Short: true}},
		{"mixed", series("1", "2", "3", "2"), domain.Signal{}},
		{"flat bar", series("1", "2", "2", "3"), domain.Signal{}},
		{"only newest bars count", series("9", "8", "7", "1", "2", "3"), domain.Signal{Long: true}},
		// the n+1-th sample is required but never compared
		{"oldest sample is not compared", series("1", "9", "8", "7"), domain.Signal{Short: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Signals(tt.prices); got != tt.want {
				t.Errorf("Signals() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBarTrend_ROIExit(t *testing.T) {
	b := NewBarTrend(3, decimal.NewFromInt(200), decimal.NewFromInt(-50))

	tests := []struct {
		name string
		rois []decimal.Decimal
		want bool
	}{
		{"empty", nil, false},
		{"take profit", series("250"), true},
		{"stop loss", series("-50"), true},
		{"inside band", series("10"), false},
		{"falling roi", series("30", "40", "20", "10"), true},
		{"rising roi", series("10", "20", "30", "40"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.ROIExit(tt.rois); got != tt.want {
				t.Errorf("ROIExit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewBarTrend_MinimumPeriod(t *testing.T) {
	if b := NewBarTrend(0, decimal.Zero, decimal.Zero); b.Period != 2 {
		t.Errorf("Period = %d, want 2", b.Period)
	}
}
