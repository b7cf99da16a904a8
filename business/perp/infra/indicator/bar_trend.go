// Package indicator implements trading signals over price and ROI series.
package indicator

import (
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/perp/app"
	"github.com/fd1az/defi-trader/business/perp/domain"
)

var _ app.SignalProvider = (*BarTrend)(nil)

// BarTrend signals on runs of consecutive bars. With period n it waits for
// at least n+1 samples, then fires when the n-1 moves between the newest n
// samples all point the same way: falling is short, rising is long.
type BarTrend struct {
	Period int
	// TakeProfit and StopLoss are ROI percentages that close a position
	// regardless of trend.
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// NewBarTrend returns a BarTrend; a period below 2 is raised to 2.
func NewBarTrend(period int, takeProfit, stopLoss decimal.Decimal) *BarTrend {
	if period < 2 {
		period = 2
	}
	return &BarTrend{Period: period, TakeProfit: takeProfit, StopLoss: stopLoss}
}

func (b *BarTrend) Signals(prices []decimal.Decimal) domain.Signal {
	switch b.direction(prices) {
	case -1:
		return domain.Signal{Short: true}
	case 1:
		return domain.Signal{Long: true}
	}
	return domain.Signal{}
}

// ROIExit fires on take-profit, stop-loss, or a falling ROI run.
func (b *BarTrend) ROIExit(rois []decimal.Decimal) bool {
	if len(rois) == 0 {
		return false
	}
	last := rois[len(rois)-1]
	if !b.TakeProfit.IsZero() && last.GreaterThanOrEqual(b.TakeProfit) {
		return true
	}
	if !b.StopLoss.IsZero() && last.LessThanOrEqual(b.StopLoss) {
		return true
	}
	return b.direction(rois) == -1
}

// direction is -1, 0 or 1.
func (b *BarTrend) direction(series []decimal.Decimal) int {
	n := len(series)
	if n < b.Period+1 {
		return 0
	}

	dir := 0
	for i := n - b.Period + 1; i < n; i++ {
		d := series[i].Cmp(series[i-1])
		if d == 0 || (dir != 0 && d != dir) {
			return 0
		}
		dir = d
	}
	return dir
}
