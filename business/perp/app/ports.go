// Package app contains application services and port definitions for the
// perp context.
package app

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/business/perp/domain"
)

// ErrNoMorePrices is returned by finite price sources when exhausted.
var ErrNoMorePrices = errors.New("price source exhausted")

// PriceSource yields the instrument's base-line price, one sample per call.
type PriceSource interface {
	Price(ctx context.Context) (decimal.Decimal, error)
}

// SignalProvider turns price and ROI history into trading signals.
type SignalProvider interface {
	Signals(prices []decimal.Decimal) domain.Signal
	// ROIExit reports whether an open position should be closed given its
	// ROI history, newest last.
	ROIExit(rois []decimal.Decimal) bool
}

// Gateway opens and closes positions on the portal.
type Gateway interface {
	OpenPosition(ctx context.Context, order executionDomain.PositionOrder) (executionDomain.TradeHandle, *executionDomain.Receipt, error)
	ClosePosition(ctx context.Context, handle executionDomain.TradeHandle) (*executionDomain.Receipt, error)
}
