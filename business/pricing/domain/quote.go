// Package domain contains the core domain types for the pricing context.
package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/asset"
)

// Quote is a read-only swap quote from one venue. It is created per call
// and never persisted.
type Quote struct {
	Venue       *asset.Venue
	AssetIn     *asset.Asset
	AssetOut    *asset.Asset
	AmountIn    *big.Int
	AmountOut   *big.Int
	GasEstimate uint64
	FetchedAt   time.Time
}

// IsZero reports whether the venue returned nothing for the input.
func (q *Quote) IsZero() bool {
	return q.AmountOut == nil || q.AmountOut.Sign() == 0
}

// Rate returns AmountOut per AmountIn in whole units of each asset.
func (q *Quote) Rate() decimal.Decimal {
	in := q.AssetIn.FromBaseUnits(q.AmountIn)
	if in.IsZero() {
		return decimal.Zero
	}
	return q.AssetOut.FromBaseUnits(q.AmountOut).Div(in)
}
