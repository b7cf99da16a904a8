// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"
	"math/big"

	"github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

// QuoteProvider fetches read-only swap quotes from a venue.
type QuoteProvider interface {
	// GetQuote returns the output of swapping amountIn of assetIn for
	// assetOut on venue, plus a gas estimate for the swap. Network failures
	// and reverted calls both return CodeQuoteFailed.
	GetQuote(ctx context.Context, venue *asset.Venue, assetIn, assetOut *asset.Asset, amountIn *big.Int) (*domain.Quote, error)
}
