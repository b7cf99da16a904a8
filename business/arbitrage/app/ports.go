// Package app contains application services and port definitions for the
// arbitrage context.
package app

import (
	"context"
	"math/big"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	pricingDomain "github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

// QuoteSource prices one swap leg.
type QuoteSource interface {
	GetQuote(ctx context.Context, venue *asset.Venue, assetIn, assetOut *asset.Asset, amountIn *big.Int) (*pricingDomain.Quote, error)
}

// GasPriceSource provides the current gas price.
type GasPriceSource interface {
	GetGasPrice(ctx context.Context) (*blockchainDomain.GasPrice, error)
}

// Checker asks the arbitrage vault what a route would return.
type Checker interface {
	CheckArbitrage(ctx context.Context, order executionDomain.ArbitrageOrder) (*big.Int, error)
}

// Executor submits the arbitrage and withdraws the proceeds.
type Executor interface {
	ExecuteArbitrage(ctx context.Context, order executionDomain.ArbitrageOrder) (*executionDomain.Receipt, error)
	Withdraw(ctx context.Context, a *asset.Asset) (*executionDomain.Receipt, error)
}

// Reporter surfaces opportunities and their execution.
type Reporter interface {
	Report(ctx context.Context, opp *domain.Opportunity)
	Executed(ctx context.Context, opp *domain.Opportunity, receipt *executionDomain.Receipt)
}
