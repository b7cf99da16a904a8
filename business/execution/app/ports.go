// Package app contains application services and port definitions for the
// execution context.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

// Gateway submits state-changing contract calls. Every method returns only
// after the transaction is mined. Failures are surfaced, never retried.
type Gateway interface {
	ExecuteArbitrage(ctx context.Context, order domain.ArbitrageOrder) (*domain.Receipt, error)
	Withdraw(ctx context.Context, a *asset.Asset) (*domain.Receipt, error)
	WithdrawNative(ctx context.Context) (*domain.Receipt, error)
	OpenPosition(ctx context.Context, order domain.PositionOrder) (domain.TradeHandle, *domain.Receipt, error)
	ClosePosition(ctx context.Context, handle domain.TradeHandle) (*domain.Receipt, error)
	ExecuteTrade(ctx context.Context, order domain.TradeOrder) (*domain.Receipt, error)
	// WithdrawTrade sweeps the trade vault's balance of token; a nil token
	// sweeps its native balance.
	WithdrawTrade(ctx context.Context, token *asset.Asset) (*domain.Receipt, error)
}

// Journal persists execution records.
type Journal interface {
	Record(ctx context.Context, rec *domain.Record) error
	Close() error
}

// Locker provides a lock shared between processes.
type Locker interface {
	// Acquire returns an unlock function that is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// TradeChecker asks the trade vault which way, if any, token should be
// traded across routers once gasCost wei is paid.
type TradeChecker interface {
	CheckTrade(ctx context.Context, routers []common.Address, token *asset.Asset, gasCost *big.Int) (*domain.TradeCheck, error)
}

// Checker reads the vault's view of an arbitrage without submitting it.
type Checker interface {
	CheckArbitrage(ctx context.Context, order domain.ArbitrageOrder) (*big.Int, error)
}
