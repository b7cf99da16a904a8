// Package app contains the spot trade engine and its ports.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

// Checker asks the trade vault which way a token should be traded.
type Checker interface {
	CheckTrade(ctx context.Context, routers []common.Address, token *asset.Asset, gasCost *big.Int) (*executionDomain.TradeCheck, error)
}

// GasPriceSource provides the current gas price.
type GasPriceSource interface {
	GetGasPrice(ctx context.Context) (*blockchainDomain.GasPrice, error)
}

// Executor submits a trade.
type Executor interface {
	ExecuteTrade(ctx context.Context, order executionDomain.TradeOrder) (*executionDomain.Receipt, error)
}
