package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

var (
	usdt    = asset.MustNewAsset(56, "USDT", common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), 18)
	btcb    = asset.MustNewAsset(56, "BTCB", common.HexToAddress("0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c"), 18)
	pancake = asset.MustNewVenue(56, "PancakeSwap", common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"))
	biswap  = asset.MustNewVenue(56, "BiSwap", common.HexToAddress("0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8"))
)

type checkCall struct {
	routers []common.Address
	token   *asset.Asset
	gasCost *big.Int
}

type fakeChecker struct {
	check *executionDomain.TradeCheck
	err   error
	calls []checkCall
}

func (f *fakeChecker) CheckTrade(_ context.Context, routers []common.Address, token *asset.Asset, gasCost *big.Int) (*executionDomain.TradeCheck, error) {
	f.calls = append(f.calls, checkCall{routers: routers, token: token, gasCost: gasCost})
	if f.err != nil {
		return &executionDomain.TradeCheck{Direction: executionDomain.TradeNone}, f.err
	}
	return f.check, nil
}

type fakeGas struct {
	wei int64
	err error
}

func (f *fakeGas) GetGasPrice(context.Context) (*blockchainDomain.GasPrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return blockchainDomain.NewGasPrice(big.NewInt(f.wei), time.Now()), nil
}

type fakeExecutor struct {
	err    error
	orders []executionDomain.TradeOrder
}

func (f *fakeExecutor) ExecuteTrade(_ context.Context, order executionDomain.TradeOrder) (*executionDomain.Receipt, error) {
	f.orders = append(f.orders, order)
	if f.err != nil {
		return nil, f.err
	}
	return &executionDomain.Receipt{TxHash: common.HexToHash("0x01")}, nil
}
