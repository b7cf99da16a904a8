package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/business/perp/domain"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

var wbnb = asset.MustNewAsset(56, "WBNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18)

func oneToken() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}

func managerConfig() ManagerConfig {
	return ManagerConfig{
		Instrument:           wbnb,
		Leverage:             50,
		EntrySlippage:        decimal.RequireFromString("0.001"),
		LiquidationThreshold: decimal.NewFromInt(-90),
		PositionFraction:     decimal.RequireFromString("0.5"),
		FeeRate:              decimal.Zero,
		ROIWindowSize:        500,
	}
}

func newManager(cfg ManagerConfig, gw *fakeGateway, sig *fakeSignals) *PositionManager {
	return NewPositionManager(cfg, oneToken(), gw, sig, logger.NewDiscard())
}

// fakeSignals returns next on every call until changed.
type fakeSignals struct {
	next domain.Signal
	exit bool
}

func (f *fakeSignals) Signals([]decimal.Decimal) domain.Signal { return f.next }
func (f *fakeSignals) ROIExit([]decimal.Decimal) bool          { return f.exit }

type fakeGateway struct {
	openErr  error
	closeErr error
	opens    []executionDomain.PositionOrder
	closes   []executionDomain.TradeHandle
}

func (g *fakeGateway) OpenPosition(_ context.Context, order executionDomain.PositionOrder) (executionDomain.TradeHandle, *executionDomain.Receipt, error) {
	if g.openErr != nil {
		return executionDomain.TradeHandle{}, nil, g.openErr
	}
	g.opens = append(g.opens, order)
	h := executionDomain.TradeHandle(common.BigToHash(big.NewInt(int64(len(g.opens)))))
	return h, &executionDomain.Receipt{Status: executionDomain.StatusConfirmed}, nil
}

func (g *fakeGateway) ClosePosition(_ context.Context, handle executionDomain.TradeHandle) (*executionDomain.Receipt, error) {
	if g.closeErr != nil {
		return nil, g.closeErr
	}
	g.closes = append(g.closes, handle)
	return &executionDomain.Receipt{Status: executionDomain.StatusConfirmed}, nil
}

// fakePrices replays a fixed series, then reports exhaustion.
type fakePrices struct {
	values []string
	i      int
}

func (f *fakePrices) Price(context.Context) (decimal.Decimal, error) {
	if f.i >= len(f.values) {
		return decimal.Zero, ErrNoMorePrices
	}
	v := decimal.RequireFromString(f.values[f.i])
	f.i++
	return v, nil
}
