package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	pricingDomain "github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/asset"
)

var (
	wbnb    = asset.MustNewAsset(56, "WBNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18)
	busd    = asset.MustNewAsset(56, "BUSD", common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"), 18)
	doge    = asset.MustNewAsset(56, "DOGE", common.HexToAddress("0xbA2aE424d960c26247Dd6c32edC70B295c744C43"), 8)
	pancake = asset.MustNewVenue(56, "PancakeSwap", common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"))
	biswap  = asset.MustNewVenue(56, "BiSwap", common.HexToAddress("0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8"))
	apeswap = asset.MustNewVenue(56, "ApeSwap", common.HexToAddress("0xcF0feBd3f17CEf5b47b0cD257aCf6025c5BFf3b7"))
)

func candidate() domain.Candidate {
	return domain.Candidate{
		VenueFrom: pancake,
		VenueTo:   biswap,
		AssetIn:   domain.TradableAsset{Asset: wbnb, BaseAmount: decimal.NewFromInt(1), Borrowable: true},
		AssetOut:  busd,
	}
}

func feeModel(rate string) domain.FeeModel {
	fm, err := domain.NewFeeModel(decimal.RequireFromString(rate))
	if err != nil {
		panic(err)
	}
	return fm
}

// fakeQuotes returns a fixed output and gas estimate per venue.
type fakeQuotes struct {
	mu    sync.Mutex
	out   map[string]int64
	gas   map[string]uint64
	err   error
	calls []string
}

func (f *fakeQuotes) GetQuote(_ context.Context, venue *asset.Venue, in, out *asset.Asset, amountIn *big.Int) (*pricingDomain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, venue.Name()+":"+amountIn.String())
	if f.err != nil {
		return nil, f.err
	}
	return &pricingDomain.Quote{
		Venue:       venue,
		AssetIn:     in,
		AssetOut:    out,
		AmountIn:    amountIn,
		AmountOut:   big.NewInt(f.out[venue.Name()]),
		GasEstimate: f.gas[venue.Name()],
	}, nil
}

type fakeGas struct {
	wei int64
	err error
}

func (f *fakeGas) GetGasPrice(context.Context) (*blockchainDomain.GasPrice, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &blockchainDomain.GasPrice{Wei: big.NewInt(f.wei)}, nil
}

// fakeChecker answers per route key; routes not in the map return 0.
type fakeChecker struct {
	out    map[string]*big.Int
	err    error
	calls  map[string]int
	orders []executionDomain.ArbitrageOrder
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{out: make(map[string]*big.Int), calls: make(map[string]int)}
}

func (f *fakeChecker) CheckArbitrage(_ context.Context, order executionDomain.ArbitrageOrder) (*big.Int, error) {
	key := domain.NewRoute(order.VenueFrom, order.VenueTo, order.AssetIn, order.AssetOut).Key()
	f.calls[key]++
	f.orders = append(f.orders, order)
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.out[key]; ok {
		return v, nil
	}
	return new(big.Int), nil
}

type fakeExecutor struct {
	executeErr  error
	withdrawErr error
	executed    []executionDomain.ArbitrageOrder
	withdrawn   []string
}

func (f *fakeExecutor) ExecuteArbitrage(_ context.Context, order executionDomain.ArbitrageOrder) (*executionDomain.Receipt, error) {
	f.executed = append(f.executed, order)
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	return &executionDomain.Receipt{Status: executionDomain.StatusConfirmed}, nil
}

func (f *fakeExecutor) Withdraw(_ context.Context, a *asset.Asset) (*executionDomain.Receipt, error) {
	f.withdrawn = append(f.withdrawn, a.Symbol())
	if f.withdrawErr != nil {
		return nil, f.withdrawErr
	}
	return &executionDomain.Receipt{Status: executionDomain.StatusConfirmed}, nil
}

type fakeReporter struct {
	reported []*domain.Opportunity
	executed []*domain.Opportunity
}

func (f *fakeReporter) Report(_ context.Context, opp *domain.Opportunity) {
	f.reported = append(f.reported, opp)
}

func (f *fakeReporter) Executed(_ context.Context, opp *domain.Opportunity, _ *executionDomain.Receipt) {
	f.executed = append(f.executed, opp)
}
