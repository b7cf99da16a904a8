package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	pricingDomain "github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
)

// CalculatorConfig configures profitability checks.
type CalculatorConfig struct {
	Fees domain.FeeModel
	// Haircut is applied to each leg's output in two-hop mode.
	Haircut decimal.Decimal
	// GasToInput converts wei of gas into base units of the input asset.
	// Zero means 1.
	GasToInput decimal.Decimal
}

// Calculator evaluates routes. It holds no state between calls; the same
// inputs and collaborator answers give the same result.
type Calculator struct {
	config  CalculatorConfig
	quotes  QuoteSource
	gas     GasPriceSource
	checker Checker
}

// NewCalculator creates a Calculator. quotes and gas are needed for two-hop
// mode, checker for single-call mode; any of them may be nil.
func NewCalculator(cfg CalculatorConfig, quotes QuoteSource, gas GasPriceSource, checker Checker) *Calculator {
	return &Calculator{
		config:  cfg,
		quotes:  quotes,
		gas:     gas,
		checker: checker,
	}
}

// Fees returns the fee model.
func (c *Calculator) Fees() domain.FeeModel {
	return c.config.Fees
}

// Check evaluates cand in the given mode.
func (c *Calculator) Check(ctx context.Context, mode domain.Mode, cand domain.Candidate, amountIn *big.Int) (*domain.CheckResult, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContext(cand.Route().Key()))
	}

	switch mode {
	case domain.ModeTwoHop:
		return c.TwoHop(ctx, cand, amountIn)
	case domain.ModeSingleCall:
		return c.SingleCall(ctx, cand, amountIn)
	default:
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("unknown arbitrage mode "+string(mode)))
	}
}

// SingleCall asks the vault for the route's output and compares it with
// the loan repayment. Without a vault it returns ErrNotConfigured.
func (c *Calculator) SingleCall(ctx context.Context, cand domain.Candidate, amountIn *big.Int) (*domain.CheckResult, error) {
	result := c.newResult(domain.ModeSingleCall, cand, amountIn)
	if c.checker == nil {
		return nil, executionDomain.ErrNotConfigured
	}

	out, err := c.checker.CheckArbitrage(ctx, c.order(cand, result))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = new(big.Int)
	}

	result.AmountOut = out
	result.Profit = decimal.NewFromBigInt(out, 0).Sub(decimal.NewFromBigInt(result.ExpectedAmountOut, 0))
	return result, nil
}

// TwoHop quotes assetIn→assetOut on the first venue and back on the
// second. The gas price and the first leg are fetched concurrently.
func (c *Calculator) TwoHop(ctx context.Context, cand domain.Candidate, amountIn *big.Int) (*domain.CheckResult, error) {
	if c.quotes == nil || c.gas == nil {
		return nil, apperror.New(apperror.CodeServiceUnavailable,
			apperror.WithContext("two-hop mode needs a quote source and a gas oracle"))
	}
	result := c.newResult(domain.ModeTwoHop, cand, amountIn)
	in := cand.AssetIn.Asset

	var (
		gasPrice *blockchainDomain.GasPrice
		legA     *pricingDomain.Quote
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		gasPrice, err = c.gas.GetGasPrice(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		legA, err = c.quotes.GetQuote(gctx, cand.VenueFrom, in, cand.AssetOut, amountIn)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	outA := domain.ApplyHaircut(legA.AmountOut, c.config.Haircut)
	result.Legs = append(result.Legs, c.leg(legA, outA, gasPrice))
	if outA.Sign() == 0 {
		result.AmountOut = new(big.Int)
		result.GasCost = result.Legs[0].GasCost
		return result, nil
	}

	legB, err := c.quotes.GetQuote(ctx, cand.VenueTo, cand.AssetOut, in, outA)
	if err != nil {
		return nil, err
	}
	outB := domain.ApplyHaircut(legB.AmountOut, c.config.Haircut)
	result.Legs = append(result.Legs, c.leg(legB, outB, gasPrice))

	gasA, gasB := result.Legs[0].GasCost, result.Legs[1].GasCost
	result.AmountOut = outB
	result.GasCost = new(big.Int).Add(gasA, gasB)
	result.Profit = domain.TwoHopProfit(
		decimal.NewFromBigInt(amountIn, 0),
		decimal.NewFromBigInt(outB, 0),
		decimal.NewFromBigInt(gasA, 0),
		decimal.NewFromBigInt(gasB, 0),
		c.config.Fees.LoanFee(amountIn),
	)
	return result, nil
}

func (c *Calculator) newResult(mode domain.Mode, cand domain.Candidate, amountIn *big.Int) *domain.CheckResult {
	return &domain.CheckResult{
		Route:             cand.Route(),
		Mode:              mode,
		AmountIn:          new(big.Int).Set(amountIn),
		ExpectedAmountOut: c.config.Fees.ExpectedAmountOut(amountIn),
		ExpectedExact:     c.config.Fees.ExpectedAmountOutExact(amountIn),
	}
}

func (c *Calculator) order(cand domain.Candidate, r *domain.CheckResult) executionDomain.ArbitrageOrder {
	return executionDomain.ArbitrageOrder{
		VenueFrom:         cand.VenueFrom,
		VenueTo:           cand.VenueTo,
		AssetIn:           cand.AssetIn.Asset,
		AssetOut:          cand.AssetOut,
		AmountIn:          r.AmountIn,
		ExpectedAmountOut: r.ExpectedAmountOut,
	}
}

// gasCost prices gasUnits in base units of the input asset, floored.
func (c *Calculator) gasCost(price *blockchainDomain.GasPrice, gasUnits uint64) *big.Int {
	wei := price.Cost(gasUnits)
	rate := c.config.GasToInput
	if rate.IsZero() || rate.Equal(decimal.NewFromInt(1)) {
		return wei
	}
	return decimal.NewFromBigInt(wei, 0).Mul(rate).Floor().BigInt()
}

func (c *Calculator) leg(q *pricingDomain.Quote, out *big.Int, price *blockchainDomain.GasPrice) domain.Leg {
	return domain.Leg{
		Venue:       q.Venue.Name(),
		AssetIn:     q.AssetIn.Symbol(),
		AssetOut:    q.AssetOut.Symbol(),
		AmountIn:    q.AmountIn,
		AmountOut:   out,
		Quoted:      q.AmountOut,
		GasEstimate: q.GasEstimate,
		GasCost:     c.gasCost(price, q.GasEstimate),
	}
}
