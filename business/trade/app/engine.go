package app

import (
	"context"
	"errors"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

var (
	ErrNoTokens = errors.New("trade engine has no tokens")
	ErrNoVenues = errors.New("trade engine has no venues")
)

// EngineConfig configures the trade loop.
type EngineConfig struct {
	PollDelay time.Duration
	// GasLimit prices the gas the vault must beat: limit × current price.
	GasLimit uint64
	// Slippage is taken off the vault's expected output to form the
	// minimum accepted by the swap.
	Slippage decimal.Decimal
	// Iterations bounds the run; 0 runs forever.
	Iterations int
}

// EngineStats summarizes a run.
type EngineStats struct {
	Checks  int
	Buys    int
	Sells   int
	Idle    int
	Skipped int
}

// Engine polls the trade vault for one token at a time and executes the
// trades it reports. An Engine must not be run concurrently with itself.
type Engine struct {
	config   EngineConfig
	tokens   []*asset.Asset
	venues   map[common.Address]*asset.Venue
	routers  []common.Address
	checker  Checker
	gas      GasPriceSource
	executor Executor
	rng      *rand.Rand
	logger   logger.LoggerInterface

	next  int
	stats EngineStats
}

// NewEngine creates an Engine. Routers are passed to the vault in venue
// order. A nil rng cycles through tokens in order.
func NewEngine(
	cfg EngineConfig,
	tokens []*asset.Asset,
	venues []*asset.Venue,
	checker Checker,
	gas GasPriceSource,
	executor Executor,
	rng *rand.Rand,
	log logger.LoggerInterface,
) (*Engine, error) {
	if len(tokens) == 0 {
		return nil, ErrNoTokens
	}
	if len(venues) == 0 {
		return nil, ErrNoVenues
	}

	e := &Engine{
		config:   cfg,
		tokens:   tokens,
		venues:   make(map[common.Address]*asset.Venue, len(venues)),
		checker:  checker,
		gas:      gas,
		executor: executor,
		rng:      rng,
		logger:   log,
	}
	for _, v := range venues {
		if _, dup := e.venues[v.Router()]; dup {
			continue
		}
		e.venues[v.Router()] = v
		e.routers = append(e.routers, v.Router())
	}
	return e, nil
}

// Stats returns counters for the run so far.
func (e *Engine) Stats() EngineStats {
	return e.stats
}

// Run loops until ctx is cancelled, the configured iterations complete or a
// trade fails. Only the last case returns an error.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info(ctx, "trade engine started",
		"tokens", len(e.tokens),
		"routers", len(e.routers),
		"gas_limit", e.config.GasLimit,
		"poll_delay", e.config.PollDelay,
	)

	for i := 0; e.config.Iterations == 0 || i < e.config.Iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := e.Step(ctx, e.pick()); err != nil {
			return err
		}
		if e.config.Iterations > 0 && i == e.config.Iterations-1 {
			break
		}
		if !sleep(ctx, e.config.PollDelay) {
			break
		}
	}

	e.logger.Info(ctx, "trade engine stopped",
		"checks", e.stats.Checks,
		"buys", e.stats.Buys,
		"sells", e.stats.Sells,
	)
	return nil
}

// Step checks one token and executes the trade the vault reports. It
// returns an error only when the execution fails.
func (e *Engine) Step(ctx context.Context, token *asset.Asset) error {
	gasCost := new(big.Int)
	if e.gas != nil {
		price, err := e.gas.GetGasPrice(ctx)
		if err != nil {
			e.stats.Skipped++
			e.logger.Warn(ctx, "gas price unavailable, skipping check", "token", token.Symbol(), "error", err)
			return nil
		}
		gasCost = price.Cost(e.config.GasLimit)
	}

	check, err := e.checker.CheckTrade(ctx, e.routers, token, gasCost)
	if err != nil {
		e.stats.Skipped++
		if errors.Is(err, executionDomain.ErrNotConfigured) {
			e.logger.Debug(ctx, "trade vault not configured, check skipped", "token", token.Symbol())
			return nil
		}
		e.logger.Warn(ctx, "trade check failed", "token", token.Symbol(), "error", err)
		return nil
	}
	e.stats.Checks++

	if !check.IsTrade() {
		e.stats.Idle++
		e.logger.Info(ctx, "not a trade opportunity", "token", token.Symbol())
		return nil
	}

	venue, ok := e.venues[check.Router]
	if !ok {
		e.stats.Skipped++
		e.logger.Warn(ctx, "vault picked an unknown router", "token", token.Symbol(), "router", check.Router.Hex())
		return nil
	}

	order := executionDomain.TradeOrder{
		Venue:     venue,
		Token:     token,
		Direction: check.Direction,
	}
	if check.Direction == executionDomain.TradeBuy {
		order.AmountIn, order.AmountOutMin = check.AmountNative, e.minOut(check.AmountToken)
	} else {
		order.AmountIn, order.AmountOutMin = check.AmountToken, e.minOut(check.AmountNative)
	}

	e.logger.Info(ctx, "trade opportunity",
		"trade", order.String(),
		"amount_in", order.AmountIn,
		"amount_out_min", order.AmountOutMin,
		"gas_cost", gasCost,
	)

	receipt, err := e.executor.ExecuteTrade(ctx, order)
	if err != nil {
		if errors.Is(err, executionDomain.ErrNotConfigured) {
			e.logger.Info(ctx, "dry run, trade vault not configured", "trade", order.String())
			return nil
		}
		return apperror.New(apperror.CodeExecutionFatal,
			apperror.WithCause(err),
			apperror.WithContext("trade "+order.String()))
	}

	if order.Direction == executionDomain.TradeBuy {
		e.stats.Buys++
	} else {
		e.stats.Sells++
	}
	e.logger.Info(ctx, "trade executed", "trade", order.String(), "tx", receipt.TxHash.Hex())
	return nil
}

func (e *Engine) pick() *asset.Asset {
	if e.rng != nil {
		return e.tokens[e.rng.IntN(len(e.tokens))]
	}
	t := e.tokens[e.next%len(e.tokens)]
	e.next++
	return t
}

// minOut is floor(expected × (1 − slippage)).
func (e *Engine) minOut(expected *big.Int) *big.Int {
	if expected == nil {
		return new(big.Int)
	}
	if !e.config.Slippage.IsPositive() {
		return new(big.Int).Set(expected)
	}
	keep := decimal.NewFromInt(1).Sub(e.config.Slippage)
	return decimal.NewFromBigInt(expected, 0).Mul(keep).Floor().BigInt()
}

// sleep waits d or until ctx is done; false means ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
