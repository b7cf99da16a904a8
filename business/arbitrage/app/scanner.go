package app

import (
	"context"
	"errors"
	"math/big"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/logger"
)

// ScannerConfig configures the arbitrage loop.
type ScannerConfig struct {
	Mode      domain.Mode
	PollDelay time.Duration
	// Passes bounds exhaustive runs; 0 runs forever.
	Passes int
	// AmountMultiplier s scales each base amount by a random factor in
	// [s, 2s) truncated to two decimals. 0 disables scaling.
	AmountMultiplier decimal.Decimal
}

// ScanStats summarizes a run.
type ScanStats struct {
	Checks        int
	Memoized      int
	Opportunities int
	Executed      int
	Passes        int
}

// Scanner is the arbitrage engine loop. It owns its sampler and memoizer;
// a Scanner must not be run concurrently with itself.
type Scanner struct {
	config     ScannerConfig
	calculator *Calculator
	memo       *Memoizer
	sampler    Sampler
	executor   Executor
	reporter   Reporter
	rng        *rand.Rand
	logger     logger.LoggerInterface
	now        func() time.Time

	stats ScanStats
}

// NewScanner creates a Scanner. rng drives the amount multiplier and may be
// shared with the sampler.
func NewScanner(
	cfg ScannerConfig,
	calculator *Calculator,
	memo *Memoizer,
	sampler Sampler,
	executor Executor,
	reporter Reporter,
	rng *rand.Rand,
	log logger.LoggerInterface,
) *Scanner {
	return &Scanner{
		config:     cfg,
		calculator: calculator,
		memo:       memo,
		sampler:    sampler,
		executor:   executor,
		reporter:   reporter,
		rng:        rng,
		logger:     log,
		now:        time.Now,
	}
}

// Stats returns counters for the run so far.
func (s *Scanner) Stats() ScanStats {
	return s.stats
}

// Run loops until ctx is cancelled, the configured passes complete, every
// route is memoized, or an execution fails. Only the last case returns an
// error.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info(ctx, "scanner started",
		"mode", s.config.Mode,
		"candidates", s.sampler.Size(),
		"poll_delay", s.config.PollDelay,
	)

	for {
		if ctx.Err() != nil {
			s.logger.Info(ctx, "scanner stopped", "reason", ctx.Err(), "checks", s.stats.Checks)
			return nil
		}

		cand, ok := s.sampler.Next()
		if !ok {
			s.stats.Passes++
			s.logger.Info(ctx, "scan pass complete", "pass", s.stats.Passes, "memoized", s.memo.Len())
			if s.config.Passes > 0 && s.stats.Passes >= s.config.Passes {
				return nil
			}
			continue
		}

		if s.memo.IsKnownUnprofitable(ctx, cand.Route()) {
			if s.memo.Len() >= s.sampler.Size() {
				s.logger.Warn(ctx, "every route is memoized as unprofitable, stopping", "routes", s.memo.Len())
				return nil
			}
			continue
		}

		if err := s.Step(ctx, cand); err != nil {
			return err
		}

		if !sleep(ctx, s.config.PollDelay) {
			s.logger.Info(ctx, "scanner stopped", "reason", ctx.Err(), "checks", s.stats.Checks)
			return nil
		}
	}
}

// Step checks one candidate and executes it if profitable. It returns an
// error only when an execution or the following withdraw fails.
func (s *Scanner) Step(ctx context.Context, cand domain.Candidate) error {
	route := cand.Route()
	amountIn := s.amountIn(cand)

	result, err := s.calculator.Check(ctx, s.config.Mode, cand, amountIn)
	if err != nil {
		if errors.Is(err, executionDomain.ErrNotConfigured) {
			s.logger.Debug(ctx, "vault not configured, check skipped", "route", route.Key())
			return nil
		}
		s.logger.Warn(ctx, "check failed, skipping route", "route", route.Key(), "error", err)
		return nil
	}
	s.stats.Checks++

	if result.IsDefinitiveZero() {
		s.memo.MarkUnprofitable(ctx, route)
		s.stats.Memoized++
		s.logger.Debug(ctx, "route returned nothing, memoized", "route", route.Key())
		return nil
	}

	if !result.IsOpportunity() {
		s.logger.Warn(ctx, "not profitable",
			"route", route.Key(),
			"amount_in", result.AmountIn,
			"amount_out", result.AmountOut,
			"expected", result.ExpectedAmountOut,
		)
		return nil
	}

	s.stats.Opportunities++
	opp := domain.NewOpportunity(result, cand.AssetIn.Asset, s.now())
	s.reporter.Report(ctx, opp)

	order := executionDomain.ArbitrageOrder{
		VenueFrom:         cand.VenueFrom,
		VenueTo:           cand.VenueTo,
		AssetIn:           cand.AssetIn.Asset,
		AssetOut:          cand.AssetOut,
		AmountIn:          result.AmountIn,
		ExpectedAmountOut: result.ExpectedAmountOut,
	}

	receipt, err := s.executor.ExecuteArbitrage(ctx, order)
	if err != nil {
		if errors.Is(err, executionDomain.ErrNotConfigured) {
			s.logger.Info(ctx, "dry run, vault not configured", "route", route.Key(), "opportunity", opp.ID)
			return nil
		}
		return apperror.New(apperror.CodeExecutionFatal,
			apperror.WithCause(err),
			apperror.WithContext("execute "+route.Key()))
	}

	if _, err := s.executor.Withdraw(ctx, cand.AssetIn.Asset); err != nil {
		return apperror.New(apperror.CodeExecutionFatal,
			apperror.WithCause(err),
			apperror.WithContext("withdraw "+cand.AssetIn.Asset.Symbol()+" after "+route.Key()))
	}

	s.stats.Executed++
	s.reporter.Executed(ctx, opp, receipt)
	return nil
}

func (s *Scanner) amountIn(cand domain.Candidate) *big.Int {
	m := s.config.AmountMultiplier
	if !m.IsPositive() || s.rng == nil {
		return cand.AssetIn.BaseUnits(decimal.Zero)
	}
	factor := m.Add(decimal.NewFromFloat(s.rng.Float64()).Mul(m)).Truncate(2)
	return cand.AssetIn.BaseUnits(factor)
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
