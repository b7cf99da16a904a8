package app

import (
	"context"
	"errors"
	"time"

	pricingDomain "github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/logger"
)

// TraderConfig configures the perp loop.
type TraderConfig struct {
	PollDelay  time.Duration
	WindowSize int
}

// Trader polls prices and feeds them to a PositionManager. A Trader must
// not be run concurrently with itself.
type Trader struct {
	config  TraderConfig
	prices  PriceSource
	window  *pricingDomain.Window
	manager *PositionManager
	logger  logger.LoggerInterface
	now     func() time.Time

	ticks int
}

// NewTrader creates a Trader.
func NewTrader(cfg TraderConfig, prices PriceSource, manager *PositionManager, log logger.LoggerInterface) *Trader {
	return &Trader{
		config:  cfg,
		prices:  prices,
		window:  pricingDomain.NewWindow(cfg.WindowSize),
		manager: manager,
		logger:  log,
		now:     time.Now,
	}
}

// Manager returns the position manager driven by this trader.
func (t *Trader) Manager() *PositionManager {
	return t.manager
}

// Ticks returns the number of prices processed.
func (t *Trader) Ticks() int {
	return t.ticks
}

// Run loops until ctx is cancelled or the price source is exhausted. Tick
// failures are logged and the loop carries on with the next price.
func (t *Trader) Run(ctx context.Context) error {
	t.logger.Info(ctx, "trader started",
		"instrument", t.manager.config.Instrument.Symbol(),
		"leverage", t.manager.config.Leverage,
		"balance", t.manager.state.Ledger.Balance(),
	)

	for {
		if ctx.Err() != nil {
			t.stopped(ctx, ctx.Err())
			return nil
		}

		err := t.Step(ctx)
		if errors.Is(err, ErrNoMorePrices) {
			t.stopped(ctx, err)
			return nil
		}
		if err != nil {
			t.logger.Warn(ctx, "tick failed", "tick", t.ticks, "error", err)
		}

		if !sleep(ctx, t.config.PollDelay) {
			t.stopped(ctx, ctx.Err())
			return nil
		}
	}
}

// Step reads one price and ticks the manager.
func (t *Trader) Step(ctx context.Context) error {
	price, err := t.prices.Price(ctx)
	if err != nil {
		return err
	}
	t.ticks++
	t.window.Push(price)

	res, err := t.manager.Tick(ctx, price, t.window.Values(), t.now())
	if err != nil {
		return err
	}

	t.logger.Debug(ctx, "tick",
		"price", price,
		"action", res.Action,
		"side", t.manager.state.Position.Side,
		"roi", res.ROI,
	)
	return nil
}

func (t *Trader) stopped(ctx context.Context, reason error) {
	st := t.manager.State()
	t.logger.Info(ctx, "trader stopped",
		"reason", reason,
		"ticks", t.ticks,
		"trades", st.Trades,
		"balance", st.Ledger.Balance(),
	)
}

// sleep waits d or until ctx is done; false means ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
