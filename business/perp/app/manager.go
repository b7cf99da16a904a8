package app

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/business/perp/domain"
	pricingDomain "github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

// ManagerConfig configures the position manager.
type ManagerConfig struct {
	Instrument           *asset.Asset
	Leverage             int64
	EntrySlippage        decimal.Decimal
	LiquidationThreshold decimal.Decimal
	PositionFraction     decimal.Decimal
	FeeRate              decimal.Decimal
	ROIWindowSize        int
	Hours                domain.OperatingHours
}

// Action is what a tick did.
type Action string

const (
	ActionNone      Action = "none"
	ActionHold      Action = "hold"
	ActionOpenLong  Action = "open_long"
	ActionOpenShort Action = "open_short"
	ActionClose     Action = "close"
)

// TickResult describes one manager tick.
type TickResult struct {
	Action Action
	Reason domain.ExitReason
	Signal domain.Signal
	ROI    decimal.Decimal
	PnL    *big.Int
}

// EngineState is everything a trader mutates. It is owned by one
// PositionManager.
type EngineState struct {
	Ledger   *domain.Ledger
	Position *domain.Position
	ROI      *pricingDomain.Window
	Trades   int
	Wins     int
}

// PositionManager runs the flat/long/short state machine. Transitions only
// happen after the gateway confirms them.
type PositionManager struct {
	config  ManagerConfig
	state   *EngineState
	gateway Gateway
	signals SignalProvider
	logger  logger.LoggerInterface
}

// NewPositionManager creates a flat manager holding initialBalance.
func NewPositionManager(cfg ManagerConfig, initialBalance *big.Int, gateway Gateway, signals SignalProvider, log logger.LoggerInterface) *PositionManager {
	return &PositionManager{
		config: cfg,
		state: &EngineState{
			Ledger:   domain.NewLedger(initialBalance),
			Position: domain.NewPosition(cfg.Instrument.Symbol(), cfg.Leverage),
			ROI:      pricingDomain.NewWindow(cfg.ROIWindowSize),
		},
		gateway: gateway,
		signals: signals,
		logger:  log,
	}
}

// State exposes the engine state for reporting.
func (m *PositionManager) State() *EngineState {
	return m.state
}

// Instrument is the traded asset; balances are in its base units.
func (m *PositionManager) Instrument() *asset.Asset {
	return m.config.Instrument
}

// Tick evaluates the latest price. prices is the price window including
// price. A position closed on this tick is never reopened on the same tick.
func (m *PositionManager) Tick(ctx context.Context, price decimal.Decimal, prices []decimal.Decimal, now time.Time) (TickResult, error) {
	sig := m.signals.Signals(prices)
	pos := m.state.Position

	if !pos.IsFlat() {
		roi := pos.ROI(price)
		pnl := pos.PnL(roi)
		pos.UnrealizedPnL = pnl
		m.state.ROI.Push(roi)

		res := TickResult{Action: ActionHold, Signal: sig, ROI: roi, PnL: pnl}
		res.Reason = m.exitReason(roi, sig)
		if res.Reason == domain.ExitNone {
			return res, nil
		}

		if err := m.close(ctx, res.Reason, pnl); err != nil {
			return res, err
		}
		res.Action = ActionClose
		return res, nil
	}

	res := TickResult{Action: ActionNone, Signal: sig}
	if !m.config.Hours.Allows(now) {
		return res, nil
	}

	switch {
	case sig.Short && !sig.Long:
		res.Action = ActionOpenShort
		return res, m.open(ctx, domain.SideShort, price, now)
	case sig.Long && !sig.Short:
		res.Action = ActionOpenLong
		return res, m.open(ctx, domain.SideLong, price, now)
	}
	return res, nil
}

func (m *PositionManager) exitReason(roi decimal.Decimal, sig domain.Signal) domain.ExitReason {
	pos := m.state.Position
	switch {
	case roi.LessThanOrEqual(m.config.LiquidationThreshold):
		return domain.ExitLiquidation
	case m.signals.ROIExit(m.state.ROI.Values()):
		return domain.ExitROISignal
	case pos.Side == domain.SideLong && sig.Short, pos.Side == domain.SideShort && sig.Long:
		return domain.ExitReversal
	}
	return domain.ExitNone
}

func (m *PositionManager) open(ctx context.Context, side domain.Side, price decimal.Decimal, now time.Time) error {
	amount := m.state.Ledger.Fraction(m.config.PositionFraction)
	if amount.Sign() <= 0 {
		return apperror.New(apperror.CodeInsufficientFunds,
			apperror.WithContext("no balance left to open a position"))
	}

	entry := domain.EntryPrice(price, side, m.config.EntrySlippage)
	order, err := executionDomain.NewPositionOrder(m.config.Instrument, side == domain.SideLong, amount, m.config.Leverage, entry)
	if err != nil {
		return err
	}

	if err := m.state.Ledger.Debit(amount); err != nil {
		return err
	}
	handle, _, err := m.gateway.OpenPosition(ctx, order)
	if err != nil {
		m.state.Ledger.Credit(amount)
		if errors.Is(err, executionDomain.ErrNotConfigured) {
			m.logger.Debug(ctx, "perp portal not configured, open skipped", "side", side)
		}
		return err
	}

	if err := m.state.Position.Open(side, entry, amount, handle, now); err != nil {
		return err
	}
	m.state.ROI.Clear()

	m.logger.Info(ctx, "position opened",
		"side", side,
		"entry", entry,
		"amount", amount,
		"handle", handle,
		"balance", m.state.Ledger.Balance(),
	)
	return nil
}

func (m *PositionManager) close(ctx context.Context, reason domain.ExitReason, pnl *big.Int) error {
	pos := m.state.Position

	if _, err := m.gateway.ClosePosition(ctx, pos.Handle); err != nil {
		return err
	}

	if pnl.Sign() > 0 {
		m.state.Ledger.Credit(pnl)
	}
	fee := decimal.NewFromBigInt(pos.Notional, 0).
		Mul(decimal.NewFromInt(pos.Leverage)).
		Mul(m.config.FeeRate).
		Floor().BigInt()
	if fee.Sign() > 0 {
		m.state.Ledger.Charge(fee)
	}

	m.state.Trades++
	if pnl.Cmp(pos.Notional) > 0 {
		m.state.Wins++
	}

	m.logger.Info(ctx, "position closed",
		"side", pos.Side,
		"reason", reason,
		"entry", pos.EntryPrice,
		"pnl", pnl,
		"fee", fee,
	)

	pos.Close()
	m.state.ROI.Clear()
	m.logger.Info(ctx, "balance updated", "balance", m.state.Ledger.Balance())
	return nil
}
