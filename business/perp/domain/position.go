// Package domain contains the core domain types for the perp context.
package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
)

// Side is the position state.
type Side string

const (
	SideFlat  Side = "flat"
	SideLong  Side = "long"
	SideShort Side = "short"
)

var hundred = decimal.NewFromInt(100)

// Position is the single directional position of a trader.
// Notional is zero if and only if the side is flat.
type Position struct {
	Instrument string
	Side       Side
	EntryPrice decimal.Decimal
	Notional   *big.Int
	Leverage   int64
	Handle     executionDomain.TradeHandle
	OpenedAt   time.Time
	// UnrealizedPnL is refreshed every tick while open.
	UnrealizedPnL *big.Int
}

// NewPosition returns a flat position.
func NewPosition(instrument string, leverage int64) *Position {
	return &Position{
		Instrument:    instrument,
		Side:          SideFlat,
		Notional:      new(big.Int),
		Leverage:      leverage,
		UnrealizedPnL: new(big.Int),
	}
}

func (p *Position) IsFlat() bool {
	return p.Side == SideFlat
}

// Open moves a flat position to side.
func (p *Position) Open(side Side, entry decimal.Decimal, notional *big.Int, handle executionDomain.TradeHandle, at time.Time) error {
	if !p.IsFlat() {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("cannot open %s while %s", side, p.Side)))
	}
	if side != SideLong && side != SideShort {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("side "+string(side)))
	}
	if notional == nil || notional.Sign() <= 0 || !entry.IsPositive() {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("notional and entry price must be positive"))
	}

	p.Side = side
	p.EntryPrice = entry
	p.Notional = new(big.Int).Set(notional)
	p.Handle = handle
	p.OpenedAt = at
	p.UnrealizedPnL = new(big.Int).Set(notional)
	return nil
}

// Close returns the position to flat.
func (p *Position) Close() {
	p.Side = SideFlat
	p.EntryPrice = decimal.Zero
	p.Notional = new(big.Int)
	p.Handle = executionDomain.TradeHandle{}
	p.OpenedAt = time.Time{}
	p.UnrealizedPnL = new(big.Int)
}

// ROI is dir × (price − entry) / entry × leverage × 100. Flat positions
// have zero ROI.
func (p *Position) ROI(price decimal.Decimal) decimal.Decimal {
	if p.IsFlat() || p.EntryPrice.IsZero() {
		return decimal.Zero
	}
	change := price.Sub(p.EntryPrice).Div(p.EntryPrice)
	if p.Side == SideShort {
		change = change.Neg()
	}
	return change.Mul(decimal.NewFromInt(p.Leverage)).Mul(hundred)
}

// PnL is round(notional × (1 + roi/100)), half away from zero.
func (p *Position) PnL(roi decimal.Decimal) *big.Int {
	factor := decimal.NewFromInt(1).Add(roi.Div(hundred))
	return decimal.NewFromBigInt(p.Notional, 0).Mul(factor).Round(0).BigInt()
}

// Validate checks the flat/notional invariant.
func (p *Position) Validate() error {
	zero := p.Notional == nil || p.Notional.Sign() == 0
	if zero != p.IsFlat() {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContext(fmt.Sprintf("side %s with notional %v", p.Side, p.Notional)))
	}
	if p.IsFlat() && !p.EntryPrice.IsZero() {
		return apperror.New(apperror.CodeInvalidState, apperror.WithContext("flat position keeps an entry price"))
	}
	return nil
}

// EntryPrice applies the entry slippage: price × (1 + eps) for longs,
// price × (1 − eps) for shorts.
func EntryPrice(price decimal.Decimal, side Side, eps decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	if side == SideShort {
		return price.Mul(one.Sub(eps))
	}
	return price.Mul(one.Add(eps))
}
