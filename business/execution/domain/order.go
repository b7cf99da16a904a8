// Package domain contains the core domain types for the execution context.
package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

// PriceScale is the fixed-point scale of prices passed to the perpetual
// portal.
var PriceScale = decimal.New(1, 10)

// ArbitrageOrder is a two-leg flash-loan arbitrage: borrow AmountIn of
// AssetIn, swap to AssetOut on VenueFrom, swap back on VenueTo, and repay
// at least ExpectedAmountOut.
type ArbitrageOrder struct {
	VenueFrom         *asset.Venue
	VenueTo           *asset.Venue
	AssetIn           *asset.Asset
	AssetOut          *asset.Asset
	AmountIn          *big.Int
	ExpectedAmountOut *big.Int
}

// Validate checks the order is complete.
func (o ArbitrageOrder) Validate() error {
	if o.VenueFrom == nil || o.VenueTo == nil || o.AssetIn == nil || o.AssetOut == nil {
		return apperror.New(apperror.CodeRequiredField, apperror.WithContext("arbitrage order needs two venues and two assets"))
	}
	if o.AmountIn == nil || o.AmountIn.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidTradeSize, apperror.WithContext(o.String()))
	}
	if o.ExpectedAmountOut == nil || o.ExpectedAmountOut.Sign() < 0 {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("expected amount out must be >= 0"))
	}
	return nil
}

func (o ArbitrageOrder) String() string {
	if o.VenueFrom == nil || o.VenueTo == nil || o.AssetIn == nil || o.AssetOut == nil {
		return "incomplete order"
	}
	return fmt.Sprintf("%s>%s %s/%s", o.VenueFrom.Name(), o.VenueTo.Name(), o.AssetIn.Symbol(), o.AssetOut.Symbol())
}

// PositionOrder opens a leveraged position on the perpetual portal. Amount
// is the collateral in instrument base units and is sent as call value.
type PositionOrder struct {
	Instrument *asset.Asset
	IsLong     bool
	Amount     *big.Int
	Qty        *big.Int // collateral × leverage at PriceScale
	Price      *big.Int // entry price at PriceScale
	TakeProfit *big.Int // at PriceScale
}

// NewPositionOrder builds the portal arguments. The take-profit is twice
// the price for longs and half of it for shorts.
func NewPositionOrder(instrument *asset.Asset, isLong bool, amount *big.Int, leverage int64, price decimal.Decimal) (PositionOrder, error) {
	if instrument == nil {
		return PositionOrder{}, apperror.New(apperror.CodeRequiredField, apperror.WithContext("instrument"))
	}
	if amount == nil || amount.Sign() <= 0 {
		return PositionOrder{}, apperror.New(apperror.CodeInvalidTradeSize, apperror.WithContext(instrument.Symbol()+" collateral must be positive"))
	}
	if leverage <= 0 || !price.IsPositive() {
		return PositionOrder{}, apperror.New(apperror.CodeInvalidInput, apperror.WithContext("leverage and price must be positive"))
	}

	takeProfit := price.Mul(decimal.NewFromInt(2))
	if !isLong {
		takeProfit = price.Div(decimal.NewFromInt(2))
	}

	qty := instrument.FromBaseUnits(amount).Mul(decimal.NewFromInt(leverage)).Mul(PriceScale)

	o := PositionOrder{
		Instrument: instrument,
		IsLong:     isLong,
		Amount:     new(big.Int).Set(amount),
		Qty:        qty.Round(0).BigInt(),
		Price:      price.Mul(PriceScale).Round(0).BigInt(),
		TakeProfit: takeProfit.Mul(PriceScale).Round(0).BigInt(),
	}
	return o, o.fits()
}

// fits checks the values against the portal's integer widths.
func (o PositionOrder) fits() error {
	widths := []struct {
		name string
		v    *big.Int
		bits int
	}{
		{"amount", o.Amount, 96},
		{"qty", o.Qty, 80},
		{"price", o.Price, 64},
		{"take profit", o.TakeProfit, 64},
	}
	for _, w := range widths {
		if w.v.Sign() <= 0 || w.v.BitLen() > w.bits {
			return apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("%s %s does not fit uint%d", w.name, w.v, w.bits)))
		}
	}
	return nil
}

func (o PositionOrder) String() string {
	side := "short"
	if o.IsLong {
		side = "long"
	}
	if o.Instrument == nil {
		return side
	}
	return side + " " + o.Instrument.Symbol()
}
