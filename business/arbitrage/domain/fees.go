package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FeeModel prices the flash loan backing an arbitrage.
type FeeModel struct {
	rate decimal.Decimal
}

// NewFeeModel creates a fee model. rate is a fraction, 0.0005 = 5 bps.
func NewFeeModel(rate decimal.Decimal) (FeeModel, error) {
	if rate.IsNegative() {
		return FeeModel{}, fmt.Errorf("flash loan fee rate must be non-negative, got %s", rate)
	}
	return FeeModel{rate: rate}, nil
}

// Rate returns the fee rate.
func (f FeeModel) Rate() decimal.Decimal {
	return f.rate
}

// ExpectedAmountOutExact is amountIn × (1 + rate) without rounding.
func (f FeeModel) ExpectedAmountOutExact(amountIn *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(amountIn, 0).Mul(decimal.NewFromInt(1).Add(f.rate))
}

// ExpectedAmountOut is the minimum the route must return to repay the loan,
// floored to base units. It is computed even when the rate is zero.
func (f FeeModel) ExpectedAmountOut(amountIn *big.Int) *big.Int {
	return f.ExpectedAmountOutExact(amountIn).Floor().BigInt()
}

// LoanFee is amountIn × rate.
func (f FeeModel) LoanFee(amountIn *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(amountIn, 0).Mul(f.rate)
}

// IsOpportunity reports whether amountOut strictly exceeds expected.
func IsOpportunity(amountOut, expected *big.Int) bool {
	if amountOut == nil || expected == nil {
		return false
	}
	return amountOut.Cmp(expected) > 0
}

// ApplyHaircut returns amount × (1 − h), floored. h is clamped to [0, 1].
func ApplyHaircut(amount *big.Int, h decimal.Decimal) *big.Int {
	if amount == nil {
		return new(big.Int)
	}
	if !h.IsPositive() {
		return new(big.Int).Set(amount)
	}
	one := decimal.NewFromInt(1)
	if h.GreaterThanOrEqual(one) {
		return new(big.Int)
	}
	return decimal.NewFromBigInt(amount, 0).Mul(one.Sub(h)).Floor().BigInt()
}

// TwoHopProfit is finalOut − amountIn − gasA − gasB − loanFee, all in base
// units of the input asset.
func TwoHopProfit(amountIn, finalOut, gasA, gasB, loanFee decimal.Decimal) decimal.Decimal {
	return finalOut.Sub(amountIn).Sub(gasA).Sub(gasB).Sub(loanFee)
}
