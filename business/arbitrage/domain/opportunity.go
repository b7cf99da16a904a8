package domain

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/asset"
)

// Mode selects how profitability is evaluated.
type Mode string

const (
	ModeTwoHop     Mode = "two_hop"
	ModeSingleCall Mode = "single_call"
)

// Leg is one quoted swap of a two-hop check.
type Leg struct {
	Venue       string
	AssetIn     string
	AssetOut    string
	AmountIn    *big.Int
	AmountOut   *big.Int
	// Quoted is the venue's output before the haircut.
	Quoted      *big.Int
	GasEstimate uint64
	GasCost     *big.Int
}

// CheckResult is the outcome of evaluating one route.
type CheckResult struct {
	Route             Route
	Mode              Mode
	AmountIn          *big.Int
	ExpectedAmountOut *big.Int
	ExpectedExact     decimal.Decimal
	AmountOut         *big.Int
	// Profit is only meaningful in two-hop mode; single-call results carry
	// AmountOut − ExpectedAmountOut.
	Profit  decimal.Decimal
	GasCost *big.Int
	Legs    []Leg
}

// IsOpportunity reports whether the route should be executed.
func (r *CheckResult) IsOpportunity() bool {
	if r.AmountOut == nil || r.AmountOut.Sign() == 0 {
		return false
	}
	if r.Mode == ModeTwoHop {
		return r.Profit.IsPositive()
	}
	return IsOpportunity(r.AmountOut, r.ExpectedAmountOut)
}

// IsDefinitiveZero reports whether the route returned nothing and should
// be memoized. In two-hop mode only a venue quoting zero counts; an output
// the haircut floors to zero does not.
func (r *CheckResult) IsDefinitiveZero() bool {
	if r.Mode == ModeTwoHop && len(r.Legs) > 0 {
		for _, l := range r.Legs {
			if l.Quoted == nil || l.Quoted.Sign() == 0 {
				return true
			}
		}
		return false
	}
	return r.AmountOut == nil || r.AmountOut.Sign() == 0
}

// Opportunity is a profitable check about to be executed.
type Opportunity struct {
	ID        uuid.UUID
	Timestamp time.Time
	AssetIn   *asset.Asset
	Result    *CheckResult
}

// NewOpportunity wraps a profitable check result.
func NewOpportunity(result *CheckResult, assetIn *asset.Asset, now time.Time) *Opportunity {
	return &Opportunity{
		ID:        uuid.New(),
		Timestamp: now,
		AssetIn:   assetIn,
		Result:    result,
	}
}

// Human converts base units of the input asset to whole units.
func (o *Opportunity) Human(v *big.Int) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return o.AssetIn.FromBaseUnits(v)
}
