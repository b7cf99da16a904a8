package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/asset"
)

// TradableAsset is an asset in the scan set with its base trade size.
type TradableAsset struct {
	Asset      *asset.Asset
	BaseAmount decimal.Decimal // whole units
	Borrowable bool
}

// BaseUnits returns BaseAmount × multiplier in base units, floored.
// A non-positive multiplier uses the base amount unchanged.
func (t TradableAsset) BaseUnits(multiplier decimal.Decimal) *big.Int {
	amount := t.BaseAmount
	if multiplier.IsPositive() {
		amount = amount.Mul(multiplier)
	}
	return t.Asset.ToBaseUnits(amount)
}

// Candidate is a fully resolved route the scanner may check.
type Candidate struct {
	VenueFrom *asset.Venue
	VenueTo   *asset.Venue
	AssetIn   TradableAsset
	AssetOut  *asset.Asset
}

// Route returns the memo key for the candidate.
func (c Candidate) Route() Route {
	return NewRoute(c.VenueFrom, c.VenueTo, c.AssetIn.Asset, c.AssetOut)
}

// Valid reports whether the candidate can be checked at all: distinct
// assets, distinct routers and a borrowable input.
func (c Candidate) Valid() bool {
	if c.VenueFrom == nil || c.VenueTo == nil || c.AssetIn.Asset == nil || c.AssetOut == nil {
		return false
	}
	if !c.AssetIn.Borrowable {
		return false
	}
	if c.AssetIn.Asset.Equals(c.AssetOut) {
		return false
	}
	return c.VenueFrom.Router() != c.VenueTo.Router()
}
