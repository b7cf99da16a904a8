package asset

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// maxDecimals guards against obviously broken registry entries.
const maxDecimals = 36

// Asset is a token known to a network. The symbol is unique per network and
// is what routes and configuration refer to.
type Asset struct {
	id       AssetID
	symbol   string
	decimals uint8
}

// NewAsset validates and creates an Asset.
func NewAsset(chainID uint64, symbol string, address common.Address, decimals uint8) (*Asset, error) {
	if symbol == "" {
		return nil, fmt.Errorf("asset: empty symbol")
	}
	if decimals > maxDecimals {
		return nil, fmt.Errorf("asset %s: suspicious decimals %d", symbol, decimals)
	}

	return &Asset{
		id:       NewTokenAssetID(chainID, address),
		symbol:   symbol,
		decimals: decimals,
	}, nil
}

// MustNewAsset is NewAsset for fixtures and tests.
func MustNewAsset(chainID uint64, symbol string, address common.Address, decimals uint8) *Asset {
	a, err := NewAsset(chainID, symbol, address, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Asset) ID() AssetID {
	return a.id
}

func (a *Asset) Symbol() string {
	return a.symbol
}

func (a *Asset) Decimals() uint8 {
	return a.decimals
}

func (a *Asset) Address() common.Address {
	return a.id.Address()
}

func (a *Asset) ChainID() uint64 {
	return a.id.ChainID()
}

// One returns one whole unit in base units (10^decimals).
func (a *Asset) One() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.decimals)), nil)
}

// ToBaseUnits converts a human amount (e.g. 1.5) to base units, truncating
// precision the asset cannot represent.
func (a *Asset) ToBaseUnits(d decimal.Decimal) *big.Int {
	return d.Shift(int32(a.decimals)).Truncate(0).BigInt()
}

// FromBaseUnits converts base units to a human amount.
func (a *Asset) FromBaseUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(a.decimals))
}

func (a *Asset) String() string {
	return a.symbol
}

// Equals compares two assets by identity.
func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id == other.id
}
