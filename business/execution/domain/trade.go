package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

// TradeDirection is the trade vault's verdict for a token.
type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"  // native coin for tokens
	TradeSell TradeDirection = "sell" // tokens for native coin
	TradeNone TradeDirection = "none"
)

// TradeCheck is the answer of the trade vault's checkTrade view.
type TradeCheck struct {
	Direction    TradeDirection
	Router       common.Address
	AmountNative *big.Int
	AmountToken  *big.Int
}

// IsTrade reports whether the vault found a buy or a sell.
func (c *TradeCheck) IsTrade() bool {
	return c != nil && (c.Direction == TradeBuy || c.Direction == TradeSell)
}

// TradeOrder swaps between the vault's native balance and Token on Venue.
// For a buy AmountIn is native coin and AmountOutMin is tokens; a sell is
// the reverse.
type TradeOrder struct {
	Venue        *asset.Venue
	Token        *asset.Asset
	Direction    TradeDirection
	AmountIn     *big.Int
	AmountOutMin *big.Int
}

// Validate checks the order is complete.
func (o TradeOrder) Validate() error {
	if o.Venue == nil || o.Token == nil {
		return apperror.New(apperror.CodeRequiredField, apperror.WithContext("trade order needs a venue and a token"))
	}
	if o.Direction != TradeBuy && o.Direction != TradeSell {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext(fmt.Sprintf("trade direction %q", o.Direction)))
	}
	if o.AmountIn == nil || o.AmountIn.Sign() <= 0 {
		return apperror.New(apperror.CodeInvalidTradeSize, apperror.WithContext(o.String()))
	}
	if o.AmountOutMin == nil || o.AmountOutMin.Sign() < 0 {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("minimum amount out must be >= 0"))
	}
	return nil
}

func (o TradeOrder) String() string {
	if o.Venue == nil || o.Token == nil {
		return "incomplete trade"
	}
	return fmt.Sprintf("%s %s on %s", o.Direction, o.Token.Symbol(), o.Venue.Name())
}
