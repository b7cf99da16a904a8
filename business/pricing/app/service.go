package app

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

// PricingService validates quote requests and derives base-line prices.
type PricingService struct {
	provider QuoteProvider
}

// NewPricingService creates a PricingService.
func NewPricingService(provider QuoteProvider) *PricingService {
	return &PricingService{provider: provider}
}

// GetQuote rejects non-positive amounts before reaching the venue.
func (s *PricingService) GetQuote(ctx context.Context, venue *asset.Venue, assetIn, assetOut *asset.Asset, amountIn *big.Int) (*domain.Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidTradeSize,
			apperror.WithContext(assetIn.Symbol()+" amount must be positive"))
	}
	if assetIn.Equals(assetOut) {
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("cannot quote "+assetIn.Symbol()+" against itself"))
	}
	return s.provider.GetQuote(ctx, venue, assetIn, assetOut, amountIn)
}

// BaselinePrice returns the price of one whole unit of base in whole units
// of quote on venue.
func (s *PricingService) BaselinePrice(ctx context.Context, venue *asset.Venue, base, quote *asset.Asset) (decimal.Decimal, error) {
	q, err := s.GetQuote(ctx, venue, base, quote, base.One())
	if err != nil {
		return decimal.Zero, err
	}
	if q.IsZero() {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithContext(base.Symbol()+"/"+quote.Symbol()+" on "+venue.Name()))
	}
	return quote.FromBaseUnits(q.AmountOut), nil
}
