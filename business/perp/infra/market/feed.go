// Package market samples live base-line prices from a venue.
package market

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/perp/app"
	"github.com/fd1az/defi-trader/internal/asset"
)

var _ app.PriceSource = (*Feed)(nil)

// BaselinePricer is satisfied by the pricing service.
type BaselinePricer interface {
	BaselinePrice(ctx context.Context, venue *asset.Venue, base, quote *asset.Asset) (decimal.Decimal, error)
}

// Feed prices one whole instrument unit in the quote asset on a venue.
type Feed struct {
	pricer     BaselinePricer
	venue      *asset.Venue
	instrument *asset.Asset
	quote      *asset.Asset
}

func NewFeed(pricer BaselinePricer, venue *asset.Venue, instrument, quote *asset.Asset) *Feed {
	return &Feed{pricer: pricer, venue: venue, instrument: instrument, quote: quote}
}

func (f *Feed) Price(ctx context.Context) (decimal.Decimal, error) {
	return f.pricer.BaselinePrice(ctx, f.venue, f.instrument, f.quote)
}

// Pair is "instrument/quote@venue".
func (f *Feed) Pair() string {
	return f.instrument.Symbol() + "/" + f.quote.Symbol() + "@" + f.venue.Name()
}
