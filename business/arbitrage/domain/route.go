// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"fmt"

	"github.com/fd1az/defi-trader/internal/asset"
)

// Route identifies a two-leg arbitrage: buy AssetOut with AssetIn on
// VenueFrom, sell it back on VenueTo. Swapping the venues gives a different
// route.
type Route struct {
	VenueFrom string
	VenueTo   string
	AssetIn   string
	AssetOut  string
}

// NewRoute builds a route from registry value objects.
func NewRoute(from, to *asset.Venue, in, out *asset.Asset) Route {
	return Route{
		VenueFrom: from.Name(),
		VenueTo:   to.Name(),
		AssetIn:   in.Symbol(),
		AssetOut:  out.Symbol(),
	}
}

// Key returns a stable string for logs and metrics.
func (r Route) Key() string {
	return fmt.Sprintf("%s>%s:%s/%s", r.VenueFrom, r.VenueTo, r.AssetIn, r.AssetOut)
}

func (r Route) String() string {
	return r.Key()
}
