// Package di contains dependency injection tokens for the perp context.
package di

import (
	"github.com/fd1az/defi-trader/business/perp/app"
	"github.com/fd1az/defi-trader/internal/di"
)

// Public service tokens, exposed to other modules.
var (
	Trader = di.NewToken[*app.Trader]("perp.Trader")
)

// Private dependency tokens.
var (
	Manager     = di.NewToken[*app.PositionManager]("perp:manager")
	Signals     = di.NewToken[app.SignalProvider]("perp:signals")
	PriceSource = di.NewToken[app.PriceSource]("perp:priceSource")
)

// GetTrader returns nil when no price source is available.
func GetTrader(c di.ServiceRegistry) *app.Trader {
	return di.GetToken(c, Trader)
}

func GetManager(c di.ServiceRegistry) *app.PositionManager {
	return di.GetToken(c, Manager)
}

func GetSignals(c di.ServiceRegistry) app.SignalProvider {
	return di.GetToken(c, Signals)
}

func GetPriceSource(c di.ServiceRegistry) app.PriceSource {
	return di.GetToken(c, PriceSource)
}
