// Package di contains dependency injection tokens for the trade context.
package di

import (
	"github.com/fd1az/defi-trader/business/trade/app"
	"github.com/fd1az/defi-trader/internal/di"
)

// Engine is nil without a chain client or when the trade set does not
// resolve on the network.
var Engine = di.NewToken[*app.Engine]("trade.Engine")

func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}
