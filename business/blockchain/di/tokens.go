// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/defi-trader/business/blockchain/app"
	"github.com/fd1az/defi-trader/internal/di"
)

// Public service tokens, exposed to other modules.
var (
	GasOracle = di.NewToken[app.GasOracle]("blockchain.GasOracle")
	TxSender  = di.NewToken[app.TxSender]("blockchain.TxSender")
)

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

// GetTxSender returns nil when no signing key is loaded.
func GetTxSender(c di.ServiceRegistry) app.TxSender {
	return di.GetToken(c, TxSender)
}
