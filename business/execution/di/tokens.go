// Package di contains dependency injection tokens for the execution context.
package di

import (
	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/internal/di"
)

// Public service tokens, exposed to other modules.
var (
	// Gateway is the serialized, journaled write path.
	Gateway = di.NewToken[*app.Service]("execution.Gateway")
	Checker = di.NewToken[app.Checker]("execution.Checker")
	// TradeChecker reads the trade vault's verdict for a token.
	TradeChecker = di.NewToken[app.TradeChecker]("execution.TradeChecker")
)

// Private dependency tokens.
var (
	RawGateway = di.NewToken[app.Gateway]("execution:rawGateway")
	Journal    = di.NewToken[app.Journal]("execution:journal")
	Locker     = di.NewToken[app.Locker]("execution:locker")
)

func GetGateway(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Gateway)
}

// GetChecker returns nil when running offline.
func GetChecker(c di.ServiceRegistry) app.Checker {
	return di.GetToken(c, Checker)
}

// GetTradeChecker returns nil when running offline.
func GetTradeChecker(c di.ServiceRegistry) app.TradeChecker {
	return di.GetToken(c, TradeChecker)
}

func GetRawGateway(c di.ServiceRegistry) app.Gateway {
	return di.GetToken(c, RawGateway)
}

func GetJournal(c di.ServiceRegistry) app.Journal {
	return di.GetToken(c, Journal)
}

// GetLocker returns nil when the cross-process lock is disabled.
func GetLocker(c di.ServiceRegistry) app.Locker {
	return di.GetToken(c, Locker)
}
