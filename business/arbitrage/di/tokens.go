// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/defi-trader/business/arbitrage/app"
	"github.com/fd1az/defi-trader/business/arbitrage/infra"
	"github.com/fd1az/defi-trader/internal/di"
)

// Public service tokens, exposed to other modules.
var (
	Scanner  = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	Reporter = di.NewToken[*infra.ConsoleReporter]("arbitrage.Reporter")
)

// Private dependency tokens.
var (
	Calculator = di.NewToken[*app.Calculator]("arbitrage:calculator")
	Memoizer   = di.NewToken[*app.Memoizer]("arbitrage:memoizer")
	Sampler    = di.NewToken[app.Sampler]("arbitrage:sampler")
)

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetReporter(c di.ServiceRegistry) *infra.ConsoleReporter {
	return di.GetToken(c, Reporter)
}

func GetCalculator(c di.ServiceRegistry) *app.Calculator {
	return di.GetToken(c, Calculator)
}

func GetMemoizer(c di.ServiceRegistry) *app.Memoizer {
	return di.GetToken(c, Memoizer)
}

func GetSampler(c di.ServiceRegistry) app.Sampler {
	return di.GetToken(c, Sampler)
}
