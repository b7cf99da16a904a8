// Package pricing implements the pricing bounded context: venue quotes and
// base-line prices.
package pricing

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/defi-trader/business/pricing/app"
	pricingDI "github.com/fd1az/defi-trader/business/pricing/di"
	"github.com/fd1az/defi-trader/business/pricing/infra/router"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
	"github.com/fd1az/defi-trader/internal/ratelimit"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register QuoteProvider (router) - private dependency
	di.RegisterToken(c, pricingDI.QuoteProvider, func(sr di.ServiceRegistry) app.QuoteProvider {
		client, _ := sr.Get(monolith.ServiceChain).(chain.Client)
		if client == nil {
			return nil
		}
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		var from common.Address
		if key, _ := sr.Get(monolith.ServiceSigner).(*ecdsa.PrivateKey); key != nil {
			from = crypto.PubkeyToAddress(key.PublicKey)
		}

		provider, err := router.NewProvider(router.Config{
			From:           from,
			DefaultSwapGas: cfg.Arbitrage.DefaultSwapGas,
			CallTimeout:    cfg.Ethereum.RPCTimeout,
		}, client, ratelimit.PerMinute(cfg.Ethereum.RequestsPerMinute), log)
		if err != nil {
			panic("failed to create router provider: " + err.Error())
		}
		return provider
	})

	// Register PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		provider := pricingDI.GetQuoteProvider(sr)
		if provider == nil {
			return nil
		}
		return app.NewPricingService(provider)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if pricingDI.GetPricingService(mono.Services()) == nil {
		log.Warn(ctx, "pricing module started offline, live quotes unavailable")
		return nil
	}
	log.Info(ctx, "pricing module started", "network", mono.Network().Name())
	return nil
}
