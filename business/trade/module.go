// Package trade implements the spot trade context: polling the trade vault
// for buy or sell verdicts and executing them.
package trade

import (
	"context"
	"math/rand/v2"
	"time"

	blockchainDI "github.com/fd1az/defi-trader/business/blockchain/di"
	executionDI "github.com/fd1az/defi-trader/business/execution/di"
	"github.com/fd1az/defi-trader/business/trade/app"
	tradeDI "github.com/fd1az/defi-trader/business/trade/di"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
)

// Module implements the trade bounded context.
type Module struct{}

// RegisterServices registers all trade services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradeDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)

		checker := executionDI.GetTradeChecker(sr)
		if checker == nil {
			return nil
		}

		tokens, venues, err := Resolve(network, cfg.Trade)
		if err != nil {
			return nil
		}

		// Keep nil collaborators as untyped nil interfaces.
		var gas app.GasPriceSource
		if g := blockchainDI.GetGasOracle(sr); g != nil {
			gas = g
		}

		seed := uint64(cfg.Trade.Seed)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}

		engine, err := app.NewEngine(app.EngineConfig{
			PollDelay:  cfg.Trade.PollDelay,
			GasLimit:   cfg.Trade.GasLimit,
			Slippage:   cfg.Trade.SlippageDecimal(),
			Iterations: cfg.Trade.Iterations,
		},
			tokens,
			venues,
			checker,
			gas,
			executionDI.GetGateway(sr),
			rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
			log,
		)
		if err != nil {
			panic("failed to create trade engine: " + err.Error())
		}
		return engine
	})

	return nil
}

// Startup validates the trade set against the network.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	tokens, venues, err := Resolve(mono.Network(), cfg.Trade)
	if err != nil {
		log.Warn(ctx, "trade set unavailable on this network", "network", mono.Network().Name(), "error", err)
		return nil
	}
	if _, ok := mono.Network().Contract(asset.ContractTradeVault); !ok {
		log.Warn(ctx, "trade vault not configured, trade checks are skipped", "network", mono.Network().Name())
	}

	log.Info(ctx, "trade module started", "tokens", len(tokens), "venues", len(venues))
	return nil
}

// Resolve looks up the configured tokens and venues. An empty venue list
// means every venue on the network.
func Resolve(network *asset.Network, cfg config.TradeConfig) ([]*asset.Asset, []*asset.Venue, error) {
	tokens, err := network.Assets(cfg.Tokens)
	if err != nil {
		return nil, nil, err
	}
	names := cfg.Venues
	if len(names) == 0 {
		names = network.VenueNames()
	}
	venues, err := network.Venues(names)
	if err != nil {
		return nil, nil, err
	}
	return tokens, venues, nil
}
