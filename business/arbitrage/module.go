// Package arbitrage implements the arbitrage bounded context: route
// checks, the negative-result memo and the scanner loop.
package arbitrage

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/fd1az/defi-trader/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/defi-trader/business/arbitrage/di"
	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	"github.com/fd1az/defi-trader/business/arbitrage/infra"
	blockchainDI "github.com/fd1az/defi-trader/business/blockchain/di"
	executionDI "github.com/fd1az/defi-trader/business/execution/di"
	pricingDI "github.com/fd1az/defi-trader/business/pricing/di"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

var rngToken = di.NewToken[*rand.Rand]("arbitrage:rng")

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, rngToken, func(sr di.ServiceRegistry) *rand.Rand {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		seed := uint64(cfg.Arbitrage.Seed)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	})

	di.RegisterToken(c, arbitrageDI.Calculator, func(sr di.ServiceRegistry) *app.Calculator {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		fees, err := domain.NewFeeModel(cfg.Arbitrage.FlashLoanFeeRateDecimal())
		if err != nil {
			panic("invalid flash loan fee: " + err.Error())
		}

		// Keep nil collaborators as untyped nil interfaces.
		var quotes app.QuoteSource
		if p := pricingDI.GetPricingService(sr); p != nil {
			quotes = p
		}
		var gas app.GasPriceSource
		if g := blockchainDI.GetGasOracle(sr); g != nil {
			gas = g
		}
		var checker app.Checker
		if ch := executionDI.GetChecker(sr); ch != nil {
			checker = ch
		}

		return app.NewCalculator(app.CalculatorConfig{
			Fees:       fees,
			Haircut:    cfg.Arbitrage.SlippageDecimal(),
			GasToInput: cfg.Arbitrage.GasToInputDecimal(),
		}, quotes, gas, checker)
	})

	di.RegisterToken(c, arbitrageDI.Memoizer, func(sr di.ServiceRegistry) *app.Memoizer {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		return app.NewMemoizer(cfg.Arbitrage.MemoTTL)
	})

	di.RegisterToken(c, arbitrageDI.Sampler, func(sr di.ServiceRegistry) app.Sampler {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)

		universe, err := BuildUniverse(network, cfg.Arbitrage)
		if err != nil {
			panic("invalid arbitrage scan set: " + err.Error())
		}

		var sampler app.Sampler
		if cfg.Arbitrage.Sampling == config.SamplingExhaustive {
			sampler, err = app.NewExhaustive(universe)
		} else {
			sampler, err = app.NewUniformRandom(universe, di.GetToken(sr, rngToken))
		}
		if err != nil {
			panic("failed to create sampler: " + err.Error())
		}
		return sampler
	})

	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) *infra.ConsoleReporter {
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return infra.NewConsoleReporter(os.Stdout, log)
	})

	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		return app.NewScanner(app.ScannerConfig{
			Mode:             domain.Mode(cfg.Arbitrage.Mode),
			PollDelay:        cfg.Arbitrage.PollDelay,
			Passes:           cfg.Arbitrage.Passes,
			AmountMultiplier: cfg.Arbitrage.AmountMultiplierDecimal(),
		},
			arbitrageDI.GetCalculator(sr),
			arbitrageDI.GetMemoizer(sr),
			arbitrageDI.GetSampler(sr),
			executionDI.GetGateway(sr),
			arbitrageDI.GetReporter(sr),
			di.GetToken(sr, rngToken),
			log,
		)
	})

	return nil
}

// Startup validates the scan set against the network so configuration
// mistakes fail before any service is resolved.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	universe, err := BuildUniverse(mono.Network(), cfg.Arbitrage)
	if err != nil {
		return err
	}
	if len(universe.Candidates()) == 0 {
		return fmt.Errorf("arbitrage: %w", app.ErrNoCandidates)
	}

	if cfg.Arbitrage.Mode == config.ModeSingleCall {
		if _, ok := mono.Network().Contract(asset.ContractArbitrageVault); !ok {
			log.Warn(ctx, "arbitrage vault not configured, single-call checks are dry runs", "network", mono.Network().Name())
		}
	}
	if cfg.Arbitrage.Mode == config.ModeTwoHop && pricingDI.GetPricingService(mono.Services()) == nil {
		log.Warn(ctx, "two-hop mode without a chain client, every check will fail")
	}

	mono.OnClose(func() error {
		arbitrageDI.GetMemoizer(mono.Services()).Close()
		return nil
	})

	log.Info(ctx, "arbitrage module started",
		"mode", cfg.Arbitrage.Mode,
		"sampling", cfg.Arbitrage.Sampling,
		"venues", len(universe.Venues),
		"assets", len(universe.Assets),
	)
	return nil
}

// BuildUniverse resolves the configured scan set. Unknown venues or assets
// are rejected.
func BuildUniverse(network *asset.Network, cfg config.ArbitrageConfig) (app.Universe, error) {
	names := cfg.Venues
	if len(names) == 0 {
		names = network.VenueNames()
	}
	venues, err := network.Venues(names)
	if err != nil {
		return app.Universe{}, err
	}

	assets := make([]domain.TradableAsset, 0, len(cfg.Assets))
	for _, a := range cfg.Assets {
		resolved, err := network.Asset(a.Symbol)
		if err != nil {
			return app.Universe{}, err
		}
		assets = append(assets, domain.TradableAsset{
			Asset:      resolved,
			BaseAmount: a.AmountDecimal(),
			Borrowable: a.Borrowable,
		})
	}

	return app.Universe{Assets: assets, Venues: venues}, nil
}
