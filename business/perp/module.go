// Package perp implements the directional trader: price sampling, trend
// signals and the leveraged position state machine.
package perp

import (
	"context"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	blockchainDI "github.com/fd1az/defi-trader/business/blockchain/di"
	executionDI "github.com/fd1az/defi-trader/business/execution/di"
	"github.com/fd1az/defi-trader/business/perp/app"
	perpDI "github.com/fd1az/defi-trader/business/perp/di"
	"github.com/fd1az/defi-trader/business/perp/domain"
	"github.com/fd1az/defi-trader/business/perp/infra/indicator"
	"github.com/fd1az/defi-trader/business/perp/infra/market"
	"github.com/fd1az/defi-trader/business/perp/infra/replay"
	pricingDI "github.com/fd1az/defi-trader/business/pricing/di"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
)

const balanceTimeout = 10 * time.Second

// Module implements the perp bounded context.
type Module struct{}

// Market is the resolved instrument, quote asset and pricing venue.
type Market struct {
	Instrument *asset.Asset
	Quote      *asset.Asset
	Venue      *asset.Venue
}

// ResolveMarket looks the perp settings up in network. An empty instrument
// means the network's native asset.
func ResolveMarket(network *asset.Network, cfg config.PerpConfig) (Market, error) {
	var (
		instrument *asset.Asset
		err        error
	)
	if cfg.Instrument == "" {
		instrument, err = network.NativeAsset()
	} else {
		instrument, err = network.Asset(cfg.Instrument)
	}
	if err != nil {
		return Market{}, err
	}

	quote, err := network.Asset(cfg.QuoteAsset)
	if err != nil {
		return Market{}, err
	}
	venue, err := network.Venue(cfg.Venue)
	if err != nil {
		return Market{}, err
	}
	return Market{Instrument: instrument, Quote: quote, Venue: venue}, nil
}

// RegisterServices registers all perp services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, perpDI.Signals, func(sr di.ServiceRegistry) app.SignalProvider {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		tp, sl := cfg.Perp.ROIBandDecimals()
		return indicator.NewBarTrend(cfg.Perp.TrendPeriod, tp, sl)
	})

	di.RegisterToken(c, perpDI.PriceSource, func(sr di.ServiceRegistry) app.PriceSource {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)

		if cfg.Perp.ReplayFile != "" {
			src, err := replay.Open(cfg.Perp.ReplayFile, cfg.Perp.ReplayColumn)
			if err != nil {
				panic("failed to load replay prices: " + err.Error())
			}
			return src
		}

		pricing := pricingDI.GetPricingService(sr)
		if pricing == nil {
			return nil
		}
		mkt, err := ResolveMarket(network, cfg.Perp)
		if err != nil {
			panic("invalid perp market: " + err.Error())
		}
		return market.NewFeed(pricing, mkt.Venue, mkt.Instrument, mkt.Quote)
	})

	di.RegisterToken(c, perpDI.Manager, func(sr di.ServiceRegistry) *app.PositionManager {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		mkt, err := ResolveMarket(network, cfg.Perp)
		if err != nil {
			panic("invalid perp market: " + err.Error())
		}

		balance, err := initialBalance(sr, cfg, mkt.Instrument)
		if err != nil {
			panic("failed to read operator balance: " + err.Error())
		}

		slippage, liquidation, fraction, fee := cfg.Perp.ManagerDecimals()
		return app.NewPositionManager(app.ManagerConfig{
			Instrument:           mkt.Instrument,
			Leverage:             cfg.Perp.Leverage,
			EntrySlippage:        slippage,
			LiquidationThreshold: liquidation,
			PositionFraction:     fraction,
			FeeRate:              fee,
			ROIWindowSize:        cfg.Perp.WindowSize,
			Hours: domain.OperatingHours{
				Enabled: cfg.Perp.OperatingHours.Enabled,
				Start:   cfg.Perp.OperatingHours.Start,
				End:     cfg.Perp.OperatingHours.End,
			},
		}, balance, executionDI.GetGateway(sr), perpDI.GetSignals(sr), log)
	})

	di.RegisterToken(c, perpDI.Trader, func(sr di.ServiceRegistry) *app.Trader {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		prices := perpDI.GetPriceSource(sr)
		if prices == nil {
			return nil
		}

		delay := cfg.Perp.PollDelay
		if cfg.Perp.ReplayFile != "" {
			delay = 0
		}
		return app.NewTrader(app.TraderConfig{
			PollDelay:  delay,
			WindowSize: cfg.Perp.WindowSize,
		}, prices, perpDI.GetManager(sr), log)
	})

	return nil
}

// initialBalance is the operator's native balance when trading live, and
// the configured paper balance otherwise.
func initialBalance(sr di.ServiceRegistry, cfg *config.Config, instrument *asset.Asset) (*big.Int, error) {
	client, _ := sr.Get(monolith.ServiceChain).(chain.Client)
	sender := blockchainDI.GetTxSender(sr)
	if cfg.IsPaper() || cfg.Perp.ReplayFile != "" || client == nil || sender == nil {
		return instrument.ToBaseUnits(decimal.NewFromFloat(cfg.Perp.InitialBalance)), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), balanceTimeout)
	defer cancel()
	return client.BalanceAt(ctx, sender.From(), nil)
}

// Startup reports the perp market. Resolution errors are only logged so
// that other engines can run on networks without a perp market.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()

	mkt, err := ResolveMarket(mono.Network(), cfg.Perp)
	if err != nil {
		log.Warn(ctx, "perp market unavailable on this network", "network", mono.Network().Name(), "error", err)
		return nil
	}
	if _, ok := mono.Network().Contract(asset.ContractPerpPortal); !ok && !cfg.IsPaper() {
		log.Warn(ctx, "perp portal not configured, position writes are dry runs", "network", mono.Network().Name())
	}

	log.Info(ctx, "perp module started",
		"instrument", mkt.Instrument.Symbol(),
		"quote", mkt.Quote.Symbol(),
		"venue", mkt.Venue.Name(),
		"leverage", cfg.Perp.Leverage,
		"replay", cfg.Perp.ReplayFile != "",
	)
	return nil
}
