// Package execution implements the execution bounded context: contract
// writes, paper fills and the execution journal.
package execution

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	blockchainDI "github.com/fd1az/defi-trader/business/blockchain/di"
	"github.com/fd1az/defi-trader/business/execution/app"
	executionDI "github.com/fd1az/defi-trader/business/execution/di"
	"github.com/fd1az/defi-trader/business/execution/infra/contract"
	"github.com/fd1az/defi-trader/business/execution/infra/journal"
	"github.com/fd1az/defi-trader/business/execution/infra/paper"
	"github.com/fd1az/defi-trader/business/execution/infra/postgres"
	"github.com/fd1az/defi-trader/business/execution/infra/redislock"
	"github.com/fd1az/defi-trader/business/execution/infra/sqlite"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
)

const connectTimeout = 10 * time.Second

var contractGateway = di.NewToken[*contract.Gateway]("execution:contract")

// Module implements the execution bounded context.
type Module struct{}

type pinger interface {
	Ping(ctx context.Context) error
}

// RegisterServices registers all execution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Contract gateway; also the read-only arbitrage and trade checkers.
	di.RegisterToken(c, contractGateway, func(sr di.ServiceRegistry) *contract.Gateway {
		client, _ := sr.Get(monolith.ServiceChain).(chain.Client)
		if client == nil {
			return nil
		}
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		vault, _ := network.Contract(asset.ContractArbitrageVault)
		portal, _ := network.Contract(asset.ContractPerpPortal)
		tradeVault, _ := network.Contract(asset.ContractTradeVault)

		gw, err := contract.NewGateway(contract.Config{
			Vault:         vault,
			Portal:        portal,
			TradeVault:    tradeVault,
			GasLimit:      cfg.Execution.GasLimit,
			TradeGasLimit: cfg.Trade.GasLimit,
		}, client, blockchainDI.GetTxSender(sr), log)
		if err != nil {
			panic("failed to create contract gateway: " + err.Error())
		}
		return gw
	})

	di.RegisterToken(c, executionDI.Checker, func(sr di.ServiceRegistry) app.Checker {
		gw := di.GetToken(sr, contractGateway)
		if gw == nil {
			return nil
		}
		return gw
	})

	di.RegisterToken(c, executionDI.TradeChecker, func(sr di.ServiceRegistry) app.TradeChecker {
		gw := di.GetToken(sr, contractGateway)
		if gw == nil {
			return nil
		}
		return gw
	})

	di.RegisterToken(c, executionDI.RawGateway, func(sr di.ServiceRegistry) app.Gateway {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)
		return rawGateway(cfg, di.GetToken(sr, contractGateway), blockchainDI.GetTxSender(sr) != nil, log)
	})

	di.RegisterToken(c, executionDI.Journal, func(sr di.ServiceRegistry) app.Journal {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		switch cfg.Journal.Driver {
		case config.JournalPostgres:
			j, err := postgres.New(ctx, postgres.Config{DSN: cfg.Journal.DSN, MaxConns: cfg.Journal.MaxConns})
			if err != nil {
				panic("failed to open postgres journal: " + err.Error())
			}
			return j
		case config.JournalSQLite:
			j, err := sqlite.Open(ctx, cfg.Journal.Path)
			if err != nil {
				panic("failed to open sqlite journal: " + err.Error())
			}
			return j
		case config.JournalMemory:
			return journal.NewMemory()
		default:
			return journal.Noop{}
		}
	})

	di.RegisterToken(c, executionDI.Locker, func(sr di.ServiceRegistry) app.Locker {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		if !cfg.Lock.Enabled {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		l, err := redislock.New(ctx, redislock.Config{
			Addr:     cfg.Lock.Addr,
			Password: cfg.Lock.Password,
			DB:       cfg.Lock.DB,
		})
		if err != nil {
			panic("failed to connect wallet lock: " + err.Error())
		}
		return l
	})

	di.RegisterToken(c, executionDI.Gateway, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		var operator common.Address
		if sender := blockchainDI.GetTxSender(sr); sender != nil {
			operator = sender.From()
		}

		return app.NewService(app.ServiceConfig{
			Operator: operator,
			LockTTL:  cfg.Lock.TTL,
		}, executionDI.GetRawGateway(sr), executionDI.GetJournal(sr), executionDI.GetLocker(sr), log)
	})

	return nil
}

// Startup opens the journal and lock, and registers their health checks and
// closers.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	j := executionDI.GetJournal(sr)
	mono.OnClose(j.Close)
	if p, ok := j.(pinger); ok {
		mono.Health().RegisterCheck("journal", pingCheck(p))
	}

	if l := executionDI.GetLocker(sr); l != nil {
		if p, ok := l.(pinger); ok {
			mono.Health().RegisterCheck("wallet_lock", pingCheck(p))
		}
		if closer, ok := l.(interface{ Close() error }); ok {
			mono.OnClose(closer.Close)
		}
	}

	_, isPaper := executionDI.GetRawGateway(sr).(*paper.Gateway)
	log.Info(ctx, "execution module started",
		"paper", isPaper,
		"journal", mono.Config().Journal.Driver,
		"wallet_lock", mono.Config().Lock.Enabled,
	)
	return nil
}

// rawGateway picks the write path. Paper fills are used only when paper
// mode is configured; a live run that cannot sign gets a gateway whose
// writes fail as not configured.
func rawGateway(cfg *config.Config, gw *contract.Gateway, canSign bool, log logger.LoggerInterface) app.Gateway {
	if cfg.IsPaper() {
		return paper.NewGateway(log)
	}
	if gw == nil || !canSign {
		reason := "no chain client"
		if gw != nil {
			reason = "no signer"
		}
		log.Warn(context.Background(), "live execution without a signer, writes are disabled", "reason", reason)
		return contract.Disabled{Reason: reason}
	}
	return gw
}

func pingCheck(p pinger) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		if err := p.Ping(ctx); err != nil {
			return false, err.Error()
		}
		return true, ""
	}
}
