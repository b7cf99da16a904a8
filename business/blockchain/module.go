// Package blockchain implements the blockchain bounded context: gas pricing
// and signed transaction submission.
package blockchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/fd1az/defi-trader/business/blockchain/app"
	blockchainDI "github.com/fd1az/defi-trader/business/blockchain/di"
	"github.com/fd1az/defi-trader/business/blockchain/infra/ethereum"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
// Without a chain client both services resolve to nil.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		client, _ := sr.Get(monolith.ServiceChain).(chain.Client)
		if client == nil {
			return nil
		}
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		oracle, err := ethereum.NewGasOracle(ethereum.DefaultGasOracleConfig(), client, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, blockchainDI.TxSender, func(sr di.ServiceRegistry) app.TxSender {
		client, _ := sr.Get(monolith.ServiceChain).(chain.Client)
		key, _ := sr.Get(monolith.ServiceSigner).(*ecdsa.PrivateKey)
		if client == nil || key == nil {
			return nil
		}
		cfg := sr.Get(monolith.ServiceConfig).(*config.Config)
		network := sr.Get(monolith.ServiceNetwork).(*asset.Network)
		log := sr.Get(monolith.ServiceLogger).(logger.LoggerInterface)

		tx, err := ethereum.NewTransactor(ethereum.TransactorConfig{
			ChainID:        new(big.Int).SetUint64(network.ChainID()),
			ConfirmTimeout: cfg.Execution.ConfirmTimeout,
		}, client, blockchainDI.GetGasOracle(sr), key, log)
		if err != nil {
			panic("failed to create transactor: " + err.Error())
		}
		return tx
	})

	return nil
}

// Startup logs which capabilities are available.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if sender := blockchainDI.GetTxSender(mono.Services()); sender != nil {
		log.Info(ctx, "blockchain module started", "network", mono.Network().Name(), "operator", sender.From().Hex())
		return nil
	}
	log.Info(ctx, "blockchain module started without signer", "network", mono.Network().Name(), "online", mono.Chain() != nil)
	return nil
}
