// Package monolith provides the application container and module interface.
package monolith

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/health"
	"github.com/fd1az/defi-trader/internal/httpclient"
	"github.com/fd1az/defi-trader/internal/keystore"
	"github.com/fd1az/defi-trader/internal/logger"
)

// Keys of the global services every module may resolve.
const (
	ServiceConfig  = "config"
	ServiceLogger  = "logger"
	ServiceNetwork = "network"
	ServiceChain   = "chain"
	ServiceSigner  = "signer"
)

// Monolith is the application container providing access to shared
// infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Network() *asset.Network
	// Chain is nil when running offline.
	Chain() chain.Client
	// Signer is nil when no key is configured.
	Signer() *ecdsa.PrivateKey
	Health() *health.Server
	Services() di.ServiceRegistry
	// OnClose registers fn to run when the application shuts down.
	OnClose(fn func() error)
}

// Module represents a bounded context module that can register services and
// start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type options struct {
	offline bool
	client  chain.Client
	signer  *ecdsa.PrivateKey
	version string
}

// Option customizes New.
type Option func(*options)

// Offline skips dialing the RPC node and loading the signing key.
func Offline() Option {
	return func(o *options) { o.offline = true }
}

// WithChainClient uses c instead of dialing ethereum.rpc_url.
func WithChainClient(c chain.Client) Option {
	return func(o *options) { o.client = c }
}

// WithSigner uses key instead of the configured wallet.
func WithSigner(key *ecdsa.PrivateKey) Option {
	return func(o *options) { o.signer = key }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	network   *asset.Network
	chain     chain.Client
	signer    *ecdsa.PrivateKey
	health    *health.Server
	container di.Container
	closers   []func() error
}

// New resolves the configured network, connects to its node and loads the
// operator key.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface, opts ...Option) (*app, error) {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	network, err := resolveNetwork(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:    cfg,
		logger:    log,
		network:   network,
		chain:     o.client,
		signer:    o.signer,
		health:    health.NewServer(cfg.Telemetry.HealthPort, o.version),
		container: di.NewContainer(),
	}

	if !o.offline {
		if a.chain == nil && cfg.Ethereum.RPCURL != "" {
			client, err := chain.Dial(ctx, cfg.Ethereum.RPCURL,
				httpclient.WithName(network.Name()+"-rpc"),
				httpclient.WithRequestTimeout(cfg.Ethereum.RPCTimeout),
			)
			if err != nil {
				return nil, err
			}
			a.chain = client
			a.OnClose(func() error { client.Close(); return nil })
		}
		if a.chain != nil {
			if err := chain.VerifyChainID(ctx, a.chain, network.ChainID()); err != nil {
				a.Close()
				return nil, err
			}
		}
		if a.signer == nil {
			key, err := keystore.Load(keystore.Source{
				RawHex:   cfg.Wallet.PrivateKey,
				Path:     cfg.Wallet.EncryptedKeyPath,
				Password: cfg.Wallet.KeyPassword,
			})
			switch {
			case err == nil:
				a.signer = key
			case errors.Is(err, keystore.ErrNoKey):
			default:
				a.Close()
				return nil, fmt.Errorf("load wallet: %w", err)
			}
		}
	}

	a.container.Register(ServiceConfig, cfg)
	a.container.Register(ServiceLogger, log)
	a.container.Register(ServiceNetwork, network)
	a.container.Register(ServiceChain, a.chain)
	a.container.Register(ServiceSigner, a.signer)

	if a.chain != nil {
		client := a.chain
		a.health.RegisterCheck("rpc", func(ctx context.Context) (bool, string) {
			if _, err := client.ChainID(ctx); err != nil {
				return false, err.Error()
			}
			return true, ""
		})
	}

	return a, nil
}

func resolveNetwork(cfg *config.Config) (*asset.Network, error) {
	registry, err := asset.LoadRegistry(cfg.Network.RegistryPath)
	if err != nil {
		return nil, err
	}
	network, err := registry.Network(cfg.Network.Name)
	if err != nil {
		return nil, err
	}

	overrides := map[asset.ContractKind]string{
		asset.ContractArbitrageVault: cfg.Network.ArbitrageVault,
		asset.ContractPerpPortal:     cfg.Network.PerpPortal,
		asset.ContractTradeVault:     cfg.Network.TradeVault,
	}
	for kind, addr := range overrides {
		if addr == "" {
			continue
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("network.%s: invalid address %q", kind, addr)
		}
		network.SetContract(kind, common.HexToAddress(addr))
	}
	return network, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Network() *asset.Network {
	return a.network
}

func (a *app) Chain() chain.Client {
	return a.chain
}

func (a *app) Signer() *ecdsa.PrivateKey {
	return a.signer
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs the registered closers in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
