// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Arbitrage check modes.
const (
	ModeTwoHop     = "two_hop"
	ModeSingleCall = "single_call"
)

// Sampling strategies.
const (
	SamplingRandom     = "random"
	SamplingExhaustive = "exhaustive"
)

// Execution modes.
const (
	ExecutionLive  = "live"
	ExecutionPaper = "paper"
)

// Journal drivers.
const (
	JournalNone     = "none"
	JournalMemory   = "memory"
	JournalPostgres = "postgres"
	JournalSQLite   = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Ethereum  EthereumConfig  `mapstructure:"ethereum"`
	Network   NetworkConfig   `mapstructure:"network"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Arbitrage ArbitrageConfig `mapstructure:"arbitrage"`
	Perp      PerpConfig      `mapstructure:"perp"`
	Trade     TradeConfig     `mapstructure:"trade"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Lock      LockConfig      `mapstructure:"lock"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// EthereumConfig holds RPC node settings.
type EthereumConfig struct {
	RPCURL            string        `mapstructure:"rpc_url"`
	ChainID           uint64        `mapstructure:"chain_id"`
	RPCTimeout        time.Duration `mapstructure:"rpc_timeout"` // reads only, 0 = client default
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// NetworkConfig selects the registry network and optional contract overrides.
type NetworkConfig struct {
	Name           string `mapstructure:"name"`
	RegistryPath   string `mapstructure:"registry_path"` // empty = embedded registry
	ArbitrageVault string `mapstructure:"arbitrage_vault"`
	PerpPortal     string `mapstructure:"perp_portal"`
	TradeVault     string `mapstructure:"trade_vault"`
}

// WalletConfig resolves the operator key. A raw key wins over the
// encrypted key file.
type WalletConfig struct {
	PrivateKey       string `mapstructure:"private_key"`
	EncryptedKeyPath string `mapstructure:"encrypted_key_path"`
	KeyPassword      string `mapstructure:"key_password"`
}

// ArbitrageAsset is one entry of the scan set.
type ArbitrageAsset struct {
	Symbol     string  `mapstructure:"symbol"`
	Amount     float64 `mapstructure:"amount"` // whole units borrowed per check
	Borrowable bool    `mapstructure:"borrowable"`
}

// AmountDecimal returns the base amount as decimal.Decimal.
func (a ArbitrageAsset) AmountDecimal() decimal.Decimal {
	return decimal.NewFromFloat(a.Amount)
}

// ArbitrageConfig holds the scanner settings.
type ArbitrageConfig struct {
	Mode             string           `mapstructure:"mode"`
	Sampling         string           `mapstructure:"sampling"`
	Seed             int64            `mapstructure:"seed"`   // 0 = time based
	Passes           int              `mapstructure:"passes"` // exhaustive only, 0 = forever
	Venues           []string         `mapstructure:"venues"`
	Assets           []ArbitrageAsset `mapstructure:"assets"`
	AmountMultiplier float64          `mapstructure:"amount_multiplier"`
	FlashLoanFeeRate float64          `mapstructure:"flash_loan_fee_rate"`
	Slippage         float64          `mapstructure:"slippage"`
	DefaultSwapGas   uint64           `mapstructure:"default_swap_gas"`
	GasToInput       float64          `mapstructure:"gas_to_input"` // input base units per wei of gas
	PollDelay        time.Duration    `mapstructure:"poll_delay"`
	MemoTTL          time.Duration    `mapstructure:"memo_ttl"` // 0 = entries live for the process
}

// FlashLoanFeeRateDecimal returns the fee rate as decimal.Decimal.
func (c *ArbitrageConfig) FlashLoanFeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FlashLoanFeeRate)
}

// SlippageDecimal returns the haircut as decimal.Decimal.
func (c *ArbitrageConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}

// GasToInputDecimal returns the gas conversion rate as decimal.Decimal.
func (c *ArbitrageConfig) GasToInputDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.GasToInput)
}

// AmountMultiplierDecimal returns the amount multiplier as decimal.Decimal.
func (c *ArbitrageConfig) AmountMultiplierDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.AmountMultiplier)
}

// OperatingHours restricts when new positions may be opened.
type OperatingHours struct {
	Enabled bool `mapstructure:"enabled"`
	Start   int  `mapstructure:"start"` // hour of day, inclusive
	End     int  `mapstructure:"end"`   // hour of day, exclusive
}

// PerpConfig holds the directional trader settings.
type PerpConfig struct {
	Instrument           string         `mapstructure:"instrument"` // empty = network native asset
	QuoteAsset           string         `mapstructure:"quote_asset"`
	Venue                string         `mapstructure:"venue"`
	Leverage             int64          `mapstructure:"leverage"`
	EntrySlippage        float64        `mapstructure:"entry_slippage"`
	LiquidationThreshold float64        `mapstructure:"liquidation_threshold"`
	PositionFraction     float64        `mapstructure:"position_fraction"`
	FeeRate              float64        `mapstructure:"fee_rate"`
	WindowSize           int            `mapstructure:"window_size"`
	TrendPeriod          int            `mapstructure:"trend_period"`
	ROITakeProfit        float64        `mapstructure:"roi_take_profit"`
	ROIStopLoss          float64        `mapstructure:"roi_stop_loss"`
	PollDelay            time.Duration  `mapstructure:"poll_delay"`
	InitialBalance       float64        `mapstructure:"initial_balance"` // paper and replay runs
	ReplayFile           string         `mapstructure:"replay_file"`     // CSV prices instead of live quotes
	ReplayColumn         int            `mapstructure:"replay_column"`
	OperatingHours       OperatingHours `mapstructure:"operating_hours"`
}

// ManagerDecimals returns entry slippage, liquidation threshold, position
// fraction and fee rate as decimals.
func (c *PerpConfig) ManagerDecimals() (slippage, liquidation, fraction, fee decimal.Decimal) {
	return decimal.NewFromFloat(c.EntrySlippage),
		decimal.NewFromFloat(c.LiquidationThreshold),
		decimal.NewFromFloat(c.PositionFraction),
		decimal.NewFromFloat(c.FeeRate)
}

// ROIBandDecimals returns the ROI take-profit and stop-loss as decimals.
func (c *PerpConfig) ROIBandDecimals() (takeProfit, stopLoss decimal.Decimal) {
	return decimal.NewFromFloat(c.ROITakeProfit), decimal.NewFromFloat(c.ROIStopLoss)
}

// TradeConfig holds the trade-vault spot trader settings.
type TradeConfig struct {
	Tokens     []string      `mapstructure:"tokens"`
	Venues     []string      `mapstructure:"venues"`
	Seed       int64         `mapstructure:"seed"`      // 0 = time based
	GasLimit   uint64        `mapstructure:"gas_limit"` // trade writes and the vault's gas cost limit
	Slippage   float64       `mapstructure:"slippage"`  // haircut on the minimum output
	PollDelay  time.Duration `mapstructure:"poll_delay"`
	Iterations int           `mapstructure:"iterations"` // 0 = forever
}

// SlippageDecimal returns the haircut as decimal.Decimal.
func (c *TradeConfig) SlippageDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Slippage)
}

// ExecutionConfig selects how write operations are carried out.
type ExecutionConfig struct {
	Mode           string        `mapstructure:"mode"`
	GasLimit       uint64        `mapstructure:"gas_limit"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"` // 0 = wait until mined
}

// JournalConfig selects the execution journal backend.
type JournalConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Path     string `mapstructure:"path"`
	MaxConns int    `mapstructure:"max_conns"`
}

// LockConfig configures the cross-process wallet lock.
type LockConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"redis_addr"`
	Password string        `mapstructure:"redis_password"`
	DB       int           `mapstructure:"redis_db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
	HealthPort     int    `mapstructure:"health_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("DEFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "DEFI_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEFI_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEFI_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("ethereum.rpc_url", "DEFI_RPC_URL", "RPC_URL")
	v.BindEnv("ethereum.chain_id", "DEFI_CHAIN_ID", "CHAIN_ID")

	v.BindEnv("network.name", "DEFI_NETWORK", "NETWORK")
	v.BindEnv("network.arbitrage_vault", "DEFI_ARBITRAGE_VAULT")
	v.BindEnv("network.perp_portal", "DEFI_PERP_PORTAL")
	v.BindEnv("network.trade_vault", "DEFI_TRADE_VAULT")

	// PRIVATE_KEY matches the variable the operators already export.
	v.BindEnv("wallet.private_key", "DEFI_PRIVATE_KEY", "PRIVATE_KEY")
	v.BindEnv("wallet.encrypted_key_path", "DEFI_KEY_PATH")
	v.BindEnv("wallet.key_password", "DEFI_KEY_PASSWORD")

	v.BindEnv("execution.mode", "DEFI_EXECUTION_MODE")

	v.BindEnv("journal.driver", "DEFI_JOURNAL_DRIVER")
	v.BindEnv("journal.dsn", "DEFI_JOURNAL_DSN", "DATABASE_URL")

	v.BindEnv("lock.enabled", "DEFI_LOCK_ENABLED")
	v.BindEnv("lock.redis_addr", "DEFI_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("lock.redis_password", "DEFI_REDIS_PASSWORD", "REDIS_PASSWORD")

	v.BindEnv("telemetry.enabled", "DEFI_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEFI_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "DEFI_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "defi-trader")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("ethereum.chain_id", 56)
	v.SetDefault("ethereum.rpc_timeout", "0s")
	v.SetDefault("ethereum.requests_per_minute", 600)

	v.SetDefault("network.name", "bsc")

	v.SetDefault("arbitrage.mode", ModeSingleCall)
	v.SetDefault("arbitrage.sampling", SamplingRandom)
	v.SetDefault("arbitrage.seed", 0)
	v.SetDefault("arbitrage.passes", 0)
	v.SetDefault("arbitrage.venues", []string{"PancakeSwap", "BiSwap", "MDEX", "ApeSwap", "UniSwapV2"})
	v.SetDefault("arbitrage.assets", []map[string]any{
		{"symbol": "BTCB", "amount": 1, "borrowable": true},
		{"symbol": "ETH", "amount": 10, "borrowable": true},
		{"symbol": "WBNB", "amount": 100, "borrowable": true},
		{"symbol": "USDT", "amount": 10000, "borrowable": true},
		{"symbol": "BUSD", "amount": 10000, "borrowable": false},
		{"symbol": "DOGE", "amount": 2000000, "borrowable": false},
	})
	v.SetDefault("arbitrage.amount_multiplier", 0)
	v.SetDefault("arbitrage.flash_loan_fee_rate", 0.0005)
	v.SetDefault("arbitrage.slippage", 0)
	v.SetDefault("arbitrage.default_swap_gas", 200000)
	v.SetDefault("arbitrage.gas_to_input", 1)
	v.SetDefault("arbitrage.poll_delay", "1s")
	v.SetDefault("arbitrage.memo_ttl", "0s")

	v.SetDefault("perp.instrument", "")
	v.SetDefault("perp.quote_asset", "BUSD")
	v.SetDefault("perp.venue", "PancakeSwap")
	v.SetDefault("perp.leverage", 49)
	v.SetDefault("perp.entry_slippage", 0.001)
	v.SetDefault("perp.liquidation_threshold", -90)
	v.SetDefault("perp.position_fraction", 0.5)
	v.SetDefault("perp.fee_rate", 0)
	v.SetDefault("perp.window_size", 500)
	v.SetDefault("perp.trend_period", 3)
	v.SetDefault("perp.roi_take_profit", 200)
	v.SetDefault("perp.roi_stop_loss", -50)
	v.SetDefault("perp.poll_delay", "5m")
	v.SetDefault("perp.initial_balance", 1)
	v.SetDefault("perp.replay_file", "")
	v.SetDefault("perp.replay_column", 4)
	v.SetDefault("perp.operating_hours.enabled", false)
	v.SetDefault("perp.operating_hours.start", 8)
	v.SetDefault("perp.operating_hours.end", 16)

	v.SetDefault("trade.tokens", []string{"USDT", "BTCB", "ETH"})
	v.SetDefault("trade.venues", []string{"PancakeSwap", "BiSwap", "MDEX", "ApeSwap"})
	v.SetDefault("trade.seed", 0)
	v.SetDefault("trade.gas_limit", 500000)
	v.SetDefault("trade.slippage", 0)
	v.SetDefault("trade.poll_delay", "1m")
	v.SetDefault("trade.iterations", 0)

	v.SetDefault("execution.mode", ExecutionLive)
	v.SetDefault("execution.gas_limit", 3000000)
	v.SetDefault("execution.confirm_timeout", "0s")

	v.SetDefault("journal.driver", JournalNone)
	v.SetDefault("journal.path", "defi-trader.db")
	v.SetDefault("journal.max_conns", 4)

	v.SetDefault("lock.enabled", false)
	v.SetDefault("lock.redis_addr", "localhost:6379")
	v.SetDefault("lock.redis_db", 0)
	v.SetDefault("lock.ttl", "5m")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "defi-trader")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
	v.SetDefault("telemetry.health_port", 8081)
}

// Validate checks values that are wrong regardless of the command run.
func (c *Config) Validate() error {
	if c.Network.Name == "" {
		return fmt.Errorf("network.name is required")
	}

	switch c.Arbitrage.Mode {
	case ModeTwoHop, ModeSingleCall:
	default:
		return fmt.Errorf("invalid arbitrage.mode: %q", c.Arbitrage.Mode)
	}
	switch c.Arbitrage.Sampling {
	case SamplingRandom, SamplingExhaustive:
	default:
		return fmt.Errorf("invalid arbitrage.sampling: %q", c.Arbitrage.Sampling)
	}
	if c.Arbitrage.FlashLoanFeeRate < 0 {
		return fmt.Errorf("arbitrage.flash_loan_fee_rate must be >= 0")
	}
	if c.Arbitrage.Slippage < 0 || c.Arbitrage.Slippage >= 1 {
		return fmt.Errorf("arbitrage.slippage must be in [0, 1)")
	}
	if c.Arbitrage.GasToInput < 0 {
		return fmt.Errorf("arbitrage.gas_to_input must not be negative")
	}
	if c.Arbitrage.AmountMultiplier < 0 {
		return fmt.Errorf("arbitrage.amount_multiplier must be >= 0")
	}
	for _, a := range c.Arbitrage.Assets {
		if a.Symbol == "" || a.Amount <= 0 {
			return fmt.Errorf("arbitrage.assets: %q needs a symbol and a positive amount", a.Symbol)
		}
	}

	if c.Perp.Leverage <= 0 {
		return fmt.Errorf("perp.leverage must be > 0")
	}
	if c.Perp.PositionFraction <= 0 || c.Perp.PositionFraction > 1 {
		return fmt.Errorf("perp.position_fraction must be in (0, 1]")
	}
	if c.Perp.EntrySlippage < 0 || c.Perp.EntrySlippage >= 1 {
		return fmt.Errorf("perp.entry_slippage must be in [0, 1)")
	}
	if c.Perp.LiquidationThreshold >= 0 {
		return fmt.Errorf("perp.liquidation_threshold must be negative")
	}
	if c.Perp.WindowSize <= 0 {
		return fmt.Errorf("perp.window_size must be > 0")
	}
	if h := c.Perp.OperatingHours; h.Enabled && (h.Start < 0 || h.End > 24 || h.Start >= h.End) {
		return fmt.Errorf("invalid perp.operating_hours: %d-%d", h.Start, h.End)
	}

	if c.Trade.GasLimit == 0 {
		return fmt.Errorf("trade.gas_limit must be > 0")
	}
	if c.Trade.Slippage < 0 || c.Trade.Slippage >= 1 {
		return fmt.Errorf("trade.slippage must be in [0, 1)")
	}
	if c.Trade.Iterations < 0 {
		return fmt.Errorf("trade.iterations must be >= 0")
	}

	switch c.Execution.Mode {
	case ExecutionLive, ExecutionPaper:
	default:
		return fmt.Errorf("invalid execution.mode: %q", c.Execution.Mode)
	}
	if c.Execution.GasLimit == 0 {
		return fmt.Errorf("execution.gas_limit must be > 0")
	}

	switch c.Journal.Driver {
	case JournalNone, JournalMemory:
	case JournalPostgres:
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn is required for postgres")
		}
	case JournalSQLite:
		if c.Journal.Path == "" {
			return fmt.Errorf("journal.path is required for sqlite")
		}
	default:
		return fmt.Errorf("invalid journal.driver: %q", c.Journal.Driver)
	}

	if c.Lock.Enabled && c.Lock.Addr == "" {
		return fmt.Errorf("lock.redis_addr is required when the wallet lock is enabled")
	}

	return nil
}

// ValidateLive checks what is needed to talk to a chain.
func (c *Config) ValidateLive() error {
	if c.Ethereum.RPCURL == "" {
		return fmt.Errorf("ethereum.rpc_url is required")
	}
	if c.Execution.Mode == ExecutionLive && c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
		return fmt.Errorf("wallet.private_key or wallet.encrypted_key_path is required in live mode")
	}
	return nil
}

// IsPaper reports whether writes are simulated.
func (c *Config) IsPaper() bool {
	return c.Execution.Mode == ExecutionPaper
}
