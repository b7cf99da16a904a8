package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-trader/business/blockchain/domain"
	"github.com/fd1az/defi-trader/internal/apm"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/cache"
	"github.com/fd1az/defi-trader/internal/circuitbreaker"
	"github.com/fd1az/defi-trader/internal/logger"
)

const gasPriceKey = "current"

// GasPriceSource is the part of the RPC client the oracle needs.
type GasPriceSource interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// GasOracleConfig holds configuration for the gas oracle.
type GasOracleConfig struct {
	CacheTTL    time.Duration // how long a fetched price is reused
	MaxGasPrice *big.Int      // prices above this are clamped, nil = no clamp
}

// DefaultGasOracleConfig returns defaults sized for a ~3s block time.
func DefaultGasOracleConfig() GasOracleConfig {
	return GasOracleConfig{
		CacheTTL:    3 * time.Second,
		MaxGasPrice: big.NewInt(500_000_000_000), // 500 gwei
	}
}

type gasOracleMetrics struct {
	fetches     metric.Int64Counter
	gwei        metric.Float64Gauge
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// GasOracle implements app.GasOracle with a short-lived cache in front of
// eth_gasPrice.
type GasOracle struct {
	config GasOracleConfig
	logger logger.LoggerInterface
	source GasPriceSource

	prices *cache.Cache[string, *domain.GasPrice]
	cb     *circuitbreaker.CircuitBreaker[*big.Int]
	now    func() time.Time

	tracer  trace.Tracer
	metrics *gasOracleMetrics
}

// NewGasOracle creates a gas oracle reading from source.
func NewGasOracle(cfg GasOracleConfig, source GasPriceSource, log logger.LoggerInterface) (*GasOracle, error) {
	g := &GasOracle{
		config: cfg,
		logger: log,
		source: source,
		prices: cache.New[string, *domain.GasPrice](0),
		cb:     circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}

	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return g, nil
}

func (g *GasOracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gasOracleMetrics{}

	g.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Gas price fetches sent to the node"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	g.metrics.gwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Last observed gas price"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	g.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	return err
}

// GetGasPrice returns the cached price or fetches a fresh one.
func (g *GasOracle) GetGasPrice(ctx context.Context) (_ *domain.GasPrice, err error) {
	ctx, span := g.tracer.Start(ctx, "gas.get_price")
	defer func() { apm.Finish(span, err) }()

	if price, ok := g.prices.Get(ctx, gasPriceKey); ok {
		g.metrics.cacheHits.Add(ctx, 1)
		span.AddEvent("cache_hit")
		return price, nil
	}
	g.metrics.cacheMisses.Add(ctx, 1)
	g.metrics.fetches.Add(ctx, 1)

	wei, err := g.cb.Execute(func() (*big.Int, error) {
		return g.source.SuggestGasPrice(ctx)
	})
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_gasPrice"))
	}

	if g.config.MaxGasPrice != nil && wei.Cmp(g.config.MaxGasPrice) > 0 {
		g.logger.Warn(ctx, "gas price above ceiling, clamping",
			"wei", wei.String(), "max", g.config.MaxGasPrice.String())
		wei = g.config.MaxGasPrice
	}

	price := domain.NewGasPrice(wei, g.now())
	g.prices.Set(ctx, gasPriceKey, price, g.config.CacheTTL)

	gwei, _ := price.Gwei().Float64()
	g.metrics.gwei.Record(ctx, gwei)
	span.SetAttributes(attribute.Float64("gwei", gwei))

	return price, nil
}
