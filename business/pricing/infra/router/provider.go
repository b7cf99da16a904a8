// Package router implements the QuoteProvider port against UniswapV2-style
// router contracts.
package router

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-trader/business/pricing/app"
	"github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/apm"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/circuitbreaker"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/defi-trader/business/pricing/infra/router"
	meterName  = "github.com/fd1az/defi-trader/business/pricing/infra/router"

	swapDeadline = 10 * time.Minute
)

var _ app.QuoteProvider = (*Provider)(nil)

// Caller is the read side of the RPC client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// Config configures the provider.
type Config struct {
	// From is the address gas is estimated for; usually the operator.
	From common.Address
	// DefaultSwapGas is used when estimation fails, which is the norm for
	// an address without token allowance.
	DefaultSwapGas uint64
	// CallTimeout bounds each read. Zero leaves the client default.
	CallTimeout time.Duration
}

type providerMetrics struct {
	quotes       metric.Int64Counter
	quoteErrors  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	gasFallbacks metric.Int64Counter
}

// Provider quotes swaps through router getAmountsOut.
type Provider struct {
	config  Config
	caller  Caller
	abi     abi.ABI
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	logger  logger.LoggerInterface
	now     func() time.Time

	tracer  trace.Tracer
	metrics *providerMetrics
}

// NewProvider creates a router quote provider. limiter may be nil.
func NewProvider(cfg Config, caller Caller, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Provider, error) {
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("router-quotes")
	cbCfg.IsSuccessful = func(err error) bool {
		// A revert means the pair has no liquidity, the node is fine.
		return err == nil || chain.IsRevert(err)
	}

	p := &Provider{
		config:  cfg,
		caller:  caller,
		abi:     parsed,
		limiter: limiter,
		cb:      circuitbreaker.New[[]byte](cbCfg),
		logger:  log,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	if err := p.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return p, nil
}

func (p *Provider) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	p.metrics = &providerMetrics{}

	p.metrics.quotes, err = meter.Int64Counter(
		"router_quotes_total",
		metric.WithDescription("Total router quote requests"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteErrors, err = meter.Int64Counter(
		"router_quote_errors_total",
		metric.WithDescription("Router quotes that failed or reverted"),
	)
	if err != nil {
		return err
	}

	p.metrics.quoteLatency, err = meter.Float64Histogram(
		"router_quote_latency_ms",
		metric.WithDescription("Router quote latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	p.metrics.gasFallbacks, err = meter.Int64Counter(
		"router_gas_estimate_fallbacks_total",
		metric.WithDescription("Swap gas estimates replaced by the configured default"),
	)
	return err
}

// GetQuote calls getAmountsOut(amountIn, [assetIn, assetOut]) on the venue
// router and estimates the swap gas.
func (p *Provider) GetQuote(ctx context.Context, venue *asset.Venue, assetIn, assetOut *asset.Asset, amountIn *big.Int) (_ *domain.Quote, err error) {
	venueAttr := attribute.String("venue", venue.Name())
	ctx, span := p.tracer.Start(ctx, "router.get_quote",
		trace.WithAttributes(
			venueAttr,
			attribute.String("asset_in", assetIn.Symbol()),
			attribute.String("asset_out", assetOut.Symbol()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer func() { apm.Finish(span, err) }()

	start := p.now()
	p.metrics.quotes.Add(ctx, 1, metric.WithAttributes(venueAttr))
	defer func() {
		p.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(venueAttr))
		if err != nil {
			p.metrics.quoteErrors.Add(ctx, 1, metric.WithAttributes(venueAttr))
		}
	}()

	path := []common.Address{assetIn.Address(), assetOut.Address()}
	amountOut, err := p.amountsOut(ctx, venue, path, amountIn)
	if err != nil {
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s %s->%s", venue.Name(), assetIn.Symbol(), assetOut.Symbol())))
	}

	gas := p.estimateSwapGas(ctx, venue, path, amountIn)

	span.SetAttributes(
		attribute.String("amount_out", amountOut.String()),
		attribute.Int64("gas_estimate", int64(gas)),
	)
	p.logger.Debug(ctx, "router quote",
		"venue", venue.Name(),
		"asset_in", assetIn.Symbol(),
		"asset_out", assetOut.Symbol(),
		"amount_in", amountIn.String(),
		"amount_out", amountOut.String(),
	)

	return &domain.Quote{
		Venue:       venue,
		AssetIn:     assetIn,
		AssetOut:    assetOut,
		AmountIn:    new(big.Int).Set(amountIn),
		AmountOut:   amountOut,
		GasEstimate: gas,
		FetchedAt:   p.now(),
	}, nil
}

func (p *Provider) amountsOut(ctx context.Context, venue *asset.Venue, path []common.Address, amountIn *big.Int) (*big.Int, error) {
	data, err := p.abi.Pack("getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("encode getAmountsOut: %w", err)
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	router := venue.Router()
	raw, err := p.cb.Execute(func() ([]byte, error) {
		return p.caller.CallContract(callCtx, ethereum.CallMsg{To: &router, Data: data}, nil)
	})
	if err != nil {
		return nil, err
	}

	var amounts []*big.Int
	if err := p.abi.UnpackIntoInterface(&amounts, "getAmountsOut", raw); err != nil {
		return nil, fmt.Errorf("decode getAmountsOut: %w", err)
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("getAmountsOut returned %d amounts for a %d hop path", len(amounts), len(path))
	}
	return amounts[len(amounts)-1], nil
}

func (p *Provider) estimateSwapGas(ctx context.Context, venue *asset.Venue, path []common.Address, amountIn *big.Int) uint64 {
	deadline := big.NewInt(p.now().Add(swapDeadline).Unix())
	data, err := p.abi.Pack("swapExactTokensForTokens", amountIn, big.NewInt(0), path, p.config.From, deadline)
	if err != nil {
		return p.config.DefaultSwapGas
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return p.config.DefaultSwapGas
	}

	callCtx, cancel := p.withTimeout(ctx)
	defer cancel()

	router := venue.Router()
	gas, err := p.caller.EstimateGas(callCtx, ethereum.CallMsg{From: p.config.From, To: &router, Data: data})
	if err != nil || gas == 0 {
		p.metrics.gasFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("venue", venue.Name())))
		return p.config.DefaultSwapGas
	}
	return gas
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.config.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.config.CallTimeout)
}
