// Package contract implements the execution gateway against the arbitrage
// vault, perpetual portal and trade vault contracts.
package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	blockchainApp "github.com/fd1az/defi-trader/business/blockchain/app"
	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apm"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/chain"
	"github.com/fd1az/defi-trader/internal/circuitbreaker"
	"github.com/fd1az/defi-trader/internal/logger"
)

const (
	tracerName = "github.com/fd1az/defi-trader/business/execution/infra/contract"
	meterName  = "github.com/fd1az/defi-trader/business/execution/infra/contract"

	// DefaultGasLimit is the fixed ceiling for every write.
	DefaultGasLimit = 3_000_000
)

var (
	_ app.Gateway      = (*Gateway)(nil)
	_ app.Checker      = (*Gateway)(nil)
	_ app.TradeChecker = (*Gateway)(nil)
)

// Caller is the read side of the RPC client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config holds contract addresses. A zero address means the contract is not
// deployed on the network; operations on it return domain.ErrNotConfigured.
type Config struct {
	Vault      common.Address
	Portal     common.Address
	TradeVault common.Address
	GasLimit   uint64
	// TradeGasLimit caps trade vault writes; 0 uses GasLimit.
	TradeGasLimit uint64
}

type gatewayMetrics struct {
	checks metric.Int64Counter
	writes metric.Int64Counter
}

// Gateway calls the vault and portal contracts. Writes go through a
// TxSender with a fixed gas limit, never an estimate.
type Gateway struct {
	config Config
	caller Caller
	sender blockchainApp.TxSender
	vault  abi.ABI
	portal abi.ABI
	trade  abi.ABI
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *gatewayMetrics
}

// NewGateway creates a contract gateway. sender may be nil, in which case
// only the read-only checks work.
func NewGateway(cfg Config, caller Caller, sender blockchainApp.TxSender, log logger.LoggerInterface) (*Gateway, error) {
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.TradeGasLimit == 0 {
		cfg.TradeGasLimit = cfg.GasLimit
	}

	vault, err := abi.JSON(strings.NewReader(vaultABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse vault ABI: %w", err)
	}
	portal, err := abi.JSON(strings.NewReader(portalABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse portal ABI: %w", err)
	}
	trade, err := abi.JSON(strings.NewReader(tradeVaultABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse trade vault ABI: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("vault-check")
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || chain.IsRevert(err)
	}

	g := &Gateway{
		config: cfg,
		caller: caller,
		sender: sender,
		vault:  vault,
		portal: portal,
		trade:  trade,
		cb:     circuitbreaker.New[[]byte](cbCfg),
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := g.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return g, nil
}

func (g *Gateway) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	g.metrics = &gatewayMetrics{}

	g.metrics.checks, err = meter.Int64Counter(
		"vault_checks_total",
		metric.WithDescription("checkArbitrage calls by outcome"),
	)
	if err != nil {
		return err
	}

	g.metrics.writes, err = meter.Int64Counter(
		"contract_writes_total",
		metric.WithDescription("Contract writes by operation and status"),
	)
	return err
}

// CheckArbitrage runs the vault's read-only check and returns the amount
// the round trip would produce.
func (g *Gateway) CheckArbitrage(ctx context.Context, order domain.ArbitrageOrder) (_ *big.Int, err error) {
	ctx, span := g.tracer.Start(ctx, "vault.check_arbitrage",
		trace.WithAttributes(attribute.String("route", order.String())))
	defer func() { apm.Finish(span, err) }()

	outcome := "ok"
	defer func() {
		if err != nil && outcome == "ok" {
			outcome = "error"
		}
		g.metrics.checks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	if g.config.Vault == (common.Address{}) {
		outcome = "not_configured"
		return big.NewInt(0), domain.ErrNotConfigured
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	data, err := g.vault.Pack("checkArbitrage",
		order.VenueFrom.Router(), order.VenueTo.Router(),
		order.AssetIn.Address(), order.AssetOut.Address(),
		order.AmountIn, order.ExpectedAmountOut)
	if err != nil {
		return nil, fmt.Errorf("encode checkArbitrage: %w", err)
	}

	vault := g.config.Vault
	raw, err := g.cb.Execute(func() ([]byte, error) {
		return g.caller.CallContract(ctx, ethereum.CallMsg{To: &vault, Data: data}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithCause(err),
			apperror.WithContext(order.String()))
	}

	out, err := g.vault.Unpack("checkArbitrage", raw)
	if err != nil || len(out) != 1 {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithCause(fmt.Errorf("decode checkArbitrage: %w", err)),
			apperror.WithContext(order.String()))
	}
	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithContext(fmt.Sprintf("checkArbitrage returned %T", out[0])))
	}

	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	return amountOut, nil
}

// ExecuteArbitrage submits executeArbitrage on the vault.
func (g *Gateway) ExecuteArbitrage(ctx context.Context, order domain.ArbitrageOrder) (*domain.Receipt, error) {
	if g.config.Vault == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	data, err := g.vault.Pack("executeArbitrage",
		order.VenueFrom.Router(), order.VenueTo.Router(),
		order.AssetIn.Address(), order.AssetOut.Address(),
		order.AmountIn, order.ExpectedAmountOut)
	if err != nil {
		return nil, fmt.Errorf("encode executeArbitrage: %w", err)
	}

	return g.send(ctx, "executeArbitrage", g.config.Vault, data, nil, apperror.CodeTransactionFailed)
}

// Withdraw sweeps the vault's balance of a to the operator.
func (g *Gateway) Withdraw(ctx context.Context, a *asset.Asset) (*domain.Receipt, error) {
	if g.config.Vault == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}

	data, err := g.vault.Pack("withdraw", a.Address())
	if err != nil {
		return nil, fmt.Errorf("encode withdraw: %w", err)
	}

	return g.send(ctx, "withdraw", g.config.Vault, data, nil, apperror.CodeWithdrawFailed)
}

// WithdrawNative sweeps the portal's native balance to the operator.
func (g *Gateway) WithdrawNative(ctx context.Context) (*domain.Receipt, error) {
	if g.config.Portal == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}

	data, err := g.portal.Pack("withdrawBNB")
	if err != nil {
		return nil, fmt.Errorf("encode withdrawBNB: %w", err)
	}

	return g.send(ctx, "withdrawBNB", g.config.Portal, data, nil, apperror.CodeWithdrawFailed)
}

// OpenPosition opens a position on the portal, sending the collateral as
// value. The trade handle is read from a pre-flight call of the same
// request, since the portal only returns it to contract callers.
func (g *Gateway) OpenPosition(ctx context.Context, order domain.PositionOrder) (domain.TradeHandle, *domain.Receipt, error) {
	if g.config.Portal == (common.Address{}) {
		return domain.TradeHandle{}, nil, domain.ErrNotConfigured
	}
	if g.sender == nil {
		return domain.TradeHandle{}, nil, apperror.New(apperror.CodeWalletUnavailable)
	}

	data, err := g.portal.Pack("openTradeBNB",
		order.Instrument.Address(), order.IsLong, order.Amount,
		order.Qty, order.Price.Uint64(), order.TakeProfit.Uint64())
	if err != nil {
		return domain.TradeHandle{}, nil, apperror.New(apperror.CodePositionOpenFailed,
			apperror.WithCause(fmt.Errorf("encode openTradeBNB: %w", err)))
	}

	req := g.request("openTradeBNB", g.config.Portal, data, order.Amount, g.config.GasLimit)

	raw, err := g.sender.Call(ctx, req)
	if err != nil {
		return domain.TradeHandle{}, nil, apperror.New(apperror.CodePositionOpenFailed,
			apperror.WithCause(err),
			apperror.WithContext(order.String()))
	}
	var handle domain.TradeHandle
	if out, err := g.portal.Unpack("openTradeBNB", raw); err == nil && len(out) == 1 {
		if h, ok := out[0].([32]byte); ok {
			handle = domain.TradeHandle(h)
		}
	}

	receipt, err := g.send(ctx, "openTradeBNB", g.config.Portal, data, order.Amount, apperror.CodePositionOpenFailed)
	if err != nil {
		return domain.TradeHandle{}, receipt, err
	}
	return handle, receipt, nil
}

// ClosePosition closes the portal's open trade.
func (g *Gateway) ClosePosition(ctx context.Context, handle domain.TradeHandle) (*domain.Receipt, error) {
	if g.config.Portal == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}

	data, err := g.portal.Pack("closeTrade")
	if err != nil {
		return nil, fmt.Errorf("encode closeTrade: %w", err)
	}

	g.logger.Debug(ctx, "closing trade", "handle", handle.String())
	return g.send(ctx, "closeTrade", g.config.Portal, data, nil, apperror.CodePositionCloseFailed)
}

// CheckTrade runs the trade vault's read-only check for token across
// routers.
func (g *Gateway) CheckTrade(ctx context.Context, routers []common.Address, token *asset.Asset, gasCost *big.Int) (_ *domain.TradeCheck, err error) {
	ctx, span := g.tracer.Start(ctx, "trade_vault.check_trade",
		trace.WithAttributes(attribute.String("token", token.Symbol())))
	defer func() { apm.Finish(span, err) }()

	if g.config.TradeVault == (common.Address{}) {
		return &domain.TradeCheck{Direction: domain.TradeNone}, domain.ErrNotConfigured
	}
	if gasCost == nil {
		gasCost = new(big.Int)
	}

	data, err := g.trade.Pack("checkTrade", routers, token.Address(), gasCost)
	if err != nil {
		return nil, fmt.Errorf("encode checkTrade: %w", err)
	}

	tradeVault := g.config.TradeVault
	raw, err := g.cb.Execute(func() ([]byte, error) {
		return g.caller.CallContract(ctx, ethereum.CallMsg{To: &tradeVault, Data: data}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithCause(err),
			apperror.WithContext("checkTrade "+token.Symbol()))
	}

	out, err := g.trade.Unpack("checkTrade", raw)
	if err != nil || len(out) != 4 {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithCause(fmt.Errorf("decode checkTrade: %w", err)),
			apperror.WithContext(token.Symbol()))
	}
	direction, ok1 := out[0].(string)
	router, ok2 := out[1].(common.Address)
	amountNative, ok3 := out[2].(*big.Int)
	amountToken, ok4 := out[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, apperror.New(apperror.CodeCheckFailed,
			apperror.WithContext(fmt.Sprintf("checkTrade returned %T, %T, %T, %T", out[0], out[1], out[2], out[3])))
	}

	span.SetAttributes(attribute.String("direction", direction))
	return &domain.TradeCheck{
		Direction:    domain.TradeDirection(direction),
		Router:       router,
		AmountNative: amountNative,
		AmountToken:  amountToken,
	}, nil
}

// ExecuteTrade submits the swap on the trade vault with the trade gas
// limit.
func (g *Gateway) ExecuteTrade(ctx context.Context, order domain.TradeOrder) (*domain.Receipt, error) {
	if g.config.TradeVault == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	method := "executeTradeETHForTokens"
	if order.Direction == domain.TradeSell {
		method = "executeTradeTokensForETH"
	}

	data, err := g.trade.Pack(method,
		order.Venue.Router(), order.Token.Address(), order.AmountIn, order.AmountOutMin)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	return g.sendWithGas(ctx, method, g.config.TradeVault, data, nil, g.config.TradeGasLimit, apperror.CodeTransactionFailed)
}

// WithdrawTrade sweeps the trade vault's balance of token, or its native
// balance when token is nil.
func (g *Gateway) WithdrawTrade(ctx context.Context, token *asset.Asset) (*domain.Receipt, error) {
	if g.config.TradeVault == (common.Address{}) {
		return nil, domain.ErrNotConfigured
	}

	method := "withdrawETH"
	var args []any
	if token != nil {
		method = "withdrawToken"
		args = append(args, token.Address())
	}

	data, err := g.trade.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}

	return g.sendWithGas(ctx, method, g.config.TradeVault, data, nil, g.config.TradeGasLimit, apperror.CodeWithdrawFailed)
}

func (g *Gateway) request(label string, to common.Address, data []byte, value *big.Int, gasLimit uint64) blockchainDomain.TxRequest {
	return blockchainDomain.TxRequest{
		To:       to,
		Data:     data,
		Value:    value,
		GasLimit: gasLimit,
		Label:    label,
	}
}

func (g *Gateway) send(ctx context.Context, label string, to common.Address, data []byte, value *big.Int, code apperror.Code) (*domain.Receipt, error) {
	return g.sendWithGas(ctx, label, to, data, value, g.config.GasLimit, code)
}

func (g *Gateway) sendWithGas(ctx context.Context, label string, to common.Address, data []byte, value *big.Int, gasLimit uint64, code apperror.Code) (*domain.Receipt, error) {
	if g.sender == nil {
		return nil, apperror.New(apperror.CodeWalletUnavailable, apperror.WithContext(label))
	}

	txr, err := g.sender.Send(ctx, g.request(label, to, data, value, gasLimit))
	receipt := toReceipt(txr)

	status := "confirmed"
	if err != nil {
		status = "failed"
		if receipt != nil {
			status = string(receipt.Status)
		}
	}
	g.metrics.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", label),
		attribute.String("status", status),
	))

	if err != nil {
		return receipt, apperror.New(code, apperror.WithCause(err), apperror.WithContext(label))
	}
	return receipt, nil
}

func toReceipt(r *blockchainDomain.TxReceipt) *domain.Receipt {
	if r == nil {
		return nil
	}
	status := domain.StatusConfirmed
	if !r.Success {
		status = domain.StatusReverted
	}
	return &domain.Receipt{
		TxHash:      r.Hash,
		Status:      status,
		GasUsed:     r.GasUsed,
		BlockNumber: r.BlockNumber,
	}
}
