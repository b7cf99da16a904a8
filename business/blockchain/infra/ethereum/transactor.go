package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/defi-trader/business/blockchain/app"
	"github.com/fd1az/defi-trader/business/blockchain/domain"
	"github.com/fd1az/defi-trader/internal/apm"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/logger"
)

// TxBackend is the part of the RPC client the transactor needs.
type TxBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// TransactorConfig configures receipt polling.
type TransactorConfig struct {
	ChainID        *big.Int
	PollInterval   time.Duration
	ConfirmTimeout time.Duration // 0 = wait until mined
}

type transactorMetrics struct {
	submitted metric.Int64Counter
	confirm   metric.Float64Histogram
}

// Transactor implements app.TxSender with legacy transactions priced by the
// gas oracle.
type Transactor struct {
	config  TransactorConfig
	backend TxBackend
	gas     app.GasOracle
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  types.Signer
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *transactorMetrics
}

var _ app.TxSender = (*Transactor)(nil)

// NewTransactor creates a transactor signing with key.
func NewTransactor(cfg TransactorConfig, backend TxBackend, gas app.GasOracle, key *ecdsa.PrivateKey, log logger.LoggerInterface) (*Transactor, error) {
	if key == nil {
		return nil, apperror.New(apperror.CodeWalletUnavailable)
	}
	if cfg.ChainID == nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("transactor: chain id is required"))
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	t := &Transactor{
		config:  cfg,
		backend: backend,
		gas:     gas,
		key:     key,
		from:    ethcrypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(cfg.ChainID),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := t.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return t, nil
}

func (t *Transactor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	t.metrics = &transactorMetrics{}

	t.metrics.submitted, err = meter.Int64Counter(
		"tx_submitted_total",
		metric.WithDescription("Transactions submitted, by label and outcome"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	t.metrics.confirm, err = meter.Float64Histogram(
		"tx_confirmation_seconds",
		metric.WithDescription("Time from submission to receipt"),
		metric.WithUnit("s"),
	)
	return err
}

// From returns the operator address.
func (t *Transactor) From() common.Address {
	return t.from
}

// Call runs req as an eth_call from the operator address.
func (t *Transactor) Call(ctx context.Context, req domain.TxRequest) ([]byte, error) {
	to := req.To
	out, err := t.backend.CallContract(ctx, ethereum.CallMsg{
		From:  t.from,
		To:    &to,
		Gas:   req.GasLimit,
		Value: req.Value,
		Data:  req.Data,
	}, nil)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(req.Label))
	}
	return out, nil
}

// Send signs, submits and waits for req. Once the transaction is submitted
// the wait ignores cancellation of ctx so the receipt is always observed.
func (t *Transactor) Send(ctx context.Context, req domain.TxRequest) (_ *domain.TxReceipt, err error) {
	ctx, span := t.tracer.Start(ctx, "tx.send", trace.WithAttributes(
		attribute.String("label", req.Label),
		attribute.String("to", req.To.Hex()),
		attribute.Int64("gas_limit", int64(req.GasLimit)),
	))
	defer func() { apm.Finish(span, err) }()

	signed, err := t.sign(ctx, req)
	if err != nil {
		t.count(ctx, req.Label, "unsigned")
		return nil, err
	}
	span.SetAttributes(attribute.String("tx_hash", signed.Hash().Hex()))

	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		t.count(ctx, req.Label, "rejected")
		return nil, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext(req.Label))
	}
	t.logger.Info(ctx, "transaction submitted", "label", req.Label, "tx", signed.Hash().Hex(), "nonce", signed.Nonce())

	started := time.Now()
	receipt, err := t.waitMined(context.WithoutCancel(ctx), signed.Hash())
	if err != nil {
		t.count(ctx, req.Label, "unconfirmed")
		return nil, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("%s: waiting for %s", req.Label, signed.Hash().Hex())))
	}
	t.metrics.confirm.Record(ctx, time.Since(started).Seconds(),
		metric.WithAttributes(attribute.String("label", req.Label)))

	out := &domain.TxReceipt{
		Hash:        receipt.TxHash,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
	if !out.Success {
		t.count(ctx, req.Label, "reverted")
		return out, apperror.New(apperror.CodeExecutionReverted,
			apperror.WithContext(fmt.Sprintf("%s: %s", req.Label, receipt.TxHash.Hex())))
	}

	t.count(ctx, req.Label, "confirmed")
	return out, nil
}

func (t *Transactor) sign(ctx context.Context, req domain.TxRequest) (*types.Transaction, error) {
	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("eth_getTransactionCount"))
	}
	price, err := t.gas.GetGasPrice(ctx)
	if err != nil {
		return nil, err
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: price.Wei,
		Gas:      req.GasLimit,
		To:       &req.To,
		Value:    value,
		Data:     req.Data,
	})

	signed, err := types.SignTx(tx, t.signer, t.key)
	if err != nil {
		return nil, apperror.New(apperror.CodeTransactionFailed,
			apperror.WithCause(err),
			apperror.WithContext("sign "+req.Label))
	}
	return signed, nil
}

func (t *Transactor) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if t.config.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ConfirmTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(t.config.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := t.backend.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			t.logger.Debug(ctx, "receipt lookup failed", "tx", hash.Hex(), "error", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Transactor) count(ctx context.Context, label, outcome string) {
	t.metrics.submitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", label),
		attribute.String("outcome", outcome),
	))
}
