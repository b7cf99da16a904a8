package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

var _ Gateway = (*Service)(nil)

// ServiceConfig configures the execution service.
type ServiceConfig struct {
	Operator common.Address
	LockTTL  time.Duration
}

// Service serializes writes per wallet and journals them. At most one
// write is in flight at a time: an in-process mutex covers this process,
// the optional Locker covers other processes sharing the key.
type Service struct {
	gateway Gateway
	journal Journal
	locker  Locker
	config  ServiceConfig
	logger  logger.LoggerInterface
	now     func() time.Time

	mu sync.Mutex
}

// NewService creates a Service. locker may be nil.
func NewService(cfg ServiceConfig, gateway Gateway, journal Journal, locker Locker, log logger.LoggerInterface) *Service {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	return &Service{
		gateway: gateway,
		journal: journal,
		locker:  locker,
		config:  cfg,
		logger:  log,
		now:     time.Now,
	}
}

// ExecuteArbitrage submits the arbitrage and waits for it to be mined.
func (s *Service) ExecuteArbitrage(ctx context.Context, order domain.ArbitrageOrder) (*domain.Receipt, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	rec := domain.NewRecord(domain.KindArbitrage, order.String(), s.now())
	rec.AmountIn = order.AmountIn.String()
	rec.AmountOut = order.ExpectedAmountOut.String()

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.ExecuteArbitrage(ctx, order)
	})
}

// Withdraw sweeps the vault balance of a to the operator.
func (s *Service) Withdraw(ctx context.Context, a *asset.Asset) (*domain.Receipt, error) {
	rec := domain.NewRecord(domain.KindWithdraw, a.Symbol(), s.now())

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.Withdraw(ctx, a)
	})
}

// WithdrawNative sweeps the portal's native balance to the operator.
func (s *Service) WithdrawNative(ctx context.Context) (*domain.Receipt, error) {
	rec := domain.NewRecord(domain.KindWithdrawNative, "native", s.now())

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.WithdrawNative(ctx)
	})
}

// OpenPosition opens a position and returns the portal's trade handle.
func (s *Service) OpenPosition(ctx context.Context, order domain.PositionOrder) (domain.TradeHandle, *domain.Receipt, error) {
	rec := domain.NewRecord(domain.KindOpenPosition, order.String(), s.now())
	if order.Amount != nil {
		rec.AmountIn = order.Amount.String()
	}

	var handle domain.TradeHandle
	receipt, err := s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		h, r, err := s.gateway.OpenPosition(ctx, order)
		handle = h
		return r, err
	})
	if err != nil {
		return domain.TradeHandle{}, receipt, err
	}
	return handle, receipt, nil
}

// ClosePosition closes the position identified by handle.
func (s *Service) ClosePosition(ctx context.Context, handle domain.TradeHandle) (*domain.Receipt, error) {
	rec := domain.NewRecord(domain.KindClosePosition, handle.String(), s.now())

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.ClosePosition(ctx, handle)
	})
}

// ExecuteTrade submits a spot swap on the trade vault and waits for it to
// be mined.
func (s *Service) ExecuteTrade(ctx context.Context, order domain.TradeOrder) (*domain.Receipt, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	rec := domain.NewRecord(domain.KindTrade, order.String(), s.now())
	rec.AmountIn = order.AmountIn.String()
	rec.AmountOut = order.AmountOutMin.String()

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.ExecuteTrade(ctx, order)
	})
}

// WithdrawTrade sweeps the trade vault's balance of token to the operator;
// nil sweeps the native balance.
func (s *Service) WithdrawTrade(ctx context.Context, token *asset.Asset) (*domain.Receipt, error) {
	subject := "native"
	if token != nil {
		subject = token.Symbol()
	}
	rec := domain.NewRecord(domain.KindTradeWithdraw, subject, s.now())

	return s.write(ctx, rec, func(ctx context.Context) (*domain.Receipt, error) {
		return s.gateway.WithdrawTrade(ctx, token)
	})
}

func (s *Service) write(ctx context.Context, rec *domain.Record, fn func(context.Context) (*domain.Receipt, error)) (*domain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Acquire(ctx, s.lockKey(), s.config.LockTTL)
		if err != nil {
			return nil, apperror.New(apperror.CodeWalletLockHeld,
				apperror.WithCause(err),
				apperror.WithContext(s.config.Operator.Hex()))
		}
		defer unlock()
	}

	rec.Operator = s.config.Operator.Hex()
	// Once submitted, the receipt is awaited even if ctx is cancelled.
	receipt, err := fn(context.WithoutCancel(ctx))

	if errors.Is(err, domain.ErrNotConfigured) {
		s.logger.Debug(ctx, "write skipped, contract not configured", "kind", rec.Kind, "subject", rec.Subject)
		return receipt, err
	}

	rec.Complete(receipt, err, s.now())
	// The write already happened; the record must not be lost to shutdown.
	if jerr := s.journal.Record(context.WithoutCancel(ctx), rec); jerr != nil {
		s.logger.Warn(ctx, "failed to journal execution", "id", rec.ID, "kind", rec.Kind, "error", jerr)
	}

	if err != nil {
		s.logger.Error(ctx, "write failed",
			"kind", rec.Kind,
			"subject", rec.Subject,
			"amount_in", rec.AmountIn,
			"amount_out", rec.AmountOut,
			"status", rec.Status,
			"tx", rec.TxHash,
			"error", err,
		)
		return receipt, err
	}

	s.logger.Info(ctx, "write confirmed",
		"kind", rec.Kind,
		"subject", rec.Subject,
		"tx", rec.TxHash,
		"gas_used", rec.GasUsed,
		"duration", rec.Duration(),
	)
	return receipt, nil
}

func (s *Service) lockKey() string {
	return "wallet:" + s.config.Operator.Hex()
}
