// Package paper implements an in-memory execution gateway that confirms
// every write without touching a chain.
package paper

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

var _ app.Gateway = (*Gateway)(nil)

// Stats counts simulated writes.
type Stats struct {
	Arbitrages  int
	Withdrawals int
	Opens       int
	Closes      int
	Trades      int
}

// Gateway is a paper-trading gateway. Hashes and trade handles are derived
// from random UUIDs.
type Gateway struct {
	mu     sync.Mutex
	stats  Stats
	open   map[domain.TradeHandle]domain.PositionOrder
	block  uint64
	logger logger.LoggerInterface
}

// NewGateway creates a paper gateway.
func NewGateway(log logger.LoggerInterface) *Gateway {
	return &Gateway{
		open:   make(map[domain.TradeHandle]domain.PositionOrder),
		logger: log,
	}
}

func (g *Gateway) ExecuteArbitrage(ctx context.Context, order domain.ArbitrageOrder) (*domain.Receipt, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Arbitrages++

	g.logger.Info(ctx, "paper arbitrage", "route", order.String(), "amount_in", order.AmountIn.String())
	return g.receipt(), nil
}

func (g *Gateway) Withdraw(ctx context.Context, a *asset.Asset) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Withdrawals++

	g.logger.Debug(ctx, "paper withdraw", "asset", a.Symbol())
	return g.receipt(), nil
}

func (g *Gateway) WithdrawNative(ctx context.Context) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Withdrawals++

	return g.receipt(), nil
}

func (g *Gateway) OpenPosition(ctx context.Context, order domain.PositionOrder) (domain.TradeHandle, *domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.open) > 0 {
		return domain.TradeHandle{}, nil, apperror.New(apperror.CodePositionOpenFailed,
			apperror.WithContext("paper portal already holds an open trade"))
	}

	handle := domain.TradeHandle(newHash())
	g.open[handle] = order
	g.stats.Opens++

	g.logger.Debug(ctx, "paper open", "order", order.String(), "handle", handle.String())
	return handle, g.receipt(), nil
}

func (g *Gateway) ClosePosition(ctx context.Context, handle domain.TradeHandle) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.open[handle]; !ok {
		return nil, apperror.New(apperror.CodePositionCloseFailed,
			apperror.WithContext("no paper trade "+handle.String()))
	}
	delete(g.open, handle)
	g.stats.Closes++

	return g.receipt(), nil
}

func (g *Gateway) ExecuteTrade(ctx context.Context, order domain.TradeOrder) (*domain.Receipt, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Trades++

	g.logger.Info(ctx, "paper trade", "order", order.String(), "amount_in", order.AmountIn.String())
	return g.receipt(), nil
}

// WithdrawTrade confirms the sweep; a nil token stands for the native
// balance.
func (g *Gateway) WithdrawTrade(ctx context.Context, token *asset.Asset) (*domain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Withdrawals++

	return g.receipt(), nil
}

// Stats returns a snapshot of the simulated writes.
func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

func (g *Gateway) receipt() *domain.Receipt {
	g.block++
	return &domain.Receipt{
		TxHash:      newHash(),
		Status:      domain.StatusConfirmed,
		BlockNumber: g.block,
		Paper:       true,
	}
}

func newHash() common.Hash {
	a, b := uuid.New(), uuid.New()
	return common.BytesToHash(append(a[:], b[:]...))
}
