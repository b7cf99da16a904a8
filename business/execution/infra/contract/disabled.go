package contract

import (
	"context"

	"github.com/fd1az/defi-trader/business/execution/app"
	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

var _ app.Gateway = Disabled{}

// Disabled stands in for the contract gateway in live mode when there is no
// chain client or signer. Every write fails with domain.ErrNotConfigured,
// which the engines treat as a dry run.
type Disabled struct {
	Reason string
}

func (d Disabled) err() error {
	return apperror.New(apperror.CodeContractNotConfigured, apperror.WithContext(d.Reason))
}

func (d Disabled) ExecuteArbitrage(context.Context, domain.ArbitrageOrder) (*domain.Receipt, error) {
	return nil, d.err()
}

func (d Disabled) Withdraw(context.Context, *asset.Asset) (*domain.Receipt, error) {
	return nil, d.err()
}

func (d Disabled) WithdrawNative(context.Context) (*domain.Receipt, error) {
	return nil, d.err()
}

func (d Disabled) OpenPosition(context.Context, domain.PositionOrder) (domain.TradeHandle, *domain.Receipt, error) {
	return domain.TradeHandle{}, nil, d.err()
}

func (d Disabled) ClosePosition(context.Context, domain.TradeHandle) (*domain.Receipt, error) {
	return nil, d.err()
}

func (d Disabled) ExecuteTrade(context.Context, domain.TradeOrder) (*domain.Receipt, error) {
	return nil, d.err()
}

func (d Disabled) WithdrawTrade(context.Context, *asset.Asset) (*domain.Receipt, error) {
	return nil, d.err()
}
