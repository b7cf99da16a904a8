package contract

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/fd1az/defi-trader/business/execution/domain"
)

func TestDisabled_EveryWriteIsNotConfigured(t *testing.T) {
	ctx := context.Background()
	d := Disabled{Reason: "no signer"}
	trade := domain.TradeOrder{Venue: venueA, Token: busd, Direction: domain.TradeBuy, AmountIn: big.NewInt(1), AmountOutMin: big.NewInt(1)}

	calls := []struct {
		name string
		call func() error
	}{
		{"execute arbitrage", func() error { _, err := d.ExecuteArbitrage(ctx, order()); return err }},
		{"withdraw", func() error { _, err := d.Withdraw(ctx, busd); return err }},
		{"withdraw native", func() error { _, err := d.WithdrawNative(ctx); return err }},
		{"open position", func() error { _, _, err := d.OpenPosition(ctx, domain.PositionOrder{}); return err }},
		{"close position", func() error { _, err := d.ClosePosition(ctx, domain.TradeHandle{}); return err }},
		{"execute trade", func() error { _, err := d.ExecuteTrade(ctx, trade); return err }},
		{"withdraw trade", func() error { _, err := d.WithdrawTrade(ctx, nil); return err }},
	}
	for _, c := range calls {
		t.Run(c.name, func(t *testing.T) {
			if err := c.call(); !errors.Is(err, domain.ErrNotConfigured) {
				t.Fatalf("err = %v, want not configured", err)
			}
		})
	}
}
