package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/pricing/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

type fakeProvider struct {
	out   *big.Int
	calls int
}

func (f *fakeProvider) GetQuote(_ context.Context, venue *asset.Venue, in, out *asset.Asset, amountIn *big.Int) (*domain.Quote, error) {
	f.calls++
	return &domain.Quote{Venue: venue, AssetIn: in, AssetOut: out, AmountIn: amountIn, AmountOut: f.out}, nil
}

var (
	wbnb    = asset.MustNewAsset(56, "WBNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18)
	busd    = asset.MustNewAsset(56, "BUSD", common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"), 18)
	pancake = asset.MustNewVenue(56, "PancakeSwap", common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"))
)

func TestPricingService_GetQuoteValidation(t *testing.T) {
	p := &fakeProvider{out: big.NewInt(1)}
	s := NewPricingService(p)
	ctx := context.Background()

	tests := []struct {
		name     string
		in, out  *asset.Asset
		amountIn *big.Int
		wantCode apperror.Code
	}{
		{"zero amount", wbnb, busd, big.NewInt(0), apperror.CodeInvalidTradeSize},
		{"negative amount", wbnb, busd, big.NewInt(-1), apperror.CodeInvalidTradeSize},
		{"nil amount", wbnb, busd, nil, apperror.CodeInvalidTradeSize},
		{"same asset", wbnb, wbnb, big.NewInt(1), apperror.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.GetQuote(ctx, pancake, tt.in, tt.out, tt.amountIn)
			if apperror.GetCode(err) != tt.wantCode {
				t.Errorf("code = %v, want %v", apperror.GetCode(err), tt.wantCode)
			}
		})
	}
	if p.calls != 0 {
		t.Errorf("provider called %d times for invalid requests", p.calls)
	}
}

func TestPricingService_BaselinePrice(t *testing.T) {
	p := &fakeProvider{out: busd.ToBaseUnits(decimal.RequireFromString("312.45"))}
	s := NewPricingService(p)

	price, err := s.BaselinePrice(context.Background(), pancake, wbnb, busd)
	if err != nil {
		t.Fatalf("BaselinePrice() error = %v", err)
	}
	if !price.Equal(decimal.RequireFromString("312.45")) {
		t.Errorf("price = %s, want 312.45", price)
	}

	p.out = big.NewInt(0)
	if _, err := s.BaselinePrice(context.Background(), pancake, wbnb, busd); apperror.GetCode(err) != apperror.CodePriceUnavailable {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodePriceUnavailable)
	}
}
