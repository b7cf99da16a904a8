package domain

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
)

var wbnb = asset.MustNewAsset(56, "WBNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18)

func TestNewPositionOrder(t *testing.T) {
	half := new(big.Int).Div(wbnb.One(), big.NewInt(2))

	tests := []struct {
		name           string
		isLong         bool
		price          string
		wantPrice      string
		wantTakeProfit string
	}{
		{"long doubles take profit", true, "600.5", "6005000000000", "12010000000000"},
		{"short halves take profit", false, "600.5", "6005000000000", "3002500000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := NewPositionOrder(wbnb, tt.isLong, half, 49, decimal.RequireFromString(tt.price))
			if err != nil {
				t.Fatalf("NewPositionOrder() error = %v", err)
			}
			if o.Price.String() != tt.wantPrice {
				t.Errorf("Price = %s, want %s", o.Price, tt.wantPrice)
			}
			if o.TakeProfit.String() != tt.wantTakeProfit {
				t.Errorf("TakeProfit = %s, want %s", o.TakeProfit, tt.wantTakeProfit)
			}
			// 0.5 × 49 at 1e10
			if o.Qty.String() != "245000000000" {
				t.Errorf("Qty = %s, want 245000000000", o.Qty)
			}
			if o.Amount.Cmp(half) != 0 {
				t.Errorf("Amount = %s, want %s", o.Amount, half)
			}
		})
	}
}

func TestNewPositionOrder_Invalid(t *testing.T) {
	one := wbnb.One()
	tests := []struct {
		name     string
		amount   *big.Int
		leverage int64
		price    string
		wantCode apperror.Code
	}{
		{"zero amount", big.NewInt(0), 49, "600", apperror.CodeInvalidTradeSize},
		{"zero leverage", one, 0, "600", apperror.CodeInvalidInput},
		{"zero price", one, 49, "0", apperror.CodeInvalidInput},
		{"price overflows uint64", one, 49, "5000000000", apperror.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPositionOrder(wbnb, true, tt.amount, tt.leverage, decimal.RequireFromString(tt.price))
			if got := apperror.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestArbitrageOrder_Validate(t *testing.T) {
	busd := asset.MustNewAsset(56, "BUSD", common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"), 18)
	a := asset.MustNewVenue(56, "PancakeSwap", common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"))
	b := asset.MustNewVenue(56, "BiSwap", common.HexToAddress("0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8"))

	o := ArbitrageOrder{VenueFrom: a, VenueTo: b, AssetIn: wbnb, AssetOut: busd, AmountIn: big.NewInt(1000), ExpectedAmountOut: big.NewInt(1000)}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if o.String() != "PancakeSwap>BiSwap WBNB/BUSD" {
		t.Errorf("String() = %s", o.String())
	}

	o.AmountIn = big.NewInt(0)
	if apperror.GetCode(o.Validate()) != apperror.CodeInvalidTradeSize {
		t.Errorf("zero amount accepted")
	}

	o.VenueTo = nil
	if apperror.GetCode(o.Validate()) != apperror.CodeRequiredField {
		t.Errorf("missing venue accepted")
	}
}

func TestRecord_Complete(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Second)
	hash := common.HexToHash("0xabc")

	tests := []struct {
		name       string
		receipt    *Receipt
		err        error
		wantStatus Status
		wantHash   bool
	}{
		{"confirmed", &Receipt{TxHash: hash, Status: StatusConfirmed, GasUsed: 21000}, nil, StatusConfirmed, true},
		{"reverted keeps hash", &Receipt{TxHash: hash, Status: StatusReverted}, errors.New("reverted"), StatusReverted, true},
		{"failed before submit", nil, errors.New("nonce too low"), StatusFailed, false},
		{"nothing happened", nil, nil, StatusSkipped, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecord(KindArbitrage, "PancakeSwap>BiSwap WBNB/BUSD", start)
			r.Complete(tt.receipt, tt.err, end)

			if r.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", r.Status, tt.wantStatus)
			}
			if (r.TxHash != "") != tt.wantHash {
				t.Errorf("TxHash = %q", r.TxHash)
			}
			if (r.Error != "") != (tt.err != nil) {
				t.Errorf("Error = %q", r.Error)
			}
			if r.Duration() != 3*time.Second {
				t.Errorf("Duration() = %v", r.Duration())
			}
		})
	}
}

func TestErrNotConfigured_Is(t *testing.T) {
	err := apperror.New(apperror.CodeContractNotConfigured, apperror.WithContext("arbitrage_vault"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("errors.Is(err, ErrNotConfigured) = false")
	}
}
