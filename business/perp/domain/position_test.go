package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
)

func TestPosition_ROIAndPnL(t *testing.T) {
	tests := []struct {
		name    string
		side    Side
		entry   string
		price   string
		lev     int64
		wantROI string
		wantPnL string
	}{
		{"long up 2%", SideLong, "100", "102", 50, "100", "2000"},
		{"long down 1%", SideLong, "100", "99", 50, "-50", "500"},
		{"short down 2%", SideShort, "100", "98", 49, "98", "1980"},
		{"short up 1%", SideShort, "100", "101", 49, "-49", "510"},
		{"pnl rounds to whole units", SideLong, "100", "100.01", 49, "0.49", "1005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPosition("WBNB", tt.lev)
			if err := p.Open(tt.side, decimal.RequireFromString(tt.entry), big.NewInt(1000), executionDomain.TradeHandle{}, time.Now()); err != nil {
				t.Fatal(err)
			}
			roi := p.ROI(decimal.RequireFromString(tt.price))
			if !roi.Equal(decimal.RequireFromString(tt.wantROI)) {
				t.Errorf("ROI = %s, want %s", roi, tt.wantROI)
			}
			if pnl := p.PnL(roi); pnl.String() != tt.wantPnL {
				t.Errorf("PnL = %s, want %s", pnl, tt.wantPnL)
			}
		})
	}
}

func TestPosition_Transitions(t *testing.T) {
	p := NewPosition("WBNB", 49)
	if err := p.Validate(); err != nil || !p.IsFlat() {
		t.Fatalf("new position: flat = %v, err = %v", p.IsFlat(), err)
	}
	if !p.ROI(decimal.NewFromInt(1)).IsZero() {
		t.Errorf("flat ROI must be zero")
	}

	handle := executionDomain.TradeHandle(common.HexToHash("0x01"))
	if err := p.Open(SideLong, decimal.NewFromInt(600), big.NewInt(5), handle, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("open position invalid: %v", err)
	}

	err := p.Open(SideShort, decimal.NewFromInt(600), big.NewInt(5), handle, time.Now())
	if apperror.GetCode(err) != apperror.CodeInvalidState {
		t.Errorf("second open code = %v, want %v", apperror.GetCode(err), apperror.CodeInvalidState)
	}

	p.Close()
	if !p.IsFlat() || p.Notional.Sign() != 0 || !p.EntryPrice.IsZero() || !p.Handle.IsZero() {
		t.Errorf("close left state behind: %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("closed position invalid: %v", err)
	}

	if err := p.Open(SideFlat, decimal.NewFromInt(1), big.NewInt(1), handle, time.Now()); err == nil {
		t.Errorf("opening flat should fail")
	}
	if err := p.Open(SideLong, decimal.NewFromInt(1), big.NewInt(0), handle, time.Now()); err == nil {
		t.Errorf("zero notional should fail")
	}
}

func TestPosition_ValidateCatchesBrokenInvariant(t *testing.T) {
	p := NewPosition("WBNB", 49)
	p.Notional = big.NewInt(1)
	if err := p.Validate(); err == nil {
		t.Errorf("flat with notional should be invalid")
	}
}

func TestEntryPrice(t *testing.T) {
	eps := decimal.RequireFromString("0.001")
	if got := EntryPrice(decimal.NewFromInt(600), SideLong, eps); !got.Equal(decimal.RequireFromString("600.6")) {
		t.Errorf("long entry = %s", got)
	}
	if got := EntryPrice(decimal.NewFromInt(600), SideShort, eps); !got.Equal(decimal.RequireFromString("599.4")) {
		t.Errorf("short entry = %s", got)
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger(big.NewInt(1000))

	half := l.Fraction(decimal.RequireFromString("0.5"))
	if half.Int64() != 500 {
		t.Errorf("Fraction(0.5) = %s", half)
	}
	if err := l.Debit(half); err != nil {
		t.Fatal(err)
	}
	if err := l.Debit(big.NewInt(501)); apperror.GetCode(err) != apperror.CodeInsufficientFunds {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeInsufficientFunds)
	}
	if l.Balance().Int64() != 500 {
		t.Errorf("failed debit changed balance to %s", l.Balance())
	}
	l.Credit(big.NewInt(100))
	if taken := l.Charge(big.NewInt(1000)); taken.Int64() != 600 || l.Balance().Sign() != 0 {
		t.Errorf("Charge took %s, left %s", taken, l.Balance())
	}
}

func TestOperatingHours(t *testing.T) {
	h := OperatingHours{Enabled: true, Start: 8, End: 16}
	day := func(hour, minute int) time.Time {
		return time.Date(2024, 5, 1, hour, minute, 0, 0, time.Local)
	}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{day(7, 59), false},
		{day(8, 0), true},
		{day(15, 59), true},
		{day(16, 0), false},
	}
	for _, tt := range tests {
		if got := h.Allows(tt.at); got != tt.want {
			t.Errorf("Allows(%s) = %v, want %v", tt.at.Format("15:04"), got, tt.want)
		}
	}
	if !(OperatingHours{}).Allows(day(3, 0)) {
		t.Errorf("disabled hours must allow everything")
	}
}
