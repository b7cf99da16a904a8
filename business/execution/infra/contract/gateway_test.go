package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	blockchainApp "github.com/fd1az/defi-trader/business/blockchain/app"
	blockchainDomain "github.com/fd1az/defi-trader/business/blockchain/domain"
	"github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

var (
	vaultAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	portalAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tradeAddr  = common.HexToAddress("0x00000000000000000000000000000000000000cc")

	venueA = asset.MustNewVenue(56, "PancakeSwap", common.HexToAddress("0x10ED43C718714eb63d5aA57B78B54704E256024E"))
	venueB = asset.MustNewVenue(56, "BiSwap", common.HexToAddress("0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8"))
	wbnb   = asset.MustNewAsset(56, "WBNB", common.HexToAddress("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"), 18)
	busd   = asset.MustNewAsset(56, "BUSD", common.HexToAddress("0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56"), 18)
)

func order() domain.ArbitrageOrder {
	return domain.ArbitrageOrder{
		VenueFrom:         venueA,
		VenueTo:           venueB,
		AssetIn:           wbnb,
		AssetOut:          busd,
		AmountIn:          big.NewInt(1000),
		ExpectedAmountOut: big.NewInt(1000),
	}
}

func mustABI(t *testing.T, def string) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

type fakeCaller struct {
	ret  []byte
	err  error
	msgs []ethereum.CallMsg
}

func (c *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.msgs = append(c.msgs, msg)
	return c.ret, c.err
}

type fakeSender struct {
	callRet []byte
	callErr error
	receipt *blockchainDomain.TxReceipt
	sendErr error
	sent    []blockchainDomain.TxRequest
}

func (s *fakeSender) From() common.Address { return common.HexToAddress("0x01") }

func (s *fakeSender) Call(_ context.Context, _ blockchainDomain.TxRequest) ([]byte, error) {
	return s.callRet, s.callErr
}

func (s *fakeSender) Send(_ context.Context, req blockchainDomain.TxRequest) (*blockchainDomain.TxReceipt, error) {
	s.sent = append(s.sent, req)
	return s.receipt, s.sendErr
}

func newGateway(t *testing.T, cfg Config, caller *fakeCaller, sender *fakeSender) *Gateway {
	t.Helper()
	var s blockchainApp.TxSender
	if sender != nil {
		s = sender
	}
	g, err := NewGateway(cfg, caller, s, logger.NewDiscard())
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestGateway_NotConfigured(t *testing.T) {
	g := newGateway(t, Config{}, &fakeCaller{}, &fakeSender{})
	ctx := context.Background()

	out, err := g.CheckArbitrage(ctx, order())
	if !errors.Is(err, domain.ErrNotConfigured) || out.Sign() != 0 {
		t.Errorf("CheckArbitrage() = %v, %v", out, err)
	}
	if _, err := g.ExecuteArbitrage(ctx, order()); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("ExecuteArbitrage() error = %v", err)
	}
	if _, err := g.Withdraw(ctx, wbnb); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("Withdraw() error = %v", err)
	}
	if _, _, err := g.OpenPosition(ctx, domain.PositionOrder{}); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("OpenPosition() error = %v", err)
	}
	if _, err := g.ClosePosition(ctx, domain.TradeHandle{}); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("ClosePosition() error = %v", err)
	}
	if _, err := g.WithdrawNative(ctx); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("WithdrawNative() error = %v", err)
	}
	check, err := g.CheckTrade(ctx, []common.Address{venueA.Router()}, busd, big.NewInt(1))
	if !errors.Is(err, domain.ErrNotConfigured) || check.IsTrade() {
		t.Errorf("CheckTrade() = %+v, %v", check, err)
	}
	if _, err := g.ExecuteTrade(ctx, domain.TradeOrder{}); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("ExecuteTrade() error = %v", err)
	}
	if _, err := g.WithdrawTrade(ctx, nil); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("WithdrawTrade() error = %v", err)
	}
}

func TestGateway_CheckArbitrage(t *testing.T) {
	vault := mustABI(t, vaultABI)
	ret, err := vault.Methods["checkArbitrage"].Outputs.Pack(big.NewInt(1050))
	if err != nil {
		t.Fatal(err)
	}

	caller := &fakeCaller{ret: ret}
	g := newGateway(t, Config{Vault: vaultAddr}, caller, nil)

	out, err := g.CheckArbitrage(context.Background(), order())
	if err != nil {
		t.Fatalf("CheckArbitrage() error = %v", err)
	}
	if out.Cmp(big.NewInt(1050)) != 0 {
		t.Errorf("amountOut = %s, want 1050", out)
	}
	if len(caller.msgs) != 1 || *caller.msgs[0].To != vaultAddr {
		t.Fatalf("calls = %+v", caller.msgs)
	}

	args, err := vault.Methods["checkArbitrage"].Inputs.Unpack(caller.msgs[0].Data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if args[0].(common.Address) != venueA.Router() || args[3].(common.Address) != busd.Address() {
		t.Errorf("args = %v", args)
	}
}

func TestGateway_CheckArbitrageFailure(t *testing.T) {
	g := newGateway(t, Config{Vault: vaultAddr}, &fakeCaller{err: errors.New("connection reset")}, nil)

	_, err := g.CheckArbitrage(context.Background(), order())
	if apperror.GetCode(err) != apperror.CodeCheckFailed {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeCheckFailed)
	}
}

func TestGateway_ExecuteArbitrage(t *testing.T) {
	hash := common.HexToHash("0x1234")

	tests := []struct {
		name       string
		receipt    *blockchainDomain.TxReceipt
		sendErr    error
		wantStatus domain.Status
		wantErr    bool
	}{
		{
			name:       "confirmed",
			receipt:    &blockchainDomain.TxReceipt{Hash: hash, Success: true, GasUsed: 180_000},
			wantStatus: domain.StatusConfirmed,
		},
		{
			name:       "reverted",
			receipt:    &blockchainDomain.TxReceipt{Hash: hash, Success: false},
			sendErr:    apperror.New(apperror.CodeExecutionReverted),
			wantStatus: domain.StatusReverted,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{receipt: tt.receipt, sendErr: tt.sendErr}
			g := newGateway(t, Config{Vault: vaultAddr}, &fakeCaller{}, sender)

			receipt, err := g.ExecuteArbitrage(context.Background(), order())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, apperror.New(apperror.CodeExecutionReverted)) {
				t.Errorf("revert cause lost: %v", err)
			}
			if receipt.Status != tt.wantStatus || receipt.TxHash != hash {
				t.Errorf("receipt = %+v", receipt)
			}
			if len(sender.sent) != 1 {
				t.Fatalf("sent = %d", len(sender.sent))
			}
			req := sender.sent[0]
			if req.To != vaultAddr || req.GasLimit != DefaultGasLimit || req.Label != "executeArbitrage" {
				t.Errorf("request = %+v", req)
			}
		})
	}
}

func TestGateway_WithdrawFailure(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("nonce too low")}
	g := newGateway(t, Config{Vault: vaultAddr, GasLimit: 500_000}, &fakeCaller{}, sender)

	receipt, err := g.Withdraw(context.Background(), wbnb)
	if apperror.GetCode(err) != apperror.CodeWithdrawFailed {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeWithdrawFailed)
	}
	if receipt != nil {
		t.Errorf("receipt = %+v, want nil", receipt)
	}
	if sender.sent[0].GasLimit != 500_000 {
		t.Errorf("GasLimit = %d", sender.sent[0].GasLimit)
	}
}

func TestGateway_WithoutSender(t *testing.T) {
	g := newGateway(t, Config{Vault: vaultAddr, Portal: portalAddr}, &fakeCaller{}, nil)

	if _, err := g.ExecuteArbitrage(context.Background(), order()); apperror.GetCode(err) != apperror.CodeWalletUnavailable {
		t.Errorf("code = %v", apperror.GetCode(err))
	}
}

func TestGateway_OpenAndClosePosition(t *testing.T) {
	portal := mustABI(t, portalABI)
	var want [32]byte
	copy(want[:], common.HexToHash("0xfeed").Bytes())
	ret, err := portal.Methods["openTradeBNB"].Outputs.Pack(want)
	if err != nil {
		t.Fatal(err)
	}

	sender := &fakeSender{
		callRet: ret,
		receipt: &blockchainDomain.TxReceipt{Hash: common.HexToHash("0x99"), Success: true},
	}
	g := newGateway(t, Config{Portal: portalAddr}, &fakeCaller{}, sender)

	o, err := domain.NewPositionOrder(wbnb, true, new(big.Int).Div(wbnb.One(), big.NewInt(2)), 49, decimal.RequireFromString("600"))
	if err != nil {
		t.Fatal(err)
	}

	handle, receipt, err := g.OpenPosition(context.Background(), o)
	if err != nil {
		t.Fatalf("OpenPosition() error = %v", err)
	}
	if handle != domain.TradeHandle(want) {
		t.Errorf("handle = %s", handle)
	}
	if !receipt.Confirmed() {
		t.Errorf("receipt = %+v", receipt)
	}
	if sender.sent[0].Value.Cmp(o.Amount) != 0 {
		t.Errorf("value = %s, want %s", sender.sent[0].Value, o.Amount)
	}

	if _, err := g.ClosePosition(context.Background(), handle); err != nil {
		t.Fatalf("ClosePosition() error = %v", err)
	}
	if sender.sent[1].Label != "closeTrade" || sender.sent[1].Value != nil {
		t.Errorf("close request = %+v", sender.sent[1])
	}
}

func TestGateway_OpenPositionPreflightRevert(t *testing.T) {
	sender := &fakeSender{callErr: errors.New("execution reverted")}
	g := newGateway(t, Config{Portal: portalAddr}, &fakeCaller{}, sender)

	o, err := domain.NewPositionOrder(wbnb, false, wbnb.One(), 10, decimal.RequireFromString("600"))
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = g.OpenPosition(context.Background(), o)
	if apperror.GetCode(err) != apperror.CodePositionOpenFailed {
		t.Errorf("code = %v", apperror.GetCode(err))
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent a transaction after a failed pre-flight")
	}
}

func TestGateway_CheckTrade(t *testing.T) {
	trade := mustABI(t, tradeVaultABI)

	tests := []struct {
		name      string
		direction string
		wantTrade bool
	}{
		{"buy", "buy", true},
		{"sell", "sell", true},
		{"none", "none", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret, err := trade.Methods["checkTrade"].Outputs.Pack(tt.direction, venueB.Router(), big.NewInt(10), big.NewInt(6000))
			if err != nil {
				t.Fatal(err)
			}
			caller := &fakeCaller{ret: ret}
			g := newGateway(t, Config{TradeVault: tradeAddr}, caller, nil)

			routers := []common.Address{venueA.Router(), venueB.Router()}
			check, err := g.CheckTrade(context.Background(), routers, busd, big.NewInt(21_000))
			if err != nil {
				t.Fatalf("CheckTrade() error = %v", err)
			}
			if check.IsTrade() != tt.wantTrade || string(check.Direction) != tt.direction {
				t.Errorf("check = %+v", check)
			}
			if check.Router != venueB.Router() || check.AmountNative.Int64() != 10 || check.AmountToken.Int64() != 6000 {
				t.Errorf("check = %+v", check)
			}

			args, err := trade.Methods["checkTrade"].Inputs.Unpack(caller.msgs[0].Data[4:])
			if err != nil {
				t.Fatal(err)
			}
			if got := args[0].([]common.Address); len(got) != 2 || args[1].(common.Address) != busd.Address() {
				t.Errorf("args = %v", args)
			}
			if args[2].(*big.Int).Int64() != 21_000 {
				t.Errorf("gas cost = %v", args[2])
			}
		})
	}
}

func TestGateway_CheckTradeFailure(t *testing.T) {
	g := newGateway(t, Config{TradeVault: tradeAddr}, &fakeCaller{err: errors.New("execution reverted")}, nil)

	_, err := g.CheckTrade(context.Background(), []common.Address{venueA.Router()}, busd, big.NewInt(1))
	if apperror.GetCode(err) != apperror.CodeCheckFailed {
		t.Errorf("code = %v, want %v", apperror.GetCode(err), apperror.CodeCheckFailed)
	}
}

func TestGateway_ExecuteTrade(t *testing.T) {
	tests := []struct {
		direction  domain.TradeDirection
		wantMethod string
	}{
		{domain.TradeBuy, "executeTradeETHForTokens"},
		{domain.TradeSell, "executeTradeTokensForETH"},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			sender := &fakeSender{receipt: &blockchainDomain.TxReceipt{Hash: common.HexToHash("0x77"), Success: true}}
			g := newGateway(t, Config{TradeVault: tradeAddr, TradeGasLimit: 500_000}, &fakeCaller{}, sender)

			receipt, err := g.ExecuteTrade(context.Background(), domain.TradeOrder{
				Venue:        venueA,
				Token:        busd,
				Direction:    tt.direction,
				AmountIn:     big.NewInt(100),
				AmountOutMin: big.NewInt(95),
			})
			if err != nil {
				t.Fatalf("ExecuteTrade() error = %v", err)
			}
			if !receipt.Confirmed() {
				t.Errorf("receipt = %+v", receipt)
			}

			req := sender.sent[0]
			if req.To != tradeAddr || req.Label != tt.wantMethod || req.GasLimit != 500_000 || req.Value != nil {
				t.Errorf("request = %+v", req)
			}
			method := mustABI(t, tradeVaultABI).Methods[tt.wantMethod]
			args, err := method.Inputs.Unpack(req.Data[4:])
			if err != nil {
				t.Fatal(err)
			}
			if args[0].(common.Address) != venueA.Router() || args[3].(*big.Int).Int64() != 95 {
				t.Errorf("args = %v", args)
			}
		})
	}
}

func TestGateway_ExecuteTradeRejectsInvalidOrder(t *testing.T) {
	sender := &fakeSender{}
	g := newGateway(t, Config{TradeVault: tradeAddr}, &fakeCaller{}, sender)

	_, err := g.ExecuteTrade(context.Background(), domain.TradeOrder{
		Venue:        venueA,
		Token:        busd,
		Direction:    domain.TradeNone,
		AmountIn:     big.NewInt(100),
		AmountOutMin: big.NewInt(0),
	})
	if apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("code = %v", apperror.GetCode(err))
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent = %d, want 0", len(sender.sent))
	}
}

func TestGateway_WithdrawTrade(t *testing.T) {
	sender := &fakeSender{receipt: &blockchainDomain.TxReceipt{Success: true}}
	g := newGateway(t, Config{TradeVault: tradeAddr, GasLimit: 300_000}, &fakeCaller{}, sender)
	ctx := context.Background()

	if _, err := g.WithdrawTrade(ctx, busd); err != nil {
		t.Fatalf("WithdrawTrade(BUSD) error = %v", err)
	}
	if _, err := g.WithdrawTrade(ctx, nil); err != nil {
		t.Fatalf("WithdrawTrade(nil) error = %v", err)
	}

	if sender.sent[0].Label != "withdrawToken" || sender.sent[1].Label != "withdrawETH" {
		t.Errorf("labels = %s, %s", sender.sent[0].Label, sender.sent[1].Label)
	}
	// TradeGasLimit falls back to GasLimit.
	if sender.sent[0].GasLimit != 300_000 {
		t.Errorf("GasLimit = %d", sender.sent[0].GasLimit)
	}
}
