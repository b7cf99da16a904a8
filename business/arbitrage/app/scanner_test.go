package app

import (
	"context"
	"errors"
	"math/big"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/apperror"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/logger"
)

// twoRoutes has exactly two candidates: WBNB→BUSD on each venue order.
func twoRoutes() Universe {
	return Universe{
		Assets: []domain.TradableAsset{
			{Asset: wbnb, BaseAmount: decimal.NewFromInt(1), Borrowable: true},
			{Asset: busd, BaseAmount: decimal.NewFromInt(300)},
		},
		Venues: []*asset.Venue{pancake, biswap},
	}
}

func newTestScanner(t *testing.T, cfg ScannerConfig, sampler Sampler, checker *fakeChecker, exec *fakeExecutor, rep *fakeReporter) (*Scanner, *Memoizer) {
	t.Helper()
	if cfg.Mode == "" {
		cfg.Mode = domain.ModeSingleCall
	}
	memo := NewMemoizer(0)
	t.Cleanup(memo.Close)
	calc := NewCalculator(CalculatorConfig{Fees: feeModel("0.0005")}, nil, nil, checker)
	return NewScanner(cfg, calc, memo, sampler, exec, rep, rand.New(rand.NewPCG(7, 7)), logger.NewDiscard()), memo
}

func TestScanner_MemoizedRouteIsNotRechecked(t *testing.T) {
	sampler, err := NewUniformRandom(twoRoutes(), rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	checker := newFakeChecker()
	s, memo := newTestScanner(t, ScannerConfig{}, sampler, checker, &fakeExecutor{}, &fakeReporter{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatalf("scanner did not stop once every route was memoized")
	}
	for key, n := range checker.calls {
		if n != 1 {
			t.Errorf("route %s checked %d times, want 1", key, n)
		}
	}
	if len(checker.calls) != 2 || memo.Len() != 2 {
		t.Errorf("checked %d routes, memoized %d, want 2 and 2", len(checker.calls), memo.Len())
	}
}

func TestScanner_ExhaustivePasses(t *testing.T) {
	sampler, err := NewExhaustive(universe())
	if err != nil {
		t.Fatal(err)
	}
	checker := newFakeChecker()
	// Non-zero but far below the repayment amount: checked, never memoized.
	for _, c := range universe().Candidates() {
		checker.out[c.Route().Key()] = big.NewInt(1)
	}
	exec := &fakeExecutor{}
	s, memo := newTestScanner(t, ScannerConfig{Passes: 3}, sampler, checker, exec, &fakeReporter{})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Stats().Passes != 3 {
		t.Errorf("Passes = %d, want 3", s.Stats().Passes)
	}
	if s.Stats().Checks != 3*sampler.Size() {
		t.Errorf("Checks = %d, want %d", s.Stats().Checks, 3*sampler.Size())
	}
	if memo.Len() != 0 || len(exec.executed) != 0 {
		t.Errorf("memoized %d, executed %d, want none", memo.Len(), len(exec.executed))
	}
}

func TestScanner_StepOpportunity(t *testing.T) {
	cand := candidate()
	checker := newFakeChecker()
	checker.out[cand.Route().Key()] = new(big.Int).Add(wbnb.One(), big.NewInt(1e15))
	exec := &fakeExecutor{}
	rep := &fakeReporter{}
	s, memo := newTestScanner(t, ScannerConfig{}, nil, checker, exec, rep)

	if err := s.Step(context.Background(), cand); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(exec.executed) != 1 || len(exec.withdrawn) != 1 || exec.withdrawn[0] != "WBNB" {
		t.Fatalf("executed %d, withdrawn %v", len(exec.executed), exec.withdrawn)
	}
	order := exec.executed[0]
	if order.AmountIn.Cmp(wbnb.One()) != 0 {
		t.Errorf("AmountIn = %s, want %s", order.AmountIn, wbnb.One())
	}
	// 1e18 × 1.0005
	if order.ExpectedAmountOut.String() != "1000500000000000000" {
		t.Errorf("ExpectedAmountOut = %s", order.ExpectedAmountOut)
	}
	if len(rep.reported) != 1 || len(rep.executed) != 1 {
		t.Errorf("reported %d, executed %d", len(rep.reported), len(rep.executed))
	}
	if memo.Len() != 0 {
		t.Errorf("profitable route memoized")
	}
}

func TestScanner_StepOutcomes(t *testing.T) {
	cand := candidate()
	key := cand.Route().Key()

	tests := []struct {
		name       string
		out        *big.Int
		checkErr   error
		wantMemo   int
		wantChecks int
	}{
		{"zero is memoized", big.NewInt(0), nil, 1, 1},
		{"not profitable is not memoized", wbnb.One(), nil, 0, 1},
		{"check error is not memoized", nil, apperror.New(apperror.CodeCheckFailed), 0, 0},
		{"not configured is skipped", nil, executionDomain.ErrNotConfigured, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := newFakeChecker()
			checker.err = tt.checkErr
			if tt.out != nil {
				checker.out[key] = tt.out
			}
			exec := &fakeExecutor{}
			s, memo := newTestScanner(t, ScannerConfig{}, nil, checker, exec, &fakeReporter{})

			if err := s.Step(context.Background(), cand); err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if memo.Len() != tt.wantMemo {
				t.Errorf("memo.Len() = %d, want %d", memo.Len(), tt.wantMemo)
			}
			if s.Stats().Checks != tt.wantChecks {
				t.Errorf("Checks = %d, want %d", s.Stats().Checks, tt.wantChecks)
			}
			if len(exec.executed) != 0 {
				t.Errorf("executed without an opportunity")
			}
		})
	}
}

func TestScanner_TwoHopMemoizesOnlyVenueZero(t *testing.T) {
	tests := []struct {
		name     string
		outA     int64
		wantMemo int
	}{
		{"venue quotes zero", 0, 1},
		{"haircut floors to zero", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes := &fakeQuotes{out: map[string]int64{"PancakeSwap": tt.outA, "BiSwap": 5000}}
			calc := NewCalculator(CalculatorConfig{
				Fees:    feeModel("0.0005"),
				Haircut: decimal.RequireFromString("0.5"),
			}, quotes, &fakeGas{wei: 1}, nil)
			memo := NewMemoizer(0)
			t.Cleanup(memo.Close)
			s := NewScanner(ScannerConfig{Mode: domain.ModeTwoHop}, calc, memo, nil, &fakeExecutor{}, &fakeReporter{}, nil, logger.NewDiscard())

			if err := s.Step(context.Background(), candidate()); err != nil {
				t.Fatalf("Step() error = %v", err)
			}
			if memo.Len() != tt.wantMemo {
				t.Errorf("memo.Len() = %d, want %d", memo.Len(), tt.wantMemo)
			}
		})
	}
}

func TestScanner_ExecutionFailureIsFatal(t *testing.T) {
	cand := candidate()
	checker := newFakeChecker()
	checker.out[cand.Route().Key()] = new(big.Int).Mul(wbnb.One(), big.NewInt(2))

	tests := []struct {
		name         string
		exec         *fakeExecutor
		wantWithdraw int
	}{
		{"execute reverts", &fakeExecutor{executeErr: apperror.New(apperror.CodeExecutionReverted)}, 0},
		{"withdraw fails", &fakeExecutor{withdrawErr: apperror.New(apperror.CodeWithdrawFailed)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, _ := NewExhaustive(Universe{
				Assets: []domain.TradableAsset{cand.AssetIn, {Asset: busd}},
				Venues: []*asset.Venue{pancake, biswap},
			})
			rep := &fakeReporter{}
			s, memo := newTestScanner(t, ScannerConfig{}, sampler, checker, tt.exec, rep)

			err := s.Run(context.Background())
			if apperror.GetCode(err) != apperror.CodeExecutionFatal {
				t.Fatalf("Run() code = %v, want %v", apperror.GetCode(err), apperror.CodeExecutionFatal)
			}
			if len(tt.exec.executed) != 1 {
				t.Errorf("executed %d times, want exactly 1", len(tt.exec.executed))
			}
			if len(tt.exec.withdrawn) != tt.wantWithdraw {
				t.Errorf("withdrawn %d, want %d", len(tt.exec.withdrawn), tt.wantWithdraw)
			}
			if memo.Len() != 0 {
				t.Errorf("failed route memoized")
			}
			if len(rep.executed) != 0 {
				t.Errorf("failed execution reported as executed")
			}
		})
	}
}

func TestScanner_DryRunWhenVaultMissing(t *testing.T) {
	cand := candidate()
	checker := newFakeChecker()
	checker.out[cand.Route().Key()] = new(big.Int).Mul(wbnb.One(), big.NewInt(2))
	exec := &fakeExecutor{executeErr: executionDomain.ErrNotConfigured}
	s, _ := newTestScanner(t, ScannerConfig{}, nil, checker, exec, &fakeReporter{})

	if err := s.Step(context.Background(), cand); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if len(exec.withdrawn) != 0 {
		t.Errorf("withdraw after a dry run")
	}
}

func TestScanner_AmountMultiplier(t *testing.T) {
	cand := candidate()
	s, _ := newTestScanner(t, ScannerConfig{AmountMultiplier: decimal.RequireFromString("1.5")}, nil, newFakeChecker(), &fakeExecutor{}, &fakeReporter{})

	low := decimal.RequireFromString("1.5")
	high := decimal.RequireFromString("3")
	for i := 0; i < 100; i++ {
		got := wbnb.FromBaseUnits(s.amountIn(cand))
		if got.LessThan(low) || !got.LessThan(high) {
			t.Fatalf("amount %s outside [1.5, 3)", got)
		}
		if !got.Equal(got.Truncate(2)) {
			t.Fatalf("amount %s has more than two decimals", got)
		}
	}

	plain, _ := newTestScanner(t, ScannerConfig{}, nil, newFakeChecker(), &fakeExecutor{}, &fakeReporter{})
	if got := plain.amountIn(cand); got.Cmp(wbnb.One()) != 0 {
		t.Errorf("amountIn = %s, want base amount", got)
	}
}

func TestScanner_StopsOnCancel(t *testing.T) {
	sampler, _ := NewUniformRandom(universe(), rand.New(rand.NewPCG(3, 3)))
	checker := newFakeChecker()
	checker.err = errors.New("rpc unavailable")
	s, _ := newTestScanner(t, ScannerConfig{PollDelay: time.Hour}, sampler, checker, &fakeExecutor{}, &fakeReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancel", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop after cancel")
	}
}
