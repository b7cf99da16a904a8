// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/business/arbitrage/app"
	"github.com/fd1az/defi-trader/business/arbitrage/domain"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/internal/logger"
)

var _ app.Reporter = (*ConsoleReporter)(nil)

const rule = "================================================================================"

// ConsoleReporter prints opportunities as text blocks and logs them.
type ConsoleReporter struct {
	mu     sync.Mutex
	out    io.Writer
	logger logger.LoggerInterface
}

// NewConsoleReporter creates a reporter writing to w; nil means stdout.
func NewConsoleReporter(w io.Writer, log logger.LoggerInterface) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{out: w, logger: log}
}

// Report prints a detected opportunity.
func (r *ConsoleReporter) Report(ctx context.Context, opp *domain.Opportunity) {
	res := opp.Result
	r.logger.Info(ctx, "arbitrage opportunity",
		"id", opp.ID,
		"route", res.Route.Key(),
		"mode", res.Mode,
		"amount_in", res.AmountIn,
		"amount_out", res.AmountOut,
		"expected", res.ExpectedAmountOut,
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := res.Route.AssetIn
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", opp.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Route:          %s -> %s\n", res.Route.VenueFrom, res.Route.VenueTo)
	fmt.Fprintf(r.out, "Pair:           %s/%s\n", res.Route.AssetIn, res.Route.AssetOut)
	fmt.Fprintf(r.out, "Mode:           %s\n", res.Mode)
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "AMOUNTS")
	fmt.Fprintf(r.out, "  Borrowed:       %s %s\n", opp.Human(res.AmountIn), symbol)
	fmt.Fprintf(r.out, "  Repayment:      %s %s\n", res.ExpectedExact.Shift(-int32(opp.AssetIn.Decimals())), symbol)
	fmt.Fprintf(r.out, "  Returned:       %s %s\n", opp.Human(res.AmountOut), symbol)
	for i, l := range res.Legs {
		fmt.Fprintf(r.out, "  Leg %d:          %s %s->%s, gas %d\n", i+1, l.Venue, l.AssetIn, l.AssetOut, l.GasEstimate)
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	if res.GasCost != nil {
		fmt.Fprintf(r.out, "  Gas Cost:       %s %s\n", opp.Human(res.GasCost), symbol)
	}
	fmt.Fprintf(r.out, "  Net:            %s %s\n", res.Profit.Shift(-int32(opp.AssetIn.Decimals())).StringFixed(6), symbol)
	fmt.Fprintln(r.out, rule)
}

// Executed prints the execution outcome of a reported opportunity.
func (r *ConsoleReporter) Executed(ctx context.Context, opp *domain.Opportunity, receipt *executionDomain.Receipt) {
	tx, status, gas := "-", "unknown", uint64(0)
	if receipt != nil {
		tx, status, gas = receipt.TxHash.Hex(), string(receipt.Status), receipt.GasUsed
	}
	r.logger.Info(ctx, "arbitrage executed", "id", opp.ID, "route", opp.Result.Route.Key(), "tx", tx, "status", status)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] executed %s: tx %s (%s, gas %d)\n",
		time.Now().Format("15:04:05"), opp.Result.Route.Key(), tx, status, gas)
}

// Summary prints end-of-run counters.
func (r *ConsoleReporter) Summary(stats app.ScanStats, memoized int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rate := decimal.Zero
	if stats.Checks > 0 {
		rate = decimal.NewFromInt(int64(stats.Opportunities)).Div(decimal.NewFromInt(int64(stats.Checks))).Mul(decimal.NewFromInt(100))
	}
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Scanner Stopped")
	fmt.Fprintf(r.out, "  Elapsed:        %s\n", elapsed.Round(time.Second))
	fmt.Fprintf(r.out, "  Checks:         %d\n", stats.Checks)
	fmt.Fprintf(r.out, "  Opportunities:  %d (%s%%)\n", stats.Opportunities, rate.StringFixed(2))
	fmt.Fprintf(r.out, "  Executed:       %d\n", stats.Executed)
	fmt.Fprintf(r.out, "  Memoized:       %d\n", memoized)
	fmt.Fprintf(r.out, "  Passes:         %d\n", stats.Passes)
}
