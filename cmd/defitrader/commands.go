package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	arbitrageDI "github.com/fd1az/defi-trader/business/arbitrage/di"
	executionDI "github.com/fd1az/defi-trader/business/execution/di"
	executionDomain "github.com/fd1az/defi-trader/business/execution/domain"
	"github.com/fd1az/defi-trader/business/execution/infra/journal"
	"github.com/fd1az/defi-trader/business/execution/infra/sqlite"
	perpDI "github.com/fd1az/defi-trader/business/perp/di"
	"github.com/fd1az/defi-trader/business/trade"
	tradeDI "github.com/fd1az/defi-trader/business/trade/di"
	"github.com/fd1az/defi-trader/internal/asset"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/keystore"
	"github.com/fd1az/defi-trader/internal/monolith"
)

func scanCmd(flags *globalFlags) *cobra.Command {
	var (
		mode     string
		sampling string
		passes   int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan DEX routes for flash-loan arbitrage and execute what pays",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, func(c *config.Config) {
				if mode != "" {
					c.Arbitrage.Mode = mode
				}
				if sampling != "" {
					c.Arbitrage.Sampling = sampling
				}
				if cmd.Flags().Changed("passes") {
					c.Arbitrage.Passes = passes
				}
				if cmd.Flags().Changed("seed") {
					c.Arbitrage.Seed = seed
				}
			})
			if err != nil {
				return err
			}
			if err := cfg.ValidateLive(); err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			scanner := arbitrageDI.GetScanner(app.services)
			reporter := arbitrageDI.GetReporter(app.services)
			memo := arbitrageDI.GetMemoizer(app.services)

			began := time.Now()
			runErr := scanner.Run(ctx)
			reporter.Summary(scanner.Stats(), memo.Len(), time.Since(began))
			return runErr
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Check mode: two_hop or single_call")
	cmd.Flags().StringVar(&sampling, "sampling", "", "Candidate order: random or exhaustive")
	cmd.Flags().IntVar(&passes, "passes", 0, "Exhaustive passes before exiting (0 = forever)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time based)")
	return cmd
}

func perpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "perp",
		Short: "Run the leveraged trend trader on live prices",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			if cfg.Perp.ReplayFile == "" {
				if err := cfg.ValidateLive(); err != nil {
					return err
				}
			}
			return runTrader(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func simulateCmd(flags *globalFlags) *cobra.Command {
	var column int

	cmd := &cobra.Command{
		Use:   "simulate <prices.csv>",
		Short: "Replay recorded prices through the trader with paper fills",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("price file: %w", err)
			}
			cfg, err := loadConfig(flags, func(c *config.Config) {
				c.Perp.ReplayFile = args[0]
				c.Perp.ReplayColumn = column
				c.Perp.OperatingHours.Enabled = false
				c.Execution.Mode = config.ExecutionPaper
				c.Journal.Driver = config.JournalMemory
				c.Lock.Enabled = false
				c.Telemetry.Enabled = false
				c.Telemetry.HealthPort = 0
			})
			if err != nil {
				return err
			}
			return runTrader(cmd.Context(), cmd.OutOrStdout(), cfg, monolith.Offline())
		},
	}

	cmd.Flags().IntVar(&column, "column", 4, "Zero-based CSV column holding the price")
	return cmd
}

func runTrader(ctx context.Context, out io.Writer, cfg *config.Config, opts ...monolith.Option) error {
	app, err := start(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	trader := perpDI.GetTrader(app.services)
	if trader == nil {
		return errors.New("no price source: configure ethereum.rpc_url or perp.replay_file")
	}

	if err := trader.Run(ctx); err != nil {
		return err
	}

	m := trader.Manager()
	st := m.State()
	instrument := m.Instrument()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Ticks:\t%d\n", trader.Ticks())
	fmt.Fprintf(tw, "Trades:\t%d (%d won)\n", st.Trades, st.Wins)
	fmt.Fprintf(tw, "Position:\t%s\n", st.Position.Side)
	if !st.Position.IsFlat() {
		fmt.Fprintf(tw, "Collateral:\t%s %s\n", instrument.FromBaseUnits(st.Position.Notional).StringFixed(6), instrument.Symbol())
	}
	fmt.Fprintf(tw, "Balance:\t%s %s\n", instrument.FromBaseUnits(st.Ledger.Balance()).StringFixed(6), instrument.Symbol())
	if mem, ok := executionDI.GetJournal(app.services).(*journal.Memory); ok {
		fmt.Fprintf(tw, "Journal:\t%d opened, %d closed\n",
			mem.Count(executionDomain.KindOpenPosition, executionDomain.StatusConfirmed),
			mem.Count(executionDomain.KindClosePosition, executionDomain.StatusConfirmed))
	}
	return tw.Flush()
}

func tradeCmd(flags *globalFlags) *cobra.Command {
	var (
		iterations int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Poll the trade vault and execute the spot trades it reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, func(c *config.Config) {
				if cmd.Flags().Changed("iterations") {
					c.Trade.Iterations = iterations
				}
				if cmd.Flags().Changed("seed") {
					c.Trade.Seed = seed
				}
			})
			if err != nil {
				return err
			}
			if err := cfg.ValidateLive(); err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			engine := tradeDI.GetEngine(app.services)
			if engine == nil {
				network := app.services.Get(monolith.ServiceNetwork).(*asset.Network)
				if _, _, err := trade.Resolve(network, cfg.Trade); err != nil {
					return err
				}
				return errors.New("no chain client: configure ethereum.rpc_url")
			}

			began := time.Now()
			runErr := engine.Run(ctx)

			st := engine.Stats()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Checks:\t%d\n", st.Checks)
			fmt.Fprintf(tw, "Buys:\t%d\n", st.Buys)
			fmt.Fprintf(tw, "Sells:\t%d\n", st.Sells)
			fmt.Fprintf(tw, "Idle:\t%d\n", st.Idle)
			fmt.Fprintf(tw, "Skipped:\t%d\n", st.Skipped)
			fmt.Fprintf(tw, "Elapsed:\t%s\n", time.Since(began).Round(time.Second))
			if err := tw.Flush(); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 0, "Checks before exiting (0 = forever)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for the token pick (0 = time based)")

	cmd.AddCommand(&cobra.Command{
		Use:   "withdraw <SYMBOL|native>",
		Short: "Sweep a trade vault balance to the operator wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			if err := cfg.ValidateLive(); err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			var token *asset.Asset
			if !strings.EqualFold(args[0], "native") {
				network := app.services.Get(monolith.ServiceNetwork).(*asset.Network)
				if token, err = network.Asset(args[0]); err != nil {
					return err
				}
			}

			receipt, err := executionDI.GetGateway(app.services).WithdrawTrade(ctx, token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "trade withdraw %s: tx %s (%s, gas %d)\n",
				args[0], receipt.TxHash.Hex(), receipt.Status, receipt.GasUsed)
			return nil
		},
	})
	return cmd
}

func withdrawCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <SYMBOL|native>",
		Short: "Sweep vault or portal balances to the operator wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			if err := cfg.ValidateLive(); err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := start(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			gateway := executionDI.GetGateway(app.services)

			var receipt *executionDomain.Receipt
			if strings.EqualFold(args[0], "native") {
				receipt, err = gateway.WithdrawNative(ctx)
			} else {
				network := app.services.Get(monolith.ServiceNetwork).(*asset.Network)
				a, aerr := network.Asset(args[0])
				if aerr != nil {
					return aerr
				}
				receipt, err = gateway.Withdraw(ctx, a)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "withdraw %s: tx %s (%s, gas %d)\n",
				args[0], receipt.TxHash.Hex(), receipt.Status, receipt.GasUsed)
			return nil
		},
	}
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent writes from the sqlite journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			if cfg.Journal.Driver != config.JournalSQLite {
				return fmt.Errorf("history needs journal.driver=sqlite, got %q", cfg.Journal.Driver)
			}

			ctx := cmd.Context()
			j, err := sqlite.Open(ctx, cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer j.Close()

			records, err := j.Recent(ctx, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tKIND\tSUBJECT\tSTATUS\tTX\tGAS")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
					r.StartedAt.Format(time.DateTime), r.Kind, r.Subject, r.Status, r.TxHash, r.GasUsed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of records to show")
	return cmd
}

func keysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the operator signing key",
	}

	var (
		out      string
		password string
	)
	encrypt := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a hex private key read from stdin into a key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("DEFI_KEY_PASSWORD")
			}
			if password == "" {
				return errors.New("a password is required (--password or DEFI_KEY_PASSWORD)")
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}

			data, err := keystore.Encrypt(strings.TrimSpace(line), password)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "key written to %s\n", out)
			return nil
		},
	}
	encrypt.Flags().StringVarP(&out, "out", "o", "operator.key", "Key file to write")
	encrypt.Flags().StringVar(&password, "password", "", "Encryption password (defaults to DEFI_KEY_PASSWORD)")

	cmd.AddCommand(encrypt)
	return cmd
}
