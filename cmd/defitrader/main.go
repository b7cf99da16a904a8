// Package main is the entry point for the DeFi trading engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	network    string
	paper      bool
	logLevel   string
}

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "defitrader",
		Short: "DEX arbitrage scanner and leveraged directional trader",
		Long: `defitrader checks flash-loan arbitrage routes across DEX routers and
runs a trend-following leveraged trader against a perpetual portal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVarP(&flags.network, "network", "n", "", "Registry network (overrides network.name)")
	root.PersistentFlags().BoolVar(&flags.paper, "paper", false, "Simulate writes instead of sending transactions")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(scanCmd(&flags))
	root.AddCommand(perpCmd(&flags))
	root.AddCommand(simulateCmd(&flags))
	root.AddCommand(tradeCmd(&flags))
	root.AddCommand(withdrawCmd(&flags))
	root.AddCommand(historyCmd(&flags))
	root.AddCommand(keysCmd())
	root.AddCommand(versionCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "defitrader %s (commit: %s, built: %s)\n", version, commit, buildDate)
		},
	}
}
