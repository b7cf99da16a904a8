package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fd1az/defi-trader/business/arbitrage"
	"github.com/fd1az/defi-trader/business/blockchain"
	"github.com/fd1az/defi-trader/business/execution"
	"github.com/fd1az/defi-trader/business/perp"
	"github.com/fd1az/defi-trader/business/pricing"
	"github.com/fd1az/defi-trader/business/trade"
	"github.com/fd1az/defi-trader/internal/apm"
	"github.com/fd1az/defi-trader/internal/config"
	"github.com/fd1az/defi-trader/internal/di"
	"github.com/fd1az/defi-trader/internal/logger"
	"github.com/fd1az/defi-trader/internal/metrics"
	"github.com/fd1az/defi-trader/internal/monolith"
)

// application is a started set of modules and telemetry.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	services di.ServiceRegistry
	closers  []func(context.Context) error
}

// Close shuts everything down in reverse start order.
func (rt *application) Close() {
	ctx := context.Background()
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			rt.log.Warn(ctx, "shutdown error", "error", err)
		}
	}
}

// loadConfig applies the global flags and mutate on top of the loaded
// configuration, then validates it.
func loadConfig(flags *globalFlags, mutate func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.network != "" {
		cfg.Network.Name = flags.network
	}
	if flags.paper {
		cfg.Execution.Mode = config.ExecutionPaper
	}
	if flags.logLevel != "" {
		cfg.App.LogLevel = flags.logLevel
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logger.Logger {
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	return logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
}

// start wires telemetry, the application container and every module in
// dependency order.
func start(ctx context.Context, cfg *config.Config, opts ...monolith.Option) (*application, error) {
	log := newLogger(cfg)
	log.Info(ctx, "starting defitrader",
		"version", version,
		"environment", cfg.App.Environment,
		"network", cfg.Network.Name,
		"execution", cfg.Execution.Mode,
	)

	rt := &application{cfg: cfg, log: log}

	if cfg.Telemetry.Enabled {
		if err := rt.startTelemetry(ctx); err != nil {
			rt.Close()
			return nil, err
		}
	}

	mono, err := monolith.New(ctx, cfg, log, append(opts, monolith.WithVersion(version))...)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return mono.Close() })

	modules := []monolith.Module{
		&blockchain.Module{}, // chain client, gas oracle, signer
		&pricing.Module{},    // router quotes
		&execution.Module{},  // contract writes, journal, wallet lock
		&arbitrage.Module{},
		&perp.Module{},
		&trade.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}
	rt.services = mono.Services()

	if cfg.Telemetry.HealthPort > 0 {
		hs := mono.Health()
		hs.Start()
		go func() {
			if err := <-hs.Err(); err != nil {
				log.Warn(ctx, "health server failed", "error", err)
			}
		}()
		rt.closers = append(rt.closers, hs.Stop)
		log.Info(ctx, "health server started", "port", cfg.Telemetry.HealthPort)
	}

	return rt, nil
}

func (rt *application) startTelemetry(ctx context.Context) error {
	cfg := rt.cfg.Telemetry

	tp, err := apm.NewTraceProvider(ctx, rt.log, apm.Config{
		ServiceName: cfg.ServiceName,
		Exporter:    cfg.TraceProvider,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	rt.closers = append(rt.closers, func(context.Context) error { return tp.Stop() })

	mp, err := metrics.NewProvider(ctx,
		metrics.WithServiceName(cfg.ServiceName),
		metrics.WithPrometheus(),
	)
	if err != nil {
		return fmt.Errorf("failed to start metrics: %w", err)
	}
	rt.closers = append(rt.closers, mp.Shutdown)

	port := cfg.PrometheusPort
	if port == 0 {
		port = 9090
	}
	srv := metrics.NewServer(port)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			rt.log.Warn(ctx, "metrics server failed", "error", err)
		}
	}()
	rt.closers = append(rt.closers, srv.Shutdown)
	rt.log.Info(ctx, "prometheus metrics server started", "port", port)
	return nil
}
