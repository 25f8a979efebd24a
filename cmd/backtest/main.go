// Command backtest runs the full backtest against the database backend:
// Postgres for metadata, series, trades and training examples, ClickHouse
// for bars and feature rows. Migrations are applied on startup.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"granville-signal-lab/internal/config"
	"granville-signal-lab/internal/pipeline"
	"granville-signal-lab/internal/storage/clickhouse"
	"granville-signal-lab/internal/storage/migrations"
	"granville-signal-lab/internal/storage/postgres"
	"granville-signal-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	outputDir := flag.String("output-dir", "", "Override output directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Backend != "db" {
		log.Fatal().Msg("backtest requires storage.backend: db (use cmd/pipeline for the fixture run)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Warn().Stringer("signal", s).Msg("cancelling backtest")
		cancel()
	}()

	pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	conn, err := clickhouse.NewConn(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect clickhouse")
	}
	defer conn.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("postgres migrations")
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("clickhouse migrations")
	}

	p := pipeline.New(
		clickhouse.NewBarStore(conn),
		postgres.NewSeriesStore(pool),
		postgres.NewMetaStore(pool),
		clickhouse.NewFeatureStore(conn),
		postgres.NewTradeStore(pool),
		postgres.NewExampleStore(pool),
		cfg.Simulation, cfg.Regime, cfg.OutputDir, log,
	)

	res, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}

	log.Info().
		Int("signals", len(res.Signals)).
		Int("trades", len(res.Trades)).
		Str("output_dir", cfg.OutputDir).
		Msg("backtest complete")
}
