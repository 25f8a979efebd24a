// Command report regenerates the Markdown report and CSV trade ledger
// from the stored trade ledger, without re-running the simulation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"granville-signal-lab/internal/config"
	"granville-signal-lab/internal/reporting"
	"granville-signal-lab/internal/storage/clickhouse"
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
		log.Fatal().Msg("report requires storage.backend: db")
	}

	ctx := context.Background()

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

	tradeStore := postgres.NewTradeStore(pool)
	gen := reporting.NewGenerator(tradeStore, clickhouse.NewBarStore(conn))

	report, err := gen.Generate(ctx, cfg.Simulation.Digest(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("generate report")
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}

	md := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "REPORT.md"), []byte(md), 0o644); err != nil {
		log.Fatal().Err(err).Msg("write report")
	}

	trades, err := tradeStore.GetAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load trades")
	}
	csv := reporting.RenderLedgerCSV(trades)
	if err := os.WriteFile(filepath.Join(cfg.OutputDir, "trade_ledger.csv"), []byte(csv), 0o644); err != nil {
		log.Fatal().Err(err).Msg("write ledger")
	}

	log.Info().Int("trades", len(trades)).Str("output_dir", cfg.OutputDir).Msg("report written")
}
