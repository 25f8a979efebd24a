// Command pipeline runs the end-to-end backtest on the in-memory backend
// with a deterministic fixture universe: features, regime gate, signal
// detection, simulation, labeling and report generation.
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
	"granville-signal-lab/internal/storage/memory"
	"granville-signal-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	outputDir := flag.String("output-dir", "out", "Output directory for generated files")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Warn().Stringer("signal", s).Msg("cancelling pipeline")
		cancel()
	}()

	barStore := memory.NewBarStore()
	seriesStore := memory.NewSeriesStore()
	metaStore := memory.NewMetaStore()
	featureStore := memory.NewFeatureStore()
	tradeStore := memory.NewTradeStore()
	exampleStore := memory.NewExampleStore()

	if err := pipeline.LoadFixtures(ctx, barStore, seriesStore, metaStore); err != nil {
		log.Fatal().Err(err).Msg("load fixtures")
	}

	p := pipeline.New(
		barStore, seriesStore, metaStore, featureStore, tradeStore, exampleStore,
		cfg.Simulation, cfg.Regime, *outputDir, log,
	)

	res, err := p.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline failed")
	}

	log.Info().
		Int("signals", len(res.Signals)).
		Int("trades", len(res.Trades)).
		Int("examples", len(res.Examples)).
		Str("output_dir", *outputDir).
		Msg("pipeline complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
