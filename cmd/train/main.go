// Command train runs the walk-forward evaluation over stored training
// examples and persists the final model plus its metrics metadata.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"granville-signal-lab/internal/config"
	"granville-signal-lab/internal/observability"
	"granville-signal-lab/internal/pipeline"
	"granville-signal-lab/internal/storage"
	"granville-signal-lab/internal/storage/memory"
	"granville-signal-lab/internal/storage/postgres"
	"granville-signal-lab/internal/walkforward"
	"granville-signal-lab/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional, defaults apply)")
	outputDir := flag.String("output-dir", "out", "Output directory for model artifacts")
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

	ctx := context.Background()

	exampleStore, cleanup, err := openExampleStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("open example store")
	}
	defer cleanup()

	examples, err := exampleStore.GetAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load training examples")
	}
	log.Info().Int("examples", len(examples)).Msg("training examples loaded")

	result, err := walkforward.Run(examples, cfg.Training)
	if err != nil {
		log.Fatal().Err(err).Msg("walk-forward training failed")
	}
	for _, f := range result.Folds {
		observability.RecordFold(f.Skipped)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create output dir")
	}
	modelPath := filepath.Join(*outputDir, "model.json")
	metaPath := filepath.Join(*outputDir, "model_meta.json")
	if err := walkforward.Persist(result, modelPath, metaPath, time.Now()); err != nil {
		log.Fatal().Err(err).Msg("persist model")
	}

	log.Info().
		Float64("auc", result.AUC).
		Float64("accuracy", result.Accuracy).
		Int("folds", len(result.Folds)).
		Int("predictions", len(result.Predictions)).
		Str("model", modelPath).
		Msg("training complete")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openExampleStore returns the configured example source. The memory
// backend has no persisted examples, so it runs the fixture pipeline
// first and trains on its output.
func openExampleStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.ExampleStore, func(), error) {
	if cfg.Storage.Backend == "db" {
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, func() {}, err
		}
		return postgres.NewExampleStore(pool), pool.Close, nil
	}

	barStore := memory.NewBarStore()
	seriesStore := memory.NewSeriesStore()
	metaStore := memory.NewMetaStore()
	featureStore := memory.NewFeatureStore()
	tradeStore := memory.NewTradeStore()
	exampleStore := memory.NewExampleStore()

	if err := pipeline.LoadFixtures(ctx, barStore, seriesStore, metaStore); err != nil {
		return nil, func() {}, err
	}
	p := pipeline.New(
		barStore, seriesStore, metaStore, featureStore, tradeStore, exampleStore,
		cfg.Simulation, cfg.Regime, "", log,
	)
	if _, err := p.Run(ctx); err != nil {
		return nil, func() {}, err
	}
	return exampleStore, func() {}, nil
}
