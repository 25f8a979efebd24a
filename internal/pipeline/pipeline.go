// Package pipeline orchestrates the full backtest: feature computation,
// regime gating, signal detection, trade simulation, outcome labeling and
// report generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/features"
	"granville-signal-lab/internal/labeling"
	"granville-signal-lab/internal/observability"
	"granville-signal-lab/internal/regime"
	"granville-signal-lab/internal/reporting"
	"granville-signal-lab/internal/signal"
	"granville-signal-lab/internal/simulation"
	"granville-signal-lab/internal/storage"
)

// ErrEmptyUniverse means the bar store holds no tickers at all. A backtest
// over nothing is a configuration mistake, not an empty result.
var ErrEmptyUniverse = errors.New("price universe is empty")

// Pipeline runs the batch backtest against a set of stores.
type Pipeline struct {
	barStore     storage.BarStore
	seriesStore  storage.SeriesStore
	metaStore    storage.MetaStore
	featureStore storage.FeatureStore
	tradeStore   storage.TradeStore
	exampleStore storage.ExampleStore

	simCfg    domain.SimConfig
	regimeCfg domain.RegimeConfig

	outputDir string
	clock     func() time.Time
	log       zerolog.Logger
}

// New wires a pipeline. outputDir may be empty to skip file outputs.
func New(
	barStore storage.BarStore,
	seriesStore storage.SeriesStore,
	metaStore storage.MetaStore,
	featureStore storage.FeatureStore,
	tradeStore storage.TradeStore,
	exampleStore storage.ExampleStore,
	simCfg domain.SimConfig,
	regimeCfg domain.RegimeConfig,
	outputDir string,
	log zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		barStore:     barStore,
		seriesStore:  seriesStore,
		metaStore:    metaStore,
		featureStore: featureStore,
		tradeStore:   tradeStore,
		exampleStore: exampleStore,
		simCfg:       simCfg,
		regimeCfg:    regimeCfg,
		outputDir:    outputDir,
		clock:        func() time.Time { return time.Now().UTC() },
		log:          log,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Result carries the in-memory outputs of one pipeline run.
type Result struct {
	Signals  []*domain.Signal
	Trades   []*domain.Trade
	Examples []*domain.TrainingExample
	Report   *reporting.Report
}

// Run executes the full backtest and, when an output directory is set,
// writes REPORT.md and trade_ledger.csv.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := p.clock()

	res, err := p.run(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordPipelineRun("backtest", status, p.clock().Sub(started).Seconds())
	return res, err
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	universe, meta, index, macro, err := p.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}

	// 1. Features.
	rowsByTicker, droppedBars := features.ComputeUniverse(universe, meta, index)
	if droppedBars > 0 {
		p.log.Warn().Int("dropped_bars", droppedBars).Msg("malformed bars excluded from features")
	}
	rowCount := 0
	for _, rows := range rowsByTicker {
		rowCount += len(rows)
		if err := p.featureStore.InsertBulk(ctx, rows); err != nil {
			return nil, fmt.Errorf("persist features: %w", err)
		}
	}
	observability.RecordFeaturesComputed(len(rowsByTicker), droppedBars, rowCount)

	// 2. Regime gate and signal detection.
	gate := regime.Compute(index, macro, p.regimeCfg)
	detector := signal.NewDetector(gate, p.regimeCfg)
	signals := detector.Detect(rowsByTicker)
	for _, s := range signals {
		observability.RecordSignalDetected(s.Label())
	}
	p.log.Info().Int("signals", len(signals)).Int("gate_days", len(gate)).Msg("signals detected")

	// 3. Simulation.
	engine, err := simulation.NewEngine(p.simCfg)
	if err != nil {
		return nil, err
	}
	runner := simulation.NewRunner(engine, p.barStore, p.featureStore, p.tradeStore, p.log)
	trades, err := runner.RunAll(ctx, signals)
	if err != nil {
		return nil, err
	}

	// 4. Labeling. Signals and trades join on signal_id.
	sigByID := make(map[string]*domain.Signal, len(signals))
	for _, s := range signals {
		sigByID[s.SignalID] = s
	}
	examples := make([]*domain.TrainingExample, 0, len(trades))
	for _, t := range trades {
		s, ok := sigByID[t.SignalID]
		if !ok {
			return nil, fmt.Errorf("trade %s references unknown signal %s", t.TradeID, t.SignalID)
		}
		examples = append(examples, labeling.Assemble(s, t))
	}
	if len(examples) > 0 {
		if err := p.exampleStore.InsertBulk(ctx, examples); err != nil {
			return nil, fmt.Errorf("persist examples: %w", err)
		}
	}

	// 5. Report.
	gen := reporting.NewGenerator(p.tradeStore, p.barStore).WithClock(p.clock)
	report, err := gen.Generate(ctx, p.simCfg.Digest(), nil)
	if err != nil {
		return nil, err
	}

	if p.outputDir != "" {
		if err := p.writeOutputs(ctx, report); err != nil {
			return nil, err
		}
	}

	return &Result{Signals: signals, Trades: trades, Examples: examples, Report: report}, nil
}

func (p *Pipeline) loadInputs(ctx context.Context) (map[string][]*domain.PriceBar, map[string]domain.TickerMeta, []domain.IndexPoint, []domain.IndexPoint, error) {
	tickers, err := p.barStore.Tickers(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("list tickers: %w", err)
	}

	universe := make(map[string][]*domain.PriceBar, len(tickers))
	for _, ticker := range tickers {
		bars, err := p.barStore.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("load bars for %s: %w", ticker, err)
		}
		universe[ticker] = bars
	}

	meta, err := p.metaStore.GetAll(ctx)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load ticker metadata: %w", err)
	}

	index, err := p.seriesStore.Get(ctx, storage.SeriesIndex)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load index series: %w", err)
	}
	macro, err := p.seriesStore.Get(ctx, storage.SeriesMacroLeading)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load macro series: %w", err)
	}

	return universe, meta, index, macro, nil
}

func (p *Pipeline) writeOutputs(ctx context.Context, report *reporting.Report) error {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	md := reporting.RenderMarkdown(report)
	if err := os.WriteFile(filepath.Join(p.outputDir, "REPORT.md"), []byte(md), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	trades, err := p.tradeStore.GetAll(ctx)
	if err != nil {
		return err
	}
	csv := reporting.RenderLedgerCSV(trades)
	if err := os.WriteFile(filepath.Join(p.outputDir, "trade_ledger.csv"), []byte(csv), 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}

	p.log.Info().Str("dir", p.outputDir).Msg("pipeline outputs written")
	return nil
}
