// Package walkforward trains and evaluates the signal-quality filter with
// an expanding-window, month-by-month scheme: each test month is predicted
// by a model fit only on strictly earlier months. A random k-fold split
// would leak future information on a non-stationary financial series.
package walkforward

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"granville-signal-lab/internal/domain"
	"granville-signal-lab/internal/ml"
)

// Trainer errors.
var (
	ErrNoExamples    = errors.New("no training examples supplied")
	ErrNoUsableFolds = errors.New("no usable walk-forward folds: not enough historical depth")
)

// DefaultSweepThresholds are the probability cutoffs in the sweep table.
var DefaultSweepThresholds = []float64{0.40, 0.45, 0.50, 0.55, 0.60}

// FoldReport summarizes one test month.
type FoldReport struct {
	TestMonth  int `json:"test_month"` // YYYYMM
	TrainCount int `json:"train_count"`
	TestCount  int `json:"test_count"`
	Skipped    bool `json:"skipped"`
}

// Result is the full walk-forward evaluation output.
type Result struct {
	FeatureNames []string // columns surviving the missingness filter
	DroppedNames []string // columns removed for excess missingness

	Folds       []FoldReport
	Predictions []Prediction // pooled out-of-sample, chronological

	AUC       float64
	Accuracy  float64
	Quintiles []QuintileRow
	Sweep     []SweepRow

	// FinalModel is retrained on the entire dataset after evaluation,
	// for persistence and later inference.
	FinalModel *ml.Classifier
}

// Run evaluates and trains on examples ordered by date. Folds are
// iterated chronologically; each month's model sees only prior months.
func Run(examples []*domain.TrainingExample, cfg domain.TrainConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	sorted := make([]*domain.TrainingExample, len(examples))
	copy(sorted, examples)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SignalDate != sorted[j].SignalDate {
			return sorted[i].SignalDate < sorted[j].SignalDate
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})

	fullX := make([][]float64, len(sorted))
	labels := make([]bool, len(sorted))
	for i, e := range sorted {
		fullX[i] = e.Features.Vector()
		labels[i] = e.Win
	}

	kept, dropped := filterColumns(fullX, domain.FeatureNames(), cfg.MaxMissingRatio)
	x := projectColumns(fullX, kept)
	keptNames := namesAt(domain.FeatureNames(), kept)
	droppedNames := namesAt(domain.FeatureNames(), dropped)

	params := ml.Params{
		NumTrees:     cfg.NumTrees,
		MaxDepth:     cfg.MaxDepth,
		LearningRate: cfg.LearningRate,
		MinLeaf:      cfg.MinLeaf,
		Lambda:       1.0,
	}

	months := monthBoundaries(sorted)
	result := &Result{FeatureNames: keptNames, DroppedNames: droppedNames}

	for mi, m := range months {
		if mi < cfg.MinTrainMonths {
			continue
		}
		trainEnd := m.start // strictly prior months only
		testStart, testEnd := m.start, m.end

		report := FoldReport{
			TestMonth:  m.key,
			TrainCount: trainEnd,
			TestCount:  testEnd - testStart,
		}

		if trainEnd < cfg.MinFoldExamples || testEnd == testStart {
			report.Skipped = true
			result.Folds = append(result.Folds, report)
			continue
		}

		model, err := ml.Train(x[:trainEnd], labels[:trainEnd], keptNames, params)
		if err != nil {
			if errors.Is(err, ml.ErrSingleClass) {
				report.Skipped = true
				result.Folds = append(result.Folds, report)
				continue
			}
			return nil, fmt.Errorf("train fold %d: %w", m.key, err)
		}

		for i := testStart; i < testEnd; i++ {
			prob, err := model.PredictProb(x[i])
			if err != nil {
				return nil, fmt.Errorf("predict fold %d: %w", m.key, err)
			}
			result.Predictions = append(result.Predictions, Prediction{
				MonthKey: m.key,
				Prob:     prob,
				Win:      labels[i],
			})
		}
		result.Folds = append(result.Folds, report)
	}

	if len(result.Predictions) == 0 {
		return nil, ErrNoUsableFolds
	}

	result.AUC = AUC(result.Predictions)
	result.Accuracy = Accuracy(result.Predictions)
	result.Quintiles = Quintiles(result.Predictions)
	result.Sweep = ThresholdSweep(result.Predictions, DefaultSweepThresholds)

	final, err := ml.Train(x, labels, keptNames, params)
	if err != nil {
		return nil, fmt.Errorf("train final model: %w", err)
	}
	result.FinalModel = final

	return result, nil
}

type monthSpan struct {
	key        int // YYYYMM
	start, end int // half-open index range into the sorted examples
}

func monthBoundaries(sorted []*domain.TrainingExample) []monthSpan {
	var months []monthSpan
	for i, e := range sorted {
		key := e.SignalDate.MonthKey()
		if len(months) == 0 || months[len(months)-1].key != key {
			if len(months) > 0 {
				months[len(months)-1].end = i
			}
			months = append(months, monthSpan{key: key, start: i})
		}
	}
	if len(months) > 0 {
		months[len(months)-1].end = len(sorted)
	}
	return months
}

// filterColumns drops feature columns whose missingness exceeds the
// configured ratio across the whole dataset. Imputing them instead would
// teach the model to exploit coverage artifacts.
func filterColumns(x [][]float64, names []string, maxMissing float64) (kept, dropped []int) {
	if len(x) == 0 {
		return nil, nil
	}
	n := float64(len(x))
	for col := range names {
		missing := 0
		for _, row := range x {
			if math.IsNaN(row[col]) {
				missing++
			}
		}
		if float64(missing)/n > maxMissing {
			dropped = append(dropped, col)
		} else {
			kept = append(kept, col)
		}
	}
	return kept, dropped
}

func projectColumns(x [][]float64, cols []int) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		pr := make([]float64, len(cols))
		for j, c := range cols {
			pr[j] = row[c]
		}
		out[i] = pr
	}
	return out
}

func namesAt(names []string, cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = names[c]
	}
	return out
}
