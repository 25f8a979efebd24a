package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Config validation errors.
var (
	ErrBadStopLoss    = errors.New("stop_loss_pct must be positive")
	ErrBadTakeProfit  = errors.New("tp_pct must be positive when set")
	ErrBadHoldDays    = errors.New("hold_days must be positive")
	ErrBadTrailing    = errors.New("trailing rule thresholds and stops must be non-negative")
	ErrBadTrainWindow = errors.New("min_train_months must be positive")
)

// TrailingRule raises the stop to entry*(1+NewStopPct/100) once the
// running max favorable excursion reaches GainThresholdPct.
type TrailingRule struct {
	GainThresholdPct float64 `yaml:"gain_threshold_pct"`
	NewStopPct       float64 `yaml:"new_stop_pct"`
}

// SimConfig is the full configuration surface of the trade simulator.
// It is passed by value at call time, never held in package globals, so
// multiple configurations can run concurrently in tests.
type SimConfig struct {
	StopLossPct   float64  `yaml:"sl_pct"`
	TakeProfitPct *float64 `yaml:"tp_pct"`
	MaxHoldDays   int      `yaml:"hold_days"`

	// TrailingRules are sorted by threshold descending once at load time;
	// the per-bar scan applies the first (best) matching rule only.
	TrailingRules []TrailingRule `yaml:"trailing_rules"`

	UseTechnicalExits bool `yaml:"use_technical_exits"`

	// TrailNextDayApply stages a freshly computed stop so it only takes
	// effect from the following bar, avoiding same-day look-ahead.
	TrailNextDayApply bool `yaml:"trail_next_day_apply"`

	// ExpiryAtNextOpen fills the max-hold exit at the following open
	// (Granville-exit variant) instead of the same bar's close.
	ExpiryAtNextOpen bool `yaml:"expiry_at_next_open"`

	// TimeDecayCutDay is the holding-day index (1-based) on whose close
	// the still-below-entry check is evaluated; the cut fills at the next
	// open. Zero disables the check.
	TimeDecayCutDay int `yaml:"time_decay_cut_day"`
}

// Normalize sorts trailing rules by threshold descending. Called once at
// configuration load; the simulator never re-sorts per bar.
func (c *SimConfig) Normalize() {
	sort.SliceStable(c.TrailingRules, func(i, j int) bool {
		return c.TrailingRules[i].GainThresholdPct > c.TrailingRules[j].GainThresholdPct
	})
}

// Validate checks the configuration surface.
func (c *SimConfig) Validate() error {
	if c.StopLossPct <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrBadStopLoss, c.StopLossPct)
	}
	if c.TakeProfitPct != nil && *c.TakeProfitPct <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrBadTakeProfit, *c.TakeProfitPct)
	}
	if c.MaxHoldDays <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadHoldDays, c.MaxHoldDays)
	}
	for _, r := range c.TrailingRules {
		if r.GainThresholdPct < 0 || r.NewStopPct < 0 {
			return fmt.Errorf("%w: %+v", ErrBadTrailing, r)
		}
	}
	return nil
}

// Digest produces a short stable identifier for this configuration, used
// in deterministic trade IDs.
func (c *SimConfig) Digest() string {
	tp := "none"
	if c.TakeProfitPct != nil {
		tp = fmt.Sprintf("%.2f", *c.TakeProfitPct)
	}
	s := fmt.Sprintf("sl%.2f_tp%s_hold%d_tech%t_nextday%t_expopen%t_cut%d",
		c.StopLossPct, tp, c.MaxHoldDays,
		c.UseTechnicalExits, c.TrailNextDayApply, c.ExpiryAtNextOpen, c.TimeDecayCutDay)
	for _, r := range c.TrailingRules {
		s += fmt.Sprintf("_t%.1f>%.1f", r.GainThresholdPct, r.NewStopPct)
	}
	return s
}

// RegimeConfig controls the market-wide gate.
type RegimeConfig struct {
	IndexSMAWindow      int      `yaml:"index_sma_window"`      // default 20
	MacroLookbackMonths int      `yaml:"macro_lookback_months"` // default 3
	ExcludedSectors     []string `yaml:"excluded_sectors"`
}

// ExcludedSet returns the exclusion list as a set.
func (c *RegimeConfig) ExcludedSet() map[string]bool {
	set := make(map[string]bool, len(c.ExcludedSectors))
	for _, s := range c.ExcludedSectors {
		set[s] = true
	}
	return set
}

// TrainConfig controls walk-forward training of the signal filter.
type TrainConfig struct {
	MinTrainMonths  int     `yaml:"min_train_months"` // e.g. 24
	MinFoldExamples int     `yaml:"min_fold_examples"`
	MaxMissingRatio float64 `yaml:"max_missing_ratio"` // drop columns above this

	// Boosting hyperparameters.
	NumTrees     int     `yaml:"num_trees"`
	MaxDepth     int     `yaml:"max_depth"`
	LearningRate float64 `yaml:"learning_rate"`
	MinLeaf      int     `yaml:"min_leaf"`
}

// Validate checks the training window.
func (c *TrainConfig) Validate() error {
	if c.MinTrainMonths <= 0 {
		return fmt.Errorf("%w: got %d", ErrBadTrainWindow, c.MinTrainMonths)
	}
	return nil
}

// DefaultTrainConfig mirrors the parameters used in production retrains.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MinTrainMonths:  24,
		MinFoldExamples: 100,
		MaxMissingRatio: 0.5,
		NumTrees:        200,
		MaxDepth:        4,
		LearningRate:    0.05,
		MinLeaf:         20,
	}
}
