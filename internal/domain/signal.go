package domain

import "strings"

// RuleType identifies one of the named entry rules.
type RuleType string

// Entry rule constants.
const (
	RulePullback        RuleType = "A" // pullback-to-support
	RuleBreakout        RuleType = "B" // breakout-confirmation
	RuleMiniGoldenCross RuleType = "C" // mini-golden-cross
	RuleDeepPullback    RuleType = "D" // deep-pullback
)

// Signal is an immutable fact about one (ticker, date). If several rules
// fire the same day their types are unioned into one composite label
// rather than producing duplicate records.
type Signal struct {
	SignalID   string
	Ticker     string
	SignalDate Date
	Types      []RuleType
	Sector     string

	// Features captured at signal time, for downstream training.
	Features *FeatureRow
}

// Label joins the fired rule types, e.g. "A+B".
func (s *Signal) Label() string {
	parts := make([]string, len(s.Types))
	for i, t := range s.Types {
		parts[i] = string(t)
	}
	return strings.Join(parts, "+")
}

// HasType reports whether the given rule contributed to this signal.
func (s *Signal) HasType(t RuleType) bool {
	for _, st := range s.Types {
		if st == t {
			return true
		}
	}
	return false
}

// RegimeDay is the market-wide gate computed once per date, not per ticker.
type RegimeDay struct {
	Date           Date
	IndexUptrend   bool // index close > index 20-day SMA
	MacroExpanding bool // 3-month change in leading macro index > 0
}

// Actionable reports whether any individual-stock signal may be emitted.
// Both conditions must hold; this is a hard AND-gate.
func (r RegimeDay) Actionable() bool {
	return r.IndexUptrend && r.MacroExpanding
}
