// Package labeling converts simulated trades into training examples.
package labeling

import (
	"granville-signal-lab/internal/domain"
)

// Label is the binary training target: did the trade realize a gain.
// It is neutral to exit mechanics: a stopped-out trade and an expiry with
// a negative return are both losses, a take-profit and an expiry with a
// positive return are both wins. Exit reasons stay out of the feature
// vector; they would leak the label.
func Label(t *domain.Trade) bool {
	return t.ReturnPct > 0
}

// Assemble joins the feature row captured at signal time with the
// realized outcome. The feature row is copied by value so the example is
// decoupled from the live price store.
func Assemble(sig *domain.Signal, trade *domain.Trade) *domain.TrainingExample {
	var features *domain.FeatureRow
	if sig.Features != nil {
		features = sig.Features.Clone()
	}
	return &domain.TrainingExample{
		Ticker:      sig.Ticker,
		SignalDate:  sig.SignalDate,
		SignalLabel: sig.Label(),
		Features:    features,
		ReturnPct:   trade.ReturnPct,
		Win:         Label(trade),
	}
}
