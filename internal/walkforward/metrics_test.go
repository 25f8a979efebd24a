package walkforward

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func preds(pairs ...struct {
	p float64
	w bool
}) []Prediction {
	out := make([]Prediction, len(pairs))
	for i, pr := range pairs {
		out[i] = Prediction{Prob: pr.p, Win: pr.w}
	}
	return out
}

func pw(p float64, w bool) struct {
	p float64
	w bool
} {
	return struct {
		p float64
		w bool
	}{p, w}
}

func TestAUCPerfectSeparation(t *testing.T) {
	assert.Equal(t, 1.0, AUC(preds(pw(0.1, false), pw(0.2, false), pw(0.8, true), pw(0.9, true))))
}

func TestAUCInverted(t *testing.T) {
	assert.Equal(t, 0.0, AUC(preds(pw(0.9, false), pw(0.8, false), pw(0.1, true), pw(0.2, true))))
}

func TestAUCTiesAverageRanks(t *testing.T) {
	// All probabilities equal: chance-level by construction.
	assert.Equal(t, 0.5, AUC(preds(pw(0.5, true), pw(0.5, false), pw(0.5, true), pw(0.5, false))))
}

func TestAUCSingleClassIsChance(t *testing.T) {
	assert.Equal(t, 0.5, AUC(preds(pw(0.3, true), pw(0.7, true))))
	assert.Equal(t, 0.5, AUC(nil))
}

func TestAccuracyAtHalfCutoff(t *testing.T) {
	got := Accuracy(preds(
		pw(0.7, true),  // correct
		pw(0.4, false), // correct
		pw(0.6, false), // wrong
		pw(0.3, true),  // wrong
	))
	assert.Equal(t, 0.5, got)

	assert.Zero(t, Accuracy(nil))
}

func TestQuintilesBucketing(t *testing.T) {
	// 10 predictions with rising probability; only the top 4 win.
	var ps []Prediction
	for i := 0; i < 10; i++ {
		ps = append(ps, Prediction{Prob: float64(i+1) / 10, Win: i >= 6})
	}

	rows := Quintiles(ps)
	require.Len(t, rows, 5)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Quintile)
		assert.Equal(t, 2, r.Count)
	}
	assert.Equal(t, 0.0, rows[0].WinRate)
	assert.Equal(t, 1.0, rows[3].WinRate)
	assert.Equal(t, 1.0, rows[4].WinRate)
	assert.Less(t, rows[0].MeanProb, rows[4].MeanProb)
}

func TestQuintilesEmpty(t *testing.T) {
	assert.Nil(t, Quintiles(nil))
}

func TestThresholdSweep(t *testing.T) {
	var ps []Prediction
	for i := 0; i < 10; i++ {
		ps = append(ps, Prediction{Prob: float64(i+1) / 10, Win: i >= 5})
	}

	rows := ThresholdSweep(ps, []float64{0.3, 0.5, 0.8})
	require.Len(t, rows, 3)

	for _, r := range rows {
		assert.Equal(t, 10, r.KeptCount+r.FilteredCount)
	}

	// Raising the cutoff keeps fewer signals with a better win rate.
	assert.Greater(t, rows[0].KeptFraction, rows[1].KeptFraction)
	assert.Greater(t, rows[1].KeptFraction, rows[2].KeptFraction)
	assert.GreaterOrEqual(t, rows[2].KeptWinRate, rows[1].KeptWinRate)
	assert.GreaterOrEqual(t, rows[1].KeptWinRate, rows[0].KeptWinRate)

	// At 0.8 everything kept is a winner.
	assert.Equal(t, 1.0, rows[2].KeptWinRate)
}
