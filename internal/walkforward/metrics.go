package walkforward

import "sort"

// Prediction is one out-of-sample scored example.
type Prediction struct {
	MonthKey int     // YYYYMM of the test fold
	Prob     float64 // predicted win probability
	Win      bool    // realized outcome
}

// QuintileRow is one bucket of the predicted-probability breakdown.
// Quintile 1 holds the lowest predicted probabilities, 5 the highest.
type QuintileRow struct {
	Quintile int     `json:"quintile"`
	Count    int     `json:"count"`
	WinRate  float64 `json:"win_rate"`
	MeanProb float64 `json:"mean_prob"`
}

// SweepRow shows the effect of skipping signals below a probability cutoff.
type SweepRow struct {
	Threshold       float64 `json:"threshold"`
	KeptCount       int     `json:"kept_count"`
	FilteredCount   int     `json:"filtered_count"`
	KeptFraction    float64 `json:"kept_fraction"`
	KeptWinRate     float64 `json:"kept_win_rate"`
	FilteredWinRate float64 `json:"filtered_win_rate"`
}

// AUC computes the area under the ROC curve by the rank statistic, with
// average ranks for tied probabilities.
func AUC(preds []Prediction) float64 {
	n := len(preds)
	pos, neg := 0, 0
	for _, p := range preds {
		if p.Win {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	sorted := make([]Prediction, n)
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Prob < sorted[j].Prob })

	// Sum of positive ranks, averaging within tie groups.
	rankSum := 0.0
	i := 0
	for i < n {
		j := i
		for j < n && sorted[j].Prob == sorted[i].Prob {
			j++
		}
		avgRank := float64(i+j+1) / 2 // 1-based average rank of the tie group
		for k := i; k < j; k++ {
			if sorted[k].Win {
				rankSum += avgRank
			}
		}
		i = j
	}

	return (rankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
}

// Accuracy scores predictions at the 0.5 cutoff.
func Accuracy(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	correct := 0
	for _, p := range preds {
		if (p.Prob >= 0.5) == p.Win {
			correct++
		}
	}
	return float64(correct) / float64(len(preds))
}

// Quintiles buckets predictions into 5 equal-size groups by predicted
// probability and reports per-bucket win rates. Monotonically rising win
// rates from Q1 to Q5 indicate real discriminative power.
func Quintiles(preds []Prediction) []QuintileRow {
	n := len(preds)
	if n == 0 {
		return nil
	}

	sorted := make([]Prediction, n)
	copy(sorted, preds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Prob < sorted[j].Prob })

	rows := make([]QuintileRow, 0, 5)
	for q := 0; q < 5; q++ {
		lo := q * n / 5
		hi := (q + 1) * n / 5
		if lo >= hi {
			continue
		}
		wins := 0
		probSum := 0.0
		for _, p := range sorted[lo:hi] {
			if p.Win {
				wins++
			}
			probSum += p.Prob
		}
		count := hi - lo
		rows = append(rows, QuintileRow{
			Quintile: q + 1,
			Count:    count,
			WinRate:  float64(wins) / float64(count),
			MeanProb: probSum / float64(count),
		})
	}
	return rows
}

// ThresholdSweep reports, for each cutoff, how many signals would be
// skipped and the win-rate split between kept and filtered populations.
func ThresholdSweep(preds []Prediction, thresholds []float64) []SweepRow {
	if len(preds) == 0 {
		return nil
	}
	rows := make([]SweepRow, 0, len(thresholds))
	for _, th := range thresholds {
		var keptWins, kept, filtWins, filt int
		for _, p := range preds {
			if p.Prob >= th {
				kept++
				if p.Win {
					keptWins++
				}
			} else {
				filt++
				if p.Win {
					filtWins++
				}
			}
		}
		row := SweepRow{
			Threshold:     th,
			KeptCount:     kept,
			FilteredCount: filt,
			KeptFraction:  float64(kept) / float64(len(preds)),
		}
		if kept > 0 {
			row.KeptWinRate = float64(keptWins) / float64(kept)
		}
		if filt > 0 {
			row.FilteredWinRate = float64(filtWins) / float64(filt)
		}
		rows = append(rows, row)
	}
	return rows
}
