package domain

import "math"

// FeatureRow holds derived technical features for one ticker-date.
// Every derived column is a pointer: nil means not enough trailing history
// (or a missing market join), never a silently propagated NaN.
type FeatureRow struct {
	Ticker string
	Date   Date
	Sector string

	// Raw anchors (always present for a loaded bar).
	Close     float64
	Volume    float64
	PrevClose *float64

	// Moving averages and deviation.
	SMA5            *float64
	SMA20           *float64
	SMA25           *float64
	SMA60           *float64
	DevSMA20Pct     *float64 // (close - sma20) / sma20 * 100
	PrevDevSMA20Pct *float64 // previous day's deviation
	SMA20Slope3     *float64 // sma20[t] - sma20[t-3]
	PrevSMA5        *float64
	PrevSMA20       *float64

	// Oscillators and volatility.
	RSI9     *float64
	RSI14    *float64
	ATR14    *float64
	ATRPct   *float64 // atr14 / close * 100
	HV5      *float64 // annualized realized volatility
	HV10     *float64
	HV20     *float64
	MACDHist *float64
	BollWidth *float64 // (upper - lower) / middle
	BollPos   *float64 // (close - lower) / (upper - lower)

	// Volume and returns.
	VolumeRatio5  *float64
	VolumeRatio20 *float64
	Return1Pct    *float64
	Return5Pct    *float64
	Return10Pct   *float64
	WeekdayNum    float64 // Monday=1 .. Friday=5

	// Market-level features joined by date.
	IndexReturn1Pct  *float64
	IndexReturn5Pct  *float64
	IndexHV20        *float64
	IndexDevSMA20Pct *float64

	// Sector momentum: mean 5-day return of the ticker's sector on this date.
	SectorMomentum5 *float64
}

// featureNames is the stable feature-vector contract shared by training
// and inference. Order matters and must never change between the two.
var featureNames = []string{
	"dev_sma20_pct",
	"prev_dev_sma20_pct",
	"sma20_slope3",
	"rsi9",
	"rsi14",
	"atr_pct",
	"hv5",
	"hv10",
	"hv20",
	"macd_hist",
	"boll_width",
	"boll_pos",
	"volume_ratio5",
	"volume_ratio20",
	"return1_pct",
	"return5_pct",
	"return10_pct",
	"weekday",
	"index_return1_pct",
	"index_return5_pct",
	"index_hv20",
	"index_dev_sma20_pct",
	"sector_momentum5",
}

// FeatureNames returns the ordered feature-vector column names.
func FeatureNames() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// Vector flattens the row into the ordered feature vector. Missing values
// become NaN; the boosted-tree learner handles missing splits natively.
func (r *FeatureRow) Vector() []float64 {
	opt := func(p *float64) float64 {
		if p == nil {
			return math.NaN()
		}
		return *p
	}
	return []float64{
		opt(r.DevSMA20Pct),
		opt(r.PrevDevSMA20Pct),
		opt(r.SMA20Slope3),
		opt(r.RSI9),
		opt(r.RSI14),
		opt(r.ATRPct),
		opt(r.HV5),
		opt(r.HV10),
		opt(r.HV20),
		opt(r.MACDHist),
		opt(r.BollWidth),
		opt(r.BollPos),
		opt(r.VolumeRatio5),
		opt(r.VolumeRatio20),
		opt(r.Return1Pct),
		opt(r.Return5Pct),
		opt(r.Return10Pct),
		r.WeekdayNum,
		opt(r.IndexReturn1Pct),
		opt(r.IndexReturn5Pct),
		opt(r.IndexHV20),
		opt(r.IndexDevSMA20Pct),
		opt(r.SectorMomentum5),
	}
}

// Clone returns a deep copy. Training examples own their feature rows
// by value so retraining stays reproducible against a frozen snapshot.
func (r *FeatureRow) Clone() *FeatureRow {
	cp := *r
	cloneOpt := func(p *float64) *float64 {
		if p == nil {
			return nil
		}
		v := *p
		return &v
	}
	cp.PrevClose = cloneOpt(r.PrevClose)
	cp.SMA5 = cloneOpt(r.SMA5)
	cp.SMA20 = cloneOpt(r.SMA20)
	cp.SMA25 = cloneOpt(r.SMA25)
	cp.SMA60 = cloneOpt(r.SMA60)
	cp.DevSMA20Pct = cloneOpt(r.DevSMA20Pct)
	cp.PrevDevSMA20Pct = cloneOpt(r.PrevDevSMA20Pct)
	cp.SMA20Slope3 = cloneOpt(r.SMA20Slope3)
	cp.PrevSMA5 = cloneOpt(r.PrevSMA5)
	cp.PrevSMA20 = cloneOpt(r.PrevSMA20)
	cp.RSI9 = cloneOpt(r.RSI9)
	cp.RSI14 = cloneOpt(r.RSI14)
	cp.ATR14 = cloneOpt(r.ATR14)
	cp.ATRPct = cloneOpt(r.ATRPct)
	cp.HV5 = cloneOpt(r.HV5)
	cp.HV10 = cloneOpt(r.HV10)
	cp.HV20 = cloneOpt(r.HV20)
	cp.MACDHist = cloneOpt(r.MACDHist)
	cp.BollWidth = cloneOpt(r.BollWidth)
	cp.BollPos = cloneOpt(r.BollPos)
	cp.VolumeRatio5 = cloneOpt(r.VolumeRatio5)
	cp.VolumeRatio20 = cloneOpt(r.VolumeRatio20)
	cp.Return1Pct = cloneOpt(r.Return1Pct)
	cp.Return5Pct = cloneOpt(r.Return5Pct)
	cp.Return10Pct = cloneOpt(r.Return10Pct)
	cp.IndexReturn1Pct = cloneOpt(r.IndexReturn1Pct)
	cp.IndexReturn5Pct = cloneOpt(r.IndexReturn5Pct)
	cp.IndexHV20 = cloneOpt(r.IndexHV20)
	cp.IndexDevSMA20Pct = cloneOpt(r.IndexDevSMA20Pct)
	cp.SectorMomentum5 = cloneOpt(r.SectorMomentum5)
	return &cp
}
