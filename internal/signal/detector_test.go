package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"granville-signal-lab/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func openRegime(dates ...domain.Date) map[domain.Date]domain.RegimeDay {
	out := make(map[domain.Date]domain.RegimeDay, len(dates))
	for _, d := range dates {
		out[d] = domain.RegimeDay{Date: d, IndexUptrend: true, MacroExpanding: true}
	}
	return out
}

// pullbackRow satisfies rule A and nothing else.
func pullbackRow(ticker string, date domain.Date) *domain.FeatureRow {
	return &domain.FeatureRow{
		Ticker: ticker, Date: date, Sector: "Autos",
		Close:       96,
		PrevClose:   fptr(95),
		SMA20:       fptr(100),
		DevSMA20Pct: fptr(-4.0),
	}
}

func TestRuleConditions(t *testing.T) {
	tests := []struct {
		name string
		row  *domain.FeatureRow
		want []domain.RuleType
	}{
		{
			name: "pullback fires inside dev band on up close",
			row:  pullbackRow("7203", 20240110),
			want: []domain.RuleType{domain.RulePullback},
		},
		{
			name: "pullback needs an up close",
			row: &domain.FeatureRow{
				Close: 94, PrevClose: fptr(95), DevSMA20Pct: fptr(-4.0),
			},
			want: nil,
		},
		{
			name: "dev above band fires nothing",
			row: &domain.FeatureRow{
				Close: 99, PrevClose: fptr(98), DevSMA20Pct: fptr(-1.0),
			},
			want: nil,
		},
		{
			name: "deep pullback below -5 fires both A and D inside overlap",
			row: &domain.FeatureRow{
				Close: 94, PrevClose: fptr(93), DevSMA20Pct: fptr(-6.0),
			},
			want: []domain.RuleType{domain.RulePullback, domain.RuleDeepPullback},
		},
		{
			name: "deep pullback only below -8",
			row: &domain.FeatureRow{
				Close: 90, PrevClose: fptr(89), DevSMA20Pct: fptr(-9.0),
			},
			want: []domain.RuleType{domain.RuleDeepPullback},
		},
		{
			name: "breakout fires on fresh cross above rising sma20",
			row: &domain.FeatureRow{
				Close: 101.5, PrevClose: fptr(100),
				SMA20: fptr(100.5), SMA20Slope3: fptr(0.8),
				DevSMA20Pct: fptr(1.0), PrevDevSMA20Pct: fptr(-0.2),
			},
			want: []domain.RuleType{domain.RuleBreakout},
		},
		{
			name: "breakout rejected when sma20 falling",
			row: &domain.FeatureRow{
				Close: 101.5, PrevClose: fptr(100),
				SMA20: fptr(100.5), SMA20Slope3: fptr(-0.3),
				DevSMA20Pct: fptr(1.0), PrevDevSMA20Pct: fptr(-0.2),
			},
			want: nil,
		},
		{
			name: "breakout rejected when already extended yesterday",
			row: &domain.FeatureRow{
				Close: 101.5, PrevClose: fptr(100),
				SMA20: fptr(100.5), SMA20Slope3: fptr(0.8),
				DevSMA20Pct: fptr(1.0), PrevDevSMA20Pct: fptr(1.2),
			},
			want: nil,
		},
		{
			name: "mini golden cross fires on sma5 crossing sma20",
			row: &domain.FeatureRow{
				Close: 102, PrevClose: fptr(101),
				SMA5: fptr(100.2), SMA20: fptr(100.0),
				PrevSMA5: fptr(99.8), PrevSMA20: fptr(100.0),
			},
			want: []domain.RuleType{domain.RuleMiniGoldenCross},
		},
		{
			name: "mini golden cross needs sma5 below yesterday",
			row: &domain.FeatureRow{
				Close: 102, PrevClose: fptr(101),
				SMA5: fptr(100.2), SMA20: fptr(100.0),
				PrevSMA5: fptr(100.1), PrevSMA20: fptr(100.0),
			},
			want: nil,
		},
		{
			name: "nil inputs disable every rule",
			row:  &domain.FeatureRow{Close: 100},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := domain.NewDate(2024, 1, 10)
			tt.row.Date = date
			tt.row.Ticker = "7203"
			d := NewDetector(openRegime(date), domain.RegimeConfig{})

			signals := d.Detect(map[string][]*domain.FeatureRow{"7203": {tt.row}})
			if tt.want == nil {
				assert.Empty(t, signals)
				return
			}
			require.Len(t, signals, 1)
			assert.Equal(t, tt.want, signals[0].Types)
		})
	}
}

func TestDetectGateClosedSuppressesSignals(t *testing.T) {
	date := domain.NewDate(2024, 1, 10)
	row := pullbackRow("7203", date)

	for name, day := range map[string]domain.RegimeDay{
		"downtrend":   {Date: date, IndexUptrend: false, MacroExpanding: true},
		"contraction": {Date: date, IndexUptrend: true, MacroExpanding: false},
	} {
		d := NewDetector(map[domain.Date]domain.RegimeDay{date: day}, domain.RegimeConfig{})
		assert.Empty(t, d.Detect(map[string][]*domain.FeatureRow{"7203": {row}}), name)
	}

	// A date with no regime entry at all is treated as gate-closed.
	d := NewDetector(map[domain.Date]domain.RegimeDay{}, domain.RegimeConfig{})
	assert.Empty(t, d.Detect(map[string][]*domain.FeatureRow{"7203": {row}}))
}

func TestDetectExcludedSector(t *testing.T) {
	date := domain.NewDate(2024, 1, 10)
	row := pullbackRow("4502", date)
	row.Sector = "Pharma"

	d := NewDetector(openRegime(date), domain.RegimeConfig{ExcludedSectors: []string{"Pharma"}})
	assert.Empty(t, d.Detect(map[string][]*domain.FeatureRow{"4502": {row}}))

	d = NewDetector(openRegime(date), domain.RegimeConfig{ExcludedSectors: []string{"Banks"}})
	assert.Len(t, d.Detect(map[string][]*domain.FeatureRow{"4502": {row}}), 1)
}

func TestDetectCompositeLabelAndID(t *testing.T) {
	date := domain.NewDate(2024, 1, 10)
	row := &domain.FeatureRow{
		Ticker: "7203", Date: date, Sector: "Autos",
		Close: 94, PrevClose: fptr(93), DevSMA20Pct: fptr(-6.0),
	}
	d := NewDetector(openRegime(date), domain.RegimeConfig{})

	signals := d.Detect(map[string][]*domain.FeatureRow{"7203": {row}})
	require.Len(t, signals, 1)
	assert.Equal(t, "A+D", signals[0].Label())
	assert.NotEmpty(t, signals[0].SignalID)

	// Same inputs produce the same ID across runs.
	again := d.Detect(map[string][]*domain.FeatureRow{"7203": {row}})
	assert.Equal(t, signals[0].SignalID, again[0].SignalID)
}

func TestDetectOrderedByDateThenTicker(t *testing.T) {
	d1 := domain.NewDate(2024, 1, 10)
	d2 := domain.NewDate(2024, 1, 11)
	d := NewDetector(openRegime(d1, d2), domain.RegimeConfig{})

	rows := map[string][]*domain.FeatureRow{
		"9984": {pullbackRow("9984", d1)},
		"6758": {pullbackRow("6758", d2), pullbackRow("6758", d1)},
	}
	for _, rs := range rows {
		for _, r := range rs {
			r.Sector = "Autos"
		}
	}

	signals := d.Detect(rows)
	require.Len(t, signals, 3)
	assert.Equal(t, "6758", signals[0].Ticker)
	assert.Equal(t, d1, signals[0].SignalDate)
	assert.Equal(t, "9984", signals[1].Ticker)
	assert.Equal(t, d1, signals[1].SignalDate)
	assert.Equal(t, "6758", signals[2].Ticker)
	assert.Equal(t, d2, signals[2].SignalDate)
}
