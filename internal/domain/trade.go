package domain

// Exit reason codes.
const (
	ExitReasonStopLoss      = "STOP_LOSS"
	ExitReasonTakeProfit    = "TAKE_PROFIT"
	ExitReasonTechnicalExit = "TECHNICAL_EXIT"
	ExitReasonTimeExpiry    = "TIME_EXPIRY"
)

// LotSize is the fixed position size used for currency P&L reporting.
const LotSize = 100

// Trade is the deterministic replay of a Signal over historical bars.
// It is mutated bar-by-bar during simulation (the stop may ratchet up,
// the favorable excursion may grow) and becomes immutable once the exit
// reason is set.
type Trade struct {
	TradeID  string
	SignalID string
	Ticker   string
	Sector   string

	SignalDate  Date
	SignalLabel string // composite rule label, e.g. "A+B"

	EntryDate  Date
	EntryPrice float64 // next session's open

	CurrentStop float64  // only ever ratchets upward for a long position
	TakeProfit  *float64 // nil when take-profit is disabled

	ExitDate   Date
	ExitPrice  float64
	ExitReason string

	ReturnPct float64 // (exit/entry - 1) * 100
	ProfitJPY float64 // entry_price * LotSize * return_pct / 100
	HoldBars  int

	// MaxFavorableExcursionPct is the running peak unrealized gain, the
	// input that drives trailing-stop ratchets.
	MaxFavorableExcursionPct float64

	// DataGap marks an EXPIRED exit caused by the price feed ending
	// mid-hold, so aggregates can separate it from a natural expiry.
	DataGap bool
}

// Win reports the binary outcome label used for training.
func (t *Trade) Win() bool { return t.ReturnPct > 0 }

// TrainingExample pairs the feature vector observed at signal time with
// the realized binary outcome. It owns a by-value copy of the feature row,
// decoupled from the live price store.
type TrainingExample struct {
	Ticker      string
	SignalDate  Date
	SignalLabel string
	Features    *FeatureRow
	ReturnPct   float64
	Win         bool
}
