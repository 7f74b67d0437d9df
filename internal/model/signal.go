package model

// Grade is a three-valued trading signal class. The letters follow the
// B / C / D convention used in the report and CSV output.
type Grade string

const (
	GradeBullish   Grade = "B"
	GradeNeutral   Grade = "C"
	GradeDefensive Grade = "D"

	// GradeNone marks a symbol the provider could not supply data for.
	GradeNone Grade = "-"
)

// Trend is the daily moving-average structure label.
type Trend string

const (
	TrendUp    Trend = "up"
	TrendDown  Trend = "down"
	TrendRange Trend = "range"
)

// Desc returns the report wording for a trend label.
func (t Trend) Desc() string {
	switch t {
	case TrendUp:
		return "多头排列（中长期上升趋势）"
	case TrendDown:
		return "空头排列（中长期下跌趋势）"
	default:
		return "均线纠缠（震荡）"
	}
}

// PriceBands is the defensive/offensive price ladder anchored on cost.
// Defense holds exactly 3 levels and Offense exactly 4, both ascending.
type PriceBands struct {
	Defense []float64
	Offense []float64
}

// SignalResult is the finalized per-symbol outcome of one run.
type SignalResult struct {
	Symbol string
	Grade  Grade

	// Intraday only.
	Grade15m Grade
	Grade1h  Grade
	VWAP     float64

	// Daily only.
	MA50     float64
	MA200    float64
	Trend    Trend
	RSI14    float64
	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	LastPrice  float64
	LastVolume float64
	MARef      float64 // EMA20 (daily) or MA20 of the fine timeframe (intraday)
	VolRef     float64

	Cost          float64
	Shares        float64
	PositionValue float64
	PnlPct        float64

	Reason  string
	Comment string
	Action  string

	Bands *PriceBands

	// NoData marks a terminal placeholder for symbols the provider
	// rejected; such rows render with "-" markers and are excluded
	// from the CSV export.
	NoData bool
}
