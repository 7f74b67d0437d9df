package model

// Indicators holds the technical indicator readings computed from one
// daily bar sequence.
type Indicators struct {
	LastClose  float64
	LastVolume float64

	EMA20  float64
	EMA50  float64
	EMA200 float64
	Vol20  float64

	RSI14      float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	OBV        float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64
}
