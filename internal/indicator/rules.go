// Package indicator computes technical indicators over bar sequences and,
// for the daily mode, classifies them into a trading grade.
package indicator

import (
	"errors"
	"math"

	"HoldingsRadar/internal/model"
)

const minDailyBars = 30

// Compute derives the daily indicator set from a chronological bar sequence.
// Returns an error when fewer than 30 bars are available; the EMA horizons
// are seeded from the start of the sequence, so longer histories give more
// faithful EMA200 readings.
func Compute(bars []model.Bar) (*model.Indicators, error) {
	if len(bars) < minDailyBars {
		return nil, errors.New("not enough daily bars for indicator computation")
	}

	closes := extractCloses(bars)
	vols := extractVolumes(bars)

	ind := &model.Indicators{
		LastClose:  closes[len(closes)-1],
		LastVolume: vols[len(vols)-1],
	}

	ema20 := EMASeries(closes, 20)
	ema50 := EMASeries(closes, 50)
	ema200 := EMASeries(closes, 200)
	ind.EMA20 = ema20[len(ema20)-1]
	ind.EMA50 = ema50[len(ema50)-1]
	ind.EMA200 = ema200[len(ema200)-1]

	volWindow := 20
	if len(vols) < volWindow {
		volWindow = len(vols)
	}
	if v, err := SMA(vols, volWindow); err == nil {
		ind.Vol20 = v
	}

	if rsi, err := RSI(closes, 14); err == nil {
		ind.RSI14 = rsi
	}

	// MACD(12, 26, 9)
	ema12 := EMASeries(closes, 12)
	ema26 := EMASeries(closes, 26)
	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = ema12[i] - ema26[i]
	}
	signal := EMASeries(macdLine, 9)
	ind.MACD = macdLine[len(macdLine)-1]
	ind.MACDSignal = signal[len(signal)-1]
	ind.MACDHist = ind.MACD - ind.MACDSignal

	// OBV
	obv := 0.0
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += vols[i]
		case closes[i] < closes[i-1]:
			obv -= vols[i]
		}
	}
	ind.OBV = obv

	// Bollinger(20, 2)
	if mid, err := SMA(closes, 20); err == nil {
		var sq float64
		for i := len(closes) - 20; i < len(closes); i++ {
			d := closes[i] - mid
			sq += d * d
		}
		sd := math.Sqrt(sq / 20)
		ind.BBMiddle = mid
		ind.BBUpper = mid + 2*sd
		ind.BBLower = mid - 2*sd
	}

	return ind, nil
}

// TrendOf labels the moving-average structure from the ordering of the
// three EMA horizons.
func TrendOf(ind *model.Indicators) model.Trend {
	switch {
	case ind.EMA20 > ind.EMA50 && ind.EMA50 > ind.EMA200:
		return model.TrendUp
	case ind.EMA20 < ind.EMA50 && ind.EMA50 < ind.EMA200:
		return model.TrendDown
	default:
		return model.TrendRange
	}
}

// Classify grades a daily indicator set.
func Classify(ind *model.Indicators) (model.Grade, string) {
	price := ind.LastClose
	switch {
	case price > ind.EMA20 && ind.EMA20 > ind.EMA50 && ind.MACDHist > 0:
		if ind.RSI14 >= 78 {
			return model.GradeNeutral, "多头结构完整但 RSI 已超买，短期追高风险大，以持有观察为主"
		}
		return model.GradeBullish, "价格站上 EMA20、均线多头且 MACD 动能向上 → 偏多 B 信号"
	case price < ind.EMA20 && ind.EMA20 < ind.EMA50 && ind.MACDHist < 0:
		if ind.RSI14 <= 25 {
			return model.GradeNeutral, "空头结构但 RSI 已严重超卖，杀跌空间有限，观望等待企稳"
		}
		return model.GradeDefensive, "价格跌破 EMA20、均线空头且 MACD 动能向下 → 防守 D 信号"
	default:
		return model.GradeNeutral, "均线与动能指标未形成一致方向 → 中性 C"
	}
}
