// Package classify turns bar sequences into the three-valued B / C / D
// trading grade and composes the two intraday timeframes into one signal.
package classify

import (
	"fmt"
	"math"
	"time"

	"HoldingsRadar/internal/model"
)

const (
	minBars       = 5
	windowBars    = 25
	refWindow     = 20
	bandThreshold = 0.002 // ±0.2% around the moving-average reference
	volMultiple   = 1.3
)

// Verdict is the single-timeframe classification payload.
type Verdict struct {
	Grade      model.Grade
	LastTime   time.Time
	LastClose  float64
	LastVolume float64
	MARef      float64
	VolRef     float64
	Reason     string
}

// Single grades one chronological bar sequence. It is pure: the same
// sequence always yields the same verdict.
func Single(bars []model.Bar) Verdict {
	if len(bars) < minBars {
		return Verdict{Grade: model.GradeNeutral, Reason: "bar 数太少，自动观望"}
	}

	window := bars
	if len(window) > windowBars {
		window = window[len(window)-windowBars:]
	}

	n := len(window)
	refN := refWindow
	if refN > n {
		refN = n
	}
	var maSum, volSum float64
	for i := n - refN; i < n; i++ {
		maSum += window[i].Close
		volSum += window[i].Volume
	}
	maRef := maSum / float64(refN)
	volRef := volSum / float64(refN)

	last := window[n-1]
	prev := window[n-2]

	v := Verdict{
		LastTime:   last.Time,
		LastClose:  round4(last.Close),
		LastVolume: last.Volume,
		MARef:      round4(maRef),
		VolRef:     math.Trunc(volRef),
	}

	priceAboveMA := last.Close > maRef*(1+bandThreshold)
	priceBelowMA := last.Close < maRef*(1-bandThreshold)
	priceUp := last.Close > prev.Close
	priceDown := last.Close < prev.Close
	volumeHeavy := last.Volume >= volRef*volMultiple

	switch {
	case priceAboveMA && priceUp && volumeHeavy:
		v.Grade = model.GradeBullish
		v.Reason = "价在 MA20 上方、放量上涨 → 偏多 B 信号"
	case priceBelowMA && priceDown && volumeHeavy:
		v.Grade = model.GradeDefensive
		v.Reason = "价在 MA20 下方、放量下跌 → 防守 D 信号"
	default:
		v.Grade = model.GradeNeutral
		v.Reason = "未出现明显放量突破 / 跌破 → 中性 C"
	}
	return v
}

// Combine merges the fine (15m) and medium (1h) grades through a fixed
// precedence table and returns the combined grade with its narrative.
func Combine(fine, medium model.Grade) (model.Grade, string) {
	if fine == medium {
		switch fine {
		case model.GradeBullish:
			return model.GradeBullish, "15m 与 1h 均为 B，短线与小时级别趋势一致偏多。"
		case model.GradeDefensive:
			return model.GradeDefensive, "15m 与 1h 均为 D，短线与小时级别趋势一致偏弱。"
		default:
			return model.GradeNeutral, "15m 与 1h 均为 C，整体偏中性，观望为主。"
		}
	}

	switch {
	case fine == model.GradeBullish && medium == model.GradeNeutral:
		return model.GradeBullish, "15m 偏多、1h 中性 → 短线反弹，趋势待确认。"
	case fine == model.GradeNeutral && medium == model.GradeBullish:
		return model.GradeBullish, "1h 偏多、15m 回调 → 上升趋势中的短线震荡。"
	case fine == model.GradeDefensive && medium == model.GradeNeutral:
		return model.GradeDefensive, "15m 偏弱、1h 中性 → 短线走弱，适度防守。"
	case fine == model.GradeNeutral && medium == model.GradeDefensive:
		return model.GradeDefensive, "1h 偏弱、15m 反弹 → 反弹中的下跌趋势，以减仓为主。"
	case fine == model.GradeBullish && medium == model.GradeDefensive:
		return model.GradeNeutral, "15m 偏多但 1h 偏空 → 反弹中的下降趋势，谨慎参与。"
	case fine == model.GradeDefensive && medium == model.GradeBullish:
		return model.GradeNeutral, "1h 偏多但 15m 回调 → 上升趋势中的回调，等待企稳后再考虑加仓。"
	}
	return model.GradeNeutral, "15m 与 1h 信号分化，整体以中性观望处理。"
}

// VWAPBias compares the latest close against the session VWAP and returns
// the funds-flow qualifier appended to the intraday narrative. It never
// changes the grade.
func VWAPBias(lastClose, vwap float64) string {
	if vwap <= 0 || lastClose <= 0 {
		return ""
	}
	switch {
	case lastClose > vwap*(1+bandThreshold):
		return fmt.Sprintf(" 当前价在 VWAP(%.4f) 上方，说明今日整体资金偏多。", vwap)
	case lastClose < vwap*(1-bandThreshold):
		return fmt.Sprintf(" 当前价在 VWAP(%.4f) 下方，说明今日整体资金偏弱。", vwap)
	default:
		return fmt.Sprintf(" 当前价在 VWAP(%.4f) 附近，买卖力量较均衡。", vwap)
	}
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
