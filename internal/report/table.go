// Package report renders a finished run: the console summary table, the
// per-symbol detail blocks and the CSV export.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"HoldingsRadar/internal/model"
)

const (
	deepDrawdownPct = -25.0
	heavyWeightPct  = 15.0
	tinyWeightPct   = 5.0
)

// Weights computes each symbol's share of total holdings value, 0-100.
// Placeholder rows contribute nothing and get weight zero.
func Weights(watchlist []string, results map[string]*model.SignalResult) map[string]float64 {
	weights := make(map[string]float64, len(watchlist))
	var total float64
	for _, symbol := range watchlist {
		if res, ok := results[symbol]; ok && !res.NoData {
			total += res.PositionValue
		}
	}
	for _, symbol := range watchlist {
		res, ok := results[symbol]
		if !ok || res.NoData || total <= 0 {
			weights[symbol] = 0
			continue
		}
		weights[symbol] = res.PositionValue / total * 100
	}
	return weights
}

// Summary renders the one-line-per-symbol overview table.
func Summary(mode model.RunMode, watchlist []string, results map[string]*model.SignalResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "====== 持仓信号汇总（%s）======\n", modeLabel(mode))

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Symbol\tSignal\tP&L%\tLast\tCost\tEMA20\tVOL20\tAction")
	for _, symbol := range watchlist {
		res, ok := results[symbol]
		if !ok {
			// The history stream ended with zero bars and no error; the
			// symbol still gets a visible row.
			fmt.Fprintf(w, "%s\t?\t-\t-\t-\t-\t-\t无数据\n", symbol)
			continue
		}
		if res.NoData {
			fmt.Fprintf(w, "%s\t-\t-\t-\t%.2f\t-\t-\t%s\n", symbol, res.Cost, res.Action)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%+.1f\t%.2f\t%.2f\t%.2f\t%.0f\t%s\n",
			symbol, res.Grade, res.PnlPct, res.LastPrice, res.Cost, res.MARef, res.VolRef, res.Action)
	}
	w.Flush()
	return b.String()
}

// Detail renders one symbol's full block: grades, indicator context, band
// ladders and the zone assessment.
func Detail(mode model.RunMode, res *model.SignalResult, weightPct float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "------ %s ------\n", res.Symbol)

	if res.NoData {
		fmt.Fprintf(&b, "  %s\n", res.Action)
		return b.String()
	}

	if mode == model.ModeIntraday {
		fmt.Fprintf(&b, "  信号: %s（15m: %s / 1h: %s）\n", res.Grade, res.Grade15m, res.Grade1h)
		if res.VWAP > 0 {
			fmt.Fprintf(&b, "  VWAP: %.4f\n", res.VWAP)
		}
	} else {
		fmt.Fprintf(&b, "  信号: %s（日线趋势: %s）\n", res.Grade, res.Trend.Desc())
		fmt.Fprintf(&b, "  EMA20: %.2f | EMA50: %.2f | EMA200: %.2f | RSI14: %.1f\n",
			res.MARef, res.MA50, res.MA200, res.RSI14)
		if res.BBMiddle > 0 {
			fmt.Fprintf(&b, "  布林带: 上轨 %.2f / 中轨 %.2f / 下轨 %.2f\n",
				res.BBUpper, res.BBMiddle, res.BBLower)
		}
	}

	fmt.Fprintf(&b, "  最新价: %.2f | 成本: %.2f | 浮动盈亏: %+.1f%%\n", res.LastPrice, res.Cost, res.PnlPct)
	if weightPct > 0 {
		fmt.Fprintf(&b, "  持仓市值: %.0f（占总持仓 %.1f%%）\n", res.PositionValue, weightPct)
	}
	fmt.Fprintf(&b, "  说明: %s\n", res.Comment)
	fmt.Fprintf(&b, "  建议: %s\n", res.Action)

	if res.Bands != nil {
		fmt.Fprintf(&b, "  防守位: %s\n", joinLevels(res.Bands.Defense))
		fmt.Fprintf(&b, "  进攻位: %s\n", joinLevels(res.Bands.Offense))
		fmt.Fprintf(&b, "  区间评估: %s\n", ZoneAssessment(res, weightPct))
	} else {
		fmt.Fprintf(&b, "  价位阶梯: 数据不足，未生成完整阶梯。\n")
	}
	return b.String()
}

// ZoneAssessment locates the last price against the band ladder and words
// the situation according to the position's weight.
func ZoneAssessment(res *model.SignalResult, weightPct float64) string {
	if res.Bands == nil || len(res.Bands.Defense) < 3 || len(res.Bands.Offense) < 4 {
		return "无完整价位阶梯，暂无区间评估。"
	}
	d := res.Bands.Defense
	o := res.Bands.Offense
	last := res.LastPrice

	var zone string
	switch {
	case res.Cost > 0 && res.PnlPct <= deepDrawdownPct:
		zone = "已处于深度套牢区，价格远离所有防守位，优先考虑换股或止损而不是补仓。"
	case last < d[0]:
		zone = "价格已跌破最深防守位，阶梯防线全部失守，注意控制风险。"
	case last < d[1]:
		zone = "价格位于第二与第三道防守位之间，接近阶梯的最后防线。"
	case last < d[2]:
		zone = "价格进入第一道防守区，可按阶梯观察是否企稳。"
	case last <= o[0]:
		zone = "价格在成本附近的中性区，未触及防守或进攻档位。"
	case last <= o[1]:
		zone = "价格越过第一进攻档，可考虑分批兑现部分利润。"
	case last <= o[2]:
		zone = "价格进入第二进攻档，利润区间扩大，留意回撤。"
	case last <= o[3]:
		zone = "价格进入第三进攻档，建议逐步上移止盈位。"
	default:
		zone = "价格已越过全部进攻目标，属于超预期行情，严格执行移动止盈。"
	}

	switch {
	case weightPct >= heavyWeightPct:
		zone += fmt.Sprintf(" 该持仓占比较重（%.1f%%），任何操作都应分批进行。", weightPct)
	case weightPct > 0 && weightPct <= tinyWeightPct:
		zone += fmt.Sprintf(" 仓位很小（%.1f%%），对整体影响有限。", weightPct)
	}
	return zone
}

func modeLabel(mode model.RunMode) string {
	if mode == model.ModeIntraday {
		return "盘中 15m+1h"
	}
	return "日线"
}

func joinLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.2f", l)
	}
	return strings.Join(parts, " / ")
}
