// Package orderplan turns a finished signal into a simulation-only ladder
// plan: staged entries on the defense rungs, a stop under the deepest rung,
// targets on the offense rungs. It never talks to a broker.
package orderplan

import (
	"fmt"
	"math"
	"strings"

	"HoldingsRadar/internal/model"
)

const (
	// Positions this deep under water are treated as structural losses;
	// adding to them is filtered out.
	deepDrawdownPct = -25.0
	heavyWeightPct  = 15.0
	tinyWeightPct   = 5.0

	fallbackVolPct   = 0.03
	fallbackVolFloor = 0.1
)

// Side is the planned direction. Only accumulation is ever planned; a
// filtered symbol gets SideNone with the reason in Note.
type Side string

const (
	SideBuy  Side = "BUY"
	SideNone Side = "NONE"
)

// Request carries everything the planner needs about one symbol.
type Request struct {
	Symbol    string
	LastPrice float64
	Cost      float64
	PnlPct    float64
	HasPnl    bool
	// WeightPct is the position's share of total holdings value, 0-100.
	WeightPct float64
	Bands     *model.PriceBands
	// Volatility is a per-share volatility unit (ATR-like). Zero means
	// unknown; the 3%-of-last fallback applies.
	Volatility float64
	Direction  model.Trend
}

// Plan is the resulting simulated ladder.
type Plan struct {
	Symbol  string
	Side    Side
	Entries []float64
	Stop    float64
	Targets []float64
	Shares  int
	Note    string
}

// Build evaluates the risk filters and, if the symbol passes, sizes a
// ladder plan from the band structure. equity, riskPct and simulateOnly
// come from the account configuration; risk per trade is equity × riskPct.
// Live trading is not implemented: simulateOnly must be set or no plan
// is generated.
func Build(req Request, equity, riskPct float64, simulateOnly bool) *Plan {
	plan := &Plan{Symbol: req.Symbol, Side: SideNone}

	if !simulateOnly {
		plan.Note = "未启用模拟模式（simulate_only=false），本工具不支持实盘下单，跳过计划生成。"
		return plan
	}

	switch {
	case req.HasPnl && req.PnlPct <= deepDrawdownPct:
		plan.Note = fmt.Sprintf("浮亏 %.1f%% 已属深度套牢，不再加仓，优先考虑减仓或换股。", req.PnlPct)
		return plan
	case req.Direction == model.TrendDown:
		plan.Note = "日线空头排列，趋势向下时不做加仓计划。"
		return plan
	case req.HasPnl && req.PnlPct < 0 && req.WeightPct > 0 && req.WeightPct <= tinyWeightPct:
		plan.Note = "仓位占比很小且浮亏，维持现状即可，不值得动用加仓预算。"
		return plan
	case req.Bands == nil || len(req.Bands.Defense) == 0 || len(req.Bands.Offense) == 0:
		plan.Note = "缺少完整的价位阶梯，无法生成加仓计划。"
		return plan
	case req.LastPrice <= 0 || equity <= 0 || riskPct <= 0:
		plan.Note = "行情或账户参数缺失，无法生成加仓计划。"
		return plan
	}

	vol := req.Volatility
	if vol <= 0 || math.IsNaN(vol) || math.IsInf(vol, 0) {
		vol = math.Max(req.LastPrice*fallbackVolPct, fallbackVolFloor)
	}

	entries := append([]float64(nil), req.Bands.Defense...)
	stop := round2(entries[0] - vol)
	// Size off the nearest entry: the worst single-rung loss if it fills
	// and stops out.
	nearest := entries[len(entries)-1]
	perShareRisk := nearest - stop
	if perShareRisk <= 0 {
		plan.Note = "止损价高于入场价，阶梯结构异常，放弃本次计划。"
		return plan
	}

	shares := int(math.Floor(equity * riskPct / perShareRisk))
	if shares <= 0 {
		plan.Note = "按当前风险预算算不出至少 1 股，跳过。"
		return plan
	}

	plan.Side = SideBuy
	plan.Entries = entries
	plan.Stop = stop
	plan.Targets = append([]float64(nil), req.Bands.Offense...)
	plan.Shares = shares
	if req.WeightPct >= heavyWeightPct {
		plan.Note = "该持仓占比已偏重，计划仅供参考，实际加仓需控制总仓位。"
	}
	return plan
}

// Format renders the plan as the console block appended to a symbol's
// detail report.
func (p *Plan) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  [模拟交易计划] %s\n", p.Symbol)
	if p.Side == SideNone {
		fmt.Fprintf(&b, "    不生成计划：%s\n", p.Note)
		return b.String()
	}
	fmt.Fprintf(&b, "    方向: 分批买入（仅模拟，不会真实下单）\n")
	fmt.Fprintf(&b, "    入场阶梯: %s\n", joinPrices(p.Entries))
	fmt.Fprintf(&b, "    止损: %.2f\n", p.Stop)
	fmt.Fprintf(&b, "    目标阶梯: %s\n", joinPrices(p.Targets))
	fmt.Fprintf(&b, "    单笔股数: %d\n", p.Shares)
	if p.Note != "" {
		fmt.Fprintf(&b, "    提示: %s\n", p.Note)
	}
	return b.String()
}

func joinPrices(prices []float64) string {
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%.2f", p)
	}
	return strings.Join(parts, " / ")
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
