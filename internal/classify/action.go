package classify

import "HoldingsRadar/internal/model"

// Action maps the combined grade and the unrealized P&L percentage to a
// one-line guidance string. hasPnl is false when no cost basis is known.
func Action(grade model.Grade, pnlPct float64, hasPnl bool) string {
	if !hasPnl {
		switch grade {
		case model.GradeBullish:
			return "偏多信号，可结合仓位与大盘酌情加仓或持有"
		case model.GradeDefensive:
			return "防守信号，考虑减仓或设 tighter 止损"
		default:
			return "信号中性，观望为主"
		}
	}

	p := pnlPct

	switch grade {
	case model.GradeBullish:
		switch {
		case p <= -15:
			return "深度套牢 + 放量反弹，优先利用反弹减仓 / 降低仓位风险"
		case p <= -5:
			return "趋势转好但仍亏损，持有为主，可等待更强确认后再考虑加仓"
		case p < 10:
			return "小幅浮盈/亏，偏多下可小幅加仓或持有，注意整体仓位"
		default:
			return "盈利较多 + 偏多，可考虑分批止盈，同时保留部分主仓继续跟随"
		}
	case model.GradeDefensive:
		switch {
		case p <= -10:
			return "趋势偏弱且亏损较大，建议分批减仓或执行原定止损计划"
		case p < 0:
			return "轻度亏损 + 偏弱，收紧仓位，避免继续扩大亏损"
		case p < 15:
			return "有盈利但出现防守信号，可考虑先锁定一部分利润"
		default:
			return "高位防守信号，建议分批止盈，避免回吐过大浮盈"
		}
	}

	// Neutral.
	switch {
	case p <= -5:
		return "中性信号 + 亏损，轻仓观察为主，不盲目补仓"
	case p < 5:
		return "浮盈/亏不大且信号中性，观望为主，不急于操作"
	default:
		return "中性信号 + 有盈利，可按计划逐步止盈或继续持有"
	}
}
