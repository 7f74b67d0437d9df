package notifier

import (
	"fmt"
	"strings"
	"time"

	"HoldingsRadar/internal/model"
)

// FormatRunSummary formats a finished run into a Telegram message.
func FormatRunSummary(mode model.RunMode, watchlist []string, results map[string]*model.SignalResult) string {
	var b strings.Builder

	modeLabel := "日线"
	if mode == model.ModeIntraday {
		modeLabel = "盘中 15m+1h"
	}
	b.WriteString(fmt.Sprintf("📊 <b>持仓信号雷达</b> | %s | %s\n\n", modeLabel, time.Now().Format("2006-01-02 15:04")))

	var bullish, defensive, neutral, skipped int
	for _, symbol := range watchlist {
		res, ok := results[symbol]
		if !ok {
			continue
		}
		if res.NoData {
			skipped++
			b.WriteString(fmt.Sprintf("• %s: 无数据（已跳过）\n", symbol))
			continue
		}
		switch res.Grade {
		case model.GradeBullish:
			bullish++
		case model.GradeDefensive:
			defensive++
		default:
			neutral++
		}
		b.WriteString(fmt.Sprintf("• %s [%s] %+.1f%% @%.2f\n  %s\n", symbol, res.Grade, res.PnlPct, res.LastPrice, res.Action))
	}

	b.WriteString(fmt.Sprintf("\n合计: B×%d / C×%d / D×%d", bullish, neutral, defensive))
	if skipped > 0 {
		b.WriteString(fmt.Sprintf(" / 跳过×%d", skipped))
	}
	b.WriteString("\n")
	return b.String()
}
