package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"HoldingsRadar/internal/model"
)

func TestFormatRunSummary(t *testing.T) {
	results := map[string]*model.SignalResult{
		"AAPL": {Symbol: "AAPL", Grade: model.GradeBullish, PnlPct: 12.3, LastPrice: 210.5, Action: "可以持有"},
		"MSFT": {Symbol: "MSFT", Grade: model.GradeNeutral, PnlPct: -2.1, LastPrice: 400.2, Action: "观望"},
		"BNDX": {Symbol: "BNDX", NoData: true},
	}
	out := FormatRunSummary(model.ModeDaily, []string{"AAPL", "MSFT", "BNDX"}, results)

	assert.Contains(t, out, "日线")
	assert.Contains(t, out, "AAPL [B] +12.3% @210.50")
	assert.Contains(t, out, "MSFT [C] -2.1%")
	assert.Contains(t, out, "BNDX: 无数据")
	assert.Contains(t, out, "B×1 / C×1 / D×0 / 跳过×1")
}
