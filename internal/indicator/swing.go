package indicator

import (
	"math"

	"HoldingsRadar/internal/model"
)

// RecentHighLow scans the most recent maxLookback bars and returns the
// swing low and high. ok is false when no bars are available.
func RecentHighLow(bars []model.Bar, maxLookback int) (low, high float64, ok bool) {
	if len(bars) == 0 {
		return 0, 0, false
	}
	start := len(bars) - maxLookback
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return low, high, true
}
