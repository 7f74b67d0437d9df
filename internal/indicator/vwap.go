package indicator

import (
	"math"

	"HoldingsRadar/internal/model"
)

// SessionVWAP computes the volume-weighted average price over the bars
// belonging to the same calendar day as the last bar. Returns 0 when no
// volume was traded or no bars are available.
func SessionVWAP(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	last := bars[len(bars)-1].Time
	y, m, d := last.Date()

	var totalPV, totalVol float64
	for _, b := range bars {
		by, bm, bd := b.Time.Date()
		if by != y || bm != m || bd != d {
			continue
		}
		if b.Volume <= 0 {
			continue
		}
		totalPV += b.Close * b.Volume
		totalVol += b.Volume
	}
	if totalVol <= 0 {
		return 0
	}
	return math.Round(totalPV/totalVol*10000) / 10000
}
