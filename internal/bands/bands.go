// Package bands derives the defensive/offensive price ladder anchored on a
// position's cost basis. Candidates are fused from fixed percentage offsets,
// the recent swing range, Fibonacci retracements between cost and the swings,
// and the trend reference, then the levels nearest to cost are selected.
package bands

import (
	"math"
	"sort"

	"HoldingsRadar/internal/model"
)

const (
	defenseCount = 3
	offenseCount = 4
)

var (
	defensePcts = []float64{0.05, 0.10, 0.15}
	offensePcts = []float64{0.05, 0.10, 0.15, 0.20}
	fibRatios   = []float64{0.382, 0.5, 0.618}
)

// Input carries the optional context for band generation. Zero values mean
// "absent"; all meaningful prices are strictly positive.
type Input struct {
	Cost      float64
	LastPrice float64
	TrendRef  float64 // e.g. EMA20; defense when below cost, offense above
	SwingLow  float64
	SwingHigh float64
}

// Generate returns the price ladder for the given context, or nil when a
// full ladder (3 defense + 4 offense levels) cannot be formed. Partial
// ladders are never returned.
func Generate(in Input) *model.PriceBands {
	cost := in.Cost
	if cost <= 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return nil
	}

	var defense, offense []float64

	for _, pct := range defensePcts {
		defense = append(defense, cost*(1-pct))
	}
	for _, pct := range offensePcts {
		offense = append(offense, cost*(1+pct))
	}

	if in.SwingLow > 0 {
		defense = append(defense, in.SwingLow)
	}
	if in.SwingHigh > 0 {
		offense = append(offense, in.SwingHigh)
	}

	if in.SwingLow > 0 && in.SwingHigh > in.SwingLow {
		if cost > in.SwingLow {
			downRange := cost - in.SwingLow
			for _, r := range fibRatios {
				defense = append(defense, cost-downRange*r)
			}
		}
		if in.SwingHigh > cost {
			upRange := in.SwingHigh - cost
			for _, r := range fibRatios {
				offense = append(offense, cost+upRange*r)
			}
			// The swing high itself is a take-profit target; harmless if
			// it was already added above.
			offense = append(offense, cost+upRange)
		}
	}

	if in.TrendRef > 0 {
		if in.TrendRef < cost {
			defense = append(defense, in.TrendRef)
		} else if in.TrendRef > cost {
			offense = append(offense, in.TrendRef)
		}
	}

	// Nearest-from-below: dedup, keep strictly-below levels, take the 3
	// closest to cost, then present ascending.
	defensePicked := nearest(defense, func(lv float64) bool { return lv < cost }, true, defenseCount)
	// Nearest-from-above: the 4 closest above cost, ascending.
	offensePicked := nearest(offense, func(lv float64) bool { return lv > cost }, false, offenseCount)

	if len(defensePicked) < defenseCount || len(offensePicked) < offenseCount {
		return nil
	}

	return &model.PriceBands{Defense: defensePicked, Offense: offensePicked}
}

// nearest dedups candidates at 4-decimal precision, keeps those passing the
// side filter, sorts them toward cost (descending for the defense side) and
// returns up to n levels sorted ascending, rounded to 2 decimals.
func nearest(candidates []float64, keep func(float64) bool, descending bool, n int) []float64 {
	uniq := make(map[float64]struct{}, len(candidates))
	for _, lv := range candidates {
		if lv <= 0 || math.IsNaN(lv) || math.IsInf(lv, 0) {
			continue
		}
		if !keep(lv) {
			continue
		}
		uniq[round4(lv)] = struct{}{}
	}

	levels := make([]float64, 0, len(uniq))
	for lv := range uniq {
		levels = append(levels, lv)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.Float64Slice(levels)))
	} else {
		sort.Float64s(levels)
	}
	if len(levels) > n {
		levels = levels[:n]
	}

	sort.Float64s(levels)
	for i, lv := range levels {
		levels[i] = round2(lv)
	}
	return levels
}

func round4(x float64) float64 { return math.Round(x*10000) / 10000 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
