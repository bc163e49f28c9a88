// Package indicator provides the price-analysis primitives used by the grid
// strategy: pivot-point detection, range volatility and candle aggregation.
package indicator

import (
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/types"
)

// PivotPoint is a local price extremum relative to a symmetric neighborhood
// of candles. Pivot lists are derived, read-only outputs recomputed from
// scratch on demand.
type PivotPoint struct {
	// Index into the candle series the pivot was found in.
	Index int
	// Price is the candle's low (for low pivots) or high (for high pivots).
	Price float64
	Time  time.Time
}

// FindPivotLows returns every candle whose low is strictly less than the low
// of all n candles on each side. Series shorter than 2n+1 yield no pivots.
func FindPivotLows(candles []types.Candle, n int) []PivotPoint {
	if n <= 0 || len(candles) < 2*n+1 {
		return nil
	}

	var pivots []PivotPoint

	for i := n; i < len(candles)-n; i++ {
		isPivot := true

		for j := i - n; j <= i+n; j++ {
			if j == i {
				continue
			}

			if candles[i].Low >= candles[j].Low {
				isPivot = false

				break
			}
		}

		if isPivot {
			pivots = append(pivots, PivotPoint{Index: i, Price: candles[i].Low, Time: candles[i].Time})
		}
	}

	return pivots
}

// FindPivotHighs returns every candle whose high is strictly greater than the
// high of all n candles on each side. Series shorter than 2n+1 yield no pivots.
func FindPivotHighs(candles []types.Candle, n int) []PivotPoint {
	if n <= 0 || len(candles) < 2*n+1 {
		return nil
	}

	var pivots []PivotPoint

	for i := n; i < len(candles)-n; i++ {
		isPivot := true

		for j := i - n; j <= i+n; j++ {
			if j == i {
				continue
			}

			if candles[i].High <= candles[j].High {
				isPivot = false

				break
			}
		}

		if isPivot {
			pivots = append(pivots, PivotPoint{Index: i, Price: candles[i].High, Time: candles[i].Time})
		}
	}

	return pivots
}

// RecentPivots selects up to count pivots per side. With a reference price the
// selection prefers pivots closest to it; without one it prefers the most
// recent. Either way the returned lists are re-sorted into canonical order:
// lows ascending, highs descending.
func RecentPivots(candles []types.Candle, n int, count int, refPrice optional.Option[float64]) (lows []PivotPoint, highs []PivotPoint) {
	lows = selectPivots(FindPivotLows(candles, n), count, refPrice)
	highs = selectPivots(FindPivotHighs(candles, n), count, refPrice)

	sort.Slice(lows, func(i, j int) bool { return lows[i].Price < lows[j].Price })
	sort.Slice(highs, func(i, j int) bool { return highs[i].Price > highs[j].Price })

	return lows, highs
}

func selectPivots(pivots []PivotPoint, count int, refPrice optional.Option[float64]) []PivotPoint {
	if count <= 0 || len(pivots) == 0 {
		return nil
	}

	selected := make([]PivotPoint, len(pivots))
	copy(selected, pivots)

	if refPrice.IsSome() {
		ref := refPrice.Unwrap()
		sort.Slice(selected, func(i, j int) bool {
			return math.Abs(selected[i].Price-ref) < math.Abs(selected[j].Price-ref)
		})
	} else {
		// Most recent first
		sort.Slice(selected, func(i, j int) bool {
			return selected[i].Index > selected[j].Index
		})
	}

	if len(selected) > count {
		selected = selected[:count]
	}

	return selected
}
