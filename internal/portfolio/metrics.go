package portfolio

import (
	"math"

	"github.com/rxtech-lab/argo-race/internal/types"
)

// MaxDrawdown returns the maximum percentage decline of equity from its
// running peak over the snapshot history. Fewer than two snapshots yield 0.
func MaxDrawdown(snapshots []types.PortfolioSnapshot) float64 {
	if len(snapshots) < 2 {
		return 0
	}

	peak := snapshots[0].TotalEquity
	maxDrawdown := 0.0

	for _, snapshot := range snapshots[1:] {
		if snapshot.TotalEquity > peak {
			peak = snapshot.TotalEquity
			continue
		}

		if peak <= 0 {
			continue
		}

		drawdown := (peak - snapshot.TotalEquity) / peak
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown * 100
}

// SharpeRatio computes mean(r)/stddev(r)*sqrt(N) over per-snapshot simple
// returns r_i = (e_i - e_{i-1}) / e_{i-1}. The figure is relative and not
// annualized: its scale depends on the run's step size, so it must only be
// compared across runs with the same step size. Returns 0 when fewer than two
// snapshots exist or the return series has no variance.
func SharpeRatio(snapshots []types.PortfolioSnapshot) float64 {
	if len(snapshots) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(snapshots)-1)

	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].TotalEquity
		if prev == 0 {
			continue
		}

		returns = append(returns, (snapshots[i].TotalEquity-prev)/prev)
	}

	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns))

	stdDev := math.Sqrt(variance)
	if stdDev == 0 {
		return 0
	}

	return mean / stdDev * math.Sqrt(float64(len(returns)))
}
