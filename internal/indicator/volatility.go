package indicator

import "github.com/rxtech-lab/argo-race/internal/types"

// VolatilityReading is the high-low range volatility of a candle window,
// classified against a target band.
type VolatilityReading struct {
	// Volatility is (maxHigh - minLow) / minLow * 100 over the window.
	Volatility float64
	// InRange is true iff Volatility lies within [min%, max%].
	InRange bool
}

// AnalyzeVolatility computes range volatility over the given candles and
// classifies it against [minPercent, maxPercent]. Empty input yields
// volatility 0 and InRange false.
func AnalyzeVolatility(candles []types.Candle, minPercent float64, maxPercent float64) VolatilityReading {
	if len(candles) == 0 {
		return VolatilityReading{Volatility: 0, InRange: false}
	}

	maxHigh := candles[0].High
	minLow := candles[0].Low

	for _, candle := range candles[1:] {
		if candle.High > maxHigh {
			maxHigh = candle.High
		}

		if candle.Low < minLow {
			minLow = candle.Low
		}
	}

	if minLow <= 0 {
		return VolatilityReading{Volatility: 0, InRange: false}
	}

	volatility := (maxHigh - minLow) / minLow * 100

	return VolatilityReading{
		Volatility: volatility,
		InRange:    volatility >= minPercent && volatility <= maxPercent,
	}
}
