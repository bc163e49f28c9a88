package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-race/internal/types"
)

// AggregateCandles merges fine-grained candles into coarser buckets of
// bucketMinutes width: open is the first candle's open, close the last
// candle's close, high/low the extremes, volume the sum. Input must be
// time-ordered ascending; output preserves ascending order. A bucket width
// of one minute or less returns the input unchanged.
func AggregateCandles(candles []types.Candle, bucketMinutes int) []types.Candle {
	if bucketMinutes <= 1 || len(candles) == 0 {
		return candles
	}

	bucketSize := time.Duration(bucketMinutes) * time.Minute

	var (
		result  []types.Candle
		current types.Candle
		bucket  time.Time
		open    bool
	)

	for _, candle := range candles {
		candleBucket := candle.Time.Truncate(bucketSize)

		if !open || !candleBucket.Equal(bucket) {
			if open {
				result = append(result, current)
			}

			bucket = candleBucket
			current = candle
			current.Time = candleBucket
			open = true

			continue
		}

		if candle.High > current.High {
			current.High = candle.High
		}

		if candle.Low < current.Low {
			current.Low = candle.Low
		}

		current.Close = candle.Close
		current.Volume += candle.Volume
	}

	if open {
		result = append(result, current)
	}

	return result
}
