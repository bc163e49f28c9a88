package marketdata

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/indicator"
	"github.com/rxtech-lab/argo-race/internal/types"
)

// MemorySource is an in-memory, index-backed Source. It serves the same read
// API as DuckDBSource over a pre-loaded candle slice and is the default store
// for tests and small replays.
type MemorySource struct {
	candles []types.Candle
}

// NewMemorySource creates a source over the given candles. The slice is
// copied and sorted by time ascending.
func NewMemorySource(candles []types.Candle) *MemorySource {
	sorted := make([]types.Candle, len(candles))
	copy(sorted, candles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	return &MemorySource{candles: sorted}
}

// QueryCandles implements Source.
func (m *MemorySource) QueryCandles(query CandleQuery) ([]types.Candle, error) {
	minutes, err := IntervalMinutes(query.Interval)
	if err != nil {
		return nil, err
	}

	var matched []types.Candle

	for _, candle := range m.candles {
		if candle.Symbol != query.Symbol {
			continue
		}

		if query.Start.IsSome() && candle.Time.Before(query.Start.Unwrap()) {
			continue
		}

		if query.End.IsSome() && candle.Time.After(query.End.Unwrap()) {
			continue
		}

		matched = append(matched, candle)
	}

	if minutes > 1 {
		matched = indicator.AggregateCandles(matched, minutes)
	}

	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[len(matched)-query.Limit:]
	}

	return matched, nil
}

// LatestAt implements Source.
func (m *MemorySource) LatestAt(symbol string, at time.Time) (optional.Option[types.Candle], error) {
	// Binary search for the first candle after `at`, then walk back to the
	// nearest one matching the symbol.
	idx := sort.Search(len(m.candles), func(i int) bool {
		return m.candles[i].Time.After(at)
	})

	for i := idx - 1; i >= 0; i-- {
		if m.candles[i].Symbol == symbol {
			return optional.Some(m.candles[i]), nil
		}
	}

	return optional.None[types.Candle](), nil
}

// Count implements Source.
func (m *MemorySource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, candle := range m.candles {
		if start.IsSome() && candle.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && candle.Time.After(end.Unwrap()) {
			continue
		}

		count++
	}

	return count, nil
}

// Close implements Source.
func (m *MemorySource) Close() error {
	m.candles = nil

	return nil
}
