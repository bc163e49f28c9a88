// Package marketdata implements the read-only candle store consumed by the
// simulation. The store is opened once per process, passed in explicitly and
// closed on shutdown; there is no ambient global handle.
package marketdata

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/types"
)

// CandleQuery describes one read against the candle store.
type CandleQuery struct {
	Symbol string
	// Interval requests aggregation of the stored 1-minute candles into
	// coarser buckets. Interval1m returns the raw series.
	Interval Interval
	// Start is an inclusive lower time bound.
	Start optional.Option[time.Time]
	// End is an inclusive upper time bound. Lookups never return candles
	// after End, so replayed strategies cannot see future data.
	End optional.Option[time.Time]
	// Limit > 0 keeps only the most recent Limit candles of the matched
	// range. Results are always returned oldest-first regardless.
	Limit int
}

// Source is the narrow read API over the candle store.
type Source interface {
	// QueryCandles returns candles matching the query, ordered oldest-first.
	QueryCandles(query CandleQuery) ([]types.Candle, error)
	// LatestAt returns the single most recent candle at or before the given
	// time, if any exists.
	LatestAt(symbol string, at time.Time) (optional.Option[types.Candle], error)
	// Count returns the number of stored candles within the optional bounds.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the underlying resources.
	Close() error
}
