// Package contestant implements the pluggable trading strategies raced
// against each other by the controller. Every strategy owns exactly one
// portfolio ledger and reacts to clock ticks; the controller only ever
// depends on the Contestant contract, never on a concrete kind.
package contestant

import (
	"context"

	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/portfolio"
	"github.com/rxtech-lab/argo-race/internal/types"
)

// Contestant is the shared contract between the race controller and a
// strategy. Initialize is called exactly once before the first tick with the
// run's capital and the shared simulation clock; OnTick is then called once
// per simulated step, sequentially and in registration order.
type Contestant interface {
	// ID returns the unique identifier of this contestant within a run.
	ID() string
	// Name returns the human-readable display name.
	Name() string
	// Initialize funds the contestant's ledger and hands it the run clock.
	Initialize(capital float64, clk clock.Clock) error
	// OnTick runs one round of strategy logic at the clock's current time.
	OnTick(ctx context.Context) error
	// Portfolio returns the ledger exclusively owned by this contestant.
	Portfolio() *portfolio.Ledger
}

// LogSource is optionally implemented by contestants that buffer strategy
// logs. DrainLogs returns all entries accumulated since the previous drain
// and clears the buffer, so repeated drains never repeat data.
type LogSource interface {
	DrainLogs() []types.LogEntry
}

// logBuffer accumulates strategy log entries stamped with simulation time.
type logBuffer struct {
	contestantID string
	clk          clock.Clock
	entries      []types.LogEntry
}

func newLogBuffer(contestantID string, clk clock.Clock) *logBuffer {
	return &logBuffer{contestantID: contestantID, clk: clk}
}

func (b *logBuffer) log(level types.LogLevel, message string, fields map[string]string) {
	b.entries = append(b.entries, types.LogEntry{
		Timestamp:    b.clk.AsTime(),
		ContestantID: b.contestantID,
		Level:        level,
		Message:      message,
		Fields:       fields,
	})
}

func (b *logBuffer) info(message string, fields map[string]string) {
	b.log(types.LogLevelInfo, message, fields)
}

func (b *logBuffer) warn(message string, fields map[string]string) {
	b.log(types.LogLevelWarn, message, fields)
}

func (b *logBuffer) drain() []types.LogEntry {
	entries := b.entries
	b.entries = nil

	return entries
}
