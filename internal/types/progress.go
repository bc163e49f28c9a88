package types

import "time"

// ProgressEvent is emitted by the race controller once per tick, and carries
// only data produced since the previous event so that long, high-frequency
// runs keep a bounded payload size.
type ProgressEvent struct {
	// Timestamp is the simulated time of the tick that produced this event.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Progress is the percentage of the run completed, 0-100.
	Progress float64 `yaml:"progress" json:"progress"`
	// Equities maps contestant ID to current total equity, for charting.
	Equities map[string]float64 `yaml:"equities,omitempty" json:"equities,omitempty"`
	// Logs maps contestant ID to log entries drained since the last event.
	Logs map[string][]LogEntry `yaml:"logs,omitempty" json:"logs,omitempty"`
	// Trades maps contestant ID to trade records created since the last event.
	Trades map[string][]TradeRecord `yaml:"trades,omitempty" json:"trades,omitempty"`
}
