package types

import "time"

// LogLevel is the severity of a strategy log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a single strategy log line with simulation-time context.
type LogEntry struct {
	// Timestamp is the simulated time when this entry was created, not wall time.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// ContestantID identifies the strategy that produced the entry.
	ContestantID string   `yaml:"contestant_id" json:"contestant_id"`
	Level        LogLevel `yaml:"level" json:"level"`
	Message      string   `yaml:"message" json:"message"`
	// Fields contains optional structured key-value data.
	Fields map[string]string `yaml:"fields,omitempty" json:"fields,omitempty"`
}
