package types

import "time"

// PortfolioSnapshot is a point-in-time record of a portfolio's state.
// Snapshots are appended at least once per simulated tick and are the sole
// input to performance-metric computation; they are never mutated afterwards.
type PortfolioSnapshot struct {
	Timestamp     time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	TotalEquity   float64   `yaml:"total_equity" json:"total_equity" csv:"total_equity"`
	Cash          float64   `yaml:"cash" json:"cash" csv:"cash"`
	UnrealizedPL  float64   `yaml:"unrealized_pl" json:"unrealized_pl" csv:"unrealized_pl"`
	PositionCount int       `yaml:"position_count" json:"position_count" csv:"position_count"`
}

// PortfolioOverview is a read-only projection of a portfolio's performance.
type PortfolioOverview struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	TotalEquity    float64 `yaml:"total_equity" json:"total_equity"`
	Cash           float64 `yaml:"cash" json:"cash"`
	TotalReturn    float64 `yaml:"total_return" json:"total_return"`
	// TotalReturnPercent is the absolute return relative to initial capital.
	TotalReturnPercent float64 `yaml:"total_return_percent" json:"total_return_percent"`
	RealizedPL         float64 `yaml:"realized_pl" json:"realized_pl"`
	UnrealizedPL       float64 `yaml:"unrealized_pl" json:"unrealized_pl"`
	TradeCount         int     `yaml:"trade_count" json:"trade_count"`
	// SharpeRatio is computed from per-snapshot simple returns and is not
	// annualized. Its scale depends on the step size of the run, so it is
	// only comparable across runs that used the same step size.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdown is the largest peak-to-trough equity decline, in percent.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
}
