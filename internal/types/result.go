package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RaceResult is the final scoreboard entry for one contestant.
type RaceResult struct {
	ContestantID string `yaml:"contestant_id" json:"contestant_id"`
	Name         string `yaml:"name" json:"name"`
	// FinalEquity is the contestant's total equity at the end of the run.
	FinalEquity float64 `yaml:"final_equity" json:"final_equity"`
	// TotalReturn is the return ratio relative to initial capital, in percent.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	TradeCount  int     `yaml:"trade_count" json:"trade_count"`
	// SharpeRatio is not annualized; see PortfolioOverview.SharpeRatio.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

// RaceReport wraps the results of a completed run with its identity.
type RaceReport struct {
	// ID is the unique identifier for this run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this run was executed (wall time).
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the traded pair.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Results holds one entry per contestant, in registration order.
	Results []RaceResult `yaml:"results" json:"results"`
}

// WriteRaceReport writes a run report to a YAML file.
func WriteRaceReport(path string, report RaceReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal race report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write race report to file: %w", err)
	}

	return nil
}
