// Package agent implements the two collaborating sub-agents wrapped by the
// multi-agent squad contestant: a technical-signal generator and a
// decision-maker. Both read the same simulation clock and neither touches a
// ledger directly; the decision-maker's target-position action is intercepted
// by the squad and translated into trades.
package agent

import (
	"time"

	"github.com/rxtech-lab/argo-race/internal/clock"
)

// MarketUpdate is the event delivered to the technical agent. The squad
// synthesizes one from the latest close price on a fixed cadence.
type MarketUpdate struct {
	Symbol string
	Price  float64
	Time   time.Time
}

type SignalKind string

const (
	SignalBullish SignalKind = "BULLISH"
	SignalBearish SignalKind = "BEARISH"
	SignalNeutral SignalKind = "NEUTRAL"
)

// Signal is the technical agent's read of the market.
type Signal struct {
	Kind SignalKind
	// Strength is in [0, 1] and scales the decision-maker's target exposure.
	Strength float64
	Reason   string
}

// SetTargetPositionFunc is the action exposed to the decision agent. The
// receiver moves exposure toward targetPercent of total equity.
type SetTargetPositionFunc func(targetPercent float64, reason string)

// sharedClock is embedded by both agents so they observe identical time.
type sharedClock struct {
	clk clock.Clock
}

func (s sharedClock) now() time.Time {
	return s.clk.AsTime()
}
