package agent

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/clock"
)

// TechnicalAgent turns a stream of market updates into directional signals by
// comparing a short and a long simple moving average of close prices.
type TechnicalAgent struct {
	sharedClock
	shortWindow int
	longWindow  int
	closes      []float64
}

// NewTechnicalAgent creates a technical agent with the given SMA windows.
// shortWindow must be smaller than longWindow.
func NewTechnicalAgent(clk clock.Clock, shortWindow int, longWindow int) *TechnicalAgent {
	return &TechnicalAgent{
		sharedClock: sharedClock{clk: clk},
		shortWindow: shortWindow,
		longWindow:  longWindow,
		closes:      nil,
	}
}

// OnMarketUpdate ingests one update and, once enough history exists, emits a
// signal. Returns None while the long window is still warming up.
func (a *TechnicalAgent) OnMarketUpdate(update MarketUpdate) optional.Option[Signal] {
	a.closes = append(a.closes, update.Price)
	if len(a.closes) > a.longWindow {
		a.closes = a.closes[len(a.closes)-a.longWindow:]
	}

	if len(a.closes) < a.longWindow {
		return optional.None[Signal]()
	}

	shortSMA := mean(a.closes[len(a.closes)-a.shortWindow:])
	longSMA := mean(a.closes)

	if longSMA == 0 {
		return optional.None[Signal]()
	}

	// Relative divergence of the short average from the long one. 0.5% of
	// divergence maps to full strength.
	divergence := (shortSMA - longSMA) / longSMA
	strength := math.Min(math.Abs(divergence)/0.005, 1)

	kind := SignalNeutral
	if divergence > 0.0005 {
		kind = SignalBullish
	} else if divergence < -0.0005 {
		kind = SignalBearish
	}

	return optional.Some(Signal{
		Kind:     kind,
		Strength: strength,
		Reason:   fmt.Sprintf("sma divergence %.4f%% at %s", divergence*100, a.now().Format("2006-01-02 15:04")),
	})
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
