package agent

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-race/internal/clock"
)

// DecisionAgent converts technical signals into target-position calls.
// It keeps hysteresis around its current target so that small signal wobbles
// do not generate a rebalance on every update.
type DecisionAgent struct {
	sharedClock
	setTarget SetTargetPositionFunc
	// currentTarget is the last target percent communicated downstream.
	currentTarget float64
	// holdBand is the minimum target change, in percentage points, worth acting on.
	holdBand float64
	// maxExposure caps the target percent of equity held in the asset.
	maxExposure float64
}

// NewDecisionAgent creates a decision agent that reports targets through
// setTarget.
func NewDecisionAgent(clk clock.Clock, setTarget SetTargetPositionFunc) *DecisionAgent {
	return &DecisionAgent{
		sharedClock:   sharedClock{clk: clk},
		setTarget:     setTarget,
		currentTarget: 0,
		holdBand:      5,
		maxExposure:   80,
	}
}

// OnSignal maps a signal onto a target exposure: bullish scales up with
// strength, bearish exits entirely, neutral holds the current target.
func (a *DecisionAgent) OnSignal(signal Signal) {
	var target float64

	switch signal.Kind {
	case SignalBullish:
		target = math.Min(30+50*signal.Strength, a.maxExposure)
	case SignalBearish:
		target = 0
	case SignalNeutral:
		return
	default:
		return
	}

	if math.Abs(target-a.currentTarget) < a.holdBand {
		return
	}

	a.currentTarget = target
	a.setTarget(target, fmt.Sprintf("%s (%s)", signal.Reason, signal.Kind))
}

// CurrentTarget returns the last target percent acted upon.
func (a *DecisionAgent) CurrentTarget() float64 {
	return a.currentTarget
}
