package contestant

import (
	"context"
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/agent"
	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/portfolio"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
)

// SquadConfig configures the multi-agent squad contestant.
type SquadConfig struct {
	// CadenceMinutes is the simulated time between market updates delivered
	// to the technical agent.
	CadenceMinutes int `yaml:"cadence_minutes" json:"cadence_minutes" validate:"required,gt=0"`
	// MinNotional filters out rebalances too small to be worth a trade.
	MinNotional float64 `yaml:"min_notional" json:"min_notional" validate:"gte=0"`
	// ShortWindow and LongWindow are the SMA windows of the technical agent.
	ShortWindow int `yaml:"short_window" json:"short_window" validate:"required,gt=0"`
	LongWindow  int `yaml:"long_window" json:"long_window" validate:"required,gtfield=ShortWindow"`
}

// DefaultSquadConfig returns the stock squad parameters.
func DefaultSquadConfig() SquadConfig {
	return SquadConfig{
		CadenceMinutes: 5,
		MinNotional:    10,
		ShortWindow:    5,
		LongWindow:     20,
	}
}

// Squad wraps a technical-signal agent and a decision agent sharing the run
// clock. The decision agent's target-position action is intercepted here and
// translated into a single buy or sell that moves exposure toward the target.
type Squad struct {
	id     string
	name   string
	symbol string
	config SquadConfig
	source marketdata.Source
	log    *logger.Logger

	clk    clock.Clock
	ledger *portfolio.Ledger
	logs   *logBuffer

	technical *agent.TechnicalAgent
	decision  *agent.DecisionAgent
	// lastUpdateAt is the timestamp of the last delivered market update.
	lastUpdateAt optional.Option[int64]
	// currentPrice is the close the in-flight update was synthesized from;
	// the intercepted target-position action prices its trade off it.
	currentPrice float64
}

// NewSquad creates a multi-agent squad contestant.
func NewSquad(id string, symbol string, config SquadConfig, source marketdata.Source, log *logger.Logger) (*Squad, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeContestantConfig, "invalid squad config", err)
	}

	return &Squad{
		id:     id,
		name:   fmt.Sprintf("Squad SMA%d/%d", config.ShortWindow, config.LongWindow),
		symbol: symbol,
		config: config,
		source: source,
		log:    log,
	}, nil
}

// ID implements Contestant.
func (s *Squad) ID() string {
	return s.id
}

// Name implements Contestant.
func (s *Squad) Name() string {
	return s.name
}

// Initialize implements Contestant.
func (s *Squad) Initialize(capital float64, clk clock.Clock) error {
	s.clk = clk
	s.ledger = portfolio.NewLedger(capital, s.log)
	s.logs = newLogBuffer(s.id, clk)
	s.lastUpdateAt = optional.None[int64]()
	s.technical = agent.NewTechnicalAgent(clk, s.config.ShortWindow, s.config.LongWindow)
	s.decision = agent.NewDecisionAgent(clk, s.setTargetPosition)

	return nil
}

// OnTick implements Contestant. On its cadence it synthesizes a market update
// from the latest close and pushes it through the agent chain.
func (s *Squad) OnTick(ctx context.Context) error {
	now := s.clk.Now()

	if s.lastUpdateAt.IsSome() && now-s.lastUpdateAt.Unwrap() < int64(s.config.CadenceMinutes)*60_000 {
		return nil
	}

	candle, err := s.source.LatestAt(s.symbol, s.clk.AsTime())
	if err != nil {
		return err
	}

	if candle.IsNone() {
		return nil
	}

	s.lastUpdateAt = optional.Some(now)
	s.currentPrice = candle.Unwrap().Close

	signal := s.technical.OnMarketUpdate(agent.MarketUpdate{
		Symbol: s.symbol,
		Price:  s.currentPrice,
		Time:   s.clk.AsTime(),
	})

	if signal.IsSome() {
		s.decision.OnSignal(signal.Unwrap())
	}

	return nil
}

// setTargetPosition is the intercepted decision-agent action. It sizes one
// trade to move current exposure toward targetPercent of total equity,
// ignoring moves smaller than the minimum notional.
func (s *Squad) setTargetPosition(targetPercent float64, reason string) {
	if s.currentPrice <= 0 {
		return
	}

	equity := s.ledger.TotalEquity()
	targetValue := equity * targetPercent / 100

	currentValue := 0.0
	held := 0.0
	if position, err := s.ledger.Position(s.symbol).Take(); err == nil {
		currentValue = position.Quantity * s.currentPrice
		held = position.Quantity
	}

	delta := targetValue - currentValue
	if math.Abs(delta) < s.config.MinNotional {
		return
	}

	tradeReason := fmt.Sprintf("%s target=%.1f%% %s", types.TradeReasonRebalance, targetPercent, reason)

	if delta > 0 {
		notional := math.Min(delta, s.ledger.Cash())
		if notional < s.config.MinNotional {
			return
		}

		executed := s.ledger.ExecuteTrade(s.symbol, types.SideBuy, s.currentPrice, notional/s.currentPrice, tradeReason, s.clk.AsTime())
		s.logs.info("rebalancing up", map[string]string{
			"target":   fmt.Sprintf("%.1f%%", targetPercent),
			"notional": fmt.Sprintf("%.2f", notional),
			"executed": fmt.Sprintf("%t", executed),
		})

		return
	}

	quantity := math.Min(-delta/s.currentPrice, held)
	if quantity <= 0 {
		return
	}

	executed := s.ledger.ExecuteTrade(s.symbol, types.SideSell, s.currentPrice, quantity, tradeReason, s.clk.AsTime())
	s.logs.info("rebalancing down", map[string]string{
		"target":   fmt.Sprintf("%.1f%%", targetPercent),
		"quantity": fmt.Sprintf("%.8f", quantity),
		"executed": fmt.Sprintf("%t", executed),
	})
}

// Portfolio implements Contestant.
func (s *Squad) Portfolio() *portfolio.Ledger {
	return s.ledger
}

// DrainLogs implements LogSource.
func (s *Squad) DrainLogs() []types.LogEntry {
	return s.logs.drain()
}
