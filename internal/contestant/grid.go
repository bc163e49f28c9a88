package contestant

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/indicator"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/portfolio"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
)

// pivotNeighborhood is the symmetric window half-width used when extracting
// candidate grid levels from the aggregated candle series.
const pivotNeighborhood = 2

// GridConfig configures the grid-trading contestant.
type GridConfig struct {
	// Levels is the number of buy levels and of sell levels per grid.
	Levels int `yaml:"levels" json:"levels" validate:"required,gt=0"`
	// WindowDays is the rolling historical window the grid is computed from.
	WindowDays int `yaml:"window_days" json:"window_days" validate:"required,gt=0"`
	// AggregateInterval coarsens the 1-minute series before pivot detection.
	AggregateInterval marketdata.Interval `yaml:"aggregate_interval" json:"aggregate_interval" validate:"required"`
	// MinVolatility and MaxVolatility bound the acceptable range volatility
	// band, in percent. Readings outside the band are logged, not acted on.
	MinVolatility float64 `yaml:"min_volatility" json:"min_volatility" validate:"gte=0"`
	MaxVolatility float64 `yaml:"max_volatility" json:"max_volatility" validate:"gtefield=MinVolatility"`
	// StopLossPercent triggers a full liquidation when price falls this far
	// below the lowest buy level.
	StopLossPercent float64 `yaml:"stop_loss_percent" json:"stop_loss_percent" validate:"gt=0,lte=100"`
	// TakeProfitPercent triggers a 50% position trim at this unrealized gain.
	TakeProfitPercent float64 `yaml:"take_profit_percent" json:"take_profit_percent" validate:"gt=0"`
	// SpacingPercent spaces synthetic levels when too few real pivots exist.
	SpacingPercent float64 `yaml:"spacing_percent" json:"spacing_percent" validate:"gt=0,lte=100"`
	// CooldownTicks is the minimum number of ticks between two buys.
	CooldownTicks int `yaml:"cooldown_ticks" json:"cooldown_ticks" validate:"gte=0"`
}

// DefaultGridConfig returns the stock grid parameters.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Levels:            5,
		WindowDays:        7,
		AggregateInterval: marketdata.Interval15m,
		MinVolatility:     2,
		MaxVolatility:     15,
		StopLossPercent:   5,
		TakeProfitPercent: 10,
		SpacingPercent:    1,
		CooldownTicks:     3,
	}
}

// gridLevels is one immutable grid generation. Recompute conditions always
// replace the whole value; levels are never patched in place, so a grid can
// never mix levels computed from different historical windows.
type gridLevels struct {
	// buyLevels is ascending, sellLevels descending.
	buyLevels  []float64
	sellLevels []float64
	// triggered flags parallel the level slices and are permanent for the
	// lifetime of this generation, whether or not the trade succeeded.
	buyTriggered  []bool
	sellTriggered []bool
	computedAt    time.Time
}

func (g *gridLevels) allBuysTriggered() bool {
	for _, t := range g.buyTriggered {
		if !t {
			return false
		}
	}

	return true
}

func (g *gridLevels) allSellsTriggered() bool {
	for _, t := range g.sellTriggered {
		if !t {
			return false
		}
	}

	return true
}

func (g *gridLevels) untriggeredSells() int {
	count := 0
	for _, t := range g.sellTriggered {
		if !t {
			count++
		}
	}

	return count
}

func (g *gridLevels) lowestBuyLevel() float64 {
	return g.buyLevels[0]
}

// Grid trades a ladder of pivot-derived support and resistance levels.
type Grid struct {
	id     string
	name   string
	symbol string
	config GridConfig
	source marketdata.Source
	log    *logger.Logger

	clk    clock.Clock
	ledger *portfolio.Ledger
	logs   *logBuffer

	grid           *gridLevels
	lastVolatility indicator.VolatilityReading
	// ticksSinceBuy gates buy attempts; it counts ticks since the last buy
	// attempt, not since the last fill.
	ticksSinceBuy int
}

// NewGrid creates a grid-trading contestant.
func NewGrid(id string, symbol string, config GridConfig, source marketdata.Source, log *logger.Logger) (*Grid, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeContestantConfig, "invalid grid config", err)
	}

	return &Grid{
		id:     id,
		name:   fmt.Sprintf("Grid %dx%s", config.Levels, config.AggregateInterval),
		symbol: symbol,
		config: config,
		source: source,
		log:    log,
	}, nil
}

// ID implements Contestant.
func (g *Grid) ID() string {
	return g.id
}

// Name implements Contestant.
func (g *Grid) Name() string {
	return g.name
}

// Initialize implements Contestant.
func (g *Grid) Initialize(capital float64, clk clock.Clock) error {
	g.clk = clk
	g.ledger = portfolio.NewLedger(capital, g.log)
	g.logs = newLogBuffer(g.id, clk)
	g.grid = nil
	g.ticksSinceBuy = g.config.CooldownTicks

	return nil
}

// OnTick implements Contestant. Per tick, in order: regenerate the grid if
// needed, record volatility, check stop-loss, check take-profit, then
// evaluate untriggered buy and sell levels.
func (g *Grid) OnTick(ctx context.Context) error {
	g.ticksSinceBuy++

	candle, err := g.source.LatestAt(g.symbol, g.clk.AsTime())
	if err != nil {
		return err
	}

	if candle.IsNone() {
		return nil
	}

	price := candle.Unwrap().Close

	window, err := g.windowCandles()
	if err != nil {
		return err
	}

	if g.grid == nil || g.grid.allBuysTriggered() || g.grid.allSellsTriggered() {
		g.grid = g.recalculateGrid(price, window)
		g.logs.info("grid recalculated", map[string]string{
			"buy_levels":  formatLevels(g.grid.buyLevels),
			"sell_levels": formatLevels(g.grid.sellLevels),
		})
	}

	g.lastVolatility = indicator.AnalyzeVolatility(window, g.config.MinVolatility, g.config.MaxVolatility)
	if !g.lastVolatility.InRange {
		// Out-of-band volatility is logged but trading continues; pausing
		// was removed deliberately.
		g.logs.warn("volatility outside target band", map[string]string{
			"volatility": fmt.Sprintf("%.2f", g.lastVolatility.Volatility),
			"min":        fmt.Sprintf("%.2f", g.config.MinVolatility),
			"max":        fmt.Sprintf("%.2f", g.config.MaxVolatility),
		})
	}

	if g.checkStopLoss(price) {
		return nil
	}

	if g.checkTakeProfit(price) {
		return nil
	}

	g.evaluateBuyLevels(price)
	g.evaluateSellLevels(price)

	return nil
}

// Portfolio implements Contestant.
func (g *Grid) Portfolio() *portfolio.Ledger {
	return g.ledger
}

// DrainLogs implements LogSource.
func (g *Grid) DrainLogs() []types.LogEntry {
	return g.logs.drain()
}

// LastVolatility returns the most recent volatility reading.
func (g *Grid) LastVolatility() indicator.VolatilityReading {
	return g.lastVolatility
}

// windowCandles fetches the rolling aggregated window the grid and the
// volatility reading are computed from.
func (g *Grid) windowCandles() ([]types.Candle, error) {
	end := g.clk.AsTime()
	start := end.AddDate(0, 0, -g.config.WindowDays)

	return g.source.QueryCandles(marketdata.CandleQuery{
		Symbol:   g.symbol,
		Interval: g.config.AggregateInterval,
		Start:    optional.Some(start),
		End:      optional.Some(end),
	})
}

// recalculateGrid builds a fresh grid generation from pivot levels around the
// current price, topping up either side with synthetic levels until both hold
// exactly Levels entries.
func (g *Grid) recalculateGrid(price float64, window []types.Candle) *gridLevels {
	lows, highs := indicator.RecentPivots(window, pivotNeighborhood, g.config.Levels, optional.Some(price))

	buyLevels := make([]float64, 0, g.config.Levels)
	for _, pivot := range lows {
		if pivot.Price < price {
			buyLevels = append(buyLevels, pivot.Price)
		}
	}

	sellLevels := make([]float64, 0, g.config.Levels)
	for _, pivot := range highs {
		if pivot.Price > price {
			sellLevels = append(sellLevels, pivot.Price)
		}
	}

	spacing := g.config.SpacingPercent / 100

	// Synthetic levels step outward from the outermost real level, or from
	// the current price when no real level survived the filter.
	for len(buyLevels) < g.config.Levels {
		anchor := price
		if len(buyLevels) > 0 {
			anchor = buyLevels[0]
		}

		buyLevels = append([]float64{anchor * (1 - spacing)}, buyLevels...)
	}

	for len(sellLevels) < g.config.Levels {
		anchor := price
		if len(sellLevels) > 0 {
			anchor = sellLevels[len(sellLevels)-1]
		}

		sellLevels = append(sellLevels, anchor*(1+spacing))
	}

	sort.Float64s(buyLevels)
	sort.Sort(sort.Reverse(sort.Float64Slice(sellLevels)))

	return &gridLevels{
		buyLevels:     buyLevels,
		sellLevels:    sellLevels,
		buyTriggered:  make([]bool, len(buyLevels)),
		sellTriggered: make([]bool, len(sellLevels)),
		computedAt:    g.clk.AsTime(),
	}
}

// checkStopLoss liquidates the whole position when price breaks down through
// the grid floor. Returns true when it fired, halting further checks.
func (g *Grid) checkStopLoss(price float64) bool {
	position, err := g.ledger.Position(g.symbol).Take()
	if err != nil || position.Quantity <= 0 {
		return false
	}

	threshold := g.grid.lowestBuyLevel() * (1 - g.config.StopLossPercent/100)
	if price >= threshold {
		return false
	}

	executed := g.ledger.ExecuteTrade(g.symbol, types.SideSell, price, position.Quantity, types.TradeReasonStopLoss, g.clk.AsTime())
	g.logs.warn("stop loss triggered: full liquidation", map[string]string{
		"price":     fmt.Sprintf("%.4f", price),
		"threshold": fmt.Sprintf("%.4f", threshold),
		"executed":  fmt.Sprintf("%t", executed),
	})

	return true
}

// checkTakeProfit trims half the position once unrealized gain reaches the
// configured threshold. Returns true when it fired.
func (g *Grid) checkTakeProfit(price float64) bool {
	position, err := g.ledger.Position(g.symbol).Take()
	if err != nil || position.Quantity <= 0 {
		return false
	}

	if position.UnrealizedPLPercent() < g.config.TakeProfitPercent {
		return false
	}

	quantity := position.Quantity / 2
	executed := g.ledger.ExecuteTrade(g.symbol, types.SideSell, price, quantity, types.TradeReasonTakeProfit, g.clk.AsTime())
	g.logs.info("take profit triggered: trimming half position", map[string]string{
		"price":    fmt.Sprintf("%.4f", price),
		"gain":     fmt.Sprintf("%.2f%%", position.UnrealizedPLPercent()),
		"executed": fmt.Sprintf("%t", executed),
	})

	return true
}

// evaluateBuyLevels enters at untriggered levels at or above the price,
// spending 1/Levels of current cash per entry, gated by the tick cooldown.
// A level is marked triggered on attempt, never re-armed within a generation.
func (g *Grid) evaluateBuyLevels(price float64) {
	for i := len(g.grid.buyLevels) - 1; i >= 0; i-- {
		if g.grid.buyTriggered[i] || price > g.grid.buyLevels[i] {
			continue
		}

		if g.ticksSinceBuy < g.config.CooldownTicks {
			return
		}

		g.grid.buyTriggered[i] = true
		g.ticksSinceBuy = 0

		notional := g.ledger.Cash() / float64(g.config.Levels)
		if notional <= 0 {
			return
		}

		quantity := notional / price
		reason := fmt.Sprintf("%s level=%.4f", types.TradeReasonGridBuy, g.grid.buyLevels[i])
		executed := g.ledger.ExecuteTrade(g.symbol, types.SideBuy, price, quantity, reason, g.clk.AsTime())

		g.logs.info("grid buy level hit", map[string]string{
			"level":    fmt.Sprintf("%.4f", g.grid.buyLevels[i]),
			"price":    fmt.Sprintf("%.4f", price),
			"executed": fmt.Sprintf("%t", executed),
		})
	}
}

// evaluateSellLevels exits at untriggered levels at or below the price,
// selling 1/remaining of the held quantity per exit.
func (g *Grid) evaluateSellLevels(price float64) {
	for i := len(g.grid.sellLevels) - 1; i >= 0; i-- {
		if g.grid.sellTriggered[i] || price < g.grid.sellLevels[i] {
			continue
		}

		remaining := g.grid.untriggeredSells()
		g.grid.sellTriggered[i] = true

		position, err := g.ledger.Position(g.symbol).Take()
		if err != nil || position.Quantity <= 0 {
			continue
		}

		quantity := position.Quantity / float64(remaining)
		reason := fmt.Sprintf("%s level=%.4f", types.TradeReasonGridSell, g.grid.sellLevels[i])
		executed := g.ledger.ExecuteTrade(g.symbol, types.SideSell, price, quantity, reason, g.clk.AsTime())

		g.logs.info("grid sell level hit", map[string]string{
			"level":    fmt.Sprintf("%.4f", g.grid.sellLevels[i]),
			"price":    fmt.Sprintf("%.4f", price),
			"executed": fmt.Sprintf("%t", executed),
		})
	}
}

func formatLevels(levels []float64) string {
	out := ""
	for i, level := range levels {
		if i > 0 {
			out += ","
		}

		out += fmt.Sprintf("%.4f", level)
	}

	return out
}
