// Package portfolio implements the simulated brokerage account owned by each
// contestant: cash, positions, the trade audit trail, equity snapshots and the
// performance metrics derived from them.
package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// positionEpsilon is the quantity below which a position is considered closed
// and removed, so that float dust never leaves a ghost record behind.
const positionEpsilon = 1e-9

// Ledger is a single contestant's simulated account. It is exclusively owned
// by one contestant and must not be shared across goroutines.
type Ledger struct {
	log            *logger.Logger
	initialCapital float64
	cash           float64
	realizedPL     float64
	positions      map[string]*types.Position
	trades         []types.TradeRecord
	snapshots      []types.PortfolioSnapshot
}

// NewLedger creates a ledger funded with the given initial capital.
func NewLedger(initialCapital float64, log *logger.Logger) *Ledger {
	return &Ledger{
		log:            log,
		initialCapital: initialCapital,
		cash:           initialCapital,
		realizedPL:     0,
		positions:      make(map[string]*types.Position),
		trades:         nil,
		snapshots:      nil,
	}
}

// ExecuteTrade applies a BUY or SELL against the ledger. It returns false and
// leaves all state unchanged when the trade would violate an account
// invariant: a BUY whose notional exceeds available cash, or a SELL for more
// quantity than is held. Invariant violations are deliberately not errors so
// that a contestant's bad decision can never crash the shared loop.
func (l *Ledger) ExecuteTrade(symbol string, side types.Side, price float64, quantity float64, reason string, at time.Time) bool {
	if price <= 0 || quantity <= 0 {
		return false
	}

	notional := price * quantity

	switch side {
	case types.SideBuy:
		if notional > l.cash {
			l.log.Debug("Buy rejected: insufficient cash",
				zap.String("symbol", symbol),
				zap.Float64("notional", notional),
				zap.Float64("cash", l.cash),
			)

			return false
		}

		l.cash -= notional
		l.mergeBuy(symbol, price, quantity, notional)
	case types.SideSell:
		position, ok := l.positions[symbol]
		if !ok || quantity > position.Quantity {
			l.log.Debug("Sell rejected: insufficient position",
				zap.String("symbol", symbol),
				zap.Float64("quantity", quantity),
			)

			return false
		}

		l.cash += notional
		l.applySell(position, price, quantity)
	default:
		return false
	}

	l.trades = append(l.trades, types.TradeRecord{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Notional:  notional,
		Timestamp: at,
		Reason:    reason,
	})

	return true
}

// mergeBuy folds a fill into the existing position using weighted-average
// cost: newAvg = (oldAvg*oldQty + notional) / newQty.
func (l *Ledger) mergeBuy(symbol string, price, quantity, notional float64) {
	position, ok := l.positions[symbol]
	if !ok {
		l.positions[symbol] = &types.Position{
			Symbol:       symbol,
			Quantity:     quantity,
			AvgCost:      price,
			LastPrice:    price,
			UnrealizedPL: 0,
		}

		return
	}

	oldCost := decimal.NewFromFloat(position.AvgCost).Mul(decimal.NewFromFloat(position.Quantity))
	newQty := decimal.NewFromFloat(position.Quantity).Add(decimal.NewFromFloat(quantity))
	newAvg := oldCost.Add(decimal.NewFromFloat(notional)).Div(newQty)

	position.Quantity, _ = newQty.Float64()
	position.AvgCost, _ = newAvg.Float64()
	position.LastPrice = price
	position.UnrealizedPL = (price - position.AvgCost) * position.Quantity
}

// applySell realizes P&L as (sellPrice - avgCost) * quantity and removes the
// position when the remaining quantity is negligible.
func (l *Ledger) applySell(position *types.Position, price, quantity float64) {
	realized := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(position.AvgCost)).
		Mul(decimal.NewFromFloat(quantity))

	realizedFloat, _ := realized.Float64()
	l.realizedPL += realizedFloat

	position.Quantity -= quantity
	position.LastPrice = price

	if position.Quantity <= positionEpsilon {
		delete(l.positions, position.Symbol)

		return
	}

	position.UnrealizedPL = (price - position.AvgCost) * position.Quantity
}

// UpdatePrice refreshes a position's mark price and unrealized P&L.
// It is a no-op when no position exists for the symbol.
func (l *Ledger) UpdatePrice(symbol string, price float64) {
	position, ok := l.positions[symbol]
	if !ok {
		return
	}

	position.LastPrice = price
	position.UnrealizedPL = (price - position.AvgCost) * position.Quantity
}

// TotalEquity returns cash plus the mark-to-market value of all positions.
func (l *Ledger) TotalEquity() float64 {
	equity := l.cash
	for _, position := range l.positions {
		equity += position.MarketValue()
	}

	return equity
}

// UnrealizedPL returns the sum of unrealized P&L over all open positions.
func (l *Ledger) UnrealizedPL() float64 {
	total := 0.0
	for _, position := range l.positions {
		total += position.UnrealizedPL
	}

	return total
}

// TakeSnapshot captures the current equity, cash, unrealized P&L and position
// count, appends the snapshot to history and returns it.
func (l *Ledger) TakeSnapshot(at time.Time) types.PortfolioSnapshot {
	snapshot := types.PortfolioSnapshot{
		Timestamp:     at,
		TotalEquity:   l.TotalEquity(),
		Cash:          l.cash,
		UnrealizedPL:  l.UnrealizedPL(),
		PositionCount: len(l.positions),
	}

	l.snapshots = append(l.snapshots, snapshot)

	return snapshot
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// InitialCapital returns the capital the ledger was funded with.
func (l *Ledger) InitialCapital() float64 {
	return l.initialCapital
}

// RealizedPL returns lifetime realized profit and loss.
func (l *Ledger) RealizedPL() float64 {
	return l.realizedPL
}

// Position returns the position for a symbol, if one is held.
func (l *Ledger) Position(symbol string) optional.Option[types.Position] {
	position, ok := l.positions[symbol]
	if !ok {
		return optional.None[types.Position]()
	}

	return optional.Some(*position)
}

// Positions returns a copy of all open positions.
func (l *Ledger) Positions() []types.Position {
	result := make([]types.Position, 0, len(l.positions))
	for _, position := range l.positions {
		result = append(result, *position)
	}

	return result
}

// TradeCount returns the number of trades executed so far.
func (l *Ledger) TradeCount() int {
	return len(l.trades)
}

// TradesSince returns the trade records appended at or after startIndex.
// The race controller uses this to ship only new trades per progress event.
func (l *Ledger) TradesSince(startIndex int) []types.TradeRecord {
	if startIndex < 0 {
		startIndex = 0
	}

	if startIndex >= len(l.trades) {
		return nil
	}

	out := make([]types.TradeRecord, len(l.trades)-startIndex)
	copy(out, l.trades[startIndex:])

	return out
}

// Snapshots returns the append-only snapshot history.
func (l *Ledger) Snapshots() []types.PortfolioSnapshot {
	return l.snapshots
}

// Overview returns a read-only projection of the ledger's performance,
// with metrics computed from the snapshot history only.
func (l *Ledger) Overview() types.PortfolioOverview {
	equity := l.TotalEquity()

	overview := types.PortfolioOverview{
		InitialCapital: l.initialCapital,
		TotalEquity:    equity,
		Cash:           l.cash,
		TotalReturn:    equity - l.initialCapital,
		RealizedPL:     l.realizedPL,
		UnrealizedPL:   l.UnrealizedPL(),
		TradeCount:     len(l.trades),
		SharpeRatio:    SharpeRatio(l.snapshots),
		MaxDrawdown:    MaxDrawdown(l.snapshots),
	}

	if l.initialCapital > 0 {
		overview.TotalReturnPercent = overview.TotalReturn / l.initialCapital * 100
	}

	return overview
}
