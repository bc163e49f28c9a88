package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-race/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	TradeReasonStrategy   string = "strategy"
	TradeReasonStopLoss   string = "stop_loss"
	TradeReasonTakeProfit string = "take_profit"
	TradeReasonPeriodic   string = "periodic_investment"
	TradeReasonGridBuy    string = "grid_buy"
	TradeReasonGridSell   string = "grid_sell"
	TradeReasonOracle     string = "oracle_decision"
	TradeReasonRebalance  string = "target_rebalance"
)

// TradeRecord is one executed trade in a portfolio's audit trail.
// Records are append-only and never mutated once created.
type TradeRecord struct {
	ID        string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Symbol    string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side      Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Price     float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
	Quantity  float64   `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	Notional  float64   `yaml:"notional" json:"notional" csv:"notional" validate:"required,gt=0"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp" validate:"required"`
	// Reason is free text recorded by the strategy that placed the trade,
	// like "grid_buy level=42000" or "stop_loss".
	Reason string `yaml:"reason" json:"reason" csv:"reason"`
}

// Position is the current holding of one symbol inside a portfolio.
// A position whose quantity falls below a small epsilon is removed entirely,
// never kept around as a zero-quantity record.
type Position struct {
	Symbol       string  `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity     float64 `yaml:"quantity" json:"quantity" csv:"quantity"`
	AvgCost      float64 `yaml:"avg_cost" json:"avg_cost" csv:"avg_cost"`
	LastPrice    float64 `yaml:"last_price" json:"last_price" csv:"last_price"`
	UnrealizedPL float64 `yaml:"unrealized_pl" json:"unrealized_pl" csv:"unrealized_pl"`
}

// UnrealizedPLPercent returns the unrealized gain relative to cost basis.
func (p Position) UnrealizedPLPercent() float64 {
	costBasis := p.AvgCost * p.Quantity
	if costBasis == 0 {
		return 0
	}

	return p.UnrealizedPL / costBasis * 100
}

// MarketValue returns the mark-to-market value of the position.
func (p Position) MarketValue() float64 {
	return p.Quantity * p.LastPrice
}

// Validate validates the TradeRecord struct.
func (t *TradeRecord) Validate() error {
	validate := validator.New()
	if err := validate.Struct(t); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid trade record", err)
	}

	return nil
}
