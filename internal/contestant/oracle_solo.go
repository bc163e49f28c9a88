package contestant

import (
	"context"
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/indicator"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/oracle"
	"github.com/rxtech-lab/argo-race/internal/portfolio"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
)

// PromptDensity selects how much market context the oracle prompt carries.
type PromptDensity string

const (
	// DensityPriceOnly sends the raw recent price series.
	DensityPriceOnly PromptDensity = "price_only"
	// DensityIndicators adds computed indicators to the price series.
	DensityIndicators PromptDensity = "indicators"
	// DensityFull adds a multi-timeframe view and explicit strategy rules.
	DensityFull PromptDensity = "full"
)

const defaultSystemPrompt = "You are a trading decision engine. Reply with a single JSON object " +
	`{"decision": "BUY"|"SELL"|"WAIT", "percentage": 0-100, "reasoning": "..."} and nothing else. ` +
	"Percentage is percent of equity for BUY and percent of the held position for SELL."

// OracleSoloConfig configures the oracle-driven contestant.
type OracleSoloConfig struct {
	// Density selects the prompt information level.
	Density PromptDensity `yaml:"density" json:"density" validate:"required,oneof=price_only indicators full"`
	// CadenceMinutes is the simulated time between oracle consultations.
	// Zero consults on every tick.
	CadenceMinutes int `yaml:"cadence_minutes" json:"cadence_minutes" validate:"gte=0"`
	// HistoryCandles is how many recent aggregated candles feed the prompt.
	HistoryCandles int `yaml:"history_candles" json:"history_candles" validate:"required,gt=0"`
	// SystemPrompt overrides the default decision-engine system prompt.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
}

// DefaultOracleSoloConfig returns the stock oracle contestant parameters.
func DefaultOracleSoloConfig() OracleSoloConfig {
	return OracleSoloConfig{
		Density:        DensityIndicators,
		CadenceMinutes: 60,
		HistoryCandles: 48,
	}
}

// OracleSolo defers every trading decision to an external oracle. Replies are
// parsed defensively; anything unparseable counts as WAIT, never as a fault.
type OracleSolo struct {
	id     string
	name   string
	symbol string
	config OracleSoloConfig
	source marketdata.Source
	oracle oracle.Oracle
	log    *logger.Logger

	clk    clock.Clock
	ledger *portfolio.Ledger
	logs   *logBuffer

	lastAskedAt optional.Option[int64]
}

// NewOracleSolo creates an oracle-driven contestant.
func NewOracleSolo(id string, symbol string, config OracleSoloConfig, source marketdata.Source, decisionOracle oracle.Oracle, log *logger.Logger) (*OracleSolo, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeContestantConfig, "invalid oracle config", err)
	}

	if decisionOracle == nil {
		return nil, errors.New(errors.ErrCodeOracleUnavailable, "oracle contestant requires a decision oracle")
	}

	return &OracleSolo{
		id:     id,
		name:   fmt.Sprintf("Oracle %s", config.Density),
		symbol: symbol,
		config: config,
		source: source,
		oracle: decisionOracle,
		log:    log,
	}, nil
}

// ID implements Contestant.
func (o *OracleSolo) ID() string {
	return o.id
}

// Name implements Contestant.
func (o *OracleSolo) Name() string {
	return o.name
}

// Initialize implements Contestant.
func (o *OracleSolo) Initialize(capital float64, clk clock.Clock) error {
	o.clk = clk
	o.ledger = portfolio.NewLedger(capital, o.log)
	o.logs = newLogBuffer(o.id, clk)
	o.lastAskedAt = optional.None[int64]()

	return nil
}

// OnTick implements Contestant.
func (o *OracleSolo) OnTick(ctx context.Context) error {
	now := o.clk.Now()

	if o.config.CadenceMinutes > 0 && o.lastAskedAt.IsSome() &&
		now-o.lastAskedAt.Unwrap() < int64(o.config.CadenceMinutes)*60_000 {
		return nil
	}

	history, err := o.source.QueryCandles(marketdata.CandleQuery{
		Symbol:   o.symbol,
		Interval: marketdata.Interval15m,
		End:      optional.Some(o.clk.AsTime()),
		Limit:    o.config.HistoryCandles,
	})
	if err != nil {
		return err
	}

	if len(history) == 0 {
		return nil
	}

	o.lastAskedAt = optional.Some(now)
	price := history[len(history)-1].Close

	systemPrompt := o.config.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}

	reply, err := o.oracle.Chat(ctx, o.buildPrompt(history, price), systemPrompt)
	if err != nil {
		// An unreachable oracle is a missed consultation, not a run failure.
		o.logs.warn("oracle call failed, treating as WAIT", map[string]string{
			"error": err.Error(),
		})

		return nil
	}

	decision, parsed := oracle.ParseDecision(reply)
	if !parsed {
		o.logs.warn("oracle reply unparseable, treating as WAIT", nil)

		return nil
	}

	o.applyDecision(decision, price)

	return nil
}

// applyDecision turns a parsed oracle decision into at most one trade.
func (o *OracleSolo) applyDecision(decision oracle.Decision, price float64) {
	reason := types.TradeReasonOracle
	if decision.Reasoning != "" {
		reason = fmt.Sprintf("%s: %s", types.TradeReasonOracle, decision.Reasoning)
	}

	switch decision.Decision {
	case oracle.ActionBuy:
		notional := o.ledger.TotalEquity() * decision.Percentage / 100
		if notional > o.ledger.Cash() {
			notional = o.ledger.Cash()
		}

		if notional <= 0 {
			return
		}

		executed := o.ledger.ExecuteTrade(o.symbol, types.SideBuy, price, notional/price, reason, o.clk.AsTime())
		o.logs.info("oracle decided BUY", map[string]string{
			"percentage": fmt.Sprintf("%.1f", decision.Percentage),
			"notional":   fmt.Sprintf("%.2f", notional),
			"executed":   fmt.Sprintf("%t", executed),
		})
	case oracle.ActionSell:
		position, err := o.ledger.Position(o.symbol).Take()
		if err != nil || position.Quantity <= 0 {
			return
		}

		quantity := position.Quantity * decision.Percentage / 100
		if quantity <= 0 {
			return
		}

		executed := o.ledger.ExecuteTrade(o.symbol, types.SideSell, price, quantity, reason, o.clk.AsTime())
		o.logs.info("oracle decided SELL", map[string]string{
			"percentage": fmt.Sprintf("%.1f", decision.Percentage),
			"quantity":   fmt.Sprintf("%.8f", quantity),
			"executed":   fmt.Sprintf("%t", executed),
		})
	case oracle.ActionWait:
		o.logs.info("oracle decided WAIT", map[string]string{
			"reasoning": decision.Reasoning,
		})
	}
}

// buildPrompt renders the market summary at the configured density.
func (o *OracleSolo) buildPrompt(history []types.Candle, price float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Symbol: %s\nCurrent price: %.4f\nTime: %s\n\n", o.symbol, price, o.clk.AsTime().Format("2006-01-02 15:04"))

	b.WriteString("Recent 15m closes (oldest first):\n")
	for _, candle := range history {
		fmt.Fprintf(&b, "%.4f ", candle.Close)
	}
	b.WriteString("\n")

	if o.config.Density == DensityPriceOnly {
		return b.String()
	}

	o.writeIndicators(&b, history, price)

	if o.config.Density == DensityIndicators {
		return b.String()
	}

	o.writeMultiTimeframe(&b)
	b.WriteString("\nStrategy rules:\n" +
		"- Prefer WAIT unless the trend and the level structure agree.\n" +
		"- BUY near support pivots in an uptrend, sized 10-40% of equity.\n" +
		"- SELL into resistance pivots or when the trend turns, sized 25-100% of the position.\n" +
		"- Never size a single BUY above 50% of equity.\n")

	return b.String()
}

func (o *OracleSolo) writeIndicators(b *strings.Builder, history []types.Candle, price float64) {
	reading := indicator.AnalyzeVolatility(history, 0, 100)
	fmt.Fprintf(b, "\nIndicators:\nRange volatility: %.2f%%\n", reading.Volatility)

	lows, highs := indicator.RecentPivots(history, pivotNeighborhood, 3, optional.Some(price))
	b.WriteString("Support pivots: ")
	for _, pivot := range lows {
		fmt.Fprintf(b, "%.4f ", pivot.Price)
	}

	b.WriteString("\nResistance pivots: ")
	for _, pivot := range highs {
		fmt.Fprintf(b, "%.4f ", pivot.Price)
	}

	b.WriteString("\n")
}

func (o *OracleSolo) writeMultiTimeframe(b *strings.Builder) {
	hourly, err := o.source.QueryCandles(marketdata.CandleQuery{
		Symbol:   o.symbol,
		Interval: marketdata.Interval1h,
		End:      optional.Some(o.clk.AsTime()),
		Limit:    24,
	})
	if err != nil || len(hourly) == 0 {
		return
	}

	b.WriteString("\nHourly closes (oldest first):\n")
	for _, candle := range hourly {
		fmt.Fprintf(b, "%.4f ", candle.Close)
	}

	b.WriteString("\n")
}

// Portfolio implements Contestant.
func (o *OracleSolo) Portfolio() *portfolio.Ledger {
	return o.ledger
}

// DrainLogs implements LogSource.
func (o *OracleSolo) DrainLogs() []types.LogEntry {
	return o.logs.drain()
}
