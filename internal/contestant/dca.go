package contestant

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/portfolio"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
)

// DCAConfig configures the periodic-investment contestant.
type DCAConfig struct {
	// Amount is the fixed notional invested per interval.
	Amount float64 `yaml:"amount" json:"amount" validate:"required,gt=0"`
	// IntervalMinutes is the simulated time between investments.
	IntervalMinutes int `yaml:"interval_minutes" json:"interval_minutes" validate:"required,gt=0"`
}

// DCA invests a fixed amount at a fixed interval regardless of price.
type DCA struct {
	id     string
	name   string
	symbol string
	config DCAConfig
	source marketdata.Source
	log    *logger.Logger

	clk    clock.Clock
	ledger *portfolio.Ledger
	logs   *logBuffer
	// lastInvestedAt is the timestamp of the last investment attempt,
	// successful or not, so a rejected buy is not retried every tick.
	lastInvestedAt optional.Option[int64]
}

// NewDCA creates a periodic-investment contestant.
func NewDCA(id string, symbol string, config DCAConfig, source marketdata.Source, log *logger.Logger) (*DCA, error) {
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeContestantConfig, "invalid dca config", err)
	}

	return &DCA{
		id:     id,
		name:   fmt.Sprintf("DCA %.0f/%dm", config.Amount, config.IntervalMinutes),
		symbol: symbol,
		config: config,
		source: source,
		log:    log,
	}, nil
}

// ID implements Contestant.
func (d *DCA) ID() string {
	return d.id
}

// Name implements Contestant.
func (d *DCA) Name() string {
	return d.name
}

// Initialize implements Contestant.
func (d *DCA) Initialize(capital float64, clk clock.Clock) error {
	d.clk = clk
	d.ledger = portfolio.NewLedger(capital, d.log)
	d.logs = newLogBuffer(d.id, clk)
	d.lastInvestedAt = optional.None[int64]()

	return nil
}

// OnTick implements Contestant. A tick with no available candle is a no-op
// and does not consume the investment interval.
func (d *DCA) OnTick(ctx context.Context) error {
	now := d.clk.Now()

	if d.lastInvestedAt.IsSome() && now-d.lastInvestedAt.Unwrap() < int64(d.config.IntervalMinutes)*60_000 {
		return nil
	}

	candle, err := d.source.LatestAt(d.symbol, d.clk.AsTime())
	if err != nil {
		return err
	}

	if candle.IsNone() {
		return nil
	}

	price := candle.Unwrap().Close
	quantity := d.config.Amount / price

	executed := d.ledger.ExecuteTrade(d.symbol, types.SideBuy, price, quantity, types.TradeReasonPeriodic, d.clk.AsTime())
	d.lastInvestedAt = optional.Some(now)

	if executed {
		d.logs.info("periodic investment executed", map[string]string{
			"price":    fmt.Sprintf("%.4f", price),
			"quantity": fmt.Sprintf("%.8f", quantity),
		})
	} else {
		d.logs.warn("periodic investment skipped: insufficient cash", map[string]string{
			"amount": fmt.Sprintf("%.2f", d.config.Amount),
			"cash":   fmt.Sprintf("%.2f", d.ledger.Cash()),
		})
	}

	return nil
}

// Portfolio implements Contestant.
func (d *DCA) Portfolio() *portfolio.Ledger {
	return d.ledger
}

// DrainLogs implements LogSource.
func (d *DCA) DrainLogs() []types.LogEntry {
	return d.logs.drain()
}
