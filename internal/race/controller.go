package race

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/contestant"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/pkg/errors"
	"go.uber.org/zap"
)

// State is the controller's lifecycle phase.
type State string

const (
	StateConstructed  State = "constructed"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateFinished     State = "finished"
	StateAborted      State = "aborted"
)

// OnProgress receives one event per tick during a run.
type OnProgress func(event types.ProgressEvent)

// Controller drives one race: it owns the simulation clock, steps it at a
// fixed cadence, fans the current price out to every contestant, ticks them
// strictly sequentially in registration order, and aggregates results. A
// controller is single-use; it runs exactly once.
type Controller struct {
	config Config
	source marketdata.Source
	log    *logger.Logger

	clk         *clock.SimClock
	contestants []contestant.Contestant
	state       State
	// reportedTrades tracks, per contestant, how many trades have already
	// been shipped through progress events.
	reportedTrades map[string]int
}

// NewController creates a controller for the given run. The configuration is
// validated here, before any contestant is initialized.
func NewController(config Config, source marketdata.Source, log *logger.Logger) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if source == nil {
		return nil, errors.New(errors.ErrCodeRaceNoDataSource, "race requires a market data source")
	}

	return &Controller{
		config:         config,
		source:         source,
		log:            log,
		state:          StateConstructed,
		reportedTrades: make(map[string]int),
	}, nil
}

// State returns the controller's current lifecycle phase.
func (c *Controller) State() State {
	return c.state
}

// AddContestant registers a contestant. Registration order is tick order.
// Adding is only valid before Run is called.
func (c *Controller) AddContestant(entrant contestant.Contestant) error {
	if c.state != StateConstructed {
		return errors.Newf(errors.ErrCodeRaceAlreadyRun, "cannot add contestant in state %s", c.state)
	}

	for _, existing := range c.contestants {
		if existing.ID() == entrant.ID() {
			return errors.Newf(errors.ErrCodeDuplicateContestant, "duplicate contestant id: %s", entrant.ID())
		}
	}

	c.contestants = append(c.contestants, entrant)

	return nil
}

// Run executes the race to completion. On abort it returns no results and an
// ErrCodeRunAborted error; callers must not treat an aborted run as having
// produced final metrics.
func (c *Controller) Run(ctx context.Context, onProgress optional.Option[OnProgress]) ([]types.RaceResult, error) {
	if c.state != StateConstructed {
		return nil, errors.Newf(errors.ErrCodeRaceAlreadyRun, "race already ran (state %s)", c.state)
	}

	if len(c.contestants) == 0 {
		return nil, errors.New(errors.ErrCodeRaceNoContestants, "race requires at least one contestant")
	}

	if err := c.initialize(); err != nil {
		return nil, err
	}

	if err := c.loop(ctx, onProgress); err != nil {
		return nil, err
	}

	c.state = StateFinished

	return c.results(), nil
}

// initialize funds every contestant and hands out the shared clock.
func (c *Controller) initialize() error {
	c.state = StateInitializing
	c.clk = clock.NewSimClock(c.config.StartTime.UnixMilli())

	for _, entrant := range c.contestants {
		if err := entrant.Initialize(c.config.InitialCapital, c.clk); err != nil {
			return errors.Wrapf(errors.ErrCodeContestantInitFailed, err, "contestant %s failed to initialize", entrant.ID())
		}
	}

	c.log.Info("race initialized",
		zap.String("symbol", c.config.Symbol),
		zap.Int("contestants", len(c.contestants)),
		zap.Time("start", c.config.StartTime),
		zap.Time("end", c.config.EndTime),
	)

	return nil
}

// loop is the replay loop. Abort is checked exactly once per tick, at the top
// of the body; it is the only path that terminates before the end time.
func (c *Controller) loop(ctx context.Context, onProgress optional.Option[OnProgress]) error {
	c.state = StateRunning

	var (
		stepMs  = int64(c.config.StepMinutes) * 60_000
		startMs = c.config.StartTime.UnixMilli()
		endMs   = c.config.EndTime.UnixMilli()
		tick    = 0
	)

	for ts := startMs; ts <= endMs; ts += stepMs {
		select {
		case <-ctx.Done():
			c.state = StateAborted
			c.log.Warn("race aborted", zap.Time("at", c.clk.AsTime()))

			return errors.Wrap(errors.ErrCodeRunAborted, "race aborted", ctx.Err())
		default:
		}

		c.clk.Set(ts)

		candle, err := c.source.LatestAt(c.config.Symbol, c.clk.AsTime())
		if err != nil {
			return err
		}

		// A tick with no candle is a no-op for mark-to-market; contestants
		// still run and decide for themselves.
		if candle.IsSome() {
			price := candle.Unwrap().Close
			for _, entrant := range c.contestants {
				entrant.Portfolio().UpdatePrice(c.config.Symbol, price)
			}
		}

		for _, entrant := range c.contestants {
			if err := entrant.OnTick(ctx); err != nil {
				return err
			}
		}

		if c.config.SnapshotEvery <= 1 || tick%c.config.SnapshotEvery == 0 {
			for _, entrant := range c.contestants {
				entrant.Portfolio().TakeSnapshot(c.clk.AsTime())
			}
		}

		// One event per tick. Trades and logs produced within the tick ride
		// this event through the incremental drain, so a consumer sees every
		// occurrence exactly once without a second intra-tick emission.
		if onProgress.IsSome() {
			onProgress.Unwrap()(c.progressEvent(ts, startMs, endMs))
		}

		tick++
	}

	return nil
}

// progressEvent assembles one per-tick event carrying only data produced
// since the previous event.
func (c *Controller) progressEvent(ts, startMs, endMs int64) types.ProgressEvent {
	event := types.ProgressEvent{
		Timestamp: c.clk.AsTime(),
		Progress:  100,
		Equities:  make(map[string]float64, len(c.contestants)),
	}

	if endMs > startMs {
		event.Progress = float64(ts-startMs) / float64(endMs-startMs) * 100
	}

	for _, entrant := range c.contestants {
		event.Equities[entrant.ID()] = entrant.Portfolio().TotalEquity()

		if source, ok := entrant.(contestant.LogSource); ok {
			if entries := source.DrainLogs(); len(entries) > 0 {
				if event.Logs == nil {
					event.Logs = make(map[string][]types.LogEntry)
				}

				event.Logs[entrant.ID()] = entries
			}
		}

		reported := c.reportedTrades[entrant.ID()]
		if fresh := entrant.Portfolio().TradesSince(reported); len(fresh) > 0 {
			if event.Trades == nil {
				event.Trades = make(map[string][]types.TradeRecord)
			}

			event.Trades[entrant.ID()] = fresh
			c.reportedTrades[entrant.ID()] = reported + len(fresh)
		}
	}

	return event
}

// results builds the final scoreboard from each ledger's overview.
func (c *Controller) results() []types.RaceResult {
	results := make([]types.RaceResult, 0, len(c.contestants))

	for _, entrant := range c.contestants {
		overview := entrant.Portfolio().Overview()

		results = append(results, types.RaceResult{
			ContestantID: entrant.ID(),
			Name:         entrant.Name(),
			FinalEquity:  overview.TotalEquity,
			TotalReturn:  overview.TotalReturnPercent,
			TradeCount:   overview.TradeCount,
			SharpeRatio:  overview.SharpeRatio,
			MaxDrawdown:  overview.MaxDrawdown,
		})
	}

	return results
}
