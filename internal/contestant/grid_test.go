package contestant

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-race/internal/clock"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/rxtech-lab/argo-race/internal/marketdata"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/mocks"
	"github.com/stretchr/testify/suite"
)

type GridTestSuite struct {
	suite.Suite
	start time.Time
}

func TestGridSuite(t *testing.T) {
	suite.Run(t, new(GridTestSuite))
}

func (suite *GridTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// flatSource returns a day of flat 1-minute candles at the given price.
func (suite *GridTestSuite) flatSource(price float64) *marketdata.MemorySource {
	generator := mocks.NewDataGenerator(7)
	candles := generator.GenerateFlat(mocks.GeneratorConfig{
		Symbol:       "BTCUSDT",
		StartTime:    suite.start,
		Interval:     time.Minute,
		Count:        24 * 60,
		InitialPrice: price,
		VolumeBase:   1000,
	})

	return marketdata.NewMemorySource(candles)
}

func (suite *GridTestSuite) newGrid(config GridConfig, source *marketdata.MemorySource) (*Grid, *clock.SimClock) {
	grid, err := NewGrid("grid-1", "BTCUSDT", config, source, logger.NewNopLogger())
	suite.Require().NoError(err)

	clk := clock.NewSimClock(suite.start.Add(23 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.Initialize(10_000, clk))

	return grid, clk
}

func (suite *GridTestSuite) TestLevelCountInvariant() {
	// A flat series has no pivots at all, so every level is synthetic.
	config := DefaultGridConfig()
	config.WindowDays = 1
	grid, _ := suite.newGrid(config, suite.flatSource(100))

	window, err := grid.windowCandles()
	suite.Require().NoError(err)

	levels := grid.recalculateGrid(100, window)
	suite.Len(levels.buyLevels, config.Levels)
	suite.Len(levels.sellLevels, config.Levels)
	suite.Len(levels.buyTriggered, config.Levels)
	suite.Len(levels.sellTriggered, config.Levels)
}

func (suite *GridTestSuite) TestSyntheticLevelsStepOutward() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	grid, _ := suite.newGrid(config, suite.flatSource(100))

	levels := grid.recalculateGrid(100, nil)

	// Buys ascend toward the price, sells descend toward it.
	suite.InDelta(100*0.99*0.99*0.99, levels.buyLevels[0], 1e-9)
	suite.InDelta(100*0.99*0.99, levels.buyLevels[1], 1e-9)
	suite.InDelta(100*0.99, levels.buyLevels[2], 1e-9)

	suite.InDelta(100*1.01*1.01*1.01, levels.sellLevels[0], 1e-9)
	suite.InDelta(100*1.01*1.01, levels.sellLevels[1], 1e-9)
	suite.InDelta(100*1.01, levels.sellLevels[2], 1e-9)
}

func (suite *GridTestSuite) TestRealPivotsBecomeLevels() {
	config := DefaultGridConfig()
	config.Levels = 2
	config.WindowDays = 1

	// A V-shaped and an A-shaped excursion leave one clean low pivot at 90
	// and one high pivot at 110 in the aggregated series.
	candles := suite.shapedCandles([]float64{100, 100, 90, 100, 100, 110, 100, 100, 100, 100})
	grid, _ := suite.newGrid(config, marketdata.NewMemorySource(candles))

	window, err := grid.windowCandles()
	suite.Require().NoError(err)

	levels := grid.recalculateGrid(100, window)
	suite.Contains(levels.buyLevels, 90.0)
	suite.Contains(levels.sellLevels, 110.0)
	suite.Len(levels.buyLevels, 2)
	suite.Len(levels.sellLevels, 2)
}

// shapedCandles renders one flat 15-minute block per price so that the
// aggregated series reproduces the price path exactly.
func (suite *GridTestSuite) shapedCandles(prices []float64) []types.Candle {
	var candles []types.Candle

	at := suite.start
	for _, price := range prices {
		for i := 0; i < 15; i++ {
			candles = append(candles, types.Candle{
				Symbol: "BTCUSDT",
				Time:   at,
				Open:   price,
				High:   price,
				Low:    price,
				Close:  price,
				Volume: 100,
			})

			at = at.Add(time.Minute)
		}
	}

	return candles
}

func (suite *GridTestSuite) TestBuyLevelTriggersOnce() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 0

	// The grid forms around the flat price of 100; the final candle then
	// drops to 98.9, through the nearest synthetic buy level at 99.
	candles := suite.flatThenMove(100, 98.9)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Require().Equal(0, grid.Portfolio().TradeCount())

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))

	suite.Equal(1, grid.Portfolio().TradeCount())
	suite.True(grid.grid.buyTriggered[2])

	// The same level must not fire again on the next tick.
	clk.Advance(60_000)
	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Equal(1, grid.Portfolio().TradeCount())
}

func (suite *GridTestSuite) TestBuySpendsCashFraction() {
	config := DefaultGridConfig()
	config.Levels = 4
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 0

	candles := suite.flatThenMove(100, 98.9)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))

	// One level hit: a quarter of the 10k cash was deployed.
	suite.InDelta(7_500, grid.Portfolio().Cash(), 1e-6)
}

func (suite *GridTestSuite) TestCooldownGatesBuys() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 5

	// The drop goes through two buy levels at once; the cooldown allows
	// only the first to fire this tick.
	candles := suite.flatThenMove(100, 97.9)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Equal(1, grid.Portfolio().TradeCount())
}

func (suite *GridTestSuite) TestStopLossLiquidatesEverything() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 0
	config.StopLossPercent = 2

	candles := suite.flatThenMove(100, 98.9)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	// First tick forms the grid at 100, the second buys at 98.9.
	suite.Require().NoError(grid.OnTick(context.Background()))
	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Require().Equal(1, grid.Portfolio().TradeCount())

	// Price collapses below lowestBuyLevel * (1 - 2%).
	floor := grid.grid.lowestBuyLevel() * 0.98

	crash := types.Candle{
		Symbol: "BTCUSDT",
		Time:   clk.AsTime().Add(time.Minute),
		Open:   floor, High: floor, Low: floor - 1, Close: floor - 1,
		Volume: 100,
	}

	grid.source = marketdata.NewMemorySource(append(candles, crash))
	clk.Set(crash.Time.UnixMilli())

	suite.Require().NoError(grid.OnTick(context.Background()))

	suite.True(grid.Portfolio().Position("BTCUSDT").IsNone())

	trades := grid.Portfolio().TradesSince(0)
	suite.Equal(types.TradeReasonStopLoss, trades[len(trades)-1].Reason)
}

func (suite *GridTestSuite) TestVolatilityOutsideBandIsLoggedNotActedOn() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.WindowDays = 1
	config.CooldownTicks = 0
	config.MinVolatility = 50
	config.MaxVolatility = 90

	// A flat window has zero volatility, far below the 50% floor; trading
	// must continue regardless.
	candles := suite.flatThenMove(100, 98.9)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))

	suite.False(grid.LastVolatility().InRange)
	suite.Equal(1, grid.Portfolio().TradeCount())

	var warned bool
	for _, entry := range grid.DrainLogs() {
		if entry.Level == types.LogLevelWarn {
			warned = true
		}
	}

	suite.True(warned)
}

func (suite *GridTestSuite) TestSellLevelSellsFractionAndTriggersOnce() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 0
	config.TakeProfitPercent = 50

	// The grid forms around the flat price of 100; the final candle then
	// rises to 101.5, through the nearest synthetic sell level at 101.
	candles := suite.flatThenMove(100, 101.5)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Require().True(grid.Portfolio().ExecuteTrade("BTCUSDT", types.SideBuy, 100, 30, "seed", clk.AsTime()))

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))

	// One of three untriggered levels hit: a third of the 30 units sold.
	position, err := grid.Portfolio().Position("BTCUSDT").Take()
	suite.Require().NoError(err)
	suite.InDelta(20, position.Quantity, 1e-9)
	suite.True(grid.grid.sellTriggered[2])

	trades := grid.Portfolio().TradesSince(0)
	suite.Require().Len(trades, 2)
	suite.Equal(types.SideSell, trades[1].Side)
	suite.Contains(trades[1].Reason, types.TradeReasonGridSell)

	// The same level must not fire again on the next tick.
	clk.Advance(60_000)
	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Equal(2, grid.Portfolio().TradeCount())
}

func (suite *GridTestSuite) TestTakeProfitTrimsHalfAndHaltsSellLevels() {
	config := DefaultGridConfig()
	config.Levels = 3
	config.SpacingPercent = 1
	config.WindowDays = 1
	config.CooldownTicks = 0
	config.TakeProfitPercent = 5

	// The final candle jumps to 106, clearing every sell level as well as
	// the 5% take-profit threshold. Take-profit must win and halt the
	// level checks for the tick.
	candles := suite.flatThenMove(100, 106)
	grid, clk := suite.newGrid(config, marketdata.NewMemorySource(candles))

	suite.Require().NoError(grid.OnTick(context.Background()))
	suite.Require().True(grid.Portfolio().ExecuteTrade("BTCUSDT", types.SideBuy, 100, 20, "seed", clk.AsTime()))

	// Mark to market the way the race loop does before handing the tick
	// to the contestant.
	grid.Portfolio().UpdatePrice("BTCUSDT", 106)

	clk.Set(suite.start.Add(24 * time.Hour).UnixMilli())
	suite.Require().NoError(grid.OnTick(context.Background()))

	position, err := grid.Portfolio().Position("BTCUSDT").Take()
	suite.Require().NoError(err)
	suite.InDelta(10, position.Quantity, 1e-9)

	trades := grid.Portfolio().TradesSince(0)
	suite.Require().Len(trades, 2)
	suite.Equal(types.TradeReasonTakeProfit, trades[1].Reason)

	for _, triggered := range grid.grid.sellTriggered {
		suite.False(triggered)
	}
}

// flatThenMove returns a day of flat candles at base followed by one candle
// closing at last, above or below base.
func (suite *GridTestSuite) flatThenMove(base float64, last float64) []types.Candle {
	generator := mocks.NewDataGenerator(7)
	candles := generator.GenerateFlat(mocks.GeneratorConfig{
		Symbol:       "BTCUSDT",
		StartTime:    suite.start,
		Interval:     time.Minute,
		Count:        24 * 60,
		InitialPrice: base,
		VolumeBase:   1000,
	})

	return append(candles, types.Candle{
		Symbol: "BTCUSDT",
		Time:   suite.start.Add(24 * time.Hour),
		Open:   base,
		High:   math.Max(base, last),
		Low:    math.Min(base, last),
		Close:  last,
		Volume: 1000,
	})
}
