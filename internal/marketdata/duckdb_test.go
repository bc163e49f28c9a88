package marketdata

import (
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/logger"
	"github.com/stretchr/testify/suite"
)

type DuckDBSourceTestSuite struct {
	suite.Suite
	source *DuckDBSource
	base   time.Time
}

func TestDuckDBSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBSourceTestSuite))
}

func (suite *DuckDBSourceTestSuite) SetupTest() {
	source, err := NewDuckDBSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source

	suite.base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Seed 60 one-minute candles with a linearly rising close
	for i := 0; i < 60; i++ {
		price := 100 + float64(i)
		err := suite.source.ExecuteSQL(
			`INSERT INTO candles VALUES (?, ?, ?, ?, ?, ?, ?)`,
			"BTCUSDT", suite.base.Add(time.Duration(i)*time.Minute),
			price, price+1, price-1, price+0.5, 10.0,
		)
		suite.Require().NoError(err)
	}
}

func (suite *DuckDBSourceTestSuite) TearDownTest() {
	suite.Require().NoError(suite.source.Close())
}

func (suite *DuckDBSourceTestSuite) TestQueryCandlesPlain() {
	candles, err := suite.source.QueryCandles(CandleQuery{
		Symbol:   "BTCUSDT",
		Interval: Interval1m,
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 60)

	for i := 1; i < len(candles); i++ {
		suite.True(candles[i].Time.After(candles[i-1].Time))
	}
}

func (suite *DuckDBSourceTestSuite) TestQueryCandlesInclusiveEnd() {
	end := suite.base.Add(9 * time.Minute)

	candles, err := suite.source.QueryCandles(CandleQuery{
		Symbol:   "BTCUSDT",
		Interval: Interval1m,
		End:      optional.Some(end),
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 10)
	suite.Equal(end.Unix(), candles[len(candles)-1].Time.Unix())
}

func (suite *DuckDBSourceTestSuite) TestQueryCandlesLimit() {
	candles, err := suite.source.QueryCandles(CandleQuery{
		Symbol:   "BTCUSDT",
		Interval: Interval1m,
		Limit:    5,
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 5)
	suite.Equal(suite.base.Add(55*time.Minute).Unix(), candles[0].Time.Unix())
}

func (suite *DuckDBSourceTestSuite) TestQueryCandlesAggregated() {
	candles, err := suite.source.QueryCandles(CandleQuery{
		Symbol:   "BTCUSDT",
		Interval: Interval15m,
	})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 4)

	first := candles[0]
	suite.InDelta(100, first.Open, 1e-9)
	suite.InDelta(114.5, first.Close, 1e-9)
	suite.InDelta(115, first.High, 1e-9)
	suite.InDelta(99, first.Low, 1e-9)
	suite.InDelta(150, first.Volume, 1e-9)
}

func (suite *DuckDBSourceTestSuite) TestLatestAt() {
	candle, err := suite.source.LatestAt("BTCUSDT", suite.base.Add(10*time.Minute+30*time.Second))
	suite.Require().NoError(err)
	suite.Require().True(candle.IsSome())
	suite.Equal(suite.base.Add(10*time.Minute).Unix(), candle.Unwrap().Time.Unix())
}

func (suite *DuckDBSourceTestSuite) TestLatestAtNoData() {
	candle, err := suite.source.LatestAt("BTCUSDT", suite.base.Add(-time.Hour))
	suite.Require().NoError(err)
	suite.True(candle.IsNone())
}

func (suite *DuckDBSourceTestSuite) TestCount() {
	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(60, count)
}

func (suite *DuckDBSourceTestSuite) TestUnknownSymbol() {
	candles, err := suite.source.QueryCandles(CandleQuery{
		Symbol:   fmt.Sprintf("NOPE%d", 1),
		Interval: Interval1m,
	})
	suite.Require().NoError(err)
	suite.Empty(candles)
}
