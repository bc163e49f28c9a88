package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/stretchr/testify/suite"
)

type VolatilityTestSuite struct {
	suite.Suite
}

func TestVolatilitySuite(t *testing.T) {
	suite.Run(t, new(VolatilityTestSuite))
}

func (suite *VolatilityTestSuite) TestRangeVolatility() {
	candles := []types.Candle{
		{High: 102, Low: 100},
		{High: 108, Low: 101},
		{High: 110, Low: 103},
	}

	// (110 - 100) / 100 * 100 = 10%
	reading := AnalyzeVolatility(candles, 5, 15)
	suite.InDelta(10, reading.Volatility, 1e-9)
	suite.True(reading.InRange)
}

func (suite *VolatilityTestSuite) TestOutsideBand() {
	candles := []types.Candle{
		{High: 101, Low: 100},
	}

	reading := AnalyzeVolatility(candles, 5, 15)
	suite.InDelta(1, reading.Volatility, 1e-9)
	suite.False(reading.InRange)
}

func (suite *VolatilityTestSuite) TestBandBoundsAreInclusive() {
	candles := []types.Candle{
		{High: 105, Low: 100},
	}

	reading := AnalyzeVolatility(candles, 5, 15)
	suite.InDelta(5, reading.Volatility, 1e-9)
	suite.True(reading.InRange)
}

func (suite *VolatilityTestSuite) TestEmptyInput() {
	reading := AnalyzeVolatility(nil, 5, 15)
	suite.Zero(reading.Volatility)
	suite.False(reading.InRange)
}
