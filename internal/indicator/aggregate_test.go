package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/rxtech-lab/argo-race/mocks"
	"github.com/stretchr/testify/suite"
)

type AggregateTestSuite struct {
	suite.Suite
}

func TestAggregateSuite(t *testing.T) {
	suite.Run(t, new(AggregateTestSuite))
}

func (suite *AggregateTestSuite) TestAggregateFifteenMinutes() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var candles []types.Candle
	for i := 0; i < 30; i++ {
		price := 100 + float64(i)
		candles = append(candles, types.Candle{
			Symbol: "TEST",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price + 0.5,
			Volume: 10,
		})
	}

	merged := AggregateCandles(candles, 15)
	suite.Require().Len(merged, 2)

	first := merged[0]
	suite.Equal(base, first.Time)
	suite.InDelta(100, first.Open, 1e-9)    // first candle's open
	suite.InDelta(114.5, first.Close, 1e-9) // last candle's close (i=14)
	suite.InDelta(115, first.High, 1e-9)    // max high (i=14)
	suite.InDelta(99, first.Low, 1e-9)      // min low (i=0)
	suite.InDelta(150, first.Volume, 1e-9)  // summed volume

	second := merged[1]
	suite.Equal(base.Add(15*time.Minute), second.Time)
	suite.InDelta(115, second.Open, 1e-9)
	suite.True(second.Time.After(first.Time))
}

func (suite *AggregateTestSuite) TestPartialBucketIsEmitted() {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var candles []types.Candle
	for i := 0; i < 20; i++ {
		candles = append(candles, types.Candle{
			Symbol: "TEST",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   100, High: 101, Low: 99, Close: 100, Volume: 1,
		})
	}

	merged := AggregateCandles(candles, 15)
	suite.Require().Len(merged, 2)
	suite.InDelta(5, merged[1].Volume, 1e-9)
}

func (suite *AggregateTestSuite) TestOneMinutePassthrough() {
	candles := mocks.NewDataGenerator(1).Generate(mocks.DefaultConfig())
	suite.Equal(candles, AggregateCandles(candles, 1))
}

func (suite *AggregateTestSuite) TestEmptyInput() {
	suite.Empty(AggregateCandles(nil, 15))
}

func (suite *AggregateTestSuite) TestOrderPreserved() {
	config := mocks.DefaultConfig()
	config.Count = 120

	candles := mocks.NewDataGenerator(7).Generate(config)
	merged := AggregateCandles(candles, 15)

	suite.Require().Len(merged, 8)
	for i := 1; i < len(merged); i++ {
		suite.True(merged[i].Time.After(merged[i-1].Time))
	}
}
