package indicator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/stretchr/testify/suite"
)

type PivotTestSuite struct {
	suite.Suite
}

func TestPivotSuite(t *testing.T) {
	suite.Run(t, new(PivotTestSuite))
}

// candlesFromLowsHighs builds a minute series where each candle's low and high
// are given explicitly.
func candlesFromLowsHighs(lows []float64, highs []float64) []types.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(lows))

	for i := range lows {
		mid := (lows[i] + highs[i]) / 2
		candles[i] = types.Candle{
			Symbol: "TEST",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   mid,
			High:   highs[i],
			Low:    lows[i],
			Close:  mid,
			Volume: 1,
		}
	}

	return candles
}

func (suite *PivotTestSuite) TestFindPivotLows() {
	// A clean V shape: index 3 is the only pivot low for n=2
	lows := []float64{105, 103, 101, 99, 102, 104, 106}
	highs := []float64{106, 104, 102, 100, 103, 105, 107}
	candles := candlesFromLowsHighs(lows, highs)

	pivots := FindPivotLows(candles, 2)
	suite.Require().Len(pivots, 1)
	suite.Equal(3, pivots[0].Index)
	suite.InDelta(99, pivots[0].Price, 1e-9)
}

func (suite *PivotTestSuite) TestFindPivotHighs() {
	lows := []float64{99, 101, 103, 105, 102, 100, 98}
	highs := []float64{100, 102, 104, 106, 103, 101, 99}
	candles := candlesFromLowsHighs(lows, highs)

	pivots := FindPivotHighs(candles, 2)
	suite.Require().Len(pivots, 1)
	suite.Equal(3, pivots[0].Index)
	suite.InDelta(106, pivots[0].Price, 1e-9)
}

func (suite *PivotTestSuite) TestTooFewCandlesYieldNoPivots() {
	// 2n+1 is the minimum; 2n candles must yield nothing
	lows := []float64{105, 103, 99, 103}
	highs := []float64{106, 104, 100, 104}
	candles := candlesFromLowsHighs(lows, highs)

	suite.Nil(FindPivotLows(candles, 2))
	suite.Nil(FindPivotHighs(candles, 2))
}

func (suite *PivotTestSuite) TestTiesAreNotPivots() {
	// Strictly-less is required: an equal neighboring low disqualifies
	lows := []float64{105, 99, 99, 103, 104}
	highs := []float64{106, 100, 100, 104, 105}
	candles := candlesFromLowsHighs(lows, highs)

	suite.Nil(FindPivotLows(candles, 1))
}

func (suite *PivotTestSuite) TestRecentPivotsCanonicalOrder() {
	// Two pivot lows (99 at idx 2, 97 at idx 8) and two highs (110 at 5, 112 at 11)
	lows := []float64{104, 101, 99, 102, 105, 108, 104, 100, 97, 102, 108, 110, 107, 105}
	highs := []float64{105, 102, 100, 103, 107, 110, 105, 101, 98, 104, 110, 112, 109, 106}
	candles := candlesFromLowsHighs(lows, highs)

	lowPivots, highPivots := RecentPivots(candles, 2, 5, optional.None[float64]())

	suite.Require().Len(lowPivots, 2)
	suite.Require().Len(highPivots, 2)

	// Lows ascending
	suite.InDelta(97, lowPivots[0].Price, 1e-9)
	suite.InDelta(99, lowPivots[1].Price, 1e-9)

	// Highs descending
	suite.InDelta(112, highPivots[0].Price, 1e-9)
	suite.InDelta(110, highPivots[1].Price, 1e-9)
}

func (suite *PivotTestSuite) TestRecentPivotsPrefersRecencyWithoutReference() {
	lows := []float64{104, 101, 99, 102, 105, 108, 104, 100, 97, 102, 108, 110, 107, 105}
	highs := []float64{105, 102, 100, 103, 107, 110, 105, 101, 98, 104, 110, 112, 109, 106}
	candles := candlesFromLowsHighs(lows, highs)

	lowPivots, _ := RecentPivots(candles, 2, 1, optional.None[float64]())

	// The most recent low pivot is at index 8 (price 97)
	suite.Require().Len(lowPivots, 1)
	suite.Equal(8, lowPivots[0].Index)
}

func (suite *PivotTestSuite) TestRecentPivotsPrefersProximityWithReference() {
	lows := []float64{104, 101, 99, 102, 105, 108, 104, 100, 97, 102, 108, 110, 107, 105}
	highs := []float64{105, 102, 100, 103, 107, 110, 105, 101, 98, 104, 110, 112, 109, 106}
	candles := candlesFromLowsHighs(lows, highs)

	// Reference price 99.5 is closer to the 99 pivot than the 97 one
	lowPivots, _ := RecentPivots(candles, 2, 1, optional.Some(99.5))

	suite.Require().Len(lowPivots, 1)
	suite.InDelta(99, lowPivots[0].Price, 1e-9)
}
