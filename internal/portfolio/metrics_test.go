package portfolio

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-race/internal/types"
	"github.com/stretchr/testify/suite"
)

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func snapshotsFromEquities(equities ...float64) []types.PortfolioSnapshot {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snapshots := make([]types.PortfolioSnapshot, len(equities))

	for i, equity := range equities {
		snapshots[i] = types.PortfolioSnapshot{
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			TotalEquity: equity,
		}
	}

	return snapshots
}

func (suite *MetricsTestSuite) TestMaxDrawdownExample() {
	// Equity [10000, 12000, 9000, 11000] => max drawdown (12000-9000)/12000 = 25%
	drawdown := MaxDrawdown(snapshotsFromEquities(10_000, 12_000, 9_000, 11_000))
	suite.InDelta(25, drawdown, 1e-9)
}

func (suite *MetricsTestSuite) TestMaxDrawdownMonotonicRise() {
	drawdown := MaxDrawdown(snapshotsFromEquities(10_000, 10_500, 11_000, 12_000))
	suite.InDelta(0, drawdown, 1e-9)
}

func (suite *MetricsTestSuite) TestMaxDrawdownNeedsTwoSnapshots() {
	suite.Zero(MaxDrawdown(nil))
	suite.Zero(MaxDrawdown(snapshotsFromEquities(10_000)))
}

func (suite *MetricsTestSuite) TestSharpeZeroOnFlatEquity() {
	// stdDev of returns is 0 => ratio is 0
	suite.Zero(SharpeRatio(snapshotsFromEquities(10_000, 10_000, 10_000, 10_000)))
}

func (suite *MetricsTestSuite) TestSharpeNeedsTwoSnapshots() {
	suite.Zero(SharpeRatio(nil))
	suite.Zero(SharpeRatio(snapshotsFromEquities(10_000)))
}

func (suite *MetricsTestSuite) TestSharpePositiveOnUptrend() {
	ratio := SharpeRatio(snapshotsFromEquities(10_000, 10_100, 10_180, 10_300, 10_360))
	suite.Greater(ratio, 0.0)
}

func (suite *MetricsTestSuite) TestSharpeNegativeOnDowntrend() {
	ratio := SharpeRatio(snapshotsFromEquities(10_000, 9_900, 9_850, 9_700, 9_680))
	suite.Less(ratio, 0.0)
}
