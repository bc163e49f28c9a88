package marketdata

import "github.com/rxtech-lab/argo-race/pkg/errors"

type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// IntervalMinutes converts an interval to its width in minutes.
func IntervalMinutes(interval Interval) (int, error) {
	switch interval {
	case Interval1m:
		return 1, nil
	case Interval5m:
		return 5, nil
	case Interval15m:
		return 15, nil
	case Interval30m:
		return 30, nil
	case Interval1h:
		return 60, nil
	case Interval4h:
		return 240, nil
	case Interval1d:
		return 1440, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval: %s", interval)
	}
}
