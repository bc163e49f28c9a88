package types

import "time"

// Candle is a single OHLCV bar for one symbol and interval bucket.
type Candle struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Time   time.Time `yaml:"time" json:"time" csv:"time" validate:"required"`
	Open   float64   `yaml:"open" json:"open" csv:"open" validate:"gte=0"`
	High   float64   `yaml:"high" json:"high" csv:"high" validate:"gte=0"`
	Low    float64   `yaml:"low" json:"low" csv:"low" validate:"gte=0"`
	Close  float64   `yaml:"close" json:"close" csv:"close" validate:"gte=0"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume" validate:"gte=0"`
}

// Range returns the high-low spread of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}
