// Package candle folds raw market events into one-second OHLCV candles and
// maintains a bounded rolling history of closed candles.
package candle

import "time"

// Candle is a fixed one-second OHLCV bucket. BucketStart is the truncated
// second the bucket covers, inclusive. A candle returned by the aggregator as
// closed is never mutated again.
type Candle struct {
	BucketStart time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	Trades      int
}

// History is an ordered, bounded sequence of closed candles, oldest first.
// It is owned exclusively by the Aggregator; consumers only ever see copies.
type History struct {
	candles []Candle
	max     int
}

// NewHistory builds an empty history bounded to max closed candles.
func NewHistory(max int) *History {
	if max <= 0 {
		max = 100
	}
	return &History{candles: make([]Candle, 0, max), max: max}
}

// Append adds a closed candle, evicting the oldest entry once the bound is exceeded.
func (h *History) Append(c Candle) {
	h.candles = append(h.candles, c)
	if len(h.candles) > h.max {
		h.candles = h.candles[1:]
	}
}

// Len reports the number of closed candles retained.
func (h *History) Len() int { return len(h.candles) }

// Snapshot returns a copy of the retained candles, oldest first.
func (h *History) Snapshot() []Candle {
	out := make([]Candle, len(h.candles))
	copy(out, h.candles)
	return out
}

// Closes returns a copy of the close prices of the retained candles, oldest first.
func (h *History) Closes() []float64 {
	out := make([]float64, len(h.candles))
	for i, c := range h.candles {
		out[i] = c.Close
	}
	return out
}

// Last returns the most recently closed candle, if any.
func (h *History) Last() (Candle, bool) {
	if len(h.candles) == 0 {
		return Candle{}, false
	}
	return h.candles[len(h.candles)-1], true
}
