package candle

import (
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/signal"
)

// InstrumentState is the side-channel mark/index/funding data carried by
// instrument events. It informs display and telemetry, never aggregation.
type InstrumentState struct {
	MarkPrice   float64
	IndexPrice  float64
	FundingRate float64
	UpdatedAt   time.Time
}

// Aggregator folds market events into one-second candles. Events must arrive
// in wall-clock bucket order; a late event (bucket older than the current one)
// is dropped rather than rewinding a closed candle. Not safe for concurrent
// use; it is owned by the single pipeline goroutine.
type Aggregator struct {
	history    *History
	current    *Candle
	instrument InstrumentState
	lastPrice  float64
	lastUpdate time.Time
}

// NewAggregator builds an aggregator with a history bounded to maxHistory closed candles.
func NewAggregator(maxHistory int) *Aggregator {
	return &Aggregator{history: NewHistory(maxHistory)}
}

// Ingest folds one event into the current bucket. When the event starts a new
// bucket the previous candle is closed, appended to history, and returned with
// ok=true; in every other case ok is false and no closed candle is produced.
func (a *Aggregator) Ingest(ev signal.MarketEvent) (closed Candle, ok bool) {
	if ev.Kind == signal.KindInstrument {
		a.instrument = InstrumentState{
			MarkPrice:   ev.MarkPrice,
			IndexPrice:  ev.IndexPrice,
			FundingRate: ev.FundingRate,
			UpdatedAt:   ev.Ts,
		}
	}

	price, size, usable := ev.PriceSize()
	if !usable {
		return Candle{}, false
	}

	bucket := ev.Ts.Truncate(time.Second)
	a.lastPrice = price
	a.lastUpdate = ev.Ts

	switch {
	case a.current == nil:
		a.current = open(bucket, price, size)

	case bucket.Equal(a.current.BucketStart):
		if price > a.current.High {
			a.current.High = price
		}
		if price < a.current.Low {
			a.current.Low = price
		}
		a.current.Close = price
		a.current.Volume += size
		a.current.Trades++

	case bucket.After(a.current.BucketStart):
		closed = *a.current
		a.history.Append(closed)
		a.current = open(bucket, price, size)
		return closed, true

	default:
		// late event for an already-closed bucket
		return Candle{}, false
	}
	return Candle{}, false
}

func open(bucket time.Time, price, size float64) *Candle {
	return &Candle{
		BucketStart: bucket,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
		Volume:      size,
		Trades:      1,
	}
}

// ClosedLen reports the number of closed candles retained.
func (a *Aggregator) ClosedLen() int { return a.history.Len() }

// Closes returns a copy of the closed candles' close prices, oldest first.
func (a *Aggregator) Closes() []float64 { return a.history.Closes() }

// Snapshot returns a copy of the closed candles, oldest first.
func (a *Aggregator) Snapshot() []Candle { return a.history.Snapshot() }

// Current returns a copy of the still-open candle, if one exists.
func (a *Aggregator) Current() (Candle, bool) {
	if a.current == nil {
		return Candle{}, false
	}
	return *a.current, true
}

// Instrument returns the latest mark/index/funding state.
func (a *Aggregator) Instrument() InstrumentState { return a.instrument }

// LastPrice returns the most recently ingested usable price and its event time.
func (a *Aggregator) LastPrice() (float64, time.Time) { return a.lastPrice, a.lastUpdate }
