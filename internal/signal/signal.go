// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// EventKind discriminates the market event variants delivered by the feed.
type EventKind int

const (
	// KindTicker is a best bid/ask quote update.
	KindTicker EventKind = iota
	// KindTrade is an executed trade (match).
	KindTrade
	// KindInstrument carries mark/index price and funding rate.
	KindInstrument
)

// String returns the metrics-friendly name of the event kind.
func (k EventKind) String() string {
	switch k {
	case KindTicker:
		return "ticker"
	case KindTrade:
		return "trade"
	case KindInstrument:
		return "instrument"
	default:
		return "unknown"
	}
}

// MarketEvent is a tagged union over the feed's quote, trade, and instrument
// updates. Only the fields belonging to the Kind are populated; an event is
// immutable once constructed.
type MarketEvent struct {
	Kind   EventKind
	Symbol string
	Ts     time.Time

	// KindTicker
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64

	// KindTrade
	Price float64
	Size  float64
	Side  int // +1 buy, -1 sell (aggressor)

	// KindInstrument
	MarkPrice   float64
	IndexPrice  float64
	FundingRate float64
}

// PriceSize derives the representative price and size used for candle
// aggregation. ok is false when the event carries no usable price.
func (e MarketEvent) PriceSize() (price, size float64, ok bool) {
	switch e.Kind {
	case KindTicker:
		price = (e.BidPrice + e.AskPrice) / 2
		size = (e.BidSize + e.AskSize) / 2
	case KindTrade:
		price = e.Price
		size = e.Size
	case KindInstrument:
		price = e.MarkPrice
	}
	if price == 0 {
		return 0, 0, false
	}
	return price, size, true
}

// Action expresses a discrete trading decision.
type Action string

const (
	// Buy targets a long position.
	Buy Action = "BUY"
	// Sell targets a short position.
	Sell Action = "SELL"
	// Hold takes no action.
	Hold Action = "HOLD"
)

// Signal is an emitted trading decision produced by a strategy implementation.
type Signal struct {
	Symbol string
	Action Action
	RSI    float64
	Hist   float64
	Reason string
	Ts     time.Time
}
