package candle

import (
	"testing"
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/signal"
)

func trade(sec int64, price, size float64) signal.MarketEvent {
	return signal.MarketEvent{
		Kind:   signal.KindTrade,
		Symbol: "SOLUSDTM",
		Ts:     time.Unix(sec, 0).UTC(),
		Price:  price,
		Size:   size,
	}
}

func TestIngestScenario(t *testing.T) {
	agg := NewAggregator(100)

	if _, ok := agg.Ingest(trade(0, 100, 1)); ok {
		t.Fatalf("first event must not close a candle")
	}
	if _, ok := agg.Ingest(trade(0, 101, 2)); ok {
		t.Fatalf("same-bucket event must not close a candle")
	}
	closed, ok := agg.Ingest(trade(1, 99, 1))
	if !ok {
		t.Fatalf("expected bucket 0 to close")
	}

	if !closed.BucketStart.Equal(time.Unix(0, 0).UTC()) {
		t.Fatalf("unexpected bucket start: %v", closed.BucketStart)
	}
	if closed.Open != 100 || closed.High != 101 || closed.Low != 100 || closed.Close != 101 {
		t.Fatalf("unexpected OHLC: %+v", closed)
	}
	if closed.Volume != 3 {
		t.Fatalf("expected volume 3, got %.2f", closed.Volume)
	}
	if closed.Trades != 2 {
		t.Fatalf("expected 2 trades, got %d", closed.Trades)
	}

	current, ok := agg.Current()
	if !ok {
		t.Fatalf("expected open candle for bucket 1")
	}
	if current.Close != 99 || current.Open != 99 {
		t.Fatalf("unexpected open candle: %+v", current)
	}
}

func TestBucketingDeterminism(t *testing.T) {
	agg := NewAggregator(100)
	seconds := []int64{0, 0, 1, 1, 1, 2, 5, 5, 9}
	distinct := map[int64]struct{}{}
	var closedCount int
	for i, sec := range seconds {
		distinct[sec] = struct{}{}
		if _, ok := agg.Ingest(trade(sec, 100+float64(i), 1)); ok {
			closedCount++
		}
	}
	if want := len(distinct) - 1; closedCount != want {
		t.Fatalf("expected %d closed candles, got %d", want, closedCount)
	}
	if agg.ClosedLen() != len(distinct)-1 {
		t.Fatalf("history length %d, want %d", agg.ClosedLen(), len(distinct)-1)
	}
}

func TestOHLCInvariant(t *testing.T) {
	agg := NewAggregator(100)
	prices := []float64{100, 104, 98, 102, 101}
	for _, p := range prices {
		agg.Ingest(trade(7, p, 1))
	}
	closed, ok := agg.Ingest(trade(8, 103, 1))
	if !ok {
		t.Fatalf("expected closed candle")
	}
	if closed.Open != 100 || closed.Close != 101 {
		t.Fatalf("open/close mismatch: %+v", closed)
	}
	if closed.High != 104 || closed.Low != 98 {
		t.Fatalf("high/low mismatch: %+v", closed)
	}
	if closed.Low > closed.Open || closed.Open > closed.High || closed.Low > closed.Close || closed.Close > closed.High {
		t.Fatalf("OHLC invariant violated: %+v", closed)
	}
}

func TestBoundedHistory(t *testing.T) {
	agg := NewAggregator(100)
	for sec := int64(0); sec < 150; sec++ {
		agg.Ingest(trade(sec, 100, 1))
	}
	if agg.ClosedLen() != 100 {
		t.Fatalf("expected history capped at 100, got %d", agg.ClosedLen())
	}
	snap := agg.Snapshot()
	// 149 buckets closed (the last stays open); retained ones are the newest 100.
	if want := time.Unix(49, 0).UTC(); !snap[0].BucketStart.Equal(want) {
		t.Fatalf("oldest retained bucket %v, want %v", snap[0].BucketStart, want)
	}
	if want := time.Unix(148, 0).UTC(); !snap[len(snap)-1].BucketStart.Equal(want) {
		t.Fatalf("newest retained bucket %v, want %v", snap[len(snap)-1].BucketStart, want)
	}
}

func TestLateEventsDropped(t *testing.T) {
	agg := NewAggregator(100)
	agg.Ingest(trade(10, 100, 1))
	agg.Ingest(trade(11, 101, 1))

	before, _ := agg.Current()
	if _, ok := agg.Ingest(trade(9, 500, 1)); ok {
		t.Fatalf("late event must not close a candle")
	}
	after, _ := agg.Current()
	if before != after {
		t.Fatalf("late event mutated the open candle: %+v vs %+v", before, after)
	}
	last, _ := agg.history.Last()
	if last.High == 500 {
		t.Fatalf("late event amended a closed candle")
	}
}

func TestZeroPriceIgnored(t *testing.T) {
	agg := NewAggregator(100)
	agg.Ingest(trade(3, 100, 1))
	if _, ok := agg.Ingest(trade(4, 0, 1)); ok {
		t.Fatalf("zero-price event must be ignored")
	}
	current, _ := agg.Current()
	if current.Trades != 1 {
		t.Fatalf("zero-price event mutated the candle: %+v", current)
	}
}

func TestTickerMidpointDerivation(t *testing.T) {
	agg := NewAggregator(100)
	ev := signal.MarketEvent{
		Kind:     signal.KindTicker,
		Ts:       time.Unix(20, 0).UTC(),
		BidPrice: 99,
		BidSize:  4,
		AskPrice: 101,
		AskSize:  2,
	}
	agg.Ingest(ev)
	current, ok := agg.Current()
	if !ok {
		t.Fatalf("expected open candle")
	}
	if current.Open != 100 {
		t.Fatalf("expected midpoint 100, got %.2f", current.Open)
	}
	if current.Volume != 3 {
		t.Fatalf("expected averaged size 3, got %.2f", current.Volume)
	}
}

func TestInstrumentEventUpdatesSideChannel(t *testing.T) {
	agg := NewAggregator(100)
	ev := signal.MarketEvent{
		Kind:        signal.KindInstrument,
		Ts:          time.Unix(30, 0).UTC(),
		MarkPrice:   123.4,
		IndexPrice:  123.5,
		FundingRate: 0.0001,
	}
	agg.Ingest(ev)

	inst := agg.Instrument()
	if inst.MarkPrice != 123.4 || inst.IndexPrice != 123.5 || inst.FundingRate != 0.0001 {
		t.Fatalf("unexpected instrument state: %+v", inst)
	}
	// the mark price still seeds the candle
	current, ok := agg.Current()
	if !ok || current.Open != 123.4 {
		t.Fatalf("expected mark price to seed candle, got %+v", current)
	}
	if current.Volume != 0 {
		t.Fatalf("instrument events carry no size, got %.2f", current.Volume)
	}
}

func TestNanosecondTimestampsTruncate(t *testing.T) {
	agg := NewAggregator(100)
	ev := trade(0, 100, 1)
	ev.Ts = time.Unix(5, 999_999_999).UTC()
	agg.Ingest(ev)
	current, _ := agg.Current()
	if !current.BucketStart.Equal(time.Unix(5, 0).UTC()) {
		t.Fatalf("expected truncation to second, got %v", current.BucketStart)
	}

	ev.Ts = time.Unix(5, 1).UTC()
	if _, ok := agg.Ingest(ev); ok {
		t.Fatalf("same truncated second must not close the candle")
	}
}
