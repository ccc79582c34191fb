// Package pipeline wires the feed's event stream through aggregation,
// indicators, and signal dispatch. One pipeline goroutine exclusively owns
// the candle history and signal state; everything downstream of the event
// channel runs synchronously inside it, so no locking is needed between the
// aggregator, strategy, and dispatch step.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/candle"
	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/signal"
	"github.com/phkoenig/AlgoKuCoin/internal/strategy"
)

// Dispatcher receives emitted signals. markPrice is advisory, used for
// notional guards; it is 0 when no price is known yet.
type Dispatcher interface {
	Execute(ctx context.Context, s signal.Signal, markPrice float64) error
}

// Observer is notified after each candle close with the closed candle and the
// latest instrument side-channel state. Observers must not block.
type Observer interface {
	OnCandleClose(c candle.Candle, inst candle.InstrumentState)
}

// Pipeline consumes market events and drives the trading decision chain.
type Pipeline struct {
	log        zerolog.Logger
	symbol     string
	agg        *candle.Aggregator
	strat      strategy.Strategy
	dispatcher Dispatcher
	observers  []Observer
}

// New builds a pipeline around an aggregator, strategy, and dispatcher.
// dispatcher may be nil for observe-only runs.
func New(log zerolog.Logger, symbol string, agg *candle.Aggregator, strat strategy.Strategy, dispatcher Dispatcher, observers ...Observer) *Pipeline {
	return &Pipeline{
		log:        log,
		symbol:     symbol,
		agg:        agg,
		strat:      strat,
		dispatcher: dispatcher,
		observers:  observers,
	}
}

// Run consumes events until the context is canceled or the channel closes.
func (p *Pipeline) Run(ctx context.Context, events <-chan signal.MarketEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handle(ctx, ev)
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, ev signal.MarketEvent) {
	closed, ok := p.agg.Ingest(ev)
	if !ok {
		return
	}
	metrics.CandlesClosedTotal.WithLabelValues(p.symbol).Inc()
	p.log.Debug().
		Time("bucket", closed.BucketStart).
		Float64("o", closed.Open).Float64("h", closed.High).
		Float64("l", closed.Low).Float64("c", closed.Close).
		Float64("v", closed.Volume).Int("n", closed.Trades).
		Msg("candle closed")

	inst := p.agg.Instrument()
	for _, obs := range p.observers {
		obs.OnCandleClose(closed, inst)
	}

	s := p.strat.OnCandleClose(p.symbol, p.agg.Closes(), closed.BucketStart)
	if s == nil {
		return
	}
	metrics.SignalsTotal.WithLabelValues(p.symbol, string(s.Action)).Inc()
	p.log.Info().Str("action", string(s.Action)).Float64("rsi", s.RSI).Float64("hist", s.Hist).Str("reason", s.Reason).Msg("signal emitted")

	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Execute(ctx, *s, p.markPrice()); err != nil {
		// order failures never crash the pipeline
		p.log.Error().Err(err).Str("action", string(s.Action)).Msg("signal execution failed")
	}
}

// markPrice prefers the instrument mark price, falling back to the last trade.
func (p *Pipeline) markPrice() float64 {
	if inst := p.agg.Instrument(); inst.MarkPrice > 0 {
		return inst.MarkPrice
	}
	px, _ := p.agg.LastPrice()
	return px
}
