// Package integration exercises the full decision chain end to end: synthetic
// market events through the aggregator, the real RSI/MACD strategy, the
// executor, and a paper desk.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/candle"
	"github.com/phkoenig/AlgoKuCoin/internal/execution"
	"github.com/phkoenig/AlgoKuCoin/internal/paper"
	"github.com/phkoenig/AlgoKuCoin/internal/pipeline"
	"github.com/phkoenig/AlgoKuCoin/internal/risk"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
	"github.com/phkoenig/AlgoKuCoin/internal/strategy"
)

const symbol = "SOLUSDTM"

func trade(sec int, price float64) sig.MarketEvent {
	return sig.MarketEvent{
		Kind:   sig.KindTrade,
		Symbol: symbol,
		Ts:     time.Unix(int64(sec), 0).UTC(),
		Price:  price,
		Size:   1,
	}
}

// TestDecliningMarketOpensLong runs 101 one-second trades with falling prices.
// Once a hundred candles have closed RSI sits deep in oversold territory, so
// the first evaluation must yield a BUY that the desk fills as a long.
func TestDecliningMarketOpensLong(t *testing.T) {
	agg := candle.NewAggregator(100)
	account := paper.NewAccount(10_000)
	ledger := paper.NewLedger(0)
	desk := paper.NewDesk(account, ledger, agg.LastPrice)
	exec := execution.NewExecutor(desk, zerolog.Nop(), risk.Limits{}, 1, 5, 0)
	strat := strategy.Build("rsi_macd", strategy.Params{MinHistory: 100})
	pipe := pipeline.New(zerolog.Nop(), symbol, agg, strat, exec)

	events := make(chan sig.MarketEvent, 128)
	go func() {
		for i := 0; i <= 100; i++ {
			events <- trade(i, 200-float64(i))
		}
		close(events)
	}()
	if err := pipe.Run(context.Background(), events); err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	if got := account.Position(symbol); got != 1 {
		t.Fatalf("expected long position of 1, got %.4f", got)
	}
	fills := ledger.Snapshot()
	if len(fills) != 1 {
		t.Fatalf("expected a single opening fill, got %d", len(fills))
	}
	if fills[0].Side != execution.Buy || fills[0].Qty != 1 {
		t.Fatalf("unexpected opening fill: %+v", fills[0])
	}
}

// TestReversalFlipsToShort extends the declining run with a sustained rally.
// The strategy must eventually emit a SELL, and the executor must flatten the
// long before opening the short, leaving exactly three fills.
func TestReversalFlipsToShort(t *testing.T) {
	agg := candle.NewAggregator(100)
	account := paper.NewAccount(10_000)
	ledger := paper.NewLedger(0)
	desk := paper.NewDesk(account, ledger, agg.LastPrice)
	exec := execution.NewExecutor(desk, zerolog.Nop(), risk.Limits{}, 1, 5, 0)
	strat := strategy.Build("rsi_macd", strategy.Params{MinHistory: 100})
	pipe := pipeline.New(zerolog.Nop(), symbol, agg, strat, exec)

	events := make(chan sig.MarketEvent, 512)
	go func() {
		price := 200.0
		sec := 0
		for i := 0; i <= 100; i++ { // decline into oversold
			events <- trade(sec, price)
			price--
			sec++
		}
		for i := 0; i < 150; i++ { // rally until the window is all gains
			price += 2
			events <- trade(sec, price)
			sec++
		}
		close(events)
	}()
	if err := pipe.Run(context.Background(), events); err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	if got := account.Position(symbol); got != -1 {
		t.Fatalf("expected short position of 1, got %.4f", got)
	}
	fills := ledger.Snapshot()
	if len(fills) != 3 {
		t.Fatalf("expected open/close/open fill sequence, got %d fills: %+v", len(fills), fills)
	}
	if fills[0].Side != execution.Buy || fills[1].Side != execution.Sell || fills[2].Side != execution.Sell {
		t.Fatalf("unexpected fill sides: %+v", fills)
	}
	// the long was opened near the bottom and closed into the rally
	if account.RealizedPnL() <= 0 {
		t.Fatalf("expected a profitable flipped long, realized=%.2f", account.RealizedPnL())
	}
}
