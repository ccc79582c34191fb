package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phkoenig/AlgoKuCoin/internal/candle"
	"github.com/phkoenig/AlgoKuCoin/internal/config"
	"github.com/phkoenig/AlgoKuCoin/internal/display"
	"github.com/phkoenig/AlgoKuCoin/internal/exchange"
	"github.com/phkoenig/AlgoKuCoin/internal/execution"
	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/paper"
	"github.com/phkoenig/AlgoKuCoin/internal/pipeline"
	"github.com/phkoenig/AlgoKuCoin/internal/risk"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
	"github.com/phkoenig/AlgoKuCoin/internal/strategy"
	"github.com/phkoenig/AlgoKuCoin/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	provider := flag.String("provider", "", "feed provider override (kucoin or stub)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *provider != "" {
		cfg.Exchange.Provider = *provider
	}

	log, closeLog := util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	defer func() { _ = closeLog() }()

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbol := cfg.Exchange.Symbol
	agg := candle.NewAggregator(cfg.Trading.MaxHistory)

	account := paper.NewAccount(cfg.Paper.StartingCash)
	ledger := paper.NewLedger(64)
	var recorder paper.FillRecorder = ledger
	if cfg.Paper.FillsPath != "" {
		jsonl, err := paper.NewJSONLRecorder(cfg.Paper.FillsPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Paper.FillsPath).Msg("open fills file")
		}
		defer func() { _ = jsonl.Close() }()
		recorder = teeRecorder{ledger, jsonl}
	}

	// fills at the last traded price; safe because the desk is only driven
	// from the pipeline goroutine that owns the aggregator
	desk := paper.NewDesk(account, recorder, agg.LastPrice)
	limits := risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade}
	exec := execution.NewExecutor(desk, log, limits, cfg.Trading.PositionSize, cfg.Trading.Leverage, 0)

	strat := strategy.Build(cfg.Strategy.Mode, strategy.Params{
		RSIPeriod:           cfg.Strategy.Params.RSIPeriod,
		RSILower:            cfg.Strategy.Params.RSILower,
		RSIUpper:            cfg.Strategy.Params.RSIUpper,
		MACDFast:            cfg.Strategy.Params.MACDFast,
		MACDSlow:            cfg.Strategy.Params.MACDSlow,
		MACDSignal:          cfg.Strategy.Params.MACDSignal,
		SignalBufferSeconds: cfg.Strategy.Params.SignalBufferSeconds,
		MinHistory:          cfg.Trading.MaxHistory,
	})

	feed := exchange.NewFeed(cfg.Exchange.Provider, symbol, log, exchange.WithBaseURL(cfg.Exchange.BaseURL))
	events := make(chan sig.MarketEvent, 1024)
	go func() {
		if err := feed.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("feed stopped")
		}
		cancel()
	}()

	pipe := pipeline.New(log, symbol, agg, strat, exec, display.NewConsole(os.Stdout))
	log.Info().Str("symbol", symbol).Str("provider", cfg.Exchange.Provider).Float64("cash", cfg.Paper.StartingCash).Msg("paper engine started")

	if err := pipe.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("pipeline stopped")
	}

	lastPrice, _ := agg.LastPrice()
	snap := account.Snapshot(map[string]float64{symbol: lastPrice})
	log.Info().
		Int("fills", ledger.Len()).
		Float64("traded_notional", ledger.TradedNotional()).
		Float64("cash", snap.Cash).
		Float64("realized_pnl", snap.RealizedPnL).
		Float64("equity", snap.Equity).
		Msg("paper session summary")
	for sym, pos := range snap.Positions {
		log.Info().Str("symbol", sym).Float64("qty", pos.Qty).Float64("avg_entry", pos.AvgEntry).Float64("unrealized", pos.Unrealized).Msg("open paper position")
	}
}

// teeRecorder feeds fills to both the in-memory ledger and the JSONL file.
type teeRecorder struct {
	a, b paper.FillRecorder
}

func (t teeRecorder) Record(f execution.Fill) {
	t.a.Record(f)
	t.b.Record(f)
}
