package main

import (
	"context"
	"errors"
	"flag"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/phkoenig/AlgoKuCoin/internal/candle"
	"github.com/phkoenig/AlgoKuCoin/internal/config"
	"github.com/phkoenig/AlgoKuCoin/internal/display"
	"github.com/phkoenig/AlgoKuCoin/internal/exchange"
	"github.com/phkoenig/AlgoKuCoin/internal/execution"
	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/pipeline"
	"github.com/phkoenig/AlgoKuCoin/internal/risk"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
	"github.com/phkoenig/AlgoKuCoin/internal/strategy"
	"github.com/phkoenig/AlgoKuCoin/internal/util"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "path to YAML config")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}

	log, closeLog := util.NewFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	defer func() { _ = closeLog() }()

	creds, err := config.CredentialsFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("live trading needs KUCOIN_API_KEY, KUCOIN_API_SECRET, KUCOIN_API_PASSPHRASE")
	}

	if cfg.App.MetricsAddr != "" {
		_ = metrics.Serve(cfg.App.MetricsAddr)
		log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	symbol := cfg.Exchange.Symbol
	client := exchange.NewClient(cfg.Exchange.BaseURL, creds, log)
	limits := risk.Limits{MaxNotionalPerTrade: cfg.Risk.MaxNotionalPerTrade}
	exec := execution.NewExecutor(client, log, limits, cfg.Trading.PositionSize, cfg.Trading.Leverage, 0)

	agg := candle.NewAggregator(cfg.Trading.MaxHistory)
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
	log.Info().Str("symbol", symbol).Str("strategy", strat.Name()).Msg("bot started")

	if err := pipe.Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("pipeline stopped")
	}

	// the signal context is already done here, so close under a fresh deadline
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := exec.CloseAll(shutdownCtx, symbol); err != nil {
		log.Error().Err(err).Msg("shutdown close failed; position may remain open")
	} else {
		log.Info().Msg("shutdown close done")
	}
}
