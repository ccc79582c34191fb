// Package strategy contains trading signal generation logic driven by closed candles.
package strategy

import (
	"strings"
	"time"

	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations used by the bot.
// OnCandleClose is invoked once per closed candle with a snapshot of the
// close-price series, oldest first, including the just-closed candle.
type Strategy interface {
	OnCandleClose(symbol string, closes []float64, ts time.Time) *sig.Signal
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	RSIPeriod           int
	RSILower            float64
	RSIUpper            float64
	MACDFast            int
	MACDSlow            int
	MACDSignal          int
	SignalBufferSeconds int
	MinHistory          int
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "rsi_macd", "rsimacd", "momentum":
		return NewRSIMACD(params)
	default:
		return NewRSIMACD(params)
	}
}
