package strategy

import (
	"fmt"
	"time"

	"github.com/phkoenig/AlgoKuCoin/internal/indicator"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
)

// RSIMACD combines RSI threshold breaches with MACD histogram sign crossings
// into discrete BUY/SELL decisions, rate-limited by a cooldown window on any
// emission. Signal state is only mutated when a decision is actually emitted.
type RSIMACD struct {
	rsiPeriod  int
	rsiLower   float64
	rsiUpper   float64
	macdFast   int
	macdSlow   int
	macdSignal int
	buffer     time.Duration
	minHistory int

	lastAction sig.Action
	lastTime   time.Time
}

// NewRSIMACD builds the strategy, filling zero params with the canonical defaults.
func NewRSIMACD(p Params) *RSIMACD {
	if p.RSIPeriod <= 0 {
		p.RSIPeriod = 14
	}
	if p.RSILower <= 0 {
		p.RSILower = 40
	}
	if p.RSIUpper <= 0 {
		p.RSIUpper = 60
	}
	if p.MACDFast <= 0 {
		p.MACDFast = 12
	}
	if p.MACDSlow <= 0 {
		p.MACDSlow = 26
	}
	if p.MACDSignal <= 0 {
		p.MACDSignal = 9
	}
	if p.SignalBufferSeconds <= 0 {
		p.SignalBufferSeconds = 3
	}
	if p.MinHistory <= 0 {
		p.MinHistory = 100
	}
	return &RSIMACD{
		rsiPeriod:  p.RSIPeriod,
		rsiLower:   p.RSILower,
		rsiUpper:   p.RSIUpper,
		macdFast:   p.MACDFast,
		macdSlow:   p.MACDSlow,
		macdSignal: p.MACDSignal,
		buffer:     time.Duration(p.SignalBufferSeconds) * time.Second,
		minHistory: p.MinHistory,
	}
}

// Name returns the configured identifier for logging.
func (s *RSIMACD) Name() string { return "RSIMACD" }

// OnCandleClose evaluates the series and returns a signal, or nil when no
// actionable decision exists (not ready, no condition fired, or cooldown).
func (s *RSIMACD) OnCandleClose(symbol string, closes []float64, ts time.Time) *sig.Signal {
	if len(closes) < s.minHistory {
		return nil
	}

	rsi := indicator.RSI(closes, s.rsiPeriod)
	_, _, hist := indicator.MACD(closes, s.macdFast, s.macdSlow, s.macdSignal)
	_, _, prevHist := indicator.MACD(closes[:len(closes)-1], s.macdFast, s.macdSlow, s.macdSignal)

	// SELL is evaluated last and wins when both directions fire
	action := sig.Hold
	var reason string
	if rsi < s.rsiLower {
		action = sig.Buy
		reason = fmt.Sprintf("rsi %.1f oversold", rsi)
	}
	if hist > 0 && prevHist <= 0 {
		action = sig.Buy
		reason = "macd histogram crossed up"
	}
	if rsi > s.rsiUpper {
		action = sig.Sell
		reason = fmt.Sprintf("rsi %.1f overbought", rsi)
	}
	if hist < 0 && prevHist >= 0 {
		action = sig.Sell
		reason = "macd histogram crossed down"
	}
	if action == sig.Hold {
		return nil
	}

	// cooldown applies to any emission, repeat or not
	if !s.lastTime.IsZero() && ts.Sub(s.lastTime) < s.buffer {
		return nil
	}

	s.lastAction = action
	s.lastTime = ts
	return &sig.Signal{
		Symbol: symbol,
		Action: action,
		RSI:    rsi,
		Hist:   hist,
		Reason: reason,
		Ts:     ts,
	}
}

// LastSignal reports the most recently emitted decision and its time.
func (s *RSIMACD) LastSignal() (sig.Action, time.Time) {
	if s.lastTime.IsZero() {
		return sig.Hold, time.Time{}
	}
	return s.lastAction, s.lastTime
}
