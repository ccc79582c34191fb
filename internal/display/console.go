// Package display renders pipeline state for humans. It observes candle
// closes and never participates in aggregation or signal logic.
package display

import (
	"fmt"
	"io"

	"github.com/phkoenig/AlgoKuCoin/internal/candle"
)

const recentCandles = 5

// Console writes a compact market summary to w on every candle close.
type Console struct {
	w      io.Writer
	recent []candle.Candle
}

// NewConsole builds a console renderer writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// OnCandleClose records the candle and renders the current market view.
func (c *Console) OnCandleClose(cd candle.Candle, inst candle.InstrumentState) {
	c.recent = append(c.recent, cd)
	if len(c.recent) > recentCandles {
		c.recent = c.recent[1:]
	}

	fmt.Fprintf(c.w, "\n[%s] close: %.3f", cd.BucketStart.Format("15:04:05"), cd.Close)
	if inst.MarkPrice > 0 {
		fmt.Fprintf(c.w, "  mark: %.3f  index: %.3f  funding: %.4f%%", inst.MarkPrice, inst.IndexPrice, inst.FundingRate*100)
	}
	fmt.Fprintln(c.w)

	fmt.Fprintf(c.w, "%-10s %9s %9s %9s %9s %10s %7s\n", "time", "open", "high", "low", "close", "volume", "trades")
	for _, r := range c.recent {
		fmt.Fprintf(c.w, "%-10s %9.3f %9.3f %9.3f %9.3f %10.4f %7d\n",
			r.BucketStart.Format("15:04:05"), r.Open, r.High, r.Low, r.Close, r.Volume, r.Trades)
	}
}
