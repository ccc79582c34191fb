package indicator

// MACD computes the Moving Average Convergence Divergence over closes with the
// given fast/slow/signal spans (EMA smoothing 2/(span+1), seeded with the
// first value). It returns the macd line, signal line, and histogram as of the
// last close, or (0,0,0) when fewer than slow+signalSpan closes exist.
func MACD(closes []float64, fast, slow, signalSpan int) (macd, sig, hist float64) {
	if fast <= 0 {
		fast = 12
	}
	if slow <= 0 {
		slow = 26
	}
	if signalSpan <= 0 {
		signalSpan = 9
	}
	if len(closes) < slow+signalSpan {
		return 0, 0, 0
	}

	emaFast := emaSpan(closes, fast)
	emaSlow := emaSpan(closes, slow)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = emaFast[i] - emaSlow[i]
	}
	signalLine := emaSpan(macdLine, signalSpan)

	last := len(closes) - 1
	macd = macdLine[last]
	sig = signalLine[last]
	return macd, sig, macd - sig
}
