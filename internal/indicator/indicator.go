// Package indicator provides pure technical indicator computations over an
// ordered close-price series, oldest first. Every function recomputes from the
// full series it is given; no state is carried between calls, so a caller can
// never observe look-ahead bias from a half-built candle.
package indicator

// ema returns the exponential moving average series of values with smoothing
// factor alpha, seeded with the first value.
func ema(values []float64, alpha float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// emaSpan is ema with the span convention alpha = 2/(span+1).
func emaSpan(values []float64, span int) []float64 {
	return ema(values, 2/(float64(span)+1))
}
