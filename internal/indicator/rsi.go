package indicator

// RSINeutral is returned when too few closes exist for a defined RSI value.
const RSINeutral = 50.0

// RSI computes the Relative Strength Index over closes with the given period.
// Gains and losses are smoothed exponentially with alpha = 1/period, seeded
// with the first difference. Fewer than period+1 closes yield the neutral 50;
// a zero average loss yields 100.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = 14
	}
	if len(closes) < period+1 {
		return RSINeutral
	}

	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	alpha := 1 / float64(period)
	avgGain := ema(gains, alpha)
	avgLoss := ema(losses, alpha)

	lastLoss := avgLoss[len(avgLoss)-1]
	if lastLoss == 0 {
		return 100
	}
	rs := avgGain[len(avgGain)-1] / lastLoss
	return 100 - 100/(1+rs)
}
