// Package risk holds guard-rails applied before any opening order.
package risk

// Limits bounds the notional value a single opening order may take on.
// A zero limit disables the check.
type Limits struct {
	MaxNotionalPerTrade float64
}

// Allow reports whether an opening order of the given notional is permitted.
func (l Limits) Allow(notional float64) bool {
	if l.MaxNotionalPerTrade <= 0 {
		return true
	}
	return notional <= l.MaxNotionalPerTrade
}
