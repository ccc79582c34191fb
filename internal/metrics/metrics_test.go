package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegistered(t *testing.T) {
	EventsTotal.WithLabelValues("SOLUSDTM", "trade").Inc()
	if got := testutil.ToFloat64(EventsTotal.WithLabelValues("SOLUSDTM", "trade")); got < 1 {
		t.Fatalf("expected events counter >= 1, got %f", got)
	}

	CandlesClosedTotal.WithLabelValues("SOLUSDTM").Add(2)
	if got := testutil.ToFloat64(CandlesClosedTotal.WithLabelValues("SOLUSDTM")); got < 2 {
		t.Fatalf("expected candles counter >= 2, got %f", got)
	}
}
