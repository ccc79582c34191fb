package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "market_events_total", Help: "Count of market events ingested"},
		[]string{"symbol", "kind"},
	)
	MalformedFramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "malformed_frames_total", Help: "Websocket frames dropped at the parse boundary"},
	)
	ReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_reconnects_total", Help: "Feed reconnect attempts"},
		[]string{"symbol"},
	)
	CandlesClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_closed_total", Help: "One-second candles closed"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trading signals emitted"},
		[]string{"symbol", "action"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
)

func init() {
	prometheus.MustRegister(EventsTotal, MalformedFramesTotal, ReconnectsTotal, CandlesClosedTotal, SignalsTotal, OrdersTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
