// Package exchange hosts the KuCoin futures market data feed and trading client.
package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/signal"
)

const (
	// ProviderStub emits deterministic synthetic trades (useful for tests/offline work).
	ProviderStub = "stub"
	// ProviderKuCoin streams live market data from KuCoin futures websockets.
	ProviderKuCoin = "kucoin"
)

const (
	defaultBaseURL = "https://api-futures.kucoin.com"

	backoffFloor = 5 * time.Second
	backoffCap   = 60 * time.Second
	// a connection that survives this long resets the backoff to the floor
	sustainedConn = 2 * time.Minute

	heartbeatInterval = 20 * time.Second
)

// Feed represents a pluggable market data stream for a single symbol.
type Feed struct {
	provider string
	symbol   string
	log      zerolog.Logger
	baseURL  string
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithBaseURL overrides the REST endpoint used for the token bootstrap.
func WithBaseURL(u string) Option {
	return func(f *Feed) {
		if u != "" {
			f.baseURL = u
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	f := &Feed{
		provider: provider,
		symbol:   symbol,
		log:      log,
		baseURL:  defaultBaseURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run pushes market events onto the provided channel until the context is
// canceled. Reconnects are handled internally; delivery simply pauses and
// resumes across a gap, and events during an outage are lost, not replayed.
func (f *Feed) Run(ctx context.Context, out chan<- signal.MarketEvent) error {
	switch f.provider {
	case ProviderKuCoin:
		return f.runKuCoin(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- signal.MarketEvent) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	px := 100.0
	step := 0.1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			px += step
			if px > 110 || px < 90 {
				step = -step
			}
			ev := signal.MarketEvent{
				Kind:   signal.KindTrade,
				Symbol: f.symbol,
				Ts:     ts,
				Price:  px,
				Size:   1,
				Side:   1,
			}
			select {
			case out <- ev:
				metrics.EventsTotal.WithLabelValues(f.symbol, ev.Kind.String()).Inc()
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
