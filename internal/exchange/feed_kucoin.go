package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/signal"
)

type bulletResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint     string `json:"endpoint"`
			PingInterval int64  `json:"pingInterval"` // milliseconds
		} `json:"instanceServers"`
	} `json:"data"`
}

// bulletPublic fetches a short-lived websocket token and endpoint. Market data
// channels are public, so the call is unsigned.
func (f *Feed) bulletPublic(ctx context.Context) (token, endpoint string, pingEvery time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/api/v1/bullet-public", nil)
	if err != nil {
		return "", "", 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("bullet-public: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", 0, fmt.Errorf("bullet-public: unexpected status %d", resp.StatusCode)
	}
	var bullet bulletResponse
	if err := json.NewDecoder(resp.Body).Decode(&bullet); err != nil {
		return "", "", 0, fmt.Errorf("bullet-public: decode: %w", err)
	}
	if bullet.Code != "200000" {
		return "", "", 0, fmt.Errorf("bullet-public: api error %s: %s", bullet.Code, bullet.Msg)
	}
	if len(bullet.Data.InstanceServers) == 0 {
		return "", "", 0, fmt.Errorf("bullet-public: no instance servers")
	}

	server := bullet.Data.InstanceServers[0]
	pingEvery = heartbeatInterval
	if server.PingInterval > 0 {
		pingEvery = time.Duration(server.PingInterval) * time.Millisecond
	}
	return bullet.Data.Token, server.Endpoint, pingEvery, nil
}

// topics returns the market data subscriptions for the feed's symbol.
func (f *Feed) topics() []string {
	return []string{
		"/contractMarket/execution:" + f.symbol,
		"/contractMarket/tickerV2:" + f.symbol,
		"/contract/instrument:" + f.symbol,
	}
}

func (f *Feed) runKuCoin(ctx context.Context, out chan<- signal.MarketEvent) error {
	backoff := backoffFloor
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		started := time.Now()
		err := f.consumeKuCoinStream(ctx, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Since(started) >= sustainedConn {
			backoff = backoffFloor
		}

		metrics.ReconnectsTotal.WithLabelValues(f.symbol).Inc()
		f.log.Warn().Err(err).Dur("backoff", backoff).Msg("kucoin feed disconnected, retrying")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff *= 2; backoff > backoffCap {
			backoff = backoffCap
		}
	}
}

// consumeKuCoinStream performs one full connection cycle: token bootstrap,
// dial, subscribe, heartbeat, and the read loop. Any returned error means the
// cycle ended and the caller should back off and reconnect.
func (f *Feed) consumeKuCoinStream(ctx context.Context, out chan<- signal.MarketEvent) error {
	token, endpoint, pingEvery, err := f.bulletPublic(ctx)
	if err != nil {
		return err
	}

	wsURL := fmt.Sprintf("%s?token=%s&connectId=%d", toWsScheme(endpoint), token, time.Now().UnixMilli())
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderKuCoin).Str("symbol", f.symbol).Msg("connected market data feed")

	conn.SetReadLimit(1 << 20)
	readDeadline := 3 * pingEvery
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

	for _, topic := range f.topics() {
		sub := map[string]any{
			"id":             time.Now().UnixMilli(),
			"type":           "subscribe",
			"topic":          topic,
			"privateChannel": false,
			"response":       true,
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(sub); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		f.log.Debug().Str("topic", topic).Msg("subscribed")
	}

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				ping := map[string]any{"id": time.Now().UnixMilli(), "type": "ping"}
				if err := conn.WriteJSON(ping); err != nil {
					f.log.Warn().Err(err).Msg("kucoin ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

		ev, ok, err := parseFrame(f.symbol, message)
		if err != nil {
			metrics.MalformedFramesTotal.Inc()
			f.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}
		if !ok {
			continue // welcome/pong/ack or unknown topic
		}

		select {
		case out <- ev:
			metrics.EventsTotal.WithLabelValues(f.symbol, ev.Kind.String()).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func toWsScheme(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")
	default:
		return endpoint
	}
}
