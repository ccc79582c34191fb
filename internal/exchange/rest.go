package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/config"
	"github.com/phkoenig/AlgoKuCoin/internal/execution"
)

// Client is a signed KuCoin futures REST client implementing execution.Trader.
type Client struct {
	baseURL string
	creds   config.Credentials
	httpc   *http.Client
	log     zerolog.Logger
}

// NewClient builds a trading client against the given REST base URL.
func NewClient(baseURL string, creds config.Credentials, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type apiEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// sign produces the KC-API v2 headers for one request. The passphrase itself
// is transmitted HMAC-signed, never in the clear.
func (c *Client) sign(req *http.Request, method, pathWithQuery string, body []byte) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	payload := ts + method + pathWithQuery + string(body)

	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(payload))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	pmac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	pmac.Write([]byte(c.creds.APIPassphrase))
	passphrase := base64.StdEncoding.EncodeToString(pmac.Sum(nil))

	req.Header.Set("KC-API-KEY", c.creds.APIKey)
	req.Header.Set("KC-API-SIGN", signature)
	req.Header.Set("KC-API-TIMESTAMP", ts)
	req.Header.Set("KC-API-PASSPHRASE", passphrase)
	req.Header.Set("KC-API-KEY-VERSION", "2")
	req.Header.Set("Content-Type", "application/json")
}

func (c *Client) do(ctx context.Context, method, pathWithQuery string, reqBody any, out any) error {
	var body []byte
	if reqBody != nil {
		var err error
		if body, err = json.Marshal(reqBody); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathWithQuery, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.sign(req, method, pathWithQuery, body)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, pathWithQuery, err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, pathWithQuery, err)
	}
	if envelope.Code != "200000" {
		return fmt.Errorf("%s %s: api error %s: %s", method, pathWithQuery, envelope.Code, envelope.Msg)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, pathWithQuery, err)
		}
	}
	return nil
}

type positionData struct {
	Symbol       string    `json:"symbol"`
	CurrentQty   flexFloat `json:"currentQty"`
	RealLeverage flexFloat `json:"realLeverage"`
}

// Position returns the open position for the symbol, or nil when none exists.
func (c *Client) Position(ctx context.Context, symbol string) (*execution.Position, error) {
	var data positionData
	if err := c.do(ctx, http.MethodGet, "/api/v1/position?symbol="+symbol, nil, &data); err != nil {
		return nil, err
	}
	if data.Symbol == "" || data.CurrentQty == 0 {
		return nil, nil
	}
	return &execution.Position{
		Symbol:   data.Symbol,
		Qty:      float64(data.CurrentQty),
		Leverage: int(data.RealLeverage),
	}, nil
}

// SetLeverage updates the cross leverage used for subsequent orders.
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	body := map[string]string{
		"symbol":   symbol,
		"leverage": strconv.Itoa(leverage),
	}
	return c.do(ctx, http.MethodPost, "/api/v2/changeCrossUserLeverage", body, nil)
}

type orderData struct {
	OrderID string `json:"orderId"`
}

// PlaceOrder submits a market order with a fresh client oid.
func (c *Client) PlaceOrder(ctx context.Context, req execution.OrderRequest) (*execution.OrderResult, error) {
	clientOid := uuid.NewString()
	body := map[string]any{
		"clientOid": clientOid,
		"symbol":    req.Symbol,
		"side":      string(req.Side),
		"type":      "market",
		"size":      req.Size,
	}
	if req.Leverage > 0 {
		body["leverage"] = strconv.Itoa(req.Leverage)
	}
	if req.CloseOrder {
		body["closeOrder"] = true
	}

	var data orderData
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders", body, &data); err != nil {
		return nil, err
	}
	c.log.Info().Str("sym", req.Symbol).Str("side", string(req.Side)).Float64("size", req.Size).Str("order_id", data.OrderID).Msg("order placed")
	return &execution.OrderResult{OrderID: data.OrderID, ClientOid: clientOid}, nil
}

// ClosePosition flattens the open position with an opposing market close
// order. Returns execution.ErrNoPosition when nothing is open.
func (c *Client) ClosePosition(ctx context.Context, symbol string) error {
	pos, err := c.Position(ctx, symbol)
	if err != nil {
		return err
	}
	if pos == nil || pos.Qty == 0 {
		return execution.ErrNoPosition
	}

	side := execution.Sell
	if pos.Qty < 0 {
		side = execution.Buy
	}
	_, err = c.PlaceOrder(ctx, execution.OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Size:       math.Abs(pos.Qty),
		CloseOrder: true,
	})
	return err
}
