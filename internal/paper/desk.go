package paper

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phkoenig/AlgoKuCoin/internal/execution"
)

// PriceSource reports the latest traded price and its event time. The desk
// fills market orders at this price.
type PriceSource func() (float64, time.Time)

// Desk implements execution.Trader against the virtual account, so the live
// executor's flip-or-open policy runs unchanged in paper mode.
type Desk struct {
	account  *Account
	recorder FillRecorder
	price    PriceSource

	mu       sync.Mutex
	leverage map[string]int
}

// NewDesk builds a paper desk filling orders at prices from the source.
// recorder may be nil.
func NewDesk(account *Account, recorder FillRecorder, price PriceSource) *Desk {
	return &Desk{
		account:  account,
		recorder: recorder,
		price:    price,
		leverage: make(map[string]int),
	}
}

// Position reports the account's signed position, or nil when flat.
func (d *Desk) Position(ctx context.Context, symbol string) (*execution.Position, error) {
	qty := d.account.Position(symbol)
	if qty == 0 {
		return nil, nil
	}
	d.mu.Lock()
	lev := d.leverage[symbol]
	d.mu.Unlock()
	return &execution.Position{Symbol: symbol, Qty: qty, Leverage: lev}, nil
}

// SetLeverage records the leverage; the virtual account does not margin-call.
func (d *Desk) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	d.mu.Lock()
	d.leverage[symbol] = leverage
	d.mu.Unlock()
	return nil
}

// PlaceOrder fills the order immediately at the current source price.
func (d *Desk) PlaceOrder(ctx context.Context, req execution.OrderRequest) (*execution.OrderResult, error) {
	price, ts := d.price()
	if err := d.account.ApplyFill(req.Symbol, req.Side, req.Size, price); err != nil {
		return nil, err
	}
	if d.recorder != nil {
		d.recorder.Record(execution.Fill{
			Symbol: req.Symbol,
			Side:   req.Side,
			Qty:    req.Size,
			Price:  price,
			Ts:     ts,
		})
	}
	return &execution.OrderResult{OrderID: uuid.NewString(), ClientOid: uuid.NewString()}, nil
}

// ClosePosition flattens the virtual position at the current source price.
func (d *Desk) ClosePosition(ctx context.Context, symbol string) error {
	qty := d.account.Position(symbol)
	if qty == 0 {
		return execution.ErrNoPosition
	}
	side := execution.Sell
	if qty < 0 {
		side = execution.Buy
	}
	price, ts := d.price()
	if err := d.account.ApplyFill(symbol, side, math.Abs(qty), price); err != nil {
		return err
	}
	if d.recorder != nil {
		d.recorder.Record(execution.Fill{Symbol: symbol, Side: side, Qty: math.Abs(qty), Price: price, Ts: ts})
	}
	return nil
}
