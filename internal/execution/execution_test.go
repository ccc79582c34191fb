package execution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/risk"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
)

type fakeTrader struct {
	qty         float64
	hasPosition bool
	leverage    int
	closes      int
	orders      []OrderRequest
	closeErr    error
	orderErr    error
}

func (f *fakeTrader) Position(ctx context.Context, symbol string) (*Position, error) {
	if !f.hasPosition {
		return nil, nil
	}
	return &Position{Symbol: symbol, Qty: f.qty, Leverage: f.leverage}, nil
}

func (f *fakeTrader) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	f.leverage = leverage
	return nil
}

func (f *fakeTrader) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	f.orders = append(f.orders, req)
	return &OrderResult{OrderID: "oid-1", ClientOid: "coid-1"}, nil
}

func (f *fakeTrader) ClosePosition(ctx context.Context, symbol string) error {
	if f.closeErr != nil {
		return f.closeErr
	}
	f.closes++
	f.qty = 0
	f.hasPosition = false
	return nil
}

func newTestExecutor(trader Trader) *Executor {
	return NewExecutor(trader, zerolog.Nop(), risk.Limits{}, 1, 5, time.Second)
}

func buySignal() sig.Signal {
	return sig.Signal{Symbol: "SOLUSDTM", Action: sig.Buy, Ts: time.Now()}
}

func sellSignal() sig.Signal {
	return sig.Signal{Symbol: "SOLUSDTM", Action: sig.Sell, Ts: time.Now()}
}

func TestBuyFromFlatOpensLong(t *testing.T) {
	trader := &fakeTrader{}
	exec := newTestExecutor(trader)

	if err := exec.Execute(context.Background(), buySignal(), 0); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if trader.closes != 0 {
		t.Fatalf("unexpected close on flat position")
	}
	if len(trader.orders) != 1 || trader.orders[0].Side != Buy {
		t.Fatalf("expected one buy order, got %+v", trader.orders)
	}
	if trader.leverage != 5 {
		t.Fatalf("expected leverage set to 5, got %d", trader.leverage)
	}
}

func TestBuyWhileShortFlips(t *testing.T) {
	trader := &fakeTrader{qty: -2, hasPosition: true}
	exec := newTestExecutor(trader)

	if err := exec.Execute(context.Background(), buySignal(), 0); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if trader.closes != 1 {
		t.Fatalf("expected short to be closed first, closes=%d", trader.closes)
	}
	if len(trader.orders) != 1 || trader.orders[0].Side != Buy {
		t.Fatalf("expected buy order after close, got %+v", trader.orders)
	}
}

func TestBuyWhileLongIsNoOp(t *testing.T) {
	trader := &fakeTrader{qty: 1, hasPosition: true}
	exec := newTestExecutor(trader)

	if err := exec.Execute(context.Background(), buySignal(), 0); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if trader.closes != 0 || len(trader.orders) != 0 {
		t.Fatalf("expected no-op while already long, closes=%d orders=%+v", trader.closes, trader.orders)
	}
}

func TestSellWhileLongFlips(t *testing.T) {
	trader := &fakeTrader{qty: 3, hasPosition: true}
	exec := newTestExecutor(trader)

	if err := exec.Execute(context.Background(), sellSignal(), 0); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if trader.closes != 1 {
		t.Fatalf("expected long to be closed first")
	}
	if len(trader.orders) != 1 || trader.orders[0].Side != Sell {
		t.Fatalf("expected sell order, got %+v", trader.orders)
	}
}

func TestHoldDoesNothing(t *testing.T) {
	trader := &fakeTrader{}
	exec := newTestExecutor(trader)
	s := sig.Signal{Symbol: "SOLUSDTM", Action: sig.Hold}
	if err := exec.Execute(context.Background(), s, 0); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(trader.orders) != 0 {
		t.Fatalf("hold must place no orders")
	}
}

func TestNotionalLimitBlocksOpen(t *testing.T) {
	trader := &fakeTrader{}
	exec := NewExecutor(trader, zerolog.Nop(), risk.Limits{MaxNotionalPerTrade: 50}, 1, 5, time.Second)

	if err := exec.Execute(context.Background(), buySignal(), 100); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(trader.orders) != 0 {
		t.Fatalf("expected order blocked by notional limit")
	}
}

func TestOrderErrorSurfaced(t *testing.T) {
	trader := &fakeTrader{orderErr: errors.New("rejected")}
	exec := newTestExecutor(trader)
	if err := exec.Execute(context.Background(), buySignal(), 0); err == nil {
		t.Fatalf("expected order rejection to surface")
	}
}

func TestCloseAllToleratesNoPosition(t *testing.T) {
	trader := &fakeTrader{closeErr: ErrNoPosition}
	exec := newTestExecutor(trader)
	if err := exec.CloseAll(context.Background(), "SOLUSDTM"); err != nil {
		t.Fatalf("expected no-position close to be non-fatal, got %v", err)
	}
}

func TestCloseAllSurfacesOtherErrors(t *testing.T) {
	trader := &fakeTrader{closeErr: errors.New("boom")}
	exec := newTestExecutor(trader)
	if err := exec.CloseAll(context.Background(), "SOLUSDTM"); err == nil {
		t.Fatalf("expected close error to surface")
	}
}
