// Package execution handles order lifecycle and position management against the venue.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/phkoenig/AlgoKuCoin/internal/metrics"
	"github.com/phkoenig/AlgoKuCoin/internal/risk"
	sig "github.com/phkoenig/AlgoKuCoin/internal/signal"
)

// Side enumerates order directions used by the executor.
type Side string

const (
	// Buy indicates a long order.
	Buy Side = "buy"
	// Sell indicates a short order.
	Sell Side = "sell"
)

// Position is a snapshot of the venue's view of an open position.
// Qty is signed: positive long, negative short.
type Position struct {
	Symbol   string
	Qty      float64
	Leverage int
}

// OrderRequest describes a market order placement.
type OrderRequest struct {
	Symbol     string
	Side       Side
	Size       float64
	Leverage   int
	CloseOrder bool
}

// OrderResult carries the venue's acknowledgement of a placed order.
type OrderResult struct {
	OrderID   string
	ClientOid string
}

// Fill records an executed order for ledgers and recorders.
type Fill struct {
	Symbol string    `json:"symbol"`
	Side   Side      `json:"side"`
	Qty    float64   `json:"qty"`
	Price  float64   `json:"price"`
	Ts     time.Time `json:"ts"`
}

// Trader is the narrow command interface the executor drives. A nil position
// with nil error means no open position exists for the symbol.
type Trader interface {
	Position(ctx context.Context, symbol string) (*Position, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	ClosePosition(ctx context.Context, symbol string) error
}

// ErrNoPosition is returned by Trader implementations when a close is
// requested for a symbol with no open position. The executor treats it as
// non-fatal everywhere it can occur.
var ErrNoPosition = errors.New("position does not exist")

// Executor turns trading signals into the minimal set of close/open orders to
// reach the target position. It never pyramids: a BUY is only acted on while
// the signed quantity is at or below zero, mirrored for SELL.
type Executor struct {
	trader   Trader
	log      zerolog.Logger
	limits   risk.Limits
	size     float64
	leverage int
	timeout  time.Duration
}

// NewExecutor builds an executor placing orders of fixed size at the given leverage.
func NewExecutor(trader Trader, log zerolog.Logger, limits risk.Limits, size float64, leverage int, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{
		trader:   trader,
		log:      log,
		limits:   limits,
		size:     size,
		leverage: leverage,
		timeout:  timeout,
	}
}

// Execute applies a signal. Every venue call runs under a bounded deadline so
// a stalled exchange cannot stall feed consumption. markPrice is used only for
// the notional guard; pass 0 to skip it.
func (e *Executor) Execute(ctx context.Context, s sig.Signal, markPrice float64) error {
	if s.Action == sig.Hold {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	pos, err := e.trader.Position(ctx, s.Symbol)
	if err != nil {
		return fmt.Errorf("query position: %w", err)
	}
	var current float64
	if pos != nil {
		current = pos.Qty
	}
	e.log.Debug().Str("sym", s.Symbol).Float64("qty", current).Str("action", string(s.Action)).Msg("position before signal")

	switch s.Action {
	case sig.Buy:
		if current > 0 {
			return nil // already long, never pyramid
		}
		if current < 0 {
			if err := e.close(ctx, s.Symbol); err != nil {
				return err
			}
		}
		return e.open(ctx, s.Symbol, Buy, markPrice)

	case sig.Sell:
		if current < 0 {
			return nil // already short
		}
		if current > 0 {
			if err := e.close(ctx, s.Symbol); err != nil {
				return err
			}
		}
		return e.open(ctx, s.Symbol, Sell, markPrice)
	}
	return nil
}

func (e *Executor) close(ctx context.Context, symbol string) error {
	if err := e.trader.ClosePosition(ctx, symbol); err != nil && !errors.Is(err, ErrNoPosition) {
		return fmt.Errorf("close position: %w", err)
	}
	e.log.Info().Str("sym", symbol).Msg("closed existing position")
	return nil
}

func (e *Executor) open(ctx context.Context, symbol string, side Side, markPrice float64) error {
	if markPrice > 0 && !e.limits.Allow(e.size*markPrice) {
		e.log.Warn().Str("sym", symbol).Float64("notional", e.size*markPrice).Msg("order blocked by notional limit")
		return nil
	}
	if err := e.trader.SetLeverage(ctx, symbol, e.leverage); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}
	res, err := e.trader.PlaceOrder(ctx, OrderRequest{
		Symbol:   symbol,
		Side:     side,
		Size:     e.size,
		Leverage: e.leverage,
	})
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	metrics.OrdersTotal.WithLabelValues(symbol, string(side)).Inc()
	e.log.Info().Str("sym", symbol).Str("side", string(side)).Float64("size", e.size).Str("order_id", res.OrderID).Msg("opened position")
	return nil
}

// CloseAll best-effort closes the open position, used on shutdown. A missing
// position is not an error.
func (e *Executor) CloseAll(ctx context.Context, symbol string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.trader.ClosePosition(ctx, symbol); err != nil && !errors.Is(err, ErrNoPosition) {
		return fmt.Errorf("close position: %w", err)
	}
	return nil
}
