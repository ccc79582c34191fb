// Package paper simulates futures fills against a virtual margin account so
// the full live pipeline can run without touching the exchange.
package paper

import (
	"errors"
	"math"
	"sync"

	"github.com/phkoenig/AlgoKuCoin/internal/execution"
)

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

const epsilon = 1e-9

type positionState struct {
	Qty      float64 // signed: positive long, negative short
	AvgEntry float64
}

// Account tracks virtual cash, realized PnL, and signed per-symbol positions
// while trading in paper mode. Shorts are first-class: selling from flat opens
// a short, and fills that cross through zero realize the closed leg and open
// the remainder at the fill price.
type Account struct {
	mu           sync.Mutex
	startingCash float64
	cash         float64
	realizedPnL  float64
	positions    map[string]positionState
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty        float64
	AvgEntry   float64
	Unrealized float64
}

// Snapshot represents a thread-safe view of the account state, marked to
// market using the provided prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account populated with starting cash.
func NewAccount(startingCash float64) *Account {
	return &Account{
		startingCash: startingCash,
		cash:         startingCash,
		positions:    make(map[string]positionState),
	}
}

// StartingCash returns the initial bankroll used to compute drawdown.
func (a *Account) StartingCash() float64 { return a.startingCash }

// ApplyFill executes a market fill at the provided price, mutating the signed
// position and realizing PnL on any closed leg.
func (a *Account) ApplyFill(symbol string, side execution.Side, qty, price float64) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if price <= 0 {
		return errors.New("price must be positive")
	}

	delta := qty
	if side == execution.Sell {
		delta = -qty
	} else if side != execution.Buy {
		return errors.New("unknown order side")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[symbol]
	if state.Qty == 0 || sameSign(state.Qty, delta) {
		newQty := state.Qty + delta
		newAvg := price
		if state.Qty != 0 {
			newAvg = (state.AvgEntry*math.Abs(state.Qty) + price*math.Abs(delta)) / math.Abs(newQty)
		}
		a.positions[symbol] = positionState{Qty: newQty, AvgEntry: newAvg}
		return nil
	}

	// reducing or crossing: realize PnL on the closed leg
	closedQty := math.Min(math.Abs(delta), math.Abs(state.Qty))
	direction := 1.0
	if state.Qty < 0 {
		direction = -1
	}
	realized := (price - state.AvgEntry) * direction * closedQty
	a.realizedPnL += realized
	a.cash += realized

	remaining := state.Qty + delta
	switch {
	case math.Abs(remaining) <= epsilon:
		delete(a.positions, symbol)
	case sameSign(remaining, delta):
		// crossed through zero, remainder opens at the fill price
		a.positions[symbol] = positionState{Qty: remaining, AvgEntry: price}
	default:
		a.positions[symbol] = positionState{Qty: remaining, AvgEntry: state.AvgEntry}
	}
	return nil
}

// Snapshot returns a copy of balances marked using the supplied prices map.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for sym, pos := range a.positions {
		mark := prices[sym]
		var unrealized float64
		if mark > 0 {
			direction := 1.0
			if pos.Qty < 0 {
				direction = -1
			}
			unrealized = (mark - pos.AvgEntry) * direction * math.Abs(pos.Qty)
		}
		positions[sym] = PositionSnapshot{Qty: pos.Qty, AvgEntry: pos.AvgEntry, Unrealized: unrealized}
		equity += unrealized
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

// Position returns the current signed position size for the supplied symbol.
func (a *Account) Position(symbol string) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
