// Package pnl implements average-cost realized P&L attribution for single
// trade executions. It is a pure calculation layer: no I/O, no state.
package pnl

import (
	"github.com/shopspring/decimal"

	"github.com/quantrail/pnlpulse/internal/domain/models"
)

// Result is the outcome of attributing one trade against one position snapshot.
type Result struct {
	RealizedPnL decimal.Decimal
	IsClosing   bool
}

// Calculate attributes realized P&L for a trade against the latest known
// position snapshot.
//
// A trade is closing iff it reduces the magnitude of the existing position:
// SELL while long, or BUY while short. Every other combination (opening,
// adding, or trading against a flat book) realizes nothing.
//
//   - Closing a long:  pnl = min(quantity, position_qty) * (price - avg_cost)
//   - Closing a short: pnl = min(quantity, |position_qty|) * (avg_cost - price)
//
// When the trade quantity exceeds the held magnitude, only the position-sized
// portion realizes P&L. The excess flips the book into a new exposure with no
// cost basis yet, so no P&L is attributed to it here; the position-keeping
// process owns that basis once it marks the new position.
//
// A nil position or an absent average cost yields (0, false). A zero quantity
// against an opposable position classifies as closing with zero P&L: the flag
// is about direction, not magnitude.
func Calculate(side models.Side, quantity int64, price decimal.Decimal, pos *models.Position) Result {
	if pos == nil || !pos.AvgCost.Valid {
		return Result{RealizedPnL: decimal.Zero}
	}

	switch {
	case side == models.SideSell && pos.Quantity > 0:
		closed := min(quantity, pos.Quantity)
		pnl := decimal.NewFromInt(closed).Mul(price.Sub(pos.AvgCost.Decimal))
		return Result{RealizedPnL: pnl, IsClosing: true}

	case side == models.SideBuy && pos.Quantity < 0:
		closed := min(quantity, -pos.Quantity)
		pnl := decimal.NewFromInt(closed).Mul(pos.AvgCost.Decimal.Sub(price))
		return Result{RealizedPnL: pnl, IsClosing: true}
	}

	return Result{RealizedPnL: decimal.Zero}
}
