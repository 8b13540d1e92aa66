package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EnrichedTrade is the append-only ledger row produced by the enrichment
// pipeline: every Trade field plus the position context observed at enrichment
// time, the realized P&L attribution, and a processing timestamp.
//
// PositionQty and AvgCost are a point-in-time join, not a live reference; a row
// is never rewritten to reflect later position corrections.
type EnrichedTrade struct {
	TradeID       string
	Symbol        string
	Side          Side
	Quantity      int64
	Price         decimal.Decimal
	NotionalValue decimal.Decimal
	ExecutionTS   time.Time
	AccountID     string
	Venue         string
	TraderID      string
	OrderID       string
	PositionQty   *int64
	AvgCost       decimal.NullDecimal
	RealizedPnL   decimal.Decimal
	IsClosing     bool
	ProcessedAt   time.Time
}

// EnrichedPosition is one row of the rebuildable analytic view: a trade
// left-joined with per-symbol position aggregates. Aggregate fields stay absent
// for symbols with no position rows (left join, not inner).
type EnrichedPosition struct {
	TradeID          string
	AccountID        string
	Symbol           string
	ExecutionTS      time.Time
	Side             Side
	Quantity         int64
	Price            decimal.Decimal
	NotionalValue    decimal.Decimal
	AvgMarketPrice   decimal.NullDecimal
	TotalPositionQty *int64
	TotalMarketValue decimal.NullDecimal
}
