package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the latest known snapshot for one (account, symbol) pair, owned
// by the external position-keeping process and read-only here.
//
// Quantity is signed: positive = long, negative = short, zero = flat.
// AvgCost is the cost basis per unit of the held signed quantity and is absent
// (invalid NullDecimal) when the book is flat.
//
// At most one live row per (account, symbol) is expected; when upstream
// duplication produces more, the index resolves ties by latest AsOfTS, then by
// highest PositionID so repeated lookups within a run are reproducible.
type Position struct {
	PositionID   int64
	AccountID    string
	Symbol       string
	Quantity     int64
	AvgCost      decimal.NullDecimal
	CurrentPrice decimal.Decimal
	MarketValue  decimal.Decimal
	AsOfTS       time.Time
}
