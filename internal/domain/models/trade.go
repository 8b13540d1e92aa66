package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade. Quantity is always positive; direction is
// carried here, never by sign.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Trade represents one immutable trade execution as delivered by the change feed.
//
// Seq is the feed-local ordinal assigned on insert; the enrichment cursor tracks
// the highest Seq consumed per source. All remaining fields are owned by the
// upstream execution system.
type Trade struct {
	Seq         int64
	TradeID     string
	Symbol      string
	Side        Side
	Quantity    int64
	Price       decimal.Decimal
	ExecutionTS time.Time
	AccountID   string
	Venue       string
	TraderID    string
	OrderID     string
}

// Validate checks the fields the pipeline depends on. It returns a plain error;
// the pipeline wraps it with the data-integrity kind and the trade identifier.
func (t Trade) Validate() error {
	switch {
	case t.TradeID == "":
		return fmt.Errorf("missing trade_id")
	case t.Symbol == "":
		return fmt.Errorf("missing symbol")
	case t.AccountID == "":
		return fmt.Errorf("missing account_id")
	case t.Side != SideBuy && t.Side != SideSell:
		return fmt.Errorf("invalid side %q", t.Side)
	case t.Quantity <= 0:
		return fmt.Errorf("non-positive quantity %d", t.Quantity)
	case !t.Price.IsPositive():
		return fmt.Errorf("non-positive price %s", t.Price)
	case t.ExecutionTS.IsZero():
		return fmt.Errorf("missing execution_ts")
	}
	return nil
}

// Notional returns quantity x price at full decimal precision.
func (t Trade) Notional() decimal.Decimal {
	return decimal.NewFromInt(t.Quantity).Mul(t.Price)
}
