package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantrail/pnlpulse/internal/domain/models"
)

// EnrichResponse is returned by POST /api/v1/enrich/run.
//
// Status carries the scheduler-facing summary string; RowsProcessed is the
// number of trades merged into the enriched ledger by this cycle.
//
// swagger:model EnrichResponse
type EnrichResponse struct {
	Status        string `json:"status" example:"TRADES_ENRICHED: 12 rows processed"`
	RowsProcessed int    `json:"rows_processed" example:"12"`
}

// RebuildResponse is returned by POST /api/v1/positions/rebuild.
//
// swagger:model RebuildResponse
type RebuildResponse struct {
	Status string `json:"status" example:"ENRICHED_POSITIONS refreshed: 1200 rows"`
	Rows   int64  `json:"rows" example:"1200"`
}

// EnrichedTradeResponse is the API view of one enriched ledger row.
//
// Money fields serialize as decimal strings to preserve the persisted scale.
//
// swagger:model EnrichedTradeResponse
type EnrichedTradeResponse struct {
	TradeID       string           `json:"trade_id" example:"TRD-0001"`
	Symbol        string           `json:"symbol" example:"AAPL"`
	Side          string           `json:"side" example:"SELL"`
	Quantity      int64            `json:"quantity" example:"50"`
	Price         decimal.Decimal  `json:"price" example:"185.00"`
	NotionalValue decimal.Decimal  `json:"notional_value" example:"9250.00"`
	ExecutionTS   time.Time        `json:"execution_ts"`
	AccountID     string           `json:"account_id" example:"ACCT-001"`
	Venue         string           `json:"venue" example:"NASDAQ"`
	TraderID      string           `json:"trader_id" example:"TRD-A1"`
	OrderID       string           `json:"order_id" example:"ORD-0001"`
	PositionQty   *int64           `json:"position_qty,omitempty" example:"200"`
	AvgCost       *decimal.Decimal `json:"avg_cost,omitempty" example:"180.00"`
	RealizedPnL   decimal.Decimal  `json:"realized_pnl" example:"250.00"`
	IsClosing     bool             `json:"is_closing" example:"true"`
	ProcessedAt   time.Time        `json:"processed_at"`
}

// NewEnrichedTradeResponse maps a ledger row onto the API contract.
func NewEnrichedTradeResponse(row models.EnrichedTrade) EnrichedTradeResponse {
	resp := EnrichedTradeResponse{
		TradeID:       row.TradeID,
		Symbol:        row.Symbol,
		Side:          string(row.Side),
		Quantity:      row.Quantity,
		Price:         row.Price,
		NotionalValue: row.NotionalValue,
		ExecutionTS:   row.ExecutionTS,
		AccountID:     row.AccountID,
		Venue:         row.Venue,
		TraderID:      row.TraderID,
		OrderID:       row.OrderID,
		PositionQty:   row.PositionQty,
		RealizedPnL:   row.RealizedPnL,
		IsClosing:     row.IsClosing,
		ProcessedAt:   row.ProcessedAt,
	}
	if row.AvgCost.Valid {
		c := row.AvgCost.Decimal
		resp.AvgCost = &c
	}
	return resp
}
