// Package enrich runs the trade-enrichment cycle: it drains the change feed,
// joins each new trade against the latest known position, attributes realized
// P&L, and merges the enriched rows into the durable ledger exactly once per
// committed cursor advance.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/quantrail/pnlpulse/internal/domain"
	"github.com/quantrail/pnlpulse/internal/domain/models"
	"github.com/quantrail/pnlpulse/internal/logger"
	"github.com/quantrail/pnlpulse/internal/pnl"
	"github.com/quantrail/pnlpulse/internal/storage"
)

// CycleSource opens consuming transactions over the change feed.
type CycleSource interface {
	BeginCycle(ctx context.Context, sourceID string, batchLimit int) (storage.ChangeCycle, error)
}

// PositionLookup resolves the latest position snapshot for a pair, or nil.
type PositionLookup interface {
	LookupPosition(ctx context.Context, accountID, symbol string) (*models.Position, error)
}

// Pipeline is the single-writer enrichment cycle for one change-feed source.
type Pipeline struct {
	source     CycleSource
	positions  PositionLookup
	sourceID   string
	batchLimit int
}

// now is an indirection for tests that pin the processing timestamp.
var now = time.Now

func NewPipeline(source CycleSource, positions PositionLookup, sourceID string, batchLimit int) *Pipeline {
	return &Pipeline{
		source:     source,
		positions:  positions,
		sourceID:   sourceID,
		batchLimit: batchLimit,
	}
}

// RunCycle executes one poll -> enrich -> append -> advance pass and returns
// the number of trades merged into the ledger.
//
// Any failure before the advance aborts the consuming transaction, so a retry
// re-polls and reprocesses the identical batch; the sink's trade_id merge makes
// that reprocessing safe. Trades within a batch are enriched independently
// against the position snapshot taken before the batch — two trades in the same
// batch do not update each other's cost basis.
func (p *Pipeline) RunCycle(ctx context.Context) (int, error) {
	start := now()

	cycle, err := p.source.BeginCycle(ctx, p.sourceID, p.batchLimit)
	if err != nil {
		return 0, err
	}

	trades, err := cycle.Poll(ctx)
	if err != nil {
		_ = cycle.Abort()
		return 0, err
	}
	if len(trades) == 0 {
		_ = cycle.Abort()
		logger.L().Debug().Str("source", p.sourceID).Msg("no new trades")
		return 0, nil
	}

	logger.L().Info().Str("source", p.sourceID).Int("polled", len(trades)).Msg("cycle start")

	enriched, err := p.assemble(ctx, trades)
	if err != nil {
		_ = cycle.Abort()
		return 0, err
	}

	if err := cycle.Append(ctx, enriched); err != nil {
		_ = cycle.Abort()
		return 0, err
	}
	if err := cycle.Advance(ctx); err != nil {
		_ = cycle.Abort()
		return 0, err
	}

	logger.L().Info().
		Str("source", p.sourceID).
		Int("rows", len(enriched)).
		Dur("elapsed", now().Sub(start)).
		Msg("cycle committed")
	return len(enriched), nil
}

// assemble validates and enriches a polled batch. One processing timestamp
// covers the whole batch. Redelivered duplicates within a single poll collapse
// to their first occurrence so the appended set has one row per trade id.
func (p *Pipeline) assemble(ctx context.Context, trades []models.Trade) ([]models.EnrichedTrade, error) {
	processedAt := now().UTC()
	seen := make(map[string]struct{}, len(trades))
	out := make([]models.EnrichedTrade, 0, len(trades))

	for _, t := range trades {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: trade %q: %v", domain.ErrDataIntegrity, t.TradeID, err)
		}
		if _, dup := seen[t.TradeID]; dup {
			logger.L().Warn().Str("trade_id", t.TradeID).Msg("duplicate trade in batch, keeping first")
			continue
		}
		seen[t.TradeID] = struct{}{}

		pos, err := p.positions.LookupPosition(ctx, t.AccountID, t.Symbol)
		if err != nil {
			return nil, err
		}

		res := pnl.Calculate(t.Side, t.Quantity, t.Price, pos)

		row := models.EnrichedTrade{
			TradeID:       t.TradeID,
			Symbol:        t.Symbol,
			Side:          t.Side,
			Quantity:      t.Quantity,
			Price:         t.Price,
			NotionalValue: t.Notional(),
			ExecutionTS:   t.ExecutionTS,
			AccountID:     t.AccountID,
			Venue:         t.Venue,
			TraderID:      t.TraderID,
			OrderID:       t.OrderID,
			RealizedPnL:   res.RealizedPnL,
			IsClosing:     res.IsClosing,
			ProcessedAt:   processedAt,
		}
		if pos != nil {
			qty := pos.Quantity
			row.PositionQty = &qty
			row.AvgCost = pos.AvgCost
		}
		out = append(out, row)
	}
	return out, nil
}
