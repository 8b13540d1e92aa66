package storage

import (
	"context"
	"database/sql"
	"fmt"

	pq "github.com/lib/pq"

	"github.com/quantrail/pnlpulse/internal/domain"
	"github.com/quantrail/pnlpulse/internal/domain/models"
)

// LedgerRepository defines the contract for DB operations.
type LedgerRepository interface {
	// BeginCycle opens one consuming transaction over the change feed for the
	// given source. At most one cycle per source can be in flight; a second
	// caller gets domain.ErrCycleInFlight.
	BeginCycle(ctx context.Context, sourceID string, batchLimit int) (ChangeCycle, error)

	// LookupPosition returns the latest snapshot for (account, symbol), or
	// nil when no position is known.
	LookupPosition(ctx context.Context, accountID, symbol string) (*models.Position, error)

	// RebuildEnrichedPositions fully replaces the analytic view and returns
	// the number of rows written.
	RebuildEnrichedPositions(ctx context.Context) (int64, error)

	GetEnrichedTrade(ctx context.Context, tradeID string) (*models.EnrichedTrade, error)
	ListEnrichedTrades(ctx context.Context, accountID, symbol string, limit int) ([]models.EnrichedTrade, error)

	// Fixture loading (seed mode).
	InsertTradesBatch(ctx context.Context, trades []models.Trade) error
	InsertPositionsBatch(ctx context.Context, positions []models.Position) error
	ResetLedger(ctx context.Context) error
}

// ChangeCycle is one poll -> append -> advance pass over the change feed,
// bound to a single database transaction. Commit of that transaction is the
// cursor advance, so either the enriched rows land and the cursor moves, or
// neither happens.
type ChangeCycle interface {
	// Poll returns the trades recorded since the last committed consumption,
	// in feed order.
	Poll(ctx context.Context) ([]models.Trade, error)

	// Append merges enriched rows into the ledger, keyed on trade_id so a
	// retried batch cannot duplicate rows.
	Append(ctx context.Context, rows []models.EnrichedTrade) error

	// Advance commits the consumption point. On an empty batch it is a no-op
	// commit, never an error.
	Advance(ctx context.Context) error

	// Abort rolls the transaction back, leaving the cursor untouched.
	Abort() error
}

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

type changeCycle struct {
	tx         *sql.Tx
	sourceID   string
	batchLimit int
	lastSeq    int64
	polledSeq  int64 // highest seq seen by Poll; 0 until a non-empty poll
}

// BeginCycle opens the transaction and takes the per-source advisory lock.
// The lock is transaction-scoped, so both commit and rollback release it.
func (r *ledgerRepository) BeginCycle(ctx context.Context, sourceID string, batchLimit int) (ChangeCycle, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin cycle for %s: %v", domain.ErrSourceUnavailable, sourceID, err)
	}

	var locked bool
	if err := tx.QueryRowContext(ctx,
		`SELECT pg_try_advisory_xact_lock(hashtext($1))`, sourceID,
	).Scan(&locked); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: acquire source lock for %s: %v", domain.ErrSourceUnavailable, sourceID, err)
	}
	if !locked {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%w: source %s", domain.ErrCycleInFlight, sourceID)
	}

	return &changeCycle{tx: tx, sourceID: sourceID, batchLimit: batchLimit}, nil
}

func (c *changeCycle) Poll(ctx context.Context) ([]models.Trade, error) {
	// Make sure the cursor row exists, then pin it for the cycle.
	if _, err := c.tx.ExecContext(ctx, `
		INSERT INTO enrichment_cursor (source_id, last_seq)
		VALUES ($1, 0)
		ON CONFLICT (source_id) DO NOTHING
	`, c.sourceID); err != nil {
		return nil, fmt.Errorf("%w: init cursor for %s: %v", domain.ErrSourceUnavailable, c.sourceID, err)
	}
	if err := c.tx.QueryRowContext(ctx,
		`SELECT last_seq FROM enrichment_cursor WHERE source_id = $1 FOR UPDATE`, c.sourceID,
	).Scan(&c.lastSeq); err != nil {
		return nil, fmt.Errorf("%w: read cursor for %s: %v", domain.ErrSourceUnavailable, c.sourceID, err)
	}

	query := `
		SELECT seq, trade_id, symbol, side, quantity, price, execution_ts,
		       account_id, venue, trader_id, order_id
		FROM trades
		WHERE seq > $1
		ORDER BY seq`
	args := []interface{}{c.lastSeq}
	if c.batchLimit > 0 {
		query += ` LIMIT $2`
		args = append(args, c.batchLimit)
	}

	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: poll trades for %s: %v", domain.ErrSourceUnavailable, c.sourceID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Trade
	for rows.Next() {
		var t models.Trade
		if err := rows.Scan(
			&t.Seq, &t.TradeID, &t.Symbol, &t.Side, &t.Quantity, &t.Price,
			&t.ExecutionTS, &t.AccountID, &t.Venue, &t.TraderID, &t.OrderID,
		); err != nil {
			return nil, fmt.Errorf("%w: scan trade row: %v", domain.ErrSourceUnavailable, err)
		}
		if t.Seq > c.polledSeq {
			c.polledSeq = t.Seq
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: poll trades for %s: %v", domain.ErrSourceUnavailable, c.sourceID, err)
	}
	return out, nil
}

func (c *changeCycle) Append(ctx context.Context, enriched []models.EnrichedTrade) error {
	stmt, err := c.tx.PrepareContext(ctx, `
		INSERT INTO trades_enriched (
			trade_id, symbol, side, quantity, price, notional_value,
			execution_ts, account_id, venue, trader_id, order_id,
			position_qty, avg_cost, realized_pnl, is_closing, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (trade_id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare enriched insert: %v", domain.ErrSinkWrite, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range enriched {
		var posQty sql.NullInt64
		if row.PositionQty != nil {
			posQty = sql.NullInt64{Int64: *row.PositionQty, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			row.TradeID, row.Symbol, string(row.Side), row.Quantity, row.Price, row.NotionalValue,
			row.ExecutionTS, row.AccountID, row.Venue, row.TraderID, row.OrderID,
			posQty, row.AvgCost, row.RealizedPnL, row.IsClosing, row.ProcessedAt,
		); err != nil {
			return fmt.Errorf("%w: append trade %s: %v", domain.ErrSinkWrite, row.TradeID, err)
		}
	}
	return nil
}

func (c *changeCycle) Advance(ctx context.Context) error {
	if c.polledSeq > c.lastSeq {
		if _, err := c.tx.ExecContext(ctx, `
			UPDATE enrichment_cursor
			SET last_seq = $2, updated_at = NOW()
			WHERE source_id = $1
		`, c.sourceID, c.polledSeq); err != nil {
			return fmt.Errorf("%w: advance cursor for %s: %v", domain.ErrSinkWrite, c.sourceID, err)
		}
	}
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit cycle for %s: %v", domain.ErrSinkWrite, c.sourceID, err)
	}
	return nil
}

func (c *changeCycle) Abort() error {
	if err := c.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}

// LookupPosition returns the latest snapshot for the pair, resolving upstream
// duplicates by as_of_ts, then position_id, so repeated lookups within a run
// pick the same row.
func (r *ledgerRepository) LookupPosition(ctx context.Context, accountID, symbol string) (*models.Position, error) {
	var p models.Position
	err := r.db.QueryRowContext(ctx, `
		SELECT position_id, account_id, symbol, quantity, avg_cost,
		       current_price, market_value, as_of_ts
		FROM positions
		WHERE account_id = $1 AND symbol = $2
		ORDER BY as_of_ts DESC, position_id DESC
		LIMIT 1
	`, accountID, symbol).Scan(
		&p.PositionID, &p.AccountID, &p.Symbol, &p.Quantity, &p.AvgCost,
		&p.CurrentPrice, &p.MarketValue, &p.AsOfTS,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lookup position %s/%s: %v", domain.ErrSourceUnavailable, accountID, symbol, err)
	}
	return &p, nil
}

// RebuildEnrichedPositions recomputes the per-symbol aggregates and left-joins
// them onto every trade, replacing the view in a single transaction. The
// ordered insert keeps consecutive rebuilds over unchanged inputs identical.
func (r *ledgerRepository) RebuildEnrichedPositions(ctx context.Context) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin rebuild: %v", domain.ErrSinkWrite, err)
	}

	if _, err := tx.ExecContext(ctx, `TRUNCATE enriched_positions`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: truncate enriched_positions: %v", domain.ErrSinkWrite, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO enriched_positions (
			trade_id, account_id, symbol, execution_ts, side, quantity, price,
			notional_value, avg_market_price, total_position_qty, total_market_value
		)
		SELECT t.trade_id, t.account_id, t.symbol, t.execution_ts, t.side,
		       t.quantity, t.price, t.quantity * t.price,
		       pa.avg_market_price, pa.total_position_qty, pa.total_market_value
		FROM trades t
		LEFT JOIN (
			SELECT symbol,
			       AVG(current_price) AS avg_market_price,
			       SUM(quantity)      AS total_position_qty,
			       SUM(market_value)  AS total_market_value
			FROM positions
			GROUP BY symbol
		) pa ON pa.symbol = t.symbol
		ORDER BY t.trade_id
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: rebuild enriched_positions: %v", domain.ErrSinkWrite, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("%w: rebuild row count: %v", domain.ErrSinkWrite, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit rebuild: %v", domain.ErrSinkWrite, err)
	}
	return rows, nil
}

const enrichedColumns = `
	trade_id, symbol, side, quantity, price, notional_value,
	execution_ts, account_id, venue, trader_id, order_id,
	position_qty, avg_cost, realized_pnl, is_closing, processed_at`

func scanEnriched(s interface{ Scan(...interface{}) error }) (models.EnrichedTrade, error) {
	var row models.EnrichedTrade
	var posQty sql.NullInt64
	err := s.Scan(
		&row.TradeID, &row.Symbol, &row.Side, &row.Quantity, &row.Price, &row.NotionalValue,
		&row.ExecutionTS, &row.AccountID, &row.Venue, &row.TraderID, &row.OrderID,
		&posQty, &row.AvgCost, &row.RealizedPnL, &row.IsClosing, &row.ProcessedAt,
	)
	if err == nil && posQty.Valid {
		row.PositionQty = &posQty.Int64
	}
	return row, err
}

// GetEnrichedTrade returns one ledger row, or nil when the trade has not been
// enriched.
func (r *ledgerRepository) GetEnrichedTrade(ctx context.Context, tradeID string) (*models.EnrichedTrade, error) {
	row, err := scanEnriched(r.db.QueryRowContext(ctx,
		`SELECT `+enrichedColumns+` FROM trades_enriched WHERE trade_id = $1`, tradeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enriched trade %s: %w", tradeID, err)
	}
	return &row, nil
}

// ListEnrichedTrades returns ledger rows filtered by account and/or symbol,
// newest first.
func (r *ledgerRepository) ListEnrichedTrades(ctx context.Context, accountID, symbol string, limit int) ([]models.EnrichedTrade, error) {
	conditions := "TRUE"
	var args []interface{}
	if accountID != "" {
		args = append(args, accountID)
		conditions += fmt.Sprintf(" AND account_id = $%d", len(args))
	}
	if symbol != "" {
		args = append(args, symbol)
		conditions += fmt.Sprintf(" AND symbol = $%d", len(args))
	}
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s FROM trades_enriched
		WHERE %s
		ORDER BY processed_at DESC, trade_id DESC
		LIMIT $%d`, enrichedColumns, conditions, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list enriched trades: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.EnrichedTrade
	for rows.Next() {
		row, err := scanEnriched(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enriched trade: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// InsertTradesBatch bulk-loads fixture trades in a single transaction.
func (r *ledgerRepository) InsertTradesBatch(ctx context.Context, trades []models.Trade) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"trades",
		"trade_id",
		"symbol",
		"side",
		"quantity",
		"price",
		"execution_ts",
		"account_id",
		"venue",
		"trader_id",
		"order_id",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, rec := range trades {
		if _, err := stmt.ExecContext(ctx,
			rec.TradeID,
			rec.Symbol,
			string(rec.Side),
			rec.Quantity,
			rec.Price,
			rec.ExecutionTS,
			rec.AccountID,
			rec.Venue,
			rec.TraderID,
			rec.OrderID,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// InsertPositionsBatch bulk-loads fixture positions in a single transaction.
func (r *ledgerRepository) InsertPositionsBatch(ctx context.Context, positions []models.Position) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		"positions",
		"account_id",
		"symbol",
		"quantity",
		"avg_cost",
		"current_price",
		"market_value",
		"as_of_ts",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, rec := range positions {
		if _, err := stmt.ExecContext(ctx,
			rec.AccountID,
			rec.Symbol,
			rec.Quantity,
			rec.AvgCost,
			rec.CurrentPrice,
			rec.MarketValue,
			rec.AsOfTS,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// ResetLedger wipes fixture and derived data and rewinds every cursor.
// Used by seed --force before reloading.
func (r *ledgerRepository) ResetLedger(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM enriched_positions`,
		`DELETE FROM trades_enriched`,
		`DELETE FROM trades`,
		`DELETE FROM positions`,
		`UPDATE enrichment_cursor SET last_seq = 0, updated_at = NOW()`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("reset ledger: %w", err)
		}
	}
	return tx.Commit()
}
