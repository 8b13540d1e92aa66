//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	goose "github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quantrail/pnlpulse/config"
	"github.com/quantrail/pnlpulse/internal/app"
	"github.com/quantrail/pnlpulse/internal/domain/dto"
)

func startPG(t *testing.T) (dsn string, host string, port nat.Port, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "pnlpulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=pnlpulse sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", h, mp.Port(), "pnlpulse")
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, h, mp, terminate
}

func openAndMigrate(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("dialect: %v", err)
	}
	path := filepath.Join("..", "..", "db", "migrations")
	if err := goose.Up(db, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedForE2E(t *testing.T, db *sql.DB) {
	t.Helper()
	execTS := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	asOf := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	// One long position and one sell closing part of it
	_, err := db.Exec(`INSERT INTO positions (account_id, symbol, quantity, avg_cost, current_price, market_value, as_of_ts)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		"ACCT-001", "AAPL", 200, "180.00", "185.00", "37000.00", asOf)
	if err != nil {
		t.Fatalf("seed position: %v", err)
	}
	_, err = db.Exec(`INSERT INTO trades (trade_id, symbol, side, quantity, price, execution_ts, account_id, venue, trader_id, order_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		"TRD-1001", "AAPL", "SELL", 50, "185.00", execTS, "ACCT-001", "NASDAQ", "TRD-A1", "ORD-1001")
	if err != nil {
		t.Fatalf("seed trade: %v", err)
	}
}

func TestAPI_E2E_EnrichCycle(t *testing.T) {
	dsn, host, port, term := startPG(t)
	defer term()
	db := openAndMigrate(t, dsn)
	defer db.Close()

	seedForE2E(t, db)

	// Point application config to containerized DB
	config.AppConfig.Postgres.Host = host
	p, _ := nat.ParsePort(port.Port())
	config.AppConfig.Postgres.Port = int(p)
	config.AppConfig.Postgres.User = "postgres"
	config.AppConfig.Postgres.Password = "postgres"
	config.AppConfig.Postgres.DBName = "pnlpulse"
	config.AppConfig.Postgres.SSLMode = "disable"
	config.AppConfig.Pipeline.SourceID = "trades_raw"
	config.AppConfig.Redis.Enabled = false

	router, cleanup, err := app.InitializeApp()
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	// First cycle consumes the seeded trade
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/enrich/run", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var run dto.EnrichResponse
	if err := json.Unmarshal(w.Body.Bytes(), &run); err != nil {
		t.Fatalf("json: %v", err)
	}
	if run.Status != "TRADES_ENRICHED: 1 rows processed" || run.RowsProcessed != 1 {
		t.Fatalf("unexpected run response: %+v", run)
	}

	// Second cycle finds nothing: the cursor advanced
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/api/v1/enrich/run", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w2.Code, w2.Body.String())
	}
	var run2 dto.EnrichResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &run2); err != nil {
		t.Fatalf("json: %v", err)
	}
	if run2.RowsProcessed != 0 {
		t.Fatalf("expected empty second cycle, got %+v", run2)
	}

	// The enriched row carries the attributed P&L
	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/api/v1/enriched?trade_id=TRD-1001", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w3.Code, w3.Body.String())
	}
	var row dto.EnrichedTradeResponse
	if err := json.Unmarshal(w3.Body.Bytes(), &row); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !row.IsClosing {
		t.Fatalf("expected closing trade: %+v", row)
	}
	if !row.RealizedPnL.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("unexpected pnl: %s", row.RealizedPnL)
	}
	if !row.NotionalValue.Equal(decimal.RequireFromString("9250")) {
		t.Fatalf("unexpected notional: %s", row.NotionalValue)
	}

	// A second trade with no position rows keeps the left join honest
	_, err = db.Exec(`INSERT INTO trades (trade_id, symbol, side, quantity, price, execution_ts, account_id, venue, trader_id, order_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		"TRD-1002", "MSFT", "BUY", 10, "390.00", time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC), "ACCT-002", "NYSE", "TRD-B1", "ORD-1002")
	if err != nil {
		t.Fatalf("seed second trade: %v", err)
	}

	// Rebuild joins the position aggregates onto every trade
	reb := rebuildOnce(t, router)
	if reb.Rows != 2 || reb.Status != "ENRICHED_POSITIONS refreshed: 2 rows" {
		t.Fatalf("unexpected rebuild response: %+v", reb)
	}
	first := readEnrichedPositions(t, db)
	if len(first) != 2 {
		t.Fatalf("expected 2 view rows, got %d", len(first))
	}

	// A second rebuild over unchanged inputs replaces the view with
	// identical contents
	reb2 := rebuildOnce(t, router)
	if reb2.Rows != reb.Rows || reb2.Status != reb.Status {
		t.Fatalf("rebuild not stable: first=%+v second=%+v", reb, reb2)
	}
	second := readEnrichedPositions(t, db)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rebuild output changed across runs:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func rebuildOnce(t *testing.T, router http.Handler) dto.RebuildResponse {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/positions/rebuild", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var reb dto.RebuildResponse
	if err := json.Unmarshal(w.Body.Bytes(), &reb); err != nil {
		t.Fatalf("json: %v", err)
	}
	return reb
}

// readEnrichedPositions flattens the view into one string per row so two
// snapshots compare exactly, NULL aggregates included.
func readEnrichedPositions(t *testing.T, db *sql.DB) []string {
	t.Helper()
	rows, err := db.Query(`
        SELECT trade_id, account_id, symbol, execution_ts::text, side, quantity,
               price::text, notional_value::text,
               COALESCE(avg_market_price::text, 'NULL'),
               COALESCE(total_position_qty::text, 'NULL'),
               COALESCE(total_market_value::text, 'NULL')
        FROM enriched_positions
        ORDER BY trade_id`)
	if err != nil {
		t.Fatalf("read view: %v", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var tradeID, accountID, symbol, execTS, side, price, notional, avgPrice, totQty, totMV string
		var qty int64
		if err := rows.Scan(&tradeID, &accountID, &symbol, &execTS, &side, &qty,
			&price, &notional, &avgPrice, &totQty, &totMV); err != nil {
			t.Fatalf("scan view row: %v", err)
		}
		out = append(out, fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s|%s|%s|%s|%s",
			tradeID, accountID, symbol, execTS, side, qty, price, notional, avgPrice, totQty, totMV))
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("read view: %v", err)
	}
	return out
}
