// Package seed loads a reproducible demo fixture universe into the ledger
// database: trade executions across a span of trading days plus the position
// snapshots the enrichment pipeline joins against.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/quantrail/pnlpulse/internal/domain/models"
	"github.com/quantrail/pnlpulse/internal/logger"
	"github.com/quantrail/pnlpulse/internal/storage"
)

type symbolInfo struct {
	symbol    string
	basePrice float64
}

var symbols = []symbolInfo{
	{"AAPL", 185.00},
	{"MSFT", 390.00},
	{"GOOGL", 142.00},
	{"NVDA", 545.00},
	{"AMZN", 155.00},
	{"META", 380.00},
	{"TSLA", 215.00},
	{"JPM", 175.00},
	{"V", 275.00},
	{"UNH", 525.00},
	{"HD", 355.00},
	{"BAC", 33.50},
}

var accounts = []string{"ACCT-001", "ACCT-002", "ACCT-003"}

var traders = map[string][]string{
	"ACCT-001": {"TRD-A1", "TRD-A2"},
	"ACCT-002": {"TRD-B1", "TRD-B2"},
	"ACCT-003": {"TRD-C1", "TRD-C2"},
}

var venues = []string{"NYSE", "NASDAQ", "ARCA", "BATS"}

// Options controls the generated universe. The same Seed yields the same rows.
type Options struct {
	Trades    int       // total trade executions to generate
	Days      int       // trading days to spread them across
	StartDate time.Time // first calendar day; weekends are skipped
	Seed      int64     // RNG seed for reproducibility
	Force     bool      // wipe existing ledger data before loading
}

// DefaultOptions is the demo dataset: 100 trades over one trading week.
func DefaultOptions() Options {
	return Options{
		Trades:    100,
		Days:      5,
		StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Seed:      42,
	}
}

// Load generates and bulk-inserts the fixture trades and positions. Both
// batches load concurrently; the first failure cancels the sibling.
func Load(ctx context.Context, repo storage.LedgerRepository, opts Options) error {
	if opts.Trades <= 0 || opts.Days <= 0 {
		return fmt.Errorf("seed: trades and days must be positive, got %d/%d", opts.Trades, opts.Days)
	}

	runID := uuid.NewString()
	start := time.Now()

	if opts.Force {
		if err := repo.ResetLedger(ctx); err != nil {
			return fmt.Errorf("seed run %s: reset: %w", runID, err)
		}
		logger.L().Info().Str("run_id", runID).Msg("existing ledger data cleared")
	}

	trades := GenerateTrades(opts)
	positions := GeneratePositions(opts)

	logger.L().Info().
		Str("run_id", runID).
		Int("trades", len(trades)).
		Int("positions", len(positions)).
		Msg("seed start")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := repo.InsertTradesBatch(gctx, trades); err != nil {
			return fmt.Errorf("seed run %s: insert trades: %w", runID, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := repo.InsertPositionsBatch(gctx, positions); err != nil {
			return fmt.Errorf("seed run %s: insert positions: %w", runID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	logger.L().Info().
		Str("run_id", runID).
		Dur("elapsed", time.Since(start)).
		Msg("seed done")
	return nil
}

// GenerateTrades produces execution records spread over trading days,
// timestamped within market hours. Weekend days are skipped, matching the
// demo calendar.
func GenerateTrades(opts Options) []models.Trade {
	rng := rand.New(rand.NewSource(opts.Seed))
	perDay := opts.Trades / opts.Days
	if perDay < 1 {
		perDay = 1
	}

	var out []models.Trade
	tradeID := 1
	for dayOffset := 0; dayOffset < opts.Days; dayOffset++ {
		day := opts.StartDate.AddDate(0, 0, dayOffset)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}

		for i := 0; i < perDay; i++ {
			info := symbols[rng.Intn(len(symbols))]
			account := accounts[rng.Intn(len(accounts))]
			trader := traders[account][rng.Intn(len(traders[account]))]

			// Trading hours 9:30-16:00
			hour := 9 + rng.Intn(7)
			minute := rng.Intn(60)
			if hour == 9 && minute < 30 {
				minute += 30
			}
			execTS := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, rng.Intn(60), 0, time.UTC)

			side := models.SideBuy
			if rng.Intn(2) == 1 {
				side = models.SideSell
			}

			lots := []int64{10, 25, 50, 75, 100, 150, 200}
			qty := lots[rng.Intn(len(lots))] + int64(rng.Intn(6))*5

			out = append(out, models.Trade{
				TradeID:     fmt.Sprintf("TRD-%04d", tradeID),
				Symbol:      info.symbol,
				Side:        side,
				Quantity:    qty,
				Price:       jitterPrice(rng, info.basePrice, 0.02),
				ExecutionTS: execTS,
				AccountID:   account,
				Venue:       venues[rng.Intn(len(venues))],
				TraderID:    trader,
				OrderID:     fmt.Sprintf("ORD-%04d", tradeID),
			})
			tradeID++
		}
	}
	return out
}

// GeneratePositions produces one snapshot per (account, symbol) pair that the
// account holds. Roughly a third of pairs are skipped entirely so some trades
// enrich against no position; occasional flat rows carry no cost basis.
func GeneratePositions(opts Options) []models.Position {
	rng := rand.New(rand.NewSource(opts.Seed + 1))
	asOf := opts.StartDate.Add(9 * time.Hour) // before the first execution

	var out []models.Position
	for _, account := range accounts {
		for _, info := range symbols {
			roll := rng.Intn(6)
			if roll == 0 {
				continue // no position for this pair
			}

			// Signed lots: mostly long, some short, occasionally flat.
			qty := int64(rng.Intn(9)-2) * 50
			p := models.Position{
				AccountID:    account,
				Symbol:       info.symbol,
				Quantity:     qty,
				CurrentPrice: jitterPrice(rng, info.basePrice, 0.02),
				AsOfTS:       asOf,
			}
			if qty != 0 {
				p.AvgCost = decimal.NullDecimal{
					Decimal: jitterPrice(rng, info.basePrice, 0.05),
					Valid:   true,
				}
			}
			p.MarketValue = decimal.NewFromInt(qty).Mul(p.CurrentPrice)
			out = append(out, p)
		}
	}
	return out
}

// jitterPrice applies a bounded random variation to a base price, rounded to
// cents like the exchange feed delivers.
func jitterPrice(rng *rand.Rand, base, spread float64) decimal.Decimal {
	variation := 1 + (rng.Float64()*2-1)*spread
	return decimal.NewFromFloat(base * variation).Round(2)
}
