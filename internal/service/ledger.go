package service

import (
	"context"
	"fmt"

	"github.com/quantrail/pnlpulse/internal/domain/models"
	"github.com/quantrail/pnlpulse/internal/storage"
)

// CycleRunner runs one enrichment cycle and reports rows merged.
type CycleRunner interface {
	RunCycle(ctx context.Context) (int, error)
}

// LedgerService defines the scheduler- and API-facing operations over the
// enriched-trade ledger.
type LedgerService interface {
	// RunEnrichment executes one pipeline cycle and returns the
	// scheduler-facing status string alongside the row count.
	RunEnrichment(ctx context.Context) (string, int, error)

	// RebuildEnrichedPositions fully replaces the analytic view.
	RebuildEnrichedPositions(ctx context.Context) (string, int64, error)

	GetEnrichedTrade(ctx context.Context, tradeID string) (*models.EnrichedTrade, error)
	ListEnrichedTrades(ctx context.Context, accountID, symbol string, limit int) ([]models.EnrichedTrade, error)
}

type ledgerService struct {
	pipeline CycleRunner
	repo     storage.LedgerRepository
}

func NewLedgerService(pipeline CycleRunner, repo storage.LedgerRepository) LedgerService {
	return &ledgerService{pipeline: pipeline, repo: repo}
}

func (s *ledgerService) RunEnrichment(ctx context.Context) (string, int, error) {
	rows, err := s.pipeline.RunCycle(ctx)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("TRADES_ENRICHED: %d rows processed", rows), rows, nil
}

func (s *ledgerService) RebuildEnrichedPositions(ctx context.Context) (string, int64, error) {
	rows, err := s.repo.RebuildEnrichedPositions(ctx)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("ENRICHED_POSITIONS refreshed: %d rows", rows), rows, nil
}

func (s *ledgerService) GetEnrichedTrade(ctx context.Context, tradeID string) (*models.EnrichedTrade, error) {
	return s.repo.GetEnrichedTrade(ctx, tradeID)
}

func (s *ledgerService) ListEnrichedTrades(ctx context.Context, accountID, symbol string, limit int) ([]models.EnrichedTrade, error) {
	return s.repo.ListEnrichedTrades(ctx, accountID, symbol, limit)
}
