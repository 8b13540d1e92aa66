package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/quantrail/pnlpulse/config"
	"github.com/quantrail/pnlpulse/internal/api"
	"github.com/quantrail/pnlpulse/internal/cache"
	"github.com/quantrail/pnlpulse/internal/enrich"
	"github.com/quantrail/pnlpulse/internal/service"
	"github.com/quantrail/pnlpulse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer (LedgerRepository).
//   - Optionally fronts position lookups with a Redis read-through cache.
//   - Builds the enrichment pipeline and the service layer on top of it.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (DB and Redis connections).
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	// Connect to PostgreSQL
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	// Initialize repository layer (responsible for DB access)
	repo := storage.NewLedgerRepository(db)

	// Position lookups go straight to Postgres unless the Redis cache is enabled
	positions, rdb := NewPositionLookup(cfg, repo)

	// Build the enrichment pipeline over the change feed
	pipeline := enrich.NewPipeline(repo, positions, cfg.Pipeline.SourceID, cfg.Pipeline.BatchLimit)

	// Initialize service layer (business logic)
	svc := service.NewLedgerService(pipeline, repo)

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler)

	// Register health and readiness probes
	healthHandler := api.NewHealthHandler(db.Ping)
	healthHandler.Register(router)

	// Cleanup resources on shutdown
	cleanup := func() {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}

	return router, cleanup, nil
}

// NewPositionLookup selects the position lookup for the enrichment pipeline:
// the repository directly, or a Redis read-through cache in front of it when
// the cache is enabled. The returned client is nil when no cache is in play;
// callers own closing it.
func NewPositionLookup(cfg config.Config, repo storage.LedgerRepository) (enrich.PositionLookup, *redis.Client) {
	if !cfg.Redis.Enabled {
		return repo, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
	return cache.NewPositionCache(rdb, repo, ttl), rdb
}
