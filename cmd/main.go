package main

//
//  @title           pnlpulse API
//  @version         1.0
//  @description     Trade enrichment & P&L attribution service.
//  @termsOfService  https://github.com/quantrail/pnlpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/quantrail/pnlpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        enrich
//  @tag.description Endpoints for running enrichment cycles and querying the enriched ledger
//
//  @tag.name        positions
//  @tag.description Endpoints for rebuilding the aggregated position view
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantrail/pnlpulse/config"
	_ "github.com/quantrail/pnlpulse/docs" // swagger docs
	"github.com/quantrail/pnlpulse/internal/app"
	"github.com/quantrail/pnlpulse/internal/enrich"
	"github.com/quantrail/pnlpulse/internal/logger"
	"github.com/quantrail/pnlpulse/internal/seed"
	"github.com/quantrail/pnlpulse/internal/service"
	"github.com/quantrail/pnlpulse/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// newLedgerService wires a LedgerService directly on top of a database
// connection, for the one-shot CLI modes that bypass the HTTP layer. The
// optional Redis position cache applies here the same way it does in API mode.
func newLedgerService() (service.LedgerService, storage.LedgerRepository, func()) {
	db, err := app.InitPostgres(config.AppConfig)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("db connect error")
	}
	repo := storage.NewLedgerRepository(db)
	positions, rdb := app.NewPositionLookup(config.AppConfig, repo)
	pipeline := enrich.NewPipeline(repo, positions, config.AppConfig.Pipeline.SourceID, config.AppConfig.Pipeline.BatchLimit)
	cleanup := func() {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	return service.NewLedgerService(pipeline, repo), repo, cleanup
}

// main is the entry point of the pnlpulse application.
//
// Modes (selected via --mode flag):
//   - enrich:  Runs one enrichment cycle over the change feed and exits.
//   - rebuild: Fully rebuilds the aggregated position view and exits.
//   - seed:    Loads a reproducible demo dataset of trades and positions.
//   - api:     Starts the REST API exposing the enriched ledger.
//
// Flags:
//   - --mode:   Execution mode ("enrich", "rebuild", "seed" or "api"). Default: "enrich".
//   - --trades: Seed mode: number of trades to generate. Default: 100.
//   - --days:   Seed mode: trading days to spread trades across. Default: 5.
//   - --seed:   Seed mode: RNG seed for reproducibility. Default: 42.
//   - --force:  Seed mode: wipe existing ledger data before loading.
//   - --port:   Port for API mode. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "enrich", "Mode: enrich, rebuild, seed or api")
	trades := flag.Int("trades", 100, "Seed mode: number of trades to generate")
	days := flag.Int("days", 5, "Seed mode: trading days to spread trades across")
	rngSeed := flag.Int64("seed", 42, "Seed mode: RNG seed for reproducibility")
	force := flag.Bool("force", false, "Seed mode: wipe existing ledger data before loading")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "enrich":
		// One scheduler tick: poll, enrich, merge, advance
		svc, _, closeDB := newLedgerService()
		defer closeDB()

		status, rows, err := svc.RunEnrichment(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("enrichment cycle failed")
		}
		logger.L().Info().Int("rows", rows).Msg(status)

	case "rebuild":
		// Full replacement of the analytic view
		svc, _, closeDB := newLedgerService()
		defer closeDB()

		status, rows, err := svc.RebuildEnrichedPositions(ctx)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("position view rebuild failed")
		}
		logger.L().Info().Int64("rows", rows).Msg(status)

	case "seed":
		// Demo data mode: generate and bulk-load trades and positions
		logger.L().Info().Msg("loading demo dataset")

		_, repo, closeDB := newLedgerService()
		defer closeDB()

		opts := seed.DefaultOptions()
		opts.Trades = *trades
		opts.Days = *days
		opts.Seed = *rngSeed
		opts.Force = *force
		if err := seed.Load(ctx, repo, opts); err != nil {
			logger.L().Fatal().Err(err).Msg("seed failed")
		}
		logger.L().Info().Msg("demo dataset loaded")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
