package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quantrail/pnlpulse/internal/domain"
	"github.com/quantrail/pnlpulse/internal/domain/dto"
	"github.com/quantrail/pnlpulse/internal/service"
)

// Handler provides HTTP handlers for the enrichment pipeline and the
// enriched-trade ledger.
//
// Responsibilities:
//   - Validate incoming HTTP parameters
//   - Invoke the service layer
//   - Translate service results and error kinds into JSON responses
type Handler struct {
	svc service.LedgerService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.LedgerService) *Handler {
	return &Handler{svc: svc}
}

// RunEnrichment handles POST /api/v1/enrich/run requests: one full
// poll -> enrich -> append -> advance cycle, triggered by an external
// scheduler.
//
// RunEnrichment godoc
// @Summary      Run one enrichment cycle
// @Description  Consumes new trades from the change feed, attributes realized P&L, and merges the rows into the enriched ledger
// @Tags         enrich
// @Produce      json
// @Success      200  {object}  dto.EnrichResponse  "Cycle committed"
// @Failure      409  {object}  dto.ErrorResponse   "Another cycle is in flight"
// @Failure      422  {object}  dto.ErrorResponse   "Batch contains an invalid trade"
// @Failure      503  {object}  dto.ErrorResponse   "Feed or position store unreachable"
// @Failure      500  {object}  dto.ErrorResponse   "Sink write failed"
// @Router       /api/v1/enrich/run [post]
func (h *Handler) RunEnrichment(c *gin.Context) {
	status, rows, err := h.svc.RunEnrichment(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), dto.NewErrorResponse("failed to run enrichment cycle", err))
		return
	}
	c.JSON(http.StatusOK, dto.EnrichResponse{Status: status, RowsProcessed: rows})
}

// RebuildPositions handles POST /api/v1/positions/rebuild requests: full
// replacement of the per-symbol aggregate view joined onto all trades.
//
// RebuildPositions godoc
// @Summary      Rebuild the aggregated position view
// @Description  Recomputes per-symbol position aggregates and left-joins them onto every trade, replacing the analytic table
// @Tags         positions
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse  "View replaced"
// @Failure      500  {object}  dto.ErrorResponse    "Rebuild failed"
// @Router       /api/v1/positions/rebuild [post]
func (h *Handler) RebuildPositions(c *gin.Context) {
	status, rows, err := h.svc.RebuildEnrichedPositions(c.Request.Context())
	if err != nil {
		c.JSON(statusForError(err), dto.NewErrorResponse("failed to rebuild position view", err))
		return
	}
	c.JSON(http.StatusOK, dto.RebuildResponse{Status: status, Rows: rows})
}

// GetEnriched handles GET /api/v1/enriched requests.
//
// Query Parameters:
//   - trade_id (string, optional): exact ledger row lookup.
//   - account_id (string, optional): filter by account.
//   - symbol (string, optional): filter by instrument.
//   - limit (int, optional): max rows for list queries (default 100).
//
// GetEnriched godoc
// @Summary      Query the enriched-trade ledger
// @Description  Returns one row by trade_id, or a filtered list by account/symbol
// @Tags         enrich
// @Produce      json
// @Param        trade_id    query     string  false  "Trade identifier" example(TRD-0001)
// @Param        account_id  query     string  false  "Account identifier" example(ACCT-001)
// @Param        symbol      query     string  false  "Instrument symbol" example(AAPL)
// @Param        limit       query     int     false  "Max rows" example(50)
// @Success      200  {array}   dto.EnrichedTradeResponse  "Success"
// @Failure      400  {object}  dto.ErrorResponse          "Bad Request"
// @Failure      404  {object}  dto.ErrorResponse          "Not Found"
// @Failure      500  {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/enriched [get]
func (h *Handler) GetEnriched(c *gin.Context) {
	tradeID := strings.TrimSpace(c.Query("trade_id"))
	if tradeID != "" {
		row, err := h.svc.GetEnrichedTrade(c.Request.Context(), tradeID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch enriched trade", err))
			return
		}
		if row == nil {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse("no enriched trade found", nil))
			return
		}
		c.JSON(http.StatusOK, dto.NewEnrichedTradeResponse(*row))
		return
	}

	accountID := strings.TrimSpace(c.Query("account_id"))
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	limit := 100
	if s := c.Query("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid limit, expected a positive integer", err))
			return
		}
		limit = parsed
	}

	rows, err := h.svc.ListEnrichedTrades(c.Request.Context(), accountID, symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list enriched trades", err))
		return
	}

	resp := make([]dto.EnrichedTradeResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, dto.NewEnrichedTradeResponse(row))
	}
	c.JSON(http.StatusOK, resp)
}

// statusForError maps pipeline error kinds onto HTTP statuses. Everything is
// surfaced; nothing reports success on failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrCycleInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDataIntegrity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
