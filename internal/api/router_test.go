package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/quantrail/pnlpulse/internal/domain/dto"
)

func TestNewRouter_WiringAndMiddlewares(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Provide a service that reports a committed cycle so the handler returns 200
	svc := &mockLedgerService{status: "TRADES_ENRICHED: 3 rows processed", rows: 3}
	h := NewHandler(svc)
	r := NewRouter(h)

	// Hit the enrich route through the router created by NewRouter
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enrich/run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// Ensure RequestID middleware injected header
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}

	// Ensure JSON body carries the cycle summary
	var out dto.EnrichResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if out.Status != "TRADES_ENRICHED: 3 rows processed" || out.RowsProcessed != 3 {
		t.Fatalf("unexpected body: %+v", out)
	}
}
