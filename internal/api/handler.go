package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangsam/sonarissues/core"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/outwriter"
)

// Handler handles API requests.
type Handler struct {
	cfg    *contract.Config
	source contract.IssueSource
	mgr    contract.HistoryManager
}

// NewHandler creates a new API handler.
func NewHandler(cfg *contract.Config, source contract.IssueSource, mgr contract.HistoryManager) *Handler {
	return &Handler{cfg: cfg, source: source, mgr: mgr}
}

// HealthCheck returns the service status.
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.cfg.Version,
	})
}

// GetIssues fetches and normalizes issues and returns the export document.
// GET /api/v1/issues?scope=&value=&severities=&statuses=
func (h *Handler) GetIssues(c *gin.Context) {
	cfg, err := h.cfg.WithRequest(contract.ExportRequest{
		Scope:      c.Query("scope"),
		Value:      c.Query("value"),
		Severities: c.Query("severities"),
		Statuses:   c.Query("statuses"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if err := cfg.RequireCredentials(); err != nil {
		respondError(c, err)
		return
	}

	ctx := core.WithSuppressHeader(c.Request.Context())
	canonical, err := core.FetchCanonical(ctx, cfg, h.source)
	if err != nil && !errors.Is(err, core.ErrNoIssues) {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, outwriter.NewExportDocument(canonical.Issues, canonical.Metadata))
}

// GetHistory lists recorded export runs, most recent first.
// GET /api/v1/history?limit=
func (h *Handler) GetHistory(c *gin.Context) {
	var store contract.HistoryStore
	if h.mgr != nil {
		store = h.mgr.GetHistoryStore()
	}
	if store == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{"code": "HISTORY_DISABLED", "message": "export history is disabled"},
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "BAD_REQUEST", "message": "limit must be a non-negative integer"},
		})
		return
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

// respondError maps pipeline errors to HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	var cfgErr *contract.ConfigurationError
	var fetchErr *contract.FetchError
	switch {
	case errors.As(err, &cfgErr):
		status, code = http.StatusBadRequest, "BAD_REQUEST"
	case errors.As(err, &fetchErr):
		switch fetchErr.Kind {
		case contract.TimeoutError:
			status, code = http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"
		case contract.CanceledError:
			status, code = 499, "CANCELED"
		case contract.PageLimitError:
			// the operator's --max-pages cap, not an upstream failure
			status, code = http.StatusUnprocessableEntity, "PAGE_LIMIT"
		default:
			status, code = http.StatusBadGateway, "UPSTREAM_ERROR"
		}
	}

	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}
