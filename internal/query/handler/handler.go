// Package handler exposes the public metrics query API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"regpulse/internal/query"
	"regpulse/pkg/platform/httputil"
	"regpulse/pkg/requestcontext"
)

// Resolver assembles dense metric tables for named groups.
type Resolver interface {
	Resolve(ctx context.Context, by query.By, names []string, metric query.Metric) (*query.Table, error)
}

// Handler wires the query API to the facade.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

// New constructs a query handler with its dependencies.
func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Register mounts the query endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/v1/metrics", h.HandleMetrics)
}

// HandleMetrics handles GET /api/v1/metrics requests.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	by, err := query.ParseBy(r.URL.Query().Get("by"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	metric, err := query.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	names := strings.Split(r.URL.Query().Get("items"), ",")

	table, err := h.resolver.Resolve(ctx, by, names, metric)
	if err != nil {
		h.logger.ErrorContext(ctx, "metrics query failed",
			"request_id", requestID,
			"by", by,
			"metric", metric,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "metrics query resolved",
		"request_id", requestID,
		"by", by,
		"metric", metric,
		"groups", len(table.Groups),
		"rows", len(table.Rows),
		"failed", len(table.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, table)
}
