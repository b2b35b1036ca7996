// Package handler exposes the admin ingest API: start a run, inspect a
// run's per-unit outcomes.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"regpulse/internal/audit"
	"regpulse/internal/ingest"
	dErrors "regpulse/pkg/domain-errors"
	"regpulse/pkg/platform/httputil"
	"regpulse/pkg/platform/middleware/metadata"
	"regpulse/pkg/requestcontext"
)

// Runner executes ingest runs.
type Runner interface {
	Run(ctx context.Context, runID string, req ingest.Request) ([]ingest.Outcome, error)
}

// Trail reads back a run's audit events.
type Trail interface {
	ListByRun(ctx context.Context, runID string) ([]audit.Event, error)
}

// Handler wires admin ingest endpoints to the ingest service.
type Handler struct {
	runner Runner
	trail  Trail
	logger *slog.Logger
}

// New constructs an ingest handler with its dependencies.
func New(runner Runner, trail Trail, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, trail: trail, logger: logger}
}

// Register mounts ingest endpoints on the router. Callers are expected to
// guard the router with the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/v1/ingest", h.HandleStart)
	r.Get("/admin/v1/ingest/{runID}", h.HandleStatus)
}

// HandleStart handles POST /admin/v1/ingest. The run executes in the
// background; the response carries the run id to poll with.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[StartRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	runID := uuid.NewString()
	actor := requestcontext.Actor(ctx)

	// The run outlives the request; its outcomes land in the audit trail.
	go func() {
		if _, err := h.runner.Run(context.Background(), runID, req.ToRequest(actor)); err != nil {
			h.logger.Error("background ingest run failed",
				"run_id", runID,
				"request_id", requestID,
				"error", err,
			)
		}
	}()

	h.logger.InfoContext(ctx, "ingest run accepted",
		"request_id", requestID,
		"run_id", runID,
		"actor", actor,
		"client_ip", metadata.GetClientIP(ctx),
		"titles", len(req.Titles),
		"dates", len(req.Dates),
		"force", req.Force,
	)
	httputil.WriteJSON(w, http.StatusAccepted, StartResponse{RunID: runID})
}

// HandleStatus handles GET /admin/v1/ingest/{runID}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	runID := chi.URLParam(r, "runID")

	events, err := h.trail.ListByRun(ctx, runID)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing run events failed", "run_id", runID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if len(events) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "unknown run id"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromEvents(runID, events))
}
