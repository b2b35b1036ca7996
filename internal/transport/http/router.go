// Package httptransport assembles the service's HTTP surface: the public
// query API, the JWT-guarded admin ingest API, and the operational
// endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regpulse/internal/platform/middleware"
	"regpulse/pkg/platform/httputil"
	"regpulse/pkg/platform/middleware/metadata"
)

// Registrar mounts a feature's endpoints on a router.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. Admin may be nil when the
// deployment exposes the query surface only.
type Deps struct {
	Query     Registrar
	Admin     Registrar
	Validator middleware.TokenValidator
	Logger    *slog.Logger
}

// NewRouter wires middleware, feature handlers, and operational endpoints.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	deps.Query.Register(r)

	if deps.Admin != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
			deps.Admin.Register(r)
		})
	}
	return r
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
