// Package httpapi assembles the HTTP surface: middleware chain, public
// routes, and the authenticated API.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	actorhandler "reestr/internal/actor/handler"
	personhandler "reestr/internal/person/handler"
	"reestr/internal/platform/middleware"
	refdatahandler "reestr/internal/refdata/handler"
)

// Deps carries everything the router needs.
type Deps struct {
	Actors    *actorhandler.Handler
	Persons   *personhandler.Handler
	RefData   *refdatahandler.Handler
	Validator middleware.TokenValidator
	Revoked   middleware.RevocationChecker
	Logger    *slog.Logger
}

// NewRouter wires all endpoints. Login, health and metrics are public;
// everything else sits behind bearer-token authentication.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	deps.Actors.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Revoked, deps.Logger))
		deps.Actors.Register(r)
		deps.Persons.Register(r)
		deps.RefData.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
