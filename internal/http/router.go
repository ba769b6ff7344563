// Package httpapi assembles the public router: middleware chain, authenticated
// API routes, and the operational endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditHandler "smartdoor/internal/audit/handler"
	doorHandler "smartdoor/internal/door/handler"
	"smartdoor/pkg/platform/middleware/auth"
	"smartdoor/pkg/platform/middleware/requestmeta"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Logger     *slog.Logger
	Validator  auth.TokenValidator
	Revocation auth.RevocationChecker // nil disables revocation checks
	Doors      *doorHandler.Handler
	Audit      *auditHandler.Handler

	// Healthy reports readiness of the backing stores; nil means always ready.
	Healthy func() error
}

// New builds the service router.
func New(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(requestmeta.RequestID)
	r.Use(requestmeta.RequestTime)
	r.Use(requestmeta.ClientMetadata)

	r.Get("/healthz", healthz(deps.Healthy))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(auth.RequireAuth(deps.Validator, deps.Revocation, deps.Logger))
		deps.Doors.Register(api)
		deps.Audit.Register(api)
	})

	return r
}

func healthz(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
