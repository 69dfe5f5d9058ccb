package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/mw"
)

func init() { RegisterOps(registerOps) }

func registerOps(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	restricted := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	restricted.Get("/readyz", handlers.Readyz(d))
	restricted.Post("/reload", handlers.Reload(d))
}
