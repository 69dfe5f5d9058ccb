package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	api []entry // mounted under handlers.APIPrefix
	ops []entry // mounted at the root
)

// Register adds an API registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	api = append(api, entry{reg: reg, mws: mws})
}

// RegisterOps adds an operational route (health, readiness, reload).
func RegisterOps(reg Registrar, mws ...Middleware) {
	ops = append(ops, entry{reg: reg, mws: mws})
}

// RegisterAll is called once from server.New().
func RegisterAll(r chi.Router, d deps.Deps) {
	r.Route(handlers.APIPrefix, func(r chi.Router) {
		mount(r, api, d)
	})
	mount(r, ops, d)
}

func mount(r chi.Router, entries []entry, d deps.Deps) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		e.reg(r.With(e.mws...), d)
	}
}
