package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(d.Auth.RequireAuth)
		r.Get("/links", handlers.ListLinks(d))
		r.Get("/links/{id}/icon", handlers.LinkIcon(d))
		r.Get("/widget", handlers.Widget(d))
	})
}
