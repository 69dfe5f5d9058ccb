package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/mw"
)

func init() { Register(registerUser) }

func registerUser(r chi.Router, d deps.Deps) {
	r.Route("/user", func(r chi.Router) {
		r.Use(d.Auth.RequireAuth)

		r.Get("/settings", handlers.UserSettings(d))

		r.Route("/links", func(r chi.Router) {
			r.Use(mw.RequireUserLinks(d.UserLinks, d.Logger))

			r.Get("/", handlers.UserListLinks(d))
			r.Post("/", handlers.UserCreateLink(d))
			r.Put("/order", handlers.UserReorderLinks(d))
			r.Get("/export", handlers.UserExportLinks(d))
			r.Post("/import", handlers.UserImportLinks(d))

			r.Get("/{id}", handlers.UserGetLink(d))
			r.Put("/{id}", handlers.UserUpdateLink(d))
			r.Delete("/{id}", handlers.UserDeleteLink(d))
			r.Get("/{id}/icon", handlers.UserLinkIcon(d))
			r.Post("/{id}/icon", handlers.UserUploadIcon(d))
			r.Delete("/{id}/icon", handlers.UserDeleteIcon(d))
		})
	})
}
