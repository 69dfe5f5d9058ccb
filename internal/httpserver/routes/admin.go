package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/handlers"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(d.Auth.RequireAuth, d.Auth.RequireAdmin)

		r.Route("/links", func(r chi.Router) {
			r.Get("/", handlers.AdminListLinks(d))
			r.Post("/", handlers.AdminCreateLink(d))
			r.Put("/order", handlers.AdminReorderLinks(d))
			r.Get("/export", handlers.AdminExportLinks(d))
			r.Post("/import", handlers.AdminImportLinks(d))

			r.Get("/{id}", handlers.AdminGetLink(d))
			r.Put("/{id}", handlers.AdminUpdateLink(d))
			r.Delete("/{id}", handlers.AdminDeleteLink(d))
			r.Post("/{id}/icon", handlers.AdminUploadIcon(d))
			r.Post("/{id}/icon/fetch", handlers.AdminFetchIcon(d))
			r.Delete("/{id}/icon", handlers.AdminDeleteIcon(d))
		})

		r.Get("/groups", handlers.AdminGroups(d))
		r.Get("/settings", handlers.AdminGetSettings(d))
		r.Put("/settings", handlers.AdminUpdateSettings(d))
	})
}
