package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

func AdminGetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Settings.All(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// AdminUpdateSettings applies the fields present in the body; nothing is
// written when one of them is invalid.
func AdminUpdateSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch domain.SettingsPatch
		if err := decode(w, r, d.Validate, &patch); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		s, err := d.Settings.Apply(r.Context(), patch)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		d.Logger.Info("settings updated", logger.String("user", caller(r).UserID()))
		writeJSON(w, http.StatusOK, s)
	}
}

func AdminGroups(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Groups.List())
	}
}
