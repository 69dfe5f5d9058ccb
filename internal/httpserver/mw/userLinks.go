package mw

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// FeatureToggle reports whether a feature is switched on.
type FeatureToggle interface {
	Enabled(ctx context.Context) (bool, error)
}

// RequireUserLinks answers 403 while an administrator keeps user links
// disabled.
func RequireUserLinks(toggle FeatureToggle, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			enabled, err := toggle.Enabled(r.Context())
			if err != nil {
				log.Error("failed to read user links toggle", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !enabled {
				writeError(w, http.StatusForbidden, "User links feature is disabled by administrator")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
