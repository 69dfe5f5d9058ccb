package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/store/sqlstore"
)

const readyTimeout = 2 * time.Second

type readyzResponse struct {
	Ready      bool            `json:"ready"`
	Components map[string]bool `json:"components"`
}

// Readyz pings the database and, when configured, Redis. Redis being down
// is reported but does not fail readiness: counters fail open.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		res := readyzResponse{Ready: true, Components: map[string]bool{}}

		dbOK := d.DB != nil && sqlstore.Ping(ctx, d.DB) == nil
		res.Components["database"] = dbOK
		if !dbOK {
			res.Ready = false
			d.Logger.Warn("readiness: database ping failed")
		}

		if d.RedisClient != nil {
			err := d.RedisClient.Ping(ctx).Err()
			res.Components["redis"] = err == nil
			if err != nil {
				d.Logger.Warn("readiness: redis ping failed", logger.Error(err))
			}
		}

		status := http.StatusOK
		if !res.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, res)
	}
}
