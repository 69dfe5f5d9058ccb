package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/auth"
	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
)

// linkView is a link as served to clients: the stored fields plus the URL
// its icon can be fetched from, null when it has none.
type linkView struct {
	*domain.Link
	IconURL *string `json:"iconUrl"`
}

// iconURL is absolute so exports stay usable outside the dashboard.
func iconURL(baseURL string, l *domain.Link) *string {
	if !l.HasIcon() {
		return nil
	}
	u := fmt.Sprintf("%s%s/links/%d/icon", baseURL, APIPrefix, l.ID)
	if !l.Partition().IsGlobal() {
		u = fmt.Sprintf("%s%s/user/links/%d/icon", baseURL, APIPrefix, l.ID)
	}
	return &u
}

func view(baseURL string, l *domain.Link) linkView {
	return linkView{Link: l, IconURL: iconURL(baseURL, l)}
}

func views(baseURL string, links []*domain.Link) []linkView {
	out := make([]linkView, 0, len(links))
	for _, l := range links {
		out = append(out, view(baseURL, l))
	}
	return out
}

// caller returns the authenticated claims. Routes are mounted behind
// RequireAuth, so a miss is a wiring bug.
func caller(r *http.Request) *auth.Claims {
	c, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		return &auth.Claims{}
	}
	return c
}

// allow consumes one attempt of policy for id. A failing counter backend
// lets the request through.
func allow(r *http.Request, d deps.Deps, p ratelimit.Policy, id string) bool {
	limited, err := d.Limiter.Check(r.Context(), p, id)
	if err != nil {
		d.Logger.Warn("rate limiter unavailable, allowing request",
			logger.String("action", p.Action),
			logger.Error(err))
		return true
	}
	if limited {
		d.Logger.Info("rate limit hit",
			logger.String("action", p.Action),
			logger.String("path", r.URL.Path))
	}
	return !limited
}
