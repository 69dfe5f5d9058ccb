package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// MaxWidgetLinks caps the links rendered by the dashboard widget.
const MaxWidgetLinks = 10

type widgetResponse struct {
	Title       string     `json:"title"`
	HoverEffect string     `json:"hoverEffect"`
	Links       []linkView `json:"links"`
}

// ListLinks returns the enabled global links visible to the caller's groups.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.Links.ListVisibleFor(r.Context(), caller(r).Groups)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, views(d.BaseURL, links))
	}
}

// Widget renders the dashboard payload: the visible global links first,
// then the caller's own enabled links when the feature is on.
func Widget(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		c := caller(r)

		title, err := d.Settings.WidgetTitle(ctx)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		effect, err := d.Settings.HoverEffect(ctx)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		links, err := d.Links.ListVisibleFor(ctx, c.Groups)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}

		if len(links) < MaxWidgetLinks && c.UserID() != "" {
			own, err := widgetUserLinks(r, d, c.UserID())
			if err != nil {
				// the global links still render
				d.Logger.Warn("failed to load user links for widget",
					logger.String("user", c.UserID()),
					logger.Error(err))
			}
			links = append(links, own...)
		}
		if len(links) > MaxWidgetLinks {
			links = links[:MaxWidgetLinks]
		}

		writeJSON(w, http.StatusOK, widgetResponse{
			Title:       title,
			HoverEffect: effect,
			Links:       views(d.BaseURL, links),
		})
	}
}

func widgetUserLinks(r *http.Request, d deps.Deps, userID string) ([]*domain.Link, error) {
	enabled, err := d.UserLinks.Enabled(r.Context())
	if err != nil || !enabled {
		return nil, err
	}
	own, err := d.UserLinks.List(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	return domain.VisibleTo(own, nil), nil
}
