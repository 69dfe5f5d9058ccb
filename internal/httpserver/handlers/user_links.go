package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
)

type userLinksResponse struct {
	Links []linkView `json:"links"`
	Count int        `json:"count"`
	Limit int        `json:"limit"`
}

type userSettingsResponse struct {
	UserLinksEnabled bool   `json:"userLinksEnabled"`
	UserLinkLimit    int    `json:"userLinkLimit"`
	HoverEffect      string `json:"hoverEffect"`
}

func UserListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.UserLinks.List(r.Context(), caller(r).UserID())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		limit, err := d.UserLinks.Limit(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, userLinksResponse{
			Links: views(d.BaseURL, links),
			Count: len(links),
			Limit: limit,
		})
	}
}

func UserGetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.UserLinks.Get(r.Context(), caller(r).UserID(), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func UserCreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := caller(r).UserID()
		if !allow(r, d, ratelimit.UserLinkCreate, uid) {
			writeMessage(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		var in domain.LinkInput
		if err := decode(w, r, d.Validate, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.UserLinks.Create(r.Context(), uid, in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, view(d.BaseURL, link))
	}
}

func UserUpdateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		var patch domain.LinkPatch
		if err := decode(w, r, d.Validate, &patch); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.UserLinks.Update(r.Context(), caller(r).UserID(), id, patch)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func UserDeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.UserLinks.Delete(r.Context(), caller(r).UserID(), id); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

func UserReorderLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decode(w, r, d.Validate, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.UserLinks.Reorder(r.Context(), caller(r).UserID(), req.LinkIDs); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

func UserExportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.UserLinks.Export(r.Context(), caller(r).UserID())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dashlink-my-links.json"`)
		writeJSON(w, http.StatusOK, views(d.BaseURL, links))
	}
}

func UserImportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := caller(r).UserID()
		if !allow(r, d, ratelimit.UserLinkImport, uid) {
			writeMessage(w, http.StatusTooManyRequests, fmt.Sprintf(
				"Rate limit exceeded. You can only import %d times per hour. Please try again later.",
				ratelimit.UserLinkImport.MaxAttempts))
			return
		}
		records, err := readImport(w, r, MaxUserImportRecords)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		res, err := d.UserLinks.Import(r.Context(), uid, records)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// UserSettings exposes what a user needs to know about the feature. It
// answers even when user links are disabled.
func UserSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Settings.All(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, userSettingsResponse{
			UserLinksEnabled: s.UserLinksEnabled,
			UserLinkLimit:    s.UserLinkLimit,
			HoverEffect:      s.HoverEffect,
		})
	}
}
