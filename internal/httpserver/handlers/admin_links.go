package handlers

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
)

type reorderRequest struct {
	LinkIDs []int64 `json:"linkIds" validate:"required,max=1000,dive,gt=0"`
}

func AdminListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.Links.List(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, views(d.BaseURL, links))
	}
}

func AdminGetLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Links.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func AdminCreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.LinkInput
		if err := decode(w, r, d.Validate, &in); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Links.Create(r.Context(), in)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, view(d.BaseURL, link))
	}
}

func AdminUpdateLink(d deps.Deps) http.HandlerFunc {
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
		link, err := d.Links.Update(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func AdminDeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Links.Delete(r.Context(), id); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

func AdminReorderLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := decode(w, r, d.Validate, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if err := d.Links.Reorder(r.Context(), req.LinkIDs); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

func AdminExportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		links, err := d.Links.Export(r.Context())
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dashlink-links.json"`)
		writeJSON(w, http.StatusOK, views(d.BaseURL, links))
	}
}

func AdminImportLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allow(r, d, ratelimit.AdminImport, caller(r).UserID()) {
			writeMessage(w, http.StatusTooManyRequests, fmt.Sprintf(
				"Rate limit exceeded. You can only import %d times per hour. Please try again later.",
				ratelimit.AdminImport.MaxAttempts))
			return
		}
		records, err := readImport(w, r, MaxAdminImportRecords)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		res, err := d.Links.Import(r.Context(), records)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		d.Logger.Info("global links imported",
			logger.String("user", caller(r).UserID()),
			logger.Int("imported", res.Imported),
			logger.Int("skipped", res.Skipped),
			logger.Int("errors", len(res.Errors)))
		writeJSON(w, http.StatusOK, res)
	}
}
