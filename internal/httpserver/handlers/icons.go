package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/dashlink/internal/ratelimit"
	"github.com/MrSnakeDoc/dashlink/internal/service"
)

const iconCacheControl = "max-age=86400"

type fetchIconRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// readIconUpload returns the bytes and declared type of the multipart
// "icon" part. Size and content checks belong to the icon service.
func readIconUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxIconSize+multipartSlack)
	if err := r.ParseMultipartForm(service.MaxIconSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, "", domain.Invalid("File too large. Maximum size is 2MB.")
		}
		return nil, "", domain.Invalid("No file uploaded")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("icon")
	if err != nil {
		return nil, "", domain.Invalid("No file uploaded")
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, service.MaxIconSize+1))
	if err != nil {
		return nil, "", domain.Invalid("Failed to read uploaded file")
	}
	return data, hdr.Header.Get("Content-Type"), nil
}

func writeIcon(w http.ResponseWriter, data []byte, mimeType string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", iconCacheControl)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// LinkIcon serves the icon of a global link the caller can see.
func LinkIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Links.GetVisible(r.Context(), id, caller(r).Groups)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		data, mt, err := d.Icons.ReadLinkIcon(r.Context(), link)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeIcon(w, data, mt)
	}
}

func AdminUploadIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		data, declared, err := readIconUpload(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Icons.Upload(r.Context(), domain.Global(), id, data, declared)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

// AdminFetchIcon downloads an icon from a remote URL for a global link.
func AdminFetchIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		var req fetchIconRequest
		if err := decode(w, r, d.Validate, &req); err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		if !allow(r, d, ratelimit.IconDownload, caller(r).UserID()) {
			writeMessage(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}
		link, err := d.Icons.FetchAndStore(r.Context(), domain.Global(), id, req.URL)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func AdminDeleteIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Icons.Delete(r.Context(), domain.Global(), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func UserLinkIcon(d deps.Deps) http.HandlerFunc {
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
		data, mt, err := d.Icons.ReadLinkIcon(r.Context(), link)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeIcon(w, data, mt)
	}
}

func UserUploadIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		uid := caller(r).UserID()
		if uid == "" {
			writeError(w, r, d.Logger, domain.Forbidden("Authentication required"))
			return
		}
		data, declared, err := readIconUpload(w, r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		link, err := d.Icons.Upload(r.Context(), domain.OwnedBy(uid), id, data, declared)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}

func UserDeleteIcon(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := linkID(r)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		uid := caller(r).UserID()
		if uid == "" {
			writeError(w, r, d.Logger, domain.Forbidden("Authentication required"))
			return
		}
		link, err := d.Icons.Delete(r.Context(), domain.OwnedBy(uid), id)
		if err != nil {
			writeError(w, r, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view(d.BaseURL, link))
	}
}
