package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

const (
	MaxImportBytes = 1 << 20
	MaxImportDepth = 10

	MaxAdminImportRecords = 100
	MaxUserImportRecords  = 50

	// room for the multipart framing around a 1MB file
	multipartSlack = 64 << 10
)

var errImportTooLarge = domain.Invalid("File too large. Maximum size for import is 1MB.")

// readImport accepts either a raw JSON body or a multipart form whose
// "file" part holds the JSON array.
func readImport(w http.ResponseWriter, r *http.Request, maxRecords int) ([]domain.ImportRecord, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes+multipartSlack)

	var (
		data []byte
		err  error
	)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt == "multipart/form-data" {
		data, err = readImportFile(r)
	} else {
		data, err = readLimited(r.Body)
	}
	if err != nil {
		return nil, err
	}
	return parseImport(data, maxRecords)
}

func readImportFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errImportTooLarge
		}
		return nil, domain.Invalid("No file uploaded")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, domain.Invalid("No file uploaded")
	}
	defer func() { _ = f.Close() }()

	if hdr.Size > MaxImportBytes {
		return nil, errImportTooLarge
	}
	return readLimited(f)
}

func readLimited(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, MaxImportBytes+1))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errImportTooLarge
		}
		return nil, domain.Invalid("Failed to read import payload")
	}
	if len(data) > MaxImportBytes {
		return nil, errImportTooLarge
	}
	return data, nil
}

func parseImport(data []byte, maxRecords int) ([]domain.ImportRecord, error) {
	if err := checkDepth(data, MaxImportDepth); err != nil {
		return nil, err
	}
	var records []domain.ImportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.Invalid("Invalid JSON format")
	}
	if len(records) > maxRecords {
		return nil, domain.Invalid("Too many links in import. Maximum %d links per import.", maxRecords)
	}
	return records, nil
}

// checkDepth walks the token stream and refuses documents that are not a
// JSON array or nest deeper than maxDepth.
func checkDepth(data []byte, maxDepth int) error {
	invalid := domain.Invalid("Invalid JSON format")
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil || tok != json.Delim('[') {
		return invalid
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return invalid
		}
		switch tok {
		case json.Delim('['), json.Delim('{'):
			depth++
			if depth > maxDepth {
				return domain.Invalid("Invalid JSON format: maximum nesting depth is %d", maxDepth)
			}
		case json.Delim(']'), json.Delim('}'):
			depth--
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return invalid
	}
	return nil
}
