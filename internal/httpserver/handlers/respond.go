package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// APIPrefix is where every API route is mounted.
const APIPrefix = "/api/v1"

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error  string       `json:"error"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// invalidBody carries the per-field failures of a request DTO.
type invalidBody struct {
	fields []fieldError
}

func (e *invalidBody) Error() string { return "Validation failed" }

// NewValidator returns a validator reporting JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindQuotaExceeded:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUpstreamFetch:
		return http.StatusBadGateway
	case domain.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a client-safe message. Unclassified
// errors are logged with the request id and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var ib *invalidBody
	if errors.As(err, &ib) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ib.Error(), Fields: ib.fields})
		return
	}

	status := statusFor(domain.KindOf(err))
	switch {
	case status == http.StatusInternalServerError:
		log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
	case status == http.StatusBadGateway:
		log.Warn("upstream fetch failed",
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: domain.PublicMessage(err)})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body of at most 1MB into dst and runs the struct
// validator on it.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.Invalid("Request body too large")
		}
		return domain.Invalid("Invalid JSON body")
	}
	if v == nil {
		return nil
	}
	err := v.Struct(dst)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ib := &invalidBody{fields: make([]fieldError, 0, len(verrs))}
		for _, fe := range verrs {
			ib.fields = append(ib.fields, fieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return ib
	}
	return err
}

func linkID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("Invalid link id")
	}
	return id, nil
}
