package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/wanderlust/backend/internal/domain"
	"github.com/pkordes/wanderlust/backend/internal/validation"
)

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// WriteError maps err onto a status code and an error body. It satisfies
// auth.ErrorWriter.
//
//	validation → 422, not found → 404, not authenticated → 401,
//	forbidden → 403, transport → 502, anything else → 500.
func (s *Server) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			"error", err,
			"status", status,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
	writeJSON(w, status, errorResponse{Error: detail})
}

func classify(err error) (int, errorDetail) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, errorDetail{Code: "validation_error", Message: "validation failed", Fields: verr.Fields}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, errorDetail{Code: "validation_error", Message: unwrapMessage(err)}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorDetail{Code: "unauthenticated", Message: "sign in required"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorDetail{Code: "forbidden", Message: "you do not own this trip"}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorDetail{Code: "not_found", Message: unwrapMessage(err)}
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, errorDetail{Code: "upstream_error", Message: "an upstream service failed"}
	default:
		return http.StatusInternalServerError, errorDetail{Code: "internal_error", Message: "internal server error"}
	}
}

// opPrefix matches the "pkg.Type.Op: " segments errors collect on their way
// up the stack.
var opPrefix = regexp.MustCompile(`^[a-z]+(\.[A-Za-z]+)+: `)

// unwrapMessage extracts the human-readable part of a wrapped error.
// e.g. "service.TripService.Get: not found: trip abc" → "not found: trip abc"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		loc := opPrefix.FindStringIndex(msg)
		if loc == nil {
			return msg
		}
		msg = msg[loc[1]:]
	}
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
