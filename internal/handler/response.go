package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// ERROR FORMAT:
// A 400 carries the field → messages map produced by validation, so a client
// can show each message next to the input that caused it:
//
//	{"code": ["This field may not be blank."], "language": ["\"klingon\" is not a valid choice."]}
//
// Every other error has the same two-key shape:
//
//	{"error": "not_found", "message": "snippet not found with id 42"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
)

// ErrorResponse is the error format for everything except validation failures.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status go out before the body. Once Encode writes, any header
// change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// This is the only place that knows which sentinel means which status:
//
//	ErrValidation      → 400 (field map body)
//	ErrUnauthenticated → 401 (+ WWW-Authenticate)
//	ErrForbidden       → 403
//	ErrNotFound        → 404
//	ErrConflict        → 409
//	anything else      → 500, logged with the request id
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// NEVER expose internal error details to the client: the raw message
		// might contain SQL, file paths or connection strings.
		logger.Error("request failed",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		writeJSON(w, http.StatusBadRequest, appErr.FieldErrors())
		return
	case errors.Is(err, apperror.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", auth.Challenge)
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthenticated", Message: appErr.Message})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
		errorType = "forbidden"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: appErr.Message,
	})
}

// idParam reads the numeric {id} route parameter. The router only matches
// digits, so the one failure left is a number too large for int64, which
// can't name any row.
func idParam(r *http.Request, resource string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}

// baseURL is the scheme and host the client used to reach us, honouring
// X-Forwarded-Proto from a TLS-terminating proxy.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// requestURL is the absolute URL of the current request, query included.
// Pagination links are built from it.
func requestURL(r *http.Request) *url.URL {
	base, _ := url.Parse(baseURL(r))
	u := *r.URL
	u.Scheme = base.Scheme
	u.Host = base.Host
	return &u
}

// HandleNotFound is the router fallback for paths no route matches.
func HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "Not found."})
}

// MethodNotAllowed answers a request whose path exists but not for its method.
// allow is the Allow header value; empty leaves the header unset.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	if allow != "" {
		w.Header().Set("Allow", allow)
	}
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: fmt.Sprintf("Method %q not allowed.", r.Method),
	})
}
