package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger reports whether the backing store is reachable.
type Pinger func(ctx context.Context) error

// RootHandler serves the API index and the health probe.
type RootHandler struct {
	ping   Pinger
	logger *slog.Logger
}

func NewRootHandler(ping Pinger, logger *slog.Logger) *RootHandler {
	return &RootHandler{ping: ping, logger: logger}
}

// HandleIndex lists the collections as absolute URLs.
//
// HTTP: GET /
//
//	{"snippets": "http://host/snippets/", "users": "http://host/users/"}
func (h *RootHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"snippets": base + "/snippets/",
		"users":    base + "/users/",
	})
}

// HandleHealth is the liveness probe. It needs no credentials.
//
// HTTP: GET /health
func (h *RootHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
