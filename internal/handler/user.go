package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/pagination"
	"github.com/sakif/snippets-api/internal/serializer"
	"github.com/sakif/snippets-api/internal/service"
)

// UserHandler serves the read-only /users/ collection.
type UserHandler struct {
	users    *service.UserService
	pageSize int
	logger   *slog.Logger
}

func NewUserHandler(users *service.UserService, pageSize int, logger *slog.Logger) *UserHandler {
	if pageSize < 1 {
		pageSize = pagination.DefaultSize
	}
	return &UserHandler{users: users, pageSize: pageSize, logger: logger}
}

// HandleList returns one page of users.
//
// HTTP: GET /users/?page=N
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	p, err := pagination.Parse(r.URL.Query().Get(pagination.QueryParam), h.pageSize)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, count, err := h.users.List(r.Context(), caller, p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pagination.New(requestURL(r), p, count, serializer.Users(list)))
}

// HandleRetrieve returns a single user and the ids of their snippets.
//
// HTTP: GET /users/{id}/
func (h *UserHandler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	id, err := idParam(r, "user")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.User(user))
}
