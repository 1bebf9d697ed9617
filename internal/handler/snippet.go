package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/pagination"
	"github.com/sakif/snippets-api/internal/serializer"
	"github.com/sakif/snippets-api/internal/service"
)

// MaxBodyBytes caps request bodies on write endpoints.
const MaxBodyBytes = 1 << 20

// SnippetHandler serves the /snippets/ collection.
//
// Each method does the same three things:
//  1. pull the caller, the id and the body out of the request
//  2. call one SnippetService method
//  3. serialize the result, or hand the error to writeError
//
// No permission or validation rule lives here; the service owns them.
type SnippetHandler struct {
	snippets *service.SnippetService
	pageSize int
	logger   *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler. pageSize < 1 means pagination.DefaultSize.
func NewSnippetHandler(snippets *service.SnippetService, pageSize int, logger *slog.Logger) *SnippetHandler {
	if pageSize < 1 {
		pageSize = pagination.DefaultSize
	}
	return &SnippetHandler{snippets: snippets, pageSize: pageSize, logger: logger}
}

// HandleList returns one page of snippets.
//
// HTTP: GET /snippets/?page=N
//
// RESPONSE FORMAT:
//
//	{"count": 23, "next": "http://host/snippets/?page=2", "previous": null, "results": [{...}, ...]}
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	p, err := pagination.Parse(r.URL.Query().Get(pagination.QueryParam), h.pageSize)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	list, count, err := h.snippets.List(r.Context(), caller, p)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pagination.New(requestURL(r), p, count, serializer.Snippets(list)))
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /snippets/
// REQUEST BODY: {"title": "hello", "code": "print('hello')", "language": "python"}
//
// Responds 201 with the stored snippet and a Location header naming it.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), caller, serializer.DecodeSnippet(body, false))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/snippets/%d/", baseURL(r), snippet.ID))
	writeJSON(w, http.StatusCreated, serializer.Snippet(snippet))
}

// HandleRetrieve returns a single snippet.
//
// HTTP: GET /snippets/{id}/
func (h *SnippetHandler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	id, err := idParam(r, "snippet")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	snippet, err := h.snippets.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.Snippet(snippet))
}

// HandleUpdate replaces every writable field of a snippet.
//
// HTTP: PUT /snippets/{id}/
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

// HandlePartialUpdate changes only the fields present in the body.
//
// HTTP: PATCH /snippets/{id}/
func (h *SnippetHandler) HandlePartialUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

func (h *SnippetHandler) update(w http.ResponseWriter, r *http.Request, partial bool) {
	caller, _ := auth.UserFromContext(r.Context())

	id, err := idParam(r, "snippet")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	snippet, err := h.snippets.Update(r.Context(), caller, id, serializer.DecodeSnippet(body, partial))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.Snippet(snippet))
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /snippets/{id}/
// Responds 204 No Content with an empty body.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.UserFromContext(r.Context())

	id, err := idParam(r, "snippet")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.snippets.Delete(r.Context(), caller, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// readBody reads the whole request body, refusing anything over MaxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.ValidationFailed(apperror.NonFieldErrors,
				fmt.Sprintf("Request body exceeds %d bytes.", MaxBodyBytes))
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return body, nil
}
