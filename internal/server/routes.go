package server

import (
	"net/http"
	"strings"

	"github.com/sakif/snippets-api/internal/handler"
)

// Operation names what a route does to its resource.
type Operation int

const (
	OpIndex Operation = iota
	OpList
	OpCreate
	OpRetrieve
	OpUpdate
	OpPartialUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpIndex:
		return "index"
	case OpList:
		return "list"
	case OpCreate:
		return "create"
	case OpRetrieve:
		return "retrieve"
	case OpUpdate:
		return "update"
	case OpPartialUpdate:
		return "partial_update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Route binds one (method, pattern) pair to a resource operation.
//
// Patterns are written without a trailing slash. StripSlashes runs before
// routing, so "/snippets/" and "/snippets" both land on "/snippets".
type Route struct {
	Method   string
	Pattern  string
	Resource string
	Op       Operation
	Handler  http.HandlerFunc
}

const (
	snippetCollection = "/snippets"
	snippetItem       = "/snippets/{id:[0-9]+}"
	userCollection    = "/users"
	userItem          = "/users/{id:[0-9]+}"
)

// resourceRoutes is the full table of authenticated API routes.
//
// ROUTE TABLE:
//
//	GET    /                → api index
//	GET    /snippets/       → list        POST /snippets/ → create
//	GET    /snippets/{id}/  → retrieve    PUT  → update   PATCH → partial update   DELETE → delete
//	GET    /users/          → list
//	GET    /users/{id}/     → retrieve
func resourceRoutes(root *handler.RootHandler, snippets *handler.SnippetHandler, users *handler.UserHandler) []Route {
	return []Route{
		{http.MethodGet, "/", "api", OpIndex, root.HandleIndex},

		{http.MethodGet, snippetCollection, "snippet", OpList, snippets.HandleList},
		{http.MethodPost, snippetCollection, "snippet", OpCreate, snippets.HandleCreate},
		{http.MethodGet, snippetItem, "snippet", OpRetrieve, snippets.HandleRetrieve},
		{http.MethodPut, snippetItem, "snippet", OpUpdate, snippets.HandleUpdate},
		{http.MethodPatch, snippetItem, "snippet", OpPartialUpdate, snippets.HandlePartialUpdate},
		{http.MethodDelete, snippetItem, "snippet", OpDelete, snippets.HandleDelete},

		{http.MethodGet, userCollection, "user", OpList, users.HandleList},
		{http.MethodGet, userItem, "user", OpRetrieve, users.HandleRetrieve},
	}
}

// allowedMethods groups the table by pattern into Allow header values.
// GET implies HEAD, and every pattern answers OPTIONS.
func allowedMethods(routes []Route) map[string]string {
	methods := map[string][]string{}
	for _, rt := range routes {
		methods[rt.Pattern] = append(methods[rt.Pattern], rt.Method)
		if rt.Method == http.MethodGet {
			methods[rt.Pattern] = append(methods[rt.Pattern], http.MethodHead)
		}
	}

	allow := make(map[string]string, len(methods))
	for pattern, ms := range methods {
		allow[pattern] = strings.Join(append(ms, http.MethodOptions), ", ")
	}
	return allow
}

// handleOptions answers OPTIONS with the methods the pattern accepts.
func handleOptions(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		w.WriteHeader(http.StatusOK)
	}
}
