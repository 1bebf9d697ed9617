package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// SessionCookie is the cookie carrying the session key after a login.
const SessionCookie = "sessionid"

// Challenge is the WWW-Authenticate value sent with every 401, telling
// clients that HTTP Basic is accepted.
const Challenge = `Basic realm="api"`

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. A package-private type means
// no other package can read or shadow the caller stored here.
type contextKey string

const userKey contextKey = "user"

// Resolver turns each kind of credential into a user.
// service.AuthService is the production implementation.
type Resolver interface {
	UserForSession(ctx context.Context, key string) (*model.User, error)
	UserForToken(ctx context.Context, token string) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

// Authenticate resolves the caller for every request and stores it in the
// context. It never rejects anonymous requests; RequireAuth does that.
//
// RESOLUTION ORDER:
//  1. "sessionid" cookie. An unknown or expired session is treated as no
//     session at all, the same way a browser with a stale cookie is.
//  2. "Authorization: Bearer <jwt>". A bad token is a 401.
//  3. "Authorization: Basic ...". Bad credentials are a 401.
//
// Credentials that were sent but fail to check out end the request with a
// 401 here. They never downgrade to anonymous.
//
// CSRF:
// A browser attaches the session cookie to cross-site requests, so an unsafe
// method (POST, PUT, PATCH, DELETE) authenticated by the cookie must carry an
// Origin or Referer naming this host or one of trustedOrigins. Otherwise it
// is a 403. Bearer and Basic callers set their header explicitly and are
// not checked.
func Authenticate(res Resolver, logger *slog.Logger, trustedOrigins ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, viaSession, err := resolve(r, res)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					var appErr *apperror.AppError
					errors.As(err, &appErr)
					writeUnauthenticated(w, appErr.Message)
					return
				}
				logger.Error("resolving caller",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			}

			if viaSession && !isSafeMethod(r.Method) && !sameOrigin(r, trustedOrigins) {
				logger.Warn("csrf check failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("origin", r.Header.Get("Origin")),
				)
				writeAuthError(w, http.StatusForbidden, "forbidden", "CSRF Failed: Origin checking failed.")
				return
			}

			if user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests that Authenticate left anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeUnauthenticated(w, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying user as the caller.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the caller stored by Authenticate.
//
// Usage in handlers:
//
//	caller, _ := auth.UserFromContext(r.Context())
//	// caller is nil for anonymous requests
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolve finds the caller. viaSession reports that the session cookie,
// not an Authorization header, identified them.
func resolve(r *http.Request, res Resolver) (user *model.User, viaSession bool, err error) {
	ctx := r.Context()

	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		user, err := res.UserForSession(ctx, cookie.Value)
		switch {
		case err == nil:
			return user, true, nil
		case !errors.Is(err, apperror.ErrNotFound):
			return nil, false, err
		}
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false, nil
	}

	scheme, credentials, _ := strings.Cut(header, " ")
	switch strings.ToLower(scheme) {
	case "bearer":
		if credentials == "" {
			return nil, false, apperror.Unauthenticated("Invalid token header. No credentials provided.")
		}
		user, err = res.UserForToken(ctx, credentials)
		return user, false, err
	case "basic":
		username, password, ok := r.BasicAuth()
		if !ok {
			return nil, false, apperror.Unauthenticated("Invalid basic header. Credentials not correctly base64 encoded.")
		}
		user, err = res.Authenticate(ctx, username, password)
		return user, false, err
	}

	// Unknown schemes are left for other middleware; the caller stays anonymous.
	return nil, false, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// sameOrigin reports whether Origin, or Referer when Origin is absent,
// names the host the request was sent to or a trusted origin. A request
// with neither fails.
func sameOrigin(r *http.Request, trusted []string) bool {
	source := r.Header.Get("Origin")
	if source == "" || source == "null" {
		source = r.Referer()
	}
	if source == "" {
		return false
	}
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	if u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	origin := u.Scheme + "://" + u.Host
	for _, t := range trusted {
		if strings.EqualFold(strings.TrimSuffix(t, "/"), origin) {
			return true
		}
	}
	return false
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", Challenge)
	writeAuthError(w, http.StatusUnauthorized, "unauthenticated", message)
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message}); err != nil {
		slog.Error("failed to encode auth error response", slog.String("error", err.Error()))
	}
}
