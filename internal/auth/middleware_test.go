package auth

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// fakeResolver knows one session key, one token and one password.
type fakeResolver struct {
	user       *model.User
	sessionErr error
}

func (f *fakeResolver) UserForSession(_ context.Context, key string) (*model.User, error) {
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if key == "good-session" {
		return f.user, nil
	}
	return nil, apperror.NotFound("session", "(redacted)")
}

func (f *fakeResolver) UserForToken(_ context.Context, token string) (*model.User, error) {
	if token == "good-token" {
		return f.user, nil
	}
	return nil, apperror.Unauthenticated("Invalid token.")
}

func (f *fakeResolver) Authenticate(_ context.Context, username, password string) (*model.User, error) {
	if username == f.user.Username && password == "secret" {
		return f.user, nil
	}
	return nil, apperror.Unauthenticated("Invalid username/password.")
}

// echoCaller reports who the middleware decided the caller is.
var echoCaller = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if user, ok := UserFromContext(r.Context()); ok {
		io.WriteString(w, user.Username)
		return
	}
	io.WriteString(w, "anonymous")
})

func serve(res Resolver, h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()
	Authenticate(res, logger, "https://app.example")(h).ServeHTTP(rec, r)
	return rec
}

func TestAuthenticate(t *testing.T) {
	res := &fakeResolver{user: &model.User{ID: 1, Username: "alice"}}

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "no credentials is anonymous",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name: "valid session",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-session"})
			},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name: "stale session is anonymous",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "expired"})
			},
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name: "stale session falls through to basic",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "expired"})
				r.SetBasicAuth("alice", "secret")
			},
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "valid bearer",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer good-token") },
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "bad bearer",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty bearer",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid basic",
			setup:      func(r *http.Request) { r.SetBasicAuth("alice", "secret") },
			wantStatus: http.StatusOK,
			wantBody:   "alice",
		},
		{
			name:       "wrong password",
			setup:      func(r *http.Request) { r.SetBasicAuth("alice", "nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbled basic",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown scheme is anonymous",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Digest abc") },
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/snippets/", nil)
			tt.setup(req)

			rec := serve(res, echoCaller, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, Challenge, rec.Header().Get("WWW-Authenticate"))
				assert.Contains(t, rec.Body.String(), `"error":"unauthenticated"`)
				return
			}
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestAuthenticate_StoreFailureIs500(t *testing.T) {
	res := &fakeResolver{user: &model.User{ID: 1, Username: "alice"}, sessionErr: errors.New("db down")}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-session"})

	rec := serve(res, echoCaller, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	res := &fakeResolver{user: &model.User{ID: 1, Username: "alice"}}
	protected := RequireAuth(echoCaller)

	t.Run("anonymous is rejected", func(t *testing.T) {
		rec := serve(res, protected, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, Challenge, rec.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t,
			`{"error":"unauthenticated","message":"Authentication credentials were not provided."}`,
			rec.Body.String())
	})

	t.Run("authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", "secret")

		rec := serve(res, protected, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "alice", rec.Body.String())
	})
}

func TestUserFromContext_NilUserIsAnonymous(t *testing.T) {
	ctx := WithUser(context.Background(), nil)
	_, ok := UserFromContext(ctx)
	assert.False(t, ok)
}

func TestAuthenticate_SessionUnsafeMethodNeedsSameOrigin(t *testing.T) {
	res := &fakeResolver{user: &model.User{ID: 1, Username: "alice"}}

	tests := []struct {
		name       string
		method     string
		cookie     bool
		basic      bool
		origin     string
		referer    string
		wantStatus int
	}{
		{name: "session GET without origin", method: http.MethodGet, cookie: true, wantStatus: http.StatusOK},
		{name: "session POST without origin", method: http.MethodPost, cookie: true, wantStatus: http.StatusForbidden},
		{name: "session POST same origin", method: http.MethodPost, cookie: true, origin: "http://example.com", wantStatus: http.StatusOK},
		{name: "session DELETE foreign origin", method: http.MethodDelete, cookie: true, origin: "http://evil.test", wantStatus: http.StatusForbidden},
		{name: "session PATCH same-host referer", method: http.MethodPatch, cookie: true, referer: "http://example.com/snippets/1/", wantStatus: http.StatusOK},
		{name: "session PUT null origin foreign referer", method: http.MethodPut, cookie: true, origin: "null", referer: "http://evil.test/", wantStatus: http.StatusForbidden},
		{name: "session POST trusted origin", method: http.MethodPost, cookie: true, origin: "https://app.example", wantStatus: http.StatusOK},
		{name: "session POST trusted host wrong scheme", method: http.MethodPost, cookie: true, origin: "http://app.example", wantStatus: http.StatusForbidden},
		{name: "basic POST without origin", method: http.MethodPost, basic: true, wantStatus: http.StatusOK},
		{name: "anonymous POST without origin", method: http.MethodPost, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// httptest.NewRequest sets Host to example.com.
			req := httptest.NewRequest(tt.method, "/snippets/", nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good-session"})
			}
			if tt.basic {
				req.SetBasicAuth("alice", "secret")
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}

			rec := serve(res, echoCaller, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.JSONEq(t,
					`{"error":"forbidden","message":"CSRF Failed: Origin checking failed."}`,
					rec.Body.String())
			}
		})
	}
}

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteAuthError_LogsEncodeFailure(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	w := brokenWriter{httptest.NewRecorder()}
	writeAuthError(w, http.StatusForbidden, "forbidden", "nope")

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, buf.String(), "failed to encode auth error response")
	assert.Contains(t, buf.String(), "connection reset")
}
