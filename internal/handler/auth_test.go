package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/handler"
	"github.com/sakif/snippets-api/internal/repository/sqlite"
	"github.com/sakif/snippets-api/internal/service"
)

// fakeGitHub stands in for auth.GitHubProvider without talking to GitHub.
type fakeGitHub struct {
	user *auth.GitHubUser
	err  error
}

func (f *fakeGitHub) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeGitHub) Exchange(_ context.Context, code string) (*auth.GitHubUser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func newAuthHandler(t *testing.T, gh handler.GitHubProvider) (*handler.AuthHandler, *service.AuthService) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789abcdef", time.Hour)
	require.NoError(t, err)

	svc := service.NewAuthService(db, db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), time.Hour, logger)
	_, err = svc.CreateUser(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	return handler.NewAuthHandler(svc, gh, logger), svc
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestHandleLogin(t *testing.T) {
	h, svc := newAuthHandler(t, nil)

	t.Run("json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api-auth/login/", strings.NewReader(`{"username":"alice","password":"s3cret"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		h.HandleLogin(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"id":1,"username":"alice"}`, rec.Body.String())

		cookie := sessionCookie(rec)
		require.NotNil(t, cookie, "expected a session cookie")
		assert.True(t, cookie.HttpOnly)

		user, err := svc.UserForSession(context.Background(), cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("form body", func(t *testing.T) {
		form := url.Values{"username": {"alice"}, "password": {"s3cret"}}
		req := httptest.NewRequest(http.MethodPost, "/api-auth/login/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()

		h.HandleLogin(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotNil(t, sessionCookie(rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api-auth/login/", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.HandleLogin(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"username":["This field is required."],"password":["This field is required."]}`, rec.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api-auth/login/", strings.NewReader(`{"username":"alice","password":"nope"}`))
		rec := httptest.NewRecorder()

		h.HandleLogin(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api-auth/login/", strings.NewReader(`{"username":`))
		rec := httptest.NewRecorder()

		h.HandleLogin(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "non_field_errors")
	})
}

func TestHandleLogout(t *testing.T) {
	h, svc := newAuthHandler(t, nil)

	_, session, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api-auth/logout/", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: session.Key})
	rec := httptest.NewRecorder()

	h.HandleLogout(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(rec)
	require.NotNil(t, cleared)
	assert.Equal(t, "", cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	_, err = svc.UserForSession(context.Background(), session.Key)
	assert.Error(t, err, "session should be gone after logout")

	// No cookie at all is fine too.
	rec = httptest.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api-auth/logout/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleToken(t *testing.T) {
	h, svc := newAuthHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api-auth/token/", strings.NewReader(`{"username":"alice","password":"s3cret"}`))
	rec := httptest.NewRecorder()

	h.HandleToken(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.ExpiresAt.After(time.Now()))

	user, err := svc.UserForToken(context.Background(), body.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestHandleGitHubLogin_SetsStateCookie(t *testing.T) {
	h, _ := newAuthHandler(t, &fakeGitHub{})
	rec := httptest.NewRecorder()

	h.HandleGitHubLogin(rec, httptest.NewRequest(http.MethodGet, "/api-auth/github/login/", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	var state string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			state = c.Value
		}
	}
	require.NotEmpty(t, state)
	assert.Contains(t, rec.Header().Get("Location"), "state="+state)
}

func TestHandleGitHubCallback(t *testing.T) {
	callback := func(state, cookieState string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api-auth/github/callback/?code=abc&state="+state, nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: cookieState})
		}
		return req
	}

	t.Run("state mismatch", func(t *testing.T) {
		h, _ := newAuthHandler(t, &fakeGitHub{user: &auth.GitHubUser{ID: 7, Login: "octocat"}})
		rec := httptest.NewRecorder()

		h.HandleGitHubCallback(rec, callback("forged", "real"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, sessionCookie(rec))
	})

	t.Run("new user signs in", func(t *testing.T) {
		h, svc := newAuthHandler(t, &fakeGitHub{user: &auth.GitHubUser{ID: 7, Login: "octocat"}})
		rec := httptest.NewRecorder()

		h.HandleGitHubCallback(rec, callback("s1", "s1"))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		cookie := sessionCookie(rec)
		require.NotNil(t, cookie)

		user, err := svc.UserForSession(context.Background(), cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "octocat", user.Username)
		assert.Equal(t, int64(7), user.GitHubID)
	})

	t.Run("username clash", func(t *testing.T) {
		h, _ := newAuthHandler(t, &fakeGitHub{user: &auth.GitHubUser{ID: 8, Login: "alice"}})
		rec := httptest.NewRecorder()

		h.HandleGitHubCallback(rec, callback("s1", "s1"))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("exchange fails", func(t *testing.T) {
		h, _ := newAuthHandler(t, &fakeGitHub{err: errors.New("github is down")})
		rec := httptest.NewRecorder()

		h.HandleGitHubCallback(rec, callback("s1", "s1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "github is down")
	})
}
