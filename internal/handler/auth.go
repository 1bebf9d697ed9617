package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/service"
)

const oauthStateCookie = "oauth_state"

// GitHubProvider is the part of auth.GitHubProvider the handler needs.
type GitHubProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler manages logins: username/password sessions, bearer tokens and
// the GitHub OAuth flow.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin          → check credentials, open a session, set the "sessionid" cookie
//   - HandleLogout         → delete the session, clear the cookie
//   - HandleToken          → check credentials, return a bearer JWT
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, sign the user in, open a session
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil when GitHub
// sign-in is not configured; the GitHub routes are then not registered.
func NewAuthHandler(authService *service.AuthService, github GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		logger: logger,
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleLogin opens a session.
//
// HTTP: POST /api-auth/login/
// REQUEST BODY: {"username": "alice", "password": "..."} or the same as a form
//
// COOKIE FLOW:
//  1. Set-Cookie: sessionid=<uuid>; HttpOnly; SameSite=Lax (here)
//  2. The browser sends Cookie: sessionid=<uuid> on every later request
//  3. auth.Authenticate looks the session up and finds the user
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, session, err := h.auth.Login(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	setSessionCookie(w, r, session)
	writeJSON(w, http.StatusOK, loginResponse{ID: user.ID, Username: user.Username})
}

// HandleLogout ends the current session, if any.
//
// HTTP: POST /api-auth/logout/
// Responds 204 whether or not a session existed.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.auth.Logout(r.Context(), cookie.Value); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleToken issues a bearer JWT for API clients that don't keep cookies.
//
// HTTP: POST /api-auth/token/
// RESPONSE: {"token": "eyJ...", "expires_at": "2026-01-02T15:04:05Z"}
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	token, expiresAt, err := h.auth.IssueToken(r.Context(), creds.Username, creds.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: expiresAt.UTC()})
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /api-auth/github/login/
//
// CSRF PROTECTION VIA STATE:
// A random state value goes to GitHub and into a short-lived cookie.
// HandleGitHubCallback only proceeds when the two match.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /api-auth/github/callback/?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Create or refresh the local account, open a session
//  4. Set the session cookie and redirect to the API index
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_state", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, r, h.logger, apperror.Unauthenticated("GitHub authorization was denied."))
		return
	}

	// --- Step 2: Exchange code for GitHub user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "This field is required."))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	// --- Step 3: Sign in ---
	_, session, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			h.logger.Warn("auth callback: username already taken", slog.String("login", ghUser.Login))
		}
		writeError(w, r, h.logger, err)
		return
	}

	// --- Step 4: Session cookie + redirect ---
	setSessionCookie(w, r, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// setSessionCookie stores the session key in an HttpOnly cookie that lives
// exactly as long as the session.
func setSessionCookie(w http.ResponseWriter, r *http.Request, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Key,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// readCredentials accepts a JSON object or an HTML form and requires both fields.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var creds credentials

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		if err := r.ParseMultipartForm(MaxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return creds, apperror.ValidationFailed(apperror.NonFieldErrors, "Malformed form data.")
		}
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	default:
		body, err := readBody(w, r)
		if err != nil {
			return creds, err
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &creds); err != nil {
				return creds, apperror.ValidationFailed(apperror.NonFieldErrors, "JSON parse error - "+err.Error())
			}
		}
	}

	missing := map[string][]string{}
	if creds.Username == "" {
		missing["username"] = []string{"This field is required."}
	}
	if creds.Password == "" {
		missing["password"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		return creds, apperror.Invalid(missing)
	}

	return creds, nil
}
