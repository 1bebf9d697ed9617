package service

// AuthService is the business logic layer for authentication:
//
//	auth.Authenticate (middleware) ─┐
//	AuthHandler (HTTP)             ─┼→ AuthService → UserRepository / SessionRepository
//	snippetadm (CLI)               ─┘              ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It implements auth.Resolver, so the middleware can turn a session key, a
// bearer token or a username/password pair into a *model.User without
// knowing where users and sessions are stored.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/auth"
	"github.com/sakif/snippets-api/internal/model"
	"github.com/sakif/snippets-api/internal/repository"
)

// DefaultSessionTTL is how long a login session lasts (two weeks).
const DefaultSessionTTL = 14 * 24 * time.Hour

// MaxUsernameLength bounds usernames created by the CLI and GitHub sign-in.
const MaxUsernameLength = 150

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

const (
	msgInvalidCredentials = "Invalid username/password."
	msgInvalidToken       = "Invalid token."
	msgInvalidUsername    = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

// AuthService handles authentication and account management.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	tokens     *auth.TokenService
	passwords  *auth.PasswordService
	sessionTTL time.Duration
	logger     *slog.Logger
}

// NewAuthService creates an AuthService. A sessionTTL of zero means DefaultSessionTTL.
// tokens may be nil when bearer tokens are disabled; every bearer token is then rejected.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		users:      users,
		sessions:   sessions,
		tokens:     tokens,
		passwords:  passwords,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

var _ auth.Resolver = (*AuthService)(nil)

// Authenticate checks a username/password pair.
//
// Unknown usernames, accounts without a password and wrong passwords all
// produce the same Unauthenticated error.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperror.Unauthenticated(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	return user, nil
}

// Login authenticates the credentials and opens a session for the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, *model.Session, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.StartSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("method", "password"),
	)

	return user, session, nil
}

// StartSession opens a new session for an already-authenticated user.
// The session key is a random UUID.
func (s *AuthService) StartSession(ctx context.Context, user *model.User) (*model.Session, error) {
	session := &model.Session{
		Key:       uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL).UTC(),
	}

	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/auth: creating session for user %d: %w", user.ID, err)
	}

	return session, nil
}

// Logout ends the session. Logging out of a session that no longer exists succeeds.
func (s *AuthService) Logout(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, key); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("service/auth: deleting session: %w", err)
	}
	return nil
}

// IssueToken authenticates the credentials and returns a signed JWT with its expiry.
func (s *AuthService) IssueToken(ctx context.Context, username, password string) (string, time.Time, error) {
	if s.tokens == nil {
		return "", time.Time{}, apperror.NotFound("endpoint", "token")
	}

	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", time.Time{}, err
	}

	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("token issued", slog.Int64("userID", user.ID))

	return token, expiresAt, nil
}

// UserForSession returns the owner of a live session.
// Unknown sessions, expired sessions and sessions of deleted users are all NotFound.
func (s *AuthService) UserForSession(ctx context.Context, key string) (*model.User, error) {
	session, err := s.sessions.GetSession(ctx, key)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// UserForToken validates a bearer JWT and returns its subject.
// Any problem with the token, or a subject that no longer exists, is Unauthenticated.
func (s *AuthService) UserForToken(ctx context.Context, token string) (*model.User, error) {
	if s.tokens == nil {
		return nil, apperror.Unauthenticated(msgInvalidToken)
	}

	userID, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("rejected bearer token", slog.String("error", err.Error()))
		return nil, apperror.Unauthenticated(msgInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated(msgInvalidToken)
		}
		return nil, fmt.Errorf("service/auth: loading token subject %d: %w", userID, err)
	}

	return user, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback after the code exchange.
//
//  1. Upsert the user by GitHub id. First sign-in creates an account named
//     after the GitHub login; later sign-ins refresh the email.
//  2. Open a session for them.
//
// If another local account already holds the GitHub login as its username,
// the repository's Conflict error is returned unchanged.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, *model.Session, error) {
	if ghUser == nil {
		return nil, nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		Username: ghUser.Login,
		Email:    ghUser.Email,
		GitHubID: ghUser.ID,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("service/auth: upserting GitHub user %d: %w", ghUser.ID, err)
	}

	session, err := s.StartSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("method", "github"),
	)

	return user, session, nil
}

// CreateUser registers a password account. Used by the admin CLI.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string) (*model.User, error) {
	fields := map[string][]string{}
	if msg := validateUsername(username); msg != "" {
		fields["username"] = []string{msg}
	}
	if msg := validatePassword(password); msg != "" {
		fields["password"] = []string{msg}
	}
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
	}

	s.logger.Info("user created", slog.Int64("userID", user.ID), slog.String("username", username))

	return user, nil
}

// SetPassword replaces the password of an existing account. Used by the admin CLI.
func (s *AuthService) SetPassword(ctx context.Context, username, password string) error {
	if msg := validatePassword(password); msg != "" {
		return apperror.ValidationFailed("password", msg)
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("service/auth: looking up %q: %w", username, err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: %w", err)
	}

	if err := s.users.SetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("service/auth: setting password for %q: %w", username, err)
	}

	s.logger.Info("password changed", slog.Int64("userID", user.ID))

	return nil
}

func validateUsername(username string) string {
	switch {
	case username == "":
		return "This field may not be blank."
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		return "Ensure this field has no more than " + strconv.Itoa(MaxUsernameLength) + " characters."
	case !usernamePattern.MatchString(username):
		return msgInvalidUsername
	}
	return ""
}

func validatePassword(password string) string {
	switch {
	case password == "":
		return "This field may not be blank."
	case len(password) > auth.MaxPasswordBytes:
		return "Ensure this field has no more than " + strconv.Itoa(auth.MaxPasswordBytes) + " bytes."
	}
	return ""
}
