package model

import "time"

// User represents a registered account.
//
// A user can sign in with a username and password, with GitHub, or both.
// PasswordHash is empty for accounts that were created through GitHub and
// never had a password set; such accounts cannot use Basic auth or the
// login form until an admin runs `snippetadm changepassword`.
//
// WHY GitHubID int64 AND NOT *int64?
// GitHub user IDs are never 0, so 0 works as "not linked". The repositories
// translate 0 to SQL NULL so the UNIQUE index on github_id ignores unlinked users.
//
// Snippets is derived: the ids of the snippets this user owns, ascending.
// Only the user service fills it in.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	GitHubID     int64
	Snippets     []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
