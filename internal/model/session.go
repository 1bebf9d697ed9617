package model

import "time"

// Session is a server-side login session, referenced by the "sessionid" cookie.
type Session struct {
	Key       string
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
