// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a stored code snippet.
//
// NO JSON TAGS:
// The wire shape of a snippet is owned by the serializer package, which maps
// each field explicitly. Keeping tags off the model means nobody can leak
// OwnerID or the timestamps into a response by accident.
//
// Owner is derived: repositories fill it with the owner's username on reads
// (a JOIN on users), and the service sets it on create. It is never written.
type Snippet struct {
	ID        int64
	Title     string
	Code      string
	Linenos   bool
	Language  string
	Style     string
	OwnerID   int64
	Owner     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
