// Package permission holds the access rules applied to every request.
package permission

import (
	"github.com/sakif/snippets-api/internal/apperror"
	"github.com/sakif/snippets-api/internal/model"
)

// Access is what a request wants to do with an object.
type Access int

const (
	// Read covers the safe HTTP methods: GET, HEAD and OPTIONS.
	Read Access = iota
	// Write covers everything that changes state.
	Write
)

const (
	msgNotAuthenticated = "Authentication credentials were not provided."
	msgNotOwner         = "You do not have permission to perform this action."
)

// IsAuthenticated rejects anonymous callers.
func IsAuthenticated(caller *model.User) error {
	if caller == nil {
		return apperror.Unauthenticated(msgNotAuthenticated)
	}
	return nil
}

// OwnerOrReadOnly lets anyone read a snippet but only its owner change it.
// It is an object-level check; run IsAuthenticated first.
func OwnerOrReadOnly(caller *model.User, access Access, s *model.Snippet) error {
	if access == Read {
		return nil
	}
	if caller == nil || caller.ID != s.OwnerID {
		return apperror.Forbidden(msgNotOwner)
	}
	return nil
}
