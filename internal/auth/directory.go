// Package auth decides whether a verified Google identity may use the
// archive and with which profile and permissions.
package auth

import (
	"context"
	"errors"

	"github.com/schoolarchive/archive/internal/identity"
)

var (
	// ErrNotAuthorized is returned when the email is absent from the
	// whitelist or the matching user is inactive. Both cases look the same
	// to the caller.
	ErrNotAuthorized = errors.New("user is not authorized")
	// ErrStoreUnavailable wraps any failure of the backing store. It must
	// never be treated as a denial.
	ErrStoreUnavailable = errors.New("authorization store unavailable")
)

// Directory resolves a verified identity to an Authorization.
type Directory interface {
	Lookup(ctx context.Context, id identity.VerifiedIdentity) (*Authorization, error)
}
