package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/schoolarchive/archive/internal/changelog"
)

// ErrUserNotFound is returned when no user row matches the email.
var ErrUserNotFound = errors.New("user not found")

// UserRepository provides the queries the relational directory runs during
// one lookup. Implementations are bound to a single borrowed connection.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateGoogleIdentity(ctx context.Context, id uuid.UUID, upd IdentityUpdate) error
	RecordChange(ctx context.Context, id uuid.UUID, change changelog.Change, editor changelog.Editor) error
	ActivePermissions(ctx context.Context, profileID uuid.UUID) ([]string, error)
}

// RepositoryProvider hands out a connection-scoped UserRepository. The
// returned release func must be called exactly once on every path.
type RepositoryProvider interface {
	Acquire(ctx context.Context) (UserRepository, func(), error)
}
