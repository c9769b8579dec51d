package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schoolarchive/archive/internal/changelog"
	"github.com/schoolarchive/archive/internal/identity"
	"github.com/schoolarchive/archive/internal/metrics"
)

// PostgresDirectory resolves users against the relational whitelist and
// keeps their stored Google identity in sync with the latest token.
type PostgresDirectory struct {
	provider RepositoryProvider
}

// NewPostgresDirectory creates a Directory backed by provider.
func NewPostgresDirectory(provider RepositoryProvider) *PostgresDirectory {
	return &PostgresDirectory{provider: provider}
}

// Lookup borrows one connection for the whole resolution and releases it on
// every exit path.
func (d *PostgresDirectory) Lookup(ctx context.Context, id identity.VerifiedIdentity) (*Authorization, error) {
	repo, release, err := d.provider.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer release()

	user, err := repo.FindByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			slog.Info("user not in directory", "email", id.Email)
			return nil, ErrNotAuthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !user.IsActive {
		slog.Info("user found but inactive", "email", id.Email)
		return nil, ErrNotAuthorized
	}

	upd, changes := drift(user, id)
	if !upd.Empty() {
		if err := repo.UpdateGoogleIdentity(ctx, user.ID, upd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		slog.Info("google identity updated", "email", id.Email, "fields", len(changes))

		// The update is committed; its audit trail and the rest of the
		// resolution must not be cut short by the caller going away.
		ctx = context.WithoutCancel(ctx)

		editor := changelog.Editor{Email: id.Email, UserID: user.ID.String()}
		for _, c := range changes {
			if err := repo.RecordChange(ctx, user.ID, c, editor); err != nil {
				metrics.SinkFailures.WithLabelValues("changelog").Inc()
				slog.Error("failed to record changelog entry",
					"email", id.Email, "field", c.Field, "error", err)
			}
		}
	}

	perms, err := repo.ActivePermissions(ctx, user.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	googleID, googleName := deref(user.GoogleID), deref(user.GoogleName)
	if upd.GoogleID != nil {
		googleID = *upd.GoogleID
	}
	if upd.GoogleName != nil {
		googleName = *upd.GoogleName
	}

	return &Authorization{
		UserID:      user.ID.String(),
		Profile:     user.ProfileName,
		Name:        user.Username,
		GoogleID:    googleID,
		GoogleName:  googleName,
		Permissions: perms,
	}, nil
}

// drift stages one change per Google identity field whose stored value
// differs from the token claim. A NULL stored value always counts as drift.
func drift(u *User, id identity.VerifiedIdentity) (IdentityUpdate, []changelog.Change) {
	var (
		upd     IdentityUpdate
		changes []changelog.Change
	)
	if u.GoogleID == nil || *u.GoogleID != id.SubjectID {
		v := id.SubjectID
		upd.GoogleID = &v
		changes = append(changes, changelog.Change{Field: "google_id", Previous: nullable(u.GoogleID), Current: v})
	}
	if u.GoogleName == nil || *u.GoogleName != id.DisplayName {
		v := id.DisplayName
		upd.GoogleName = &v
		changes = append(changes, changelog.Change{Field: "google_name", Previous: nullable(u.GoogleName), Current: v})
	}
	return upd, changes
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable keeps a NULL column as JSON null in the changelog.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
