package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/schoolarchive/archive/internal/changelog"
)

const usersTable = "users"

// Querier is the pgx surface used by PostgresRepository. *pgxpool.Conn,
// *pgxpool.Pool and pgx.Tx all satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements UserRepository on one connection.
type PostgresRepository struct {
	q        Querier
	recorder *changelog.Recorder
}

// NewRepository creates a UserRepository that runs every statement on q.
func NewRepository(q Querier, recorder *changelog.Recorder) UserRepository {
	return &PostgresRepository{q: q, recorder: recorder}
}

// FindByEmail retrieves a user and its profile name by exact email.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.google_id, u.google_name,
		       u.id_profile, rp.profile_name, u.user_is_active
		FROM users u
		JOIN ref_profile rp ON u.id_profile = rp.id
		WHERE u.email = $1`

	var u User
	err := r.q.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Username, &u.Email, &u.GoogleID, &u.GoogleName,
		&u.ProfileID, &u.ProfileName, &u.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return &u, nil
}

// UpdateGoogleIdentity writes every non-nil field of upd in one statement.
func (r *PostgresRepository) UpdateGoogleIdentity(ctx context.Context, id uuid.UUID, upd IdentityUpdate) error {
	if upd.Empty() {
		return nil
	}

	var sets []string
	args := []any{id}
	if upd.GoogleID != nil {
		args = append(args, *upd.GoogleID)
		sets = append(sets, fmt.Sprintf("google_id = $%d", len(args)))
	}
	if upd.GoogleName != nil {
		args = append(args, *upd.GoogleName)
		sets = append(sets, fmt.Sprintf("google_name = $%d", len(args)))
	}

	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	result, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating google identity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RecordChange appends a changelog entry to the user row.
func (r *PostgresRepository) RecordChange(ctx context.Context, id uuid.UUID, change changelog.Change, editor changelog.Editor) error {
	return r.recorder.Record(ctx, r.q, usersTable, id, change, editor)
}

// ActivePermissions returns the permission codes granted to a profile where
// both the permission and the profile link are active.
func (r *PostgresRepository) ActivePermissions(ctx context.Context, profileID uuid.UUID) ([]string, error) {
	query := `
		SELECT p.permission_code
		FROM permissions p
		JOIN rel_profile_permission rpp ON p.id = rpp.id_permission
		WHERE rpp.id_profile = $1
		  AND rpp.profile_permission_is_active = TRUE
		  AND p.permission_is_active = TRUE
		ORDER BY p.permission_code`

	rows, err := r.q.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing permissions: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scanning permission row: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating permission rows: %w", err)
	}

	return codes, nil
}

// ConnAcquirer borrows a pooled connection. *database.DB satisfies it.
type ConnAcquirer interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
}

// PoolProvider hands out repositories bound to a freshly acquired connection.
type PoolProvider struct {
	pool     ConnAcquirer
	recorder *changelog.Recorder
}

// NewPoolProvider creates a RepositoryProvider over pool.
func NewPoolProvider(pool ConnAcquirer, recorder *changelog.Recorder) *PoolProvider {
	return &PoolProvider{pool: pool, recorder: recorder}
}

// Acquire borrows a connection and returns a repository bound to it together
// with the func that releases the connection back to the pool.
func (p *PoolProvider) Acquire(ctx context.Context) (UserRepository, func(), error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return NewRepository(conn, p.recorder), conn.Release, nil
}
