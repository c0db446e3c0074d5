package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

// UserSource reads gate-relevant user records from the platform user table.
// The table is Doctrine-managed: roles is a JSON array of strings and
// face_descriptor is a nullable JSON array of floats.
type UserSource struct {
	pool  *Pool
	table string
}

// NewUserSource creates a user source for the given platform table.
func NewUserSource(pool *Pool, table string) *UserSource {
	if table == "" {
		table = "user"
	}
	return &UserSource{pool: pool, table: table}
}

// ListUsers returns every platform user, enrolled or not. Used by the sync
// command; ordering is ascending id for stable snapshots.
func (s *UserSource) ListUsers(ctx context.Context) ([]store.EnrolledUser, error) {
	query := fmt.Sprintf(`
		SELECT id, email, username, roles, face_descriptor, face_image
		FROM %s
		ORDER BY id
	`, quoteIdent(s.table))

	rows, err := s.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query platform users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListEnrolled returns all platform users with a non-null face descriptor.
func (s *UserSource) ListEnrolled(ctx context.Context) ([]store.EnrolledUser, error) {
	query := fmt.Sprintf(`
		SELECT id, email, username, roles, face_descriptor, face_image
		FROM %s
		WHERE face_descriptor IS NOT NULL
		ORDER BY id
	`, quoteIdent(s.table))

	rows, err := s.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrolled platform users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// GetByEmail retrieves a platform user by email, returns nil if not found.
func (s *UserSource) GetByEmail(ctx context.Context, email string) (*store.EnrolledUser, error) {
	query := fmt.Sprintf(`
		SELECT id, email, username, roles, face_descriptor, face_image
		FROM %s
		WHERE email = ?
	`, quoteIdent(s.table))

	row := s.pool.db.QueryRowContext(ctx, query, email)
	user, err := scanUserRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query platform user by email: %w", err)
	}
	return user, nil
}

// FindByDisplayName retrieves a platform user by username, comparing
// diacritics-insensitively in Go (MariaDB has no unaccent). Returns nil when
// no user matches.
func (s *UserSource) FindByDisplayName(ctx context.Context, name string) (*store.EnrolledUser, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeName(name)
	for i := range users {
		if NormalizeName(users[i].DisplayName) == normalized {
			return &users[i], nil
		}
	}
	return nil, nil
}

func scanUsers(rows *sql.Rows) ([]store.EnrolledUser, error) {
	var users []store.EnrolledUser
	for rows.Next() {
		user, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan platform user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform users: %w", err)
	}
	return users, nil
}

func scanUserRow(scan func(...any) error) (*store.EnrolledUser, error) {
	var (
		user           store.EnrolledUser
		username       sql.NullString
		rolesJSON      []byte
		descriptorJSON []byte
		faceImage      sql.NullString
	)

	if err := scan(&user.ID, &user.Email, &username, &rolesJSON, &descriptorJSON, &faceImage); err != nil {
		return nil, err
	}

	user.DisplayName = username.String
	user.FaceImage = faceImage.String

	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
			return nil, fmt.Errorf("decode roles for user %d: %w", user.ID, err)
		}
	}

	if len(descriptorJSON) > 0 {
		d, err := descriptor.ParseJSON(descriptorJSON)
		if err != nil {
			// A corrupt stored descriptor must not break the whole scan;
			// the user is simply treated as not enrolled.
			return &user, nil
		}
		user.Descriptor = d
	}

	return &user, nil
}

// quoteIdent wraps an identifier in backticks for use in a MariaDB query.
// The table name comes from configuration, not request input.
func quoteIdent(name string) string {
	return "`" + name + "`"
}
