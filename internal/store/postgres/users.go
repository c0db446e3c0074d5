package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
	"github.com/pgvector/pgvector-go"
)

// UserRepository provides PostgreSQL-backed access to the enrolled-user
// cache. Implements store.UserWriter.
type UserRepository struct {
	pool *Pool
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = "id, email, display_name, roles, descriptor::text, face_image, updated_at"

// ListEnrolled returns all users with a stored descriptor, ordered by id so
// that distance ties in the matcher resolve reproducibly.
func (r *UserRepository) ListEnrolled(ctx context.Context) ([]store.EnrolledUser, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM enrolled_users
		WHERE descriptor IS NOT NULL
		ORDER BY id
	`, userColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query enrolled users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// GetByEmail retrieves a user by email, returns nil if not found.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*store.EnrolledUser, error) {
	query := fmt.Sprintf("SELECT %s FROM enrolled_users WHERE LOWER(email) = LOWER($1)", userColumns)

	user, err := scanUserRow(r.pool.QueryRow(ctx, query, email).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id, returns nil if not found.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*store.EnrolledUser, error) {
	query := fmt.Sprintf("SELECT %s FROM enrolled_users WHERE id = $1", userColumns)

	user, err := scanUserRow(r.pool.QueryRow(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return user, nil
}

// CountEnrolled returns the number of users with a stored descriptor.
func (r *UserRepository) CountEnrolled(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM enrolled_users WHERE descriptor IS NOT NULL").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrolled users: %w", err)
	}
	return count, nil
}

// Upsert inserts or replaces a user record.
func (r *UserRepository) Upsert(ctx context.Context, user store.EnrolledUser) error {
	rolesJSON, err := json.Marshal(user.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}

	query := `
		INSERT INTO enrolled_users (id, email, display_name, roles, descriptor, face_image, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			roles = EXCLUDED.roles,
			descriptor = EXCLUDED.descriptor,
			face_image = EXCLUDED.face_image,
			updated_at = NOW()
	`

	var vec any
	if user.Enrolled() {
		vec = pgvector.NewVector(user.Descriptor)
	}

	var faceImage any
	if user.FaceImage != "" {
		faceImage = user.FaceImage
	}

	if _, err := r.pool.Exec(ctx, query, user.ID, user.Email, user.DisplayName, rolesJSON, vec, faceImage); err != nil {
		return fmt.Errorf("upsert user %d: %w", user.ID, err)
	}
	return nil
}

// SetDescriptor stores a face descriptor for an existing user.
func (r *UserRepository) SetDescriptor(ctx context.Context, userID int64, d descriptor.Descriptor) error {
	vec := pgvector.NewVector(d)
	result, err := r.pool.Exec(ctx,
		"UPDATE enrolled_users SET descriptor = $1, updated_at = NOW() WHERE id = $2", vec, userID)
	if err != nil {
		return fmt.Errorf("set descriptor for user %d: %w", userID, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// ClearDescriptor removes a user's face descriptor.
func (r *UserRepository) ClearDescriptor(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE enrolled_users SET descriptor = NULL, updated_at = NOW() WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("clear descriptor for user %d: %w", userID, err)
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]store.EnrolledUser, error) {
	var users []store.EnrolledUser
	for rows.Next() {
		user, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUserRow(scan func(...any) error) (*store.EnrolledUser, error) {
	var (
		user      store.EnrolledUser
		rolesJSON []byte
		vecText   sql.NullString
		faceImage sql.NullString
	)

	if err := scan(&user.ID, &user.Email, &user.DisplayName, &rolesJSON, &vecText, &faceImage, &user.UpdatedAt); err != nil {
		return nil, err
	}

	user.FaceImage = faceImage.String

	if len(rolesJSON) > 0 {
		if err := json.Unmarshal(rolesJSON, &user.Roles); err != nil {
			return nil, fmt.Errorf("decode roles for user %d: %w", user.ID, err)
		}
	}

	if vecText.Valid {
		d, err := parseVectorText(vecText.String)
		if err != nil {
			return nil, fmt.Errorf("decode descriptor for user %d: %w", user.ID, err)
		}
		user.Descriptor = d
	}

	return &user, nil
}

// parseVectorText parses pgvector's text representation "[0.1,0.2,...]".
// The column is scanned as text because it is nullable; pgvector.Vector
// itself cannot scan NULL.
func parseVectorText(s string) (descriptor.Descriptor, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("malformed vector literal")
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return nil, fmt.Errorf("empty vector literal")
	}

	parts := strings.Split(inner, ",")
	d := make(descriptor.Descriptor, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		d[i] = float32(f)
	}
	return d, nil
}
