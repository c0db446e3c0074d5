// Package store defines the user projection the gate operates on and the
// repository interfaces that back it. Concrete implementations live in the
// postgres subpackage (descriptor cache) and in internal/platform (read-only
// view of the community platform's MariaDB).
package store

import (
	"context"

	"github.com/kozaktomas/face-gate/internal/descriptor"
)

// UserReader provides read-only access to enrolled users
type UserReader interface {
	// ListEnrolled returns all users that have a non-nil face descriptor.
	// Iteration order is stable (ascending user id) so that distance ties
	// resolve reproducibly.
	ListEnrolled(ctx context.Context) ([]EnrolledUser, error)
	// GetByEmail retrieves a user by email, returns nil if not found
	GetByEmail(ctx context.Context, email string) (*EnrolledUser, error)
	// GetByID retrieves a user by id, returns nil if not found
	GetByID(ctx context.Context, id int64) (*EnrolledUser, error)
	// CountEnrolled returns the number of users with a stored descriptor
	CountEnrolled(ctx context.Context) (int, error)
}

// UserWriter provides write access to the enrollment cache
type UserWriter interface {
	UserReader

	// Upsert inserts or replaces a user record (used by the sync command)
	Upsert(ctx context.Context, user EnrolledUser) error

	// SetDescriptor stores a face descriptor for a user
	SetDescriptor(ctx context.Context, userID int64, d descriptor.Descriptor) error

	// ClearDescriptor removes a user's face descriptor
	ClearDescriptor(ctx context.Context, userID int64) error
}
