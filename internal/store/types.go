package store

import (
	"time"

	"github.com/kozaktomas/face-gate/internal/descriptor"
)

// EnrolledUser is the projection of a platform user that the gate works
// with. Descriptor is nil when the user has no face enrolled; only users
// with a non-nil descriptor participate in matching.
type EnrolledUser struct {
	ID          int64
	Email       string
	DisplayName string
	Roles       []string
	Descriptor  descriptor.Descriptor
	FaceImage   string // path of the stored face image artifact, may be empty
	UpdatedAt   time.Time
}

// Enrolled reports whether the user has a face descriptor on record.
func (u *EnrolledUser) Enrolled() bool {
	return len(u.Descriptor) > 0
}
