package gate

import "errors"

// Gate error taxonomy. Handlers map these onto HTTP responses; none of them
// escape as unhandled failures.
var (
	// ErrInvalidDescriptor means the probe was missing or not a numeric array.
	ErrInvalidDescriptor = errors.New("invalid face descriptor")

	// ErrNoEnrollment means the system has zero enrolled faces.
	ErrNoEnrollment = errors.New("no faces enrolled")

	// ErrNoMatch means the scan completed with nothing inside the threshold.
	ErrNoMatch = errors.New("no matching face found")

	// ErrNotAuthorized means a real enrolled face matched, but its owner
	// does not hold an admin-like role.
	ErrNotAuthorized = errors.New("matched user is not authorized")
)
