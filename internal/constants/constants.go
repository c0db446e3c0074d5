// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Descriptor constants
const (
	// DescriptorDim is the fixed dimension of face descriptors system-wide.
	// The browser computes descriptors with face-api.js, which produces
	// 128-dimensional embeddings.
	DescriptorDim = 128
)

// Matching constants
const (
	// DistanceThreshold is the maximum Euclidean distance for a probe
	// descriptor to be accepted as a match. Distances at or above this value
	// are treated as "no match" even when they are the scan minimum. Both the
	// pre-login check and the full face verification apply this single constant.
	DistanceThreshold = 0.6
)

// Session constants
const (
	// SessionKeyPrefix namespaces gate fields inside the session store so
	// they cannot collide with unrelated session data.
	SessionKeyPrefix = "face_gate."

	// SessionKeyFaceVerified holds "true" once a face scan has been accepted.
	SessionKeyFaceVerified = SessionKeyPrefix + "face_verified"

	// SessionKeyVerifiedUserID holds the id of the matched admin user.
	SessionKeyVerifiedUserID = SessionKeyPrefix + "verified_user_id"

	// SessionKeyVerifiedEmail holds the email of the matched admin user.
	SessionKeyVerifiedEmail = SessionKeyPrefix + "verified_email"

	// SessionDuration is the lifetime of a gate session.
	SessionDuration = 24 * time.Hour

	// SessionCleanupInterval is how often expired gate sessions are purged.
	SessionCleanupInterval = 15 * time.Minute
)

// Gate redirect targets
const (
	// FaceCheckPath is where a browser is sent when a face scan is required.
	FaceCheckPath = "/admin/face-check"

	// LoginPath is the password login form, reachable once the gate is open.
	LoginPath = "/admin/login"
)
