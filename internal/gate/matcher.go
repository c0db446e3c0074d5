// Package gate implements the face match gate: the nearest-neighbor matcher
// over enrolled descriptors and the session-backed login-gate state machine
// that admits admins to the password login form.
package gate

import (
	"math"

	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

// Match is the result of a successful nearest-neighbor scan.
type Match struct {
	User     store.EnrolledUser
	Distance float64
}

// Nearest scans all candidates and returns the one with the minimum
// Euclidean distance to the probe, regardless of threshold. The scan never
// exits early; ties resolve to the first encountered minimum, so iteration
// order decides. Candidates whose descriptor length differs from the probe
// have infinite distance and are never selected. Returns nil when no
// candidate has a finite distance.
//
// The function is pure: it reads its inputs and touches no shared state, so
// concurrent calls are safe.
func Nearest(probe descriptor.Descriptor, candidates []store.EnrolledUser) *Match {
	var best *Match
	for i := range candidates {
		d := descriptor.EuclideanDistance(probe, candidates[i].Descriptor)
		if best == nil || d < best.Distance {
			best = &Match{User: candidates[i], Distance: d}
		}
	}
	if best == nil || math.IsInf(best.Distance, 1) {
		return nil
	}
	return best
}

// BestMatch returns the nearest candidate only when its distance is strictly
// below the acceptance threshold; otherwise nil.
func BestMatch(probe descriptor.Descriptor, candidates []store.EnrolledUser) *Match {
	best := Nearest(probe, candidates)
	if best == nil || best.Distance >= constants.DistanceThreshold {
		return nil
	}
	return best
}
