package gate

import (
	"testing"

	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

func enrolled(id int64, email string, roles []string, d descriptor.Descriptor) store.EnrolledUser {
	return store.EnrolledUser{
		ID:         id,
		Email:      email,
		Roles:      roles,
		Descriptor: d,
	}
}

func TestBestMatch_ExactMatch(t *testing.T) {
	d := descriptor.Descriptor{0.1, 0.2, 0.3, 0.4}
	candidates := []store.EnrolledUser{
		enrolled(1, "admin@example.com", []string{"ROLE_ADMIN"}, d),
	}

	match := BestMatch(d, candidates)
	if match == nil {
		t.Fatal("expected a match for an identical descriptor")
	}
	if match.User.ID != 1 {
		t.Errorf("expected user 1, got %d", match.User.ID)
	}
	if match.Distance != 0 {
		t.Errorf("expected distance 0, got %v", match.Distance)
	}
}

func TestBestMatch_FarProbe(t *testing.T) {
	// All components shifted by 10: distance is far above the threshold.
	stored := descriptor.Descriptor{0, 0, 0, 0}
	probe := descriptor.Descriptor{10, 10, 10, 10}
	candidates := []store.EnrolledUser{
		enrolled(1, "admin@example.com", []string{"ROLE_ADMIN"}, stored),
	}

	if match := BestMatch(probe, candidates); match != nil {
		t.Errorf("expected no match, got user %d at distance %v", match.User.ID, match.Distance)
	}
}

func TestBestMatch_ThresholdIsExclusive(t *testing.T) {
	// Distance exactly at the threshold must be rejected.
	stored := descriptor.Descriptor{0, 0}
	probe := descriptor.Descriptor{0.6, 0}
	candidates := []store.EnrolledUser{
		enrolled(1, "admin@example.com", []string{"ROLE_ADMIN"}, stored),
	}

	if match := BestMatch(probe, candidates); match != nil {
		t.Errorf("expected distance at threshold to be rejected, got %v", match.Distance)
	}
}

func TestBestMatch_PicksMinimum(t *testing.T) {
	probe := descriptor.Descriptor{0, 0}
	candidates := []store.EnrolledUser{
		enrolled(1, "far@example.com", nil, descriptor.Descriptor{0.5, 0}),
		enrolled(2, "near@example.com", nil, descriptor.Descriptor{0.1, 0}),
		enrolled(3, "also-far@example.com", nil, descriptor.Descriptor{0.4, 0}),
	}

	match := BestMatch(probe, candidates)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.User.ID != 2 {
		t.Errorf("expected the nearest user (2), got %d", match.User.ID)
	}
}

func TestBestMatch_FirstEncounteredMinimumWins(t *testing.T) {
	probe := descriptor.Descriptor{0, 0}
	// Two candidates at the same distance; iteration order decides.
	candidates := []store.EnrolledUser{
		enrolled(7, "first@example.com", nil, descriptor.Descriptor{0.2, 0}),
		enrolled(8, "second@example.com", nil, descriptor.Descriptor{0, 0.2}),
	}

	match := BestMatch(probe, candidates)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.User.ID != 7 {
		t.Errorf("expected first encountered minimum (7), got %d", match.User.ID)
	}
}

func TestBestMatch_DimensionMismatchNeverSelected(t *testing.T) {
	probe := descriptor.Descriptor{0, 0}
	candidates := []store.EnrolledUser{
		// Numerically "identical" but with an extra component: never selected.
		enrolled(1, "mismatch@example.com", nil, descriptor.Descriptor{0, 0, 0}),
		enrolled(2, "close@example.com", nil, descriptor.Descriptor{0.3, 0}),
	}

	match := BestMatch(probe, candidates)
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.User.ID != 2 {
		t.Errorf("expected the dimension-matched candidate (2), got %d", match.User.ID)
	}
}

func TestBestMatch_OnlyMismatchedCandidates(t *testing.T) {
	probe := descriptor.Descriptor{0, 0}
	candidates := []store.EnrolledUser{
		enrolled(1, "mismatch@example.com", nil, descriptor.Descriptor{0, 0, 0}),
	}

	if match := BestMatch(probe, candidates); match != nil {
		t.Errorf("expected no match when every candidate mismatches, got %+v", match)
	}
}

func TestBestMatch_NoCandidates(t *testing.T) {
	if match := BestMatch(descriptor.Descriptor{1, 2}, nil); match != nil {
		t.Errorf("expected no match for empty candidate set, got %+v", match)
	}
}

func TestNearest_IgnoresThreshold(t *testing.T) {
	probe := descriptor.Descriptor{0, 0}
	candidates := []store.EnrolledUser{
		enrolled(1, "far@example.com", nil, descriptor.Descriptor{5, 0}),
	}

	match := Nearest(probe, candidates)
	if match == nil {
		t.Fatal("expected Nearest to return the minimum regardless of threshold")
	}
	if match.Distance != 5 {
		t.Errorf("expected distance 5, got %v", match.Distance)
	}
}
