package gate

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

// State of the login gate for a single browser session. The terminal
// AUTHENTICATED state is owned by the platform's password authenticator and
// never appears here.
type State string

const (
	StateAnonymous    State = "anonymous"
	StateFacePending  State = "face_pending"
	StateFaceVerified State = "face_verified"
)

// SessionStore is the minimal view of a server-side session the gate needs.
// Passing it explicitly (instead of reading ambient request state) keeps the
// state machine testable without an HTTP session.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Verified describes the user a session has been face-verified for.
type Verified struct {
	UserID int64
	Email  string
}

// Gate drives a session through the face verification flow.
type Gate struct {
	users  store.UserReader
	admins RoleSet
}

// New creates a gate over the given user store. adminRoles lists the role
// names considered privileged enough to pass.
func New(users store.UserReader, adminRoles []string) *Gate {
	return &Gate{
		users:  users,
		admins: NewRoleSet(adminRoles...),
	}
}

// Verify runs a probe descriptor against all enrolled users and, on an
// admin match, marks the session face-verified. Applying the same match
// twice is a no-op; the last write wins for concurrent submissions. On
// ErrNotAuthorized the session is left untouched so a non-admin face can
// never unlock the gate.
func (g *Gate) Verify(ctx context.Context, sess SessionStore, probe descriptor.Descriptor) (*Match, error) {
	if len(probe) == 0 {
		return nil, ErrInvalidDescriptor
	}

	candidates, err := g.users.ListEnrolled(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enrolled users: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNoEnrollment
	}

	match := BestMatch(probe, candidates)
	if match == nil {
		return nil, ErrNoMatch
	}

	if !g.admins.IsAdminLike(match.User.Roles) {
		// Recognized but not privileged. Log for audit, do not advance state.
		log.Printf("face gate: recognized non-admin user id=%d, access denied", match.User.ID)
		return nil, ErrNotAuthorized
	}

	g.markVerified(sess, match.User)
	return match, nil
}

// RequiresFace decides, before a password is typed, whether the account
// identified by email needs a face scan this session. Accounts without a
// descriptor fail open to the classic login. A session already verified for
// this exact user skips the scan.
func (g *Gate) RequiresFace(ctx context.Context, sess SessionStore, email string) (bool, error) {
	user, err := g.users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil || !user.Enrolled() {
		return false, nil
	}

	if v := g.CurrentVerified(ctx, sess); v != nil && v.UserID == user.ID {
		return false, nil
	}
	return true, nil
}

// CurrentVerified returns the user this session is face-verified for, or nil.
// The stored user id is a weak reference: the user is re-validated against
// the store (existence and admin role) on every read, and the session is
// reset when the reference has gone stale.
func (g *Gate) CurrentVerified(ctx context.Context, sess SessionStore) *Verified {
	flag, ok := sess.Get(constants.SessionKeyFaceVerified)
	if !ok || flag != "true" {
		return nil
	}

	raw, ok := sess.Get(constants.SessionKeyVerifiedUserID)
	if !ok {
		return nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		g.Reset(sess)
		return nil
	}

	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		// Store failure: report unverified without destroying session state,
		// the next read may succeed.
		return nil
	}
	if user == nil || !g.admins.IsAdminLike(user.Roles) {
		g.Reset(sess)
		return nil
	}

	email, _ := sess.Get(constants.SessionKeyVerifiedEmail)
	return &Verified{UserID: userID, Email: email}
}

// StateOf reports the session's position in the gate flow.
func (g *Gate) StateOf(ctx context.Context, sess SessionStore) State {
	if g.CurrentVerified(ctx, sess) != nil {
		return StateFaceVerified
	}
	if _, ok := sess.Get(constants.SessionKeyFaceVerified); ok {
		return StateFacePending
	}
	return StateAnonymous
}

// Begin moves an anonymous session into the pending state. It is called when
// the gate entry point is first visited and face verification is usable.
func (g *Gate) Begin(sess SessionStore) {
	if _, ok := sess.Get(constants.SessionKeyFaceVerified); !ok {
		sess.Set(constants.SessionKeyFaceVerified, "false")
	}
}

// Usable reports whether face verification can gate anything at all, i.e.
// at least one admin-role user has a descriptor enrolled. When it cannot,
// the flow falls open to the classic password login.
func (g *Gate) Usable(ctx context.Context) (bool, error) {
	users, err := g.users.ListEnrolled(ctx)
	if err != nil {
		return false, fmt.Errorf("listing enrolled users: %w", err)
	}
	for i := range users {
		if g.admins.IsAdminLike(users[i].Roles) {
			return true, nil
		}
	}
	return false, nil
}

// Reset drops all gate state from the session, returning it to anonymous.
func (g *Gate) Reset(sess SessionStore) {
	sess.Delete(constants.SessionKeyFaceVerified)
	sess.Delete(constants.SessionKeyVerifiedUserID)
	sess.Delete(constants.SessionKeyVerifiedEmail)
}

func (g *Gate) markVerified(sess SessionStore, user store.EnrolledUser) {
	sess.Set(constants.SessionKeyFaceVerified, "true")
	sess.Set(constants.SessionKeyVerifiedUserID, strconv.FormatInt(user.ID, 10))
	sess.Set(constants.SessionKeyVerifiedEmail, user.Email)
}
