package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-gate/internal/constants"
)

const sessionCookieName = "face_gate_session"

// Session represents a gate session for a single browser. Values holds the
// namespaced gate fields; the struct satisfies gate.SessionStore.
type Session struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu     sync.RWMutex
	values map[string]string
}

// Get returns a session value.
func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a session value. Last write wins for concurrent submissions.
func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a session value.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// StoredSession is the persisted projection of a session: the three gate
// scalars plus lifecycle timestamps.
type StoredSession struct {
	ID             string
	FaceVerified   bool
	VerifiedUserID int64 // 0 when unset
	VerifiedEmail  string
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// SessionRepository persists sessions across restarts. Implementations live
// in the postgres package; a nil repository keeps sessions in memory only.
type SessionRepository interface {
	Save(ctx context.Context, s *StoredSession) error
	Get(ctx context.Context, sessionID string) (*StoredSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// toStored projects the session's gate fields for persistence.
func (s *Session) toStored() *StoredSession {
	stored := &StoredSession{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
	if v, ok := s.Get(constants.SessionKeyFaceVerified); ok && v == "true" {
		stored.FaceVerified = true
	}
	if v, ok := s.Get(constants.SessionKeyVerifiedUserID); ok {
		// Stored as decimal text in the session; junk persists as unset.
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			stored.VerifiedUserID = id
		}
	}
	if v, ok := s.Get(constants.SessionKeyVerifiedEmail); ok {
		stored.VerifiedEmail = v
	}
	return stored
}

// sessionFromStored rebuilds an in-memory session from its persisted form.
func sessionFromStored(stored *StoredSession) *Session {
	s := &Session{
		ID:        stored.ID,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
		values:    make(map[string]string),
	}
	if stored.FaceVerified {
		s.values[constants.SessionKeyFaceVerified] = "true"
	}
	if stored.VerifiedUserID != 0 {
		s.values[constants.SessionKeyVerifiedUserID] = strconv.FormatInt(stored.VerifiedUserID, 10)
	}
	if stored.VerifiedEmail != "" {
		s.values[constants.SessionKeyVerifiedEmail] = stored.VerifiedEmail
	}
	return s
}

// SessionManager handles session creation, validation and persistence
type SessionManager struct {
	secret   []byte
	repo     SessionRepository
	sessions map[string]*Session
	mu       sync.RWMutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSessionManager creates a new session manager with optional persistence.
// Pass a nil repository to keep sessions in memory only.
func NewSessionManager(secret string, repo SessionRepository) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "face-gate-dev-secret-change-in-production"
	}

	sm := &SessionManager{
		secret:   []byte(secret),
		repo:     repo,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	go sm.cleanupLoop()
	return sm
}

// Stop terminates the session cleanup goroutine.
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(constants.SessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			sm.purgeExpired()
		}
	}
}

func (sm *SessionManager) purgeExpired() {
	now := time.Now()

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	if sm.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if n, err := sm.repo.DeleteExpired(ctx); err != nil {
			log.Printf("session cleanup: %v", err)
		} else if n > 0 {
			log.Printf("session cleanup: removed %d expired sessions", n)
		}
	}
}

// CreateSession creates a new empty session
func (sm *SessionManager) CreateSession() (*Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(constants.SessionDuration),
		values:    make(map[string]string),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by ID, restoring it from the repository
// when it is not in memory (e.g., after a restart).
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if ok {
		if time.Now().After(session.ExpiresAt) {
			go sm.DeleteSession(sessionID)
			return nil
		}
		return session
	}

	if sm.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stored, err := sm.repo.Get(ctx, sessionID)
	if err != nil {
		log.Printf("session restore: %v", err)
		return nil
	}
	if stored == nil {
		return nil
	}

	session = sessionFromStored(stored)
	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()
	return session
}

// PersistSession writes the session's gate fields to the repository.
// Handlers call this after every gate state change.
func (sm *SessionManager) PersistSession(ctx context.Context, session *Session) error {
	if sm.repo == nil {
		return nil
	}
	return sm.repo.Save(ctx, session.toStored())
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sm.repo.Delete(ctx, sessionID); err != nil {
			log.Printf("session delete: %v", err)
		}
	}
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, r *http.Request, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(constants.SessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	parts := strings.SplitN(cookie.Value, ".", 2)
	if len(parts) != 2 {
		return nil
	}
	sessionID, signature := parts[0], parts[1]
	if !sm.verifySignature(sessionID, signature) {
		return nil
	}
	return sm.GetSession(sessionID)
}

// GetOrCreateSession returns the request's session, creating one and setting
// the cookie when the browser has none yet.
func (sm *SessionManager) GetOrCreateSession(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if session := sm.GetSessionFromRequest(r); session != nil {
		return session, nil
	}

	session, err := sm.CreateSession()
	if err != nil {
		return nil, err
	}
	sm.SetSessionCookie(w, r, session)
	return session, nil
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
