package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/gate"
	"github.com/kozaktomas/face-gate/internal/store"
	"github.com/kozaktomas/face-gate/internal/store/mock"
	"github.com/kozaktomas/face-gate/internal/web/middleware"
)

// testAdminRoles are the privileged roles used across handler tests.
var testAdminRoles = []string{"ROLE_ADMIN", "ROLE_SUPER_ADMIN"}

// errListBroken simulates an unreachable user store.
var errListBroken = errors.New("store unavailable")

// gateEnv bundles a gate handler with its backing mock store and sessions.
type gateEnv struct {
	handler  *GateHandler
	users    *mock.MockUserStore
	sessions *middleware.SessionManager
}

// newGateEnv creates a gate handler over an empty mock store.
func newGateEnv(t *testing.T) *gateEnv {
	t.Helper()
	users := mock.NewMockUserStore()
	sm := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	return &gateEnv{
		handler:  NewGateHandler(gate.New(users, testAdminRoles), sm),
		users:    users,
		sessions: sm,
	}
}

// uniformDescriptor builds a full-dimension descriptor with every component
// set to value.
func uniformDescriptor(value float32) descriptor.Descriptor {
	d := make(descriptor.Descriptor, constants.DescriptorDim)
	for i := range d {
		d[i] = value
	}
	return d
}

// adminUser returns an enrolled admin test user.
func adminUser(id int64, email string, d descriptor.Descriptor) store.EnrolledUser {
	return store.EnrolledUser{
		ID:          id,
		Email:       email,
		DisplayName: "Admin " + email,
		Roles:       []string{"ROLE_ADMIN"},
		Descriptor:  d,
	}
}

// jsonRequest creates a request with a JSON-encoded body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// copyCookies carries session cookies from a previous response onto a request.
func copyCookies(r *http.Request, from *httptest.ResponseRecorder) {
	for _, c := range from.Result().Cookies() {
		r.AddCookie(c)
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
