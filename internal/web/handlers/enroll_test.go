package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-gate/internal/store"
	"github.com/kozaktomas/face-gate/internal/store/mock"
)

func newEnrollEnv(t *testing.T) (*EnrollHandler, *mock.MockUserStore) {
	t.Helper()
	users := mock.NewMockUserStore()
	return NewEnrollHandler(users), users
}

func TestEnrollList(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.AddUser(adminUser(1, "admin@example.com", uniformDescriptor(0.25)))
	users.AddUser(store.EnrolledUser{
		ID:         5,
		Email:      "coach@example.com",
		Roles:      []string{"ROLE_USER"},
		Descriptor: uniformDescriptor(0.5),
	})
	// A user without a descriptor is not enrolled and must not be listed.
	users.AddUser(store.EnrolledUser{ID: 9, Email: "bare@example.com"})

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/v1/users", nil))

	assertStatusCode(t, w, http.StatusOK)

	var resp ListResponse
	parseJSONResponse(t, w, &resp)
	if resp.Count != 2 {
		t.Fatalf("expected 2 enrolled users, got %d", resp.Count)
	}
	if resp.Users[0].ID != 1 || resp.Users[1].ID != 5 {
		t.Errorf("expected users ordered by id, got %+v", resp.Users)
	}
}

func TestEnrollList_StoreFailure(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.ListError = errListBroken

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest("GET", "/api/v1/users", nil))

	assertStatusCode(t, w, http.StatusInternalServerError)
}

func TestSetDescriptor(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.AddUser(store.EnrolledUser{ID: 3, Email: "new@example.com", Roles: []string{"ROLE_ADMIN"}})

	d := uniformDescriptor(0.75)
	req := jsonRequest(t, "PUT", "/api/v1/users/3/descriptor", SetDescriptorRequest{Descriptor: d})
	req = requestWithChiParams(req, map[string]string{"id": "3"})

	w := httptest.NewRecorder()
	handler.SetDescriptor(w, req)

	assertStatusCode(t, w, http.StatusOK)

	stored, err := users.GetByID(context.Background(), 3)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !stored.Enrolled() {
		t.Fatal("expected the user to be enrolled after SetDescriptor")
	}
	if len(stored.Descriptor) != len(d) {
		t.Errorf("expected %d components stored, got %d", len(d), len(stored.Descriptor))
	}
}

func TestSetDescriptor_Invalid(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.AddUser(store.EnrolledUser{ID: 3, Email: "new@example.com"})

	tests := []struct {
		name       string
		id         string
		body       any
		wantStatus int
	}{
		{"wrong dimension", "3", SetDescriptorRequest{Descriptor: []float32{1, 2, 3}}, http.StatusBadRequest},
		{"empty descriptor", "3", SetDescriptorRequest{}, http.StatusBadRequest},
		{"non-numeric id", "abc", SetDescriptorRequest{Descriptor: uniformDescriptor(0.1)}, http.StatusBadRequest},
		{"unknown user", "404", SetDescriptorRequest{Descriptor: uniformDescriptor(0.1)}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := jsonRequest(t, "PUT", "/api/v1/users/"+tt.id+"/descriptor", tt.body)
			req = requestWithChiParams(req, map[string]string{"id": tt.id})

			w := httptest.NewRecorder()
			handler.SetDescriptor(w, req)

			assertStatusCode(t, w, tt.wantStatus)
		})
	}
}

func TestSetDescriptor_StoreFailure(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.AddUser(store.EnrolledUser{ID: 3, Email: "new@example.com"})
	users.SetError = errListBroken

	req := jsonRequest(t, "PUT", "/api/v1/users/3/descriptor", SetDescriptorRequest{Descriptor: uniformDescriptor(0.1)})
	req = requestWithChiParams(req, map[string]string{"id": "3"})

	w := httptest.NewRecorder()
	handler.SetDescriptor(w, req)

	assertStatusCode(t, w, http.StatusInternalServerError)
}

func TestClearDescriptor(t *testing.T) {
	handler, users := newEnrollEnv(t)
	users.AddUser(adminUser(4, "gone@example.com", uniformDescriptor(0.25)))

	req := httptest.NewRequest("DELETE", "/api/v1/users/4/descriptor", nil)
	req = requestWithChiParams(req, map[string]string{"id": "4"})

	w := httptest.NewRecorder()
	handler.ClearDescriptor(w, req)

	assertStatusCode(t, w, http.StatusOK)

	stored, err := users.GetByID(context.Background(), 4)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.Enrolled() {
		t.Error("expected descriptor cleared")
	}
}

func TestClearDescriptor_UnknownUser(t *testing.T) {
	handler, _ := newEnrollEnv(t)

	req := httptest.NewRequest("DELETE", "/api/v1/users/99/descriptor", nil)
	req = requestWithChiParams(req, map[string]string{"id": "99"})

	w := httptest.NewRecorder()
	handler.ClearDescriptor(w, req)

	assertStatusCode(t, w, http.StatusNotFound)
}
