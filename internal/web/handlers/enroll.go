package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/store"
)

// EnrollHandler manages face descriptor enrollment. All routes are mounted
// behind the face-verified middleware.
type EnrollHandler struct {
	users store.UserWriter
}

// NewEnrollHandler creates an enrollment handler.
func NewEnrollHandler(users store.UserWriter) *EnrollHandler {
	return &EnrollHandler{users: users}
}

// EnrolledUserInfo is the public projection of an enrolled user.
type EnrolledUserInfo struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"displayName"`
	Roles       []string `json:"roles"`
}

// ListResponse lists all currently enrolled users.
type ListResponse struct {
	Users []EnrolledUserInfo `json:"users"`
	Count int                `json:"count"`
}

// SetDescriptorRequest carries the descriptor to enroll.
type SetDescriptorRequest struct {
	Descriptor []float32 `json:"descriptor"`
}

// List returns all users with an enrolled face.
func (h *EnrollHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListEnrolled(r.Context())
	if err != nil {
		log.Printf("listing enrolled users: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list enrolled users")
		return
	}

	resp := ListResponse{Users: make([]EnrolledUserInfo, 0, len(users))}
	for i := range users {
		resp.Users = append(resp.Users, EnrolledUserInfo{
			ID:          users[i].ID,
			Email:       users[i].Email,
			DisplayName: users[i].DisplayName,
			Roles:       users[i].Roles,
		})
	}
	resp.Count = len(resp.Users)
	respondJSON(w, http.StatusOK, resp)
}

// SetDescriptor enrolls or replaces a user's face descriptor.
func (h *EnrollHandler) SetDescriptor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var req SetDescriptorRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	d := descriptor.Descriptor(req.Descriptor)
	if !d.ValidDim() {
		respondError(w, http.StatusBadRequest,
			"descriptor must have "+strconv.Itoa(constants.DescriptorDim)+" components")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("looking up user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.users.SetDescriptor(r.Context(), userID, d); err != nil {
		log.Printf("enrolling user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to store descriptor")
		return
	}

	log.Printf("face gate: enrolled descriptor for user id=%d", userID)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "id": userID})
}

// ClearDescriptor removes a user's face enrollment.
func (h *EnrollHandler) ClearDescriptor(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("looking up user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to look up user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := h.users.ClearDescriptor(r.Context(), userID); err != nil {
		log.Printf("unenrolling user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "failed to clear descriptor")
		return
	}

	log.Printf("face gate: cleared descriptor for user id=%d", userID)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "id": userID})
}

func (h *EnrollHandler) userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return userID, true
}
