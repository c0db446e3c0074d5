package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-gate/internal/constants"
	"github.com/kozaktomas/face-gate/internal/descriptor"
	"github.com/kozaktomas/face-gate/internal/gate"
	"github.com/kozaktomas/face-gate/internal/web/middleware"
)

// GateHandler serves the face verification flow: the pre-login check, the
// descriptor submission and the session status/reset endpoints.
type GateHandler struct {
	gate     *gate.Gate
	sessions *middleware.SessionManager
}

// NewGateHandler creates a gate handler.
func NewGateHandler(g *gate.Gate, sm *middleware.SessionManager) *GateHandler {
	return &GateHandler{gate: g, sessions: sm}
}

// PreCheckRequest identifies the account about to log in.
type PreCheckRequest struct {
	Email string `json:"email"`
}

// PreCheckResponse tells the login page whether to detour via the face scan.
type PreCheckResponse struct {
	RequiresFace bool   `json:"requiresFace"`
	Redirect     string `json:"redirect,omitempty"`
}

// VerifyRequest carries the probe descriptor as a raw JSON array so that the
// same parser handles both the JSON body and the form field variant.
type VerifyRequest struct {
	Descriptor jsonRaw `json:"descriptor"`
}

type jsonRaw []byte

func (r *jsonRaw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// VerifyResponse is the uniform shape for all verification outcomes.
type VerifyResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// StatusResponse reports the session's gate state.
type StatusResponse struct {
	State  string `json:"state"`
	Usable bool   `json:"usable"`
	Email  string `json:"email,omitempty"`
}

// PreCheck decides, before a password is typed, whether the account needs a
// face scan this session. Accounts without an enrolled face always fall
// through to the classic login.
func (h *GateHandler) PreCheck(w http.ResponseWriter, r *http.Request) {
	var req PreCheckRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	session, err := h.sessions.GetOrCreateSession(w, r)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "session unavailable")
		return
	}

	required, err := h.gate.RequiresFace(r.Context(), session, req.Email)
	if err != nil {
		log.Printf("gate pre-check for %s: %v", sanitizeForLog(req.Email), err)
		respondError(w, http.StatusInternalServerError, "pre-check failed")
		return
	}

	resp := PreCheckResponse{RequiresFace: required}
	if required {
		h.gate.Begin(session)
		if err := h.sessions.PersistSession(r.Context(), session); err != nil {
			log.Printf("persisting session %s: %v", session.ID, err)
		}
		resp.Redirect = constants.FaceCheckPath
	}
	respondJSON(w, http.StatusOK, resp)
}

// Verify runs the submitted descriptor through the matcher and, on an
// authorized match, marks the session face-verified. All gate outcomes map
// to fixed status codes with deliberately generic messages.
func (h *GateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	probe, ok := h.parseProbe(r)
	if !ok {
		respondJSON(w, http.StatusBadRequest, VerifyResponse{
			Success: false,
			Message: "invalid face descriptor",
		})
		return
	}

	session, err := h.sessions.GetOrCreateSession(w, r)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, VerifyResponse{
			Success: false,
			Message: "verification failed",
		})
		return
	}

	if _, err := h.gate.Verify(r.Context(), session, probe); err != nil {
		status, message := verifyFailure(err)
		if status == http.StatusInternalServerError {
			log.Printf("gate verify: %v", err)
		}
		respondJSON(w, status, VerifyResponse{Success: false, Message: message})
		return
	}

	if err := h.sessions.PersistSession(r.Context(), session); err != nil {
		// The in-memory session is already verified; losing durability on a
		// restart is preferable to failing the login.
		log.Printf("persisting session %s: %v", session.ID, err)
	}

	respondJSON(w, http.StatusOK, VerifyResponse{
		Success:  true,
		Message:  "face verified",
		Redirect: constants.LoginPath,
	})
}

// Status reports the session's gate state and whether the gate is usable at
// all (at least one admin face enrolled).
func (h *GateHandler) Status(w http.ResponseWriter, r *http.Request) {
	usable, err := h.gate.Usable(r.Context())
	if err != nil {
		log.Printf("gate status: %v", err)
		respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}

	resp := StatusResponse{State: string(gate.StateAnonymous), Usable: usable}
	if session := h.sessions.GetSessionFromRequest(r); session != nil {
		resp.State = string(h.gate.StateOf(r.Context(), session))
		if v := h.gate.CurrentVerified(r.Context(), session); v != nil {
			resp.Email = v.Email
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Reset drops the session's face verification, returning it to anonymous.
func (h *GateHandler) Reset(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetSessionFromRequest(r)
	if session != nil {
		h.gate.Reset(session)
		if err := h.sessions.PersistSession(r.Context(), session); err != nil {
			log.Printf("persisting session %s: %v", session.ID, err)
		}
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseProbe extracts the probe descriptor from either a JSON body or a
// classic form submission with a JSON-encoded "descriptor" field.
func (h *GateHandler) parseProbe(r *http.Request) (descriptor.Descriptor, bool) {
	var raw []byte

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var req VerifyRequest
		if err := decodeJSONBody(r, &req); err != nil {
			return nil, false
		}
		raw = req.Descriptor
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, false
		}
		raw = []byte(r.PostFormValue("descriptor"))
	}

	if len(raw) == 0 {
		return nil, false
	}
	probe, err := descriptor.ParseJSON(raw)
	if err != nil {
		return nil, false
	}
	return probe, true
}

// verifyFailure maps a gate error onto the fixed HTTP contract.
func verifyFailure(err error) (int, string) {
	switch {
	case errors.Is(err, gate.ErrInvalidDescriptor):
		return http.StatusBadRequest, "invalid face descriptor"
	case errors.Is(err, gate.ErrNoEnrollment):
		return http.StatusNotFound, "no faces enrolled"
	case errors.Is(err, gate.ErrNoMatch):
		return http.StatusUnauthorized, "face not recognized"
	case errors.Is(err, gate.ErrNotAuthorized):
		return http.StatusForbidden, "access denied"
	default:
		return http.StatusInternalServerError, "verification failed"
	}
}
