package handlers

import (
	"net/http"

	"github.com/avasquez/catador/internal/auth"
	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/services"
)

var knownRoles = map[models.Role]bool{
	models.RoleAdmin:       true,
	models.RoleDirector:    true,
	models.RoleJudge:       true,
	models.RoleParticipant: true,
	models.RoleEvaluator:   true,
}

// actorFrom returns the actor the auth middleware placed in the context
func actorFrom(r *http.Request) services.Actor {
	actor, _ := auth.ActorFromContext(r.Context())
	return actor
}

// handleLogin opens a session for the given identity
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	role := models.Role(req.Role)
	if !knownRoles[role] {
		respondError(w, BadRequest("Unknown role: "+req.Role))
		return
	}
	if req.UserID <= 0 {
		respondError(w, BadRequest("Invalid user id"))
		return
	}

	token, ok := h.Auth.Login(req.Password, services.Actor{ID: req.UserID, Role: role})
	if !ok {
		respondError(w, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, LoginResponse{UserID: req.UserID, Role: req.Role})
}

// handleLogout invalidates the current session
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		h.Auth.Logout(cookie.Value)
	}
	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

// handleMe reports the identity bound to the current session
func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	respondOK(w, LoginResponse{UserID: actor.ID, Role: string(actor.Role)})
}
