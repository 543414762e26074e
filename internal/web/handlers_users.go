package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// warningsRequest is the body of PUT /api/users/{email}/warnings.
type warningsRequest struct {
	BeachIDs []int64 `json:"beachIds"`
}

// userProfileRequest is the body of PUT /api/admin/users/{email}. The email
// comes from the path.
type userProfileRequest struct {
	FirstName   string `json:"firstName"`
	Surname     string `json:"surname"`
	AccessLevel int    `json:"accessLevel"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.service.ListUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []core.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req core.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	user, err := s.service.CreateUser(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req userProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	user, err := s.service.UpdateUser(r.Context(), core.UserUpdate{
		Email:       chi.URLParam(r, "email"),
		FirstName:   req.FirstName,
		Surname:     req.Surname,
		AccessLevel: req.AccessLevel,
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteUser(r.Context(), chi.URLParam(r, "email")); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetWarnings lists the beaches a user receives warnings for.
func (s *Server) handleGetWarnings(w http.ResponseWriter, r *http.Request) {
	beaches, err := s.service.Warnings(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if beaches == nil {
		beaches = []core.Beach{}
	}
	writeJSON(w, http.StatusOK, beaches)
}

// handleSetWarnings replaces a user's warning subscriptions.
func (s *Server) handleSetWarnings(w http.ResponseWriter, r *http.Request) {
	var req warningsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	email := chi.URLParam(r, "email")
	if err := s.service.SetWarnings(r.Context(), email, req.BeachIDs); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	beaches, err := s.service.Warnings(r.Context(), email)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, beaches)
}
