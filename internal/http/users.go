package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/auth"
	"thesisreg/internal/crypto"
	"thesisreg/internal/repository"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list users")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := s.store.GetUserWithProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.log.Error().Err(err).Msg("get user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You can only update your own account"); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	existing, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		s.log.Error().Err(err).Msg("update user: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Self-service updates re-verify the current password; admins skip it.
	if claims.Role != auth.RoleAdmin {
		if err := crypto.CheckPassword(existing.PasswordHash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
	}

	var update repository.UserUpdate
	if username := strings.TrimSpace(req.Username); username != "" {
		update.Username = &username
	}
	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" {
		update.Email = &email
	}
	if req.NewPassword != "" {
		hash, err := crypto.HashPassword(req.NewPassword)
		if err != nil {
			s.log.Error().Err(err).Msg("update user: hash password")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		update.PasswordHash = &hash
	}

	if _, err := s.store.UpdateUser(r.Context(), userID, update); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, repository.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "Username already in use")
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			s.log.Error().Err(err).Msg("update user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You can only delete your own account"); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	deleted, err := s.store.DeleteUser(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
