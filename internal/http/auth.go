package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/auth"
	"thesisreg/internal/crypto"
	"thesisreg/internal/model"
	"thesisreg/internal/repository"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) issueToken(user model.User) (string, error) {
	return auth.NewAccessToken(
		s.cfg.JWTSecret,
		s.cfg.JWTIssuer,
		s.cfg.JWTAudience,
		s.cfg.TokenTTL,
		user.ID,
		user.Email,
		user.Role,
	)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same message as a wrong password so the response does not
			// reveal whether the account exists.
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.log.Error().Err(err).Msg("login: load user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.log.Error().Err(err).Msg("login: sign token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email, username and password are required")
		return
	}

	// Advisory pre-checks give precise messages; the unique constraints
	// below are what actually close the concurrent-registration window.
	if taken, err := s.store.EmailExists(r.Context(), req.Email); err != nil {
		s.log.Error().Err(err).Msg("register: email check")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	} else if taken {
		writeError(w, http.StatusBadRequest, "Email already in use")
		return
	}
	if taken, err := s.store.UsernameExists(r.Context(), req.Username); err != nil {
		s.log.Error().Err(err).Msg("register: username check")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	} else if taken {
		writeError(w, http.StatusBadRequest, "Username already in use")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("register: hash password")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         auth.AssignRole(req.Email),
	}
	if err := s.store.CreateUserWithProfile(r.Context(), &user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "Email already in use")
		case errors.Is(err, repository.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, "Username already in use")
		default:
			s.log.Error().Err(err).Msg("register: create user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.log.Error().Err(err).Msg("register: sign token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("user registered")
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User registered successfully",
		"token":   token,
	})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Google login is not configured")
		return
	}

	var req googleLoginRequest
	if err := decodeJSON(r, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := s.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid Google token: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))

	user, err := s.store.GetUserByEmail(r.Context(), email)
	switch {
	case err == nil:
		// Existing account keeps its current role.
	case errors.Is(err, pgx.ErrNoRows):
		user, err = s.provisionGoogleUser(r, email, profile.Name)
		if err != nil {
			s.log.Error().Err(err).Str("email", email).Msg("google-login: provision user")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	default:
		s.log.Error().Err(err).Msg("google-login: load user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		s.log.Error().Err(err).Msg("google-login: sign token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// provisionGoogleUser creates a federated account with no local password.
// An empty hash never verifies, so the account cannot be entered through
// the password login path.
func (s *Server) provisionGoogleUser(r *http.Request, email, name string) (model.User, error) {
	username := strings.TrimSpace(name)
	if username == "" {
		username = email
	}

	user := model.User{
		Username: username,
		Email:    email,
		Role:     auth.AssignRole(email),
	}
	err := s.store.CreateUserWithProfile(r.Context(), &user)
	if errors.Is(err, repository.ErrDuplicateUsername) && username != email {
		// Display names collide; the email is unique by construction.
		user.Username = email
		err = s.store.CreateUserWithProfile(r.Context(), &user)
	}
	if err != nil {
		return model.User{}, err
	}
	s.log.Info().Str("email", email).Str("role", string(user.Role)).Msg("google user provisioned")
	return user, nil
}
