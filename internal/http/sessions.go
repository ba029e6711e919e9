package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/auth"
	"thesisreg/internal/model"
)

const activeSessionsCacheKey = "sessions:active"

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list sessions")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// handleListActiveSessions serves the landing-page query, so the result is
// cached briefly in redis when it is configured. A cache miss or a redis
// outage falls through to the database.
func (s *Server) handleListActiveSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, activeSessionsCacheKey).Bytes()
		if err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(cached)
			return
		}
	}

	sessions, err := s.store.ListActiveSessions(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("list active sessions")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	payload, err := json.Marshal(sessions)
	if err != nil {
		s.log.Error().Err(err).Msg("list active sessions: encode")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if s.redis != nil {
		if err := s.redis.Set(ctx, activeSessionsCacheKey, payload, s.cfg.SessionCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("active sessions cache write failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) invalidateActiveSessions(r *http.Request) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(r.Context(), activeSessionsCacheKey).Err(); err != nil {
		s.log.Warn().Err(err).Msg("active sessions cache invalidation failed")
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration session not found")
			return
		}
		s.log.Error().Err(err).Msg("get session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type sessionRequest struct {
	ProfessorID int64     `json:"professorId"`
	MaxStudents int       `json:"maxStudents"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := authorizeOwnerID(claims, req.ProfessorID, "You can only create sessions for yourself."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		writeError(w, http.StatusBadRequest, "End date must be after start date")
		return
	}

	exists, err := s.store.ProfessorExists(r.Context(), req.ProfessorID)
	if err != nil {
		s.log.Error().Err(err).Msg("create session: professor check")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !exists {
		writeError(w, http.StatusBadRequest, "Professor not found")
		return
	}

	session := model.RegistrationSession{
		ProfessorID: req.ProfessorID,
		MaxStudents: req.MaxStudents,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if session.MaxStudents <= 0 {
		session.MaxStudents = 5
	}
	if err := s.store.CreateSession(r.Context(), &session); err != nil {
		s.log.Error().Err(err).Msg("create session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidateActiveSessions(r)
	writeJSON(w, http.StatusCreated, session)
}

type updateSessionRequest struct {
	MaxStudents int       `json:"maxStudents"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	sessionID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	var req updateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration session not found")
			return
		}
		s.log.Error().Err(err).Msg("update session: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := authorizeOwnerID(claims, session.ProfessorID, "You are not authorized to modify this session."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if !req.EndDate.After(req.StartDate) {
		writeError(w, http.StatusBadRequest, "End date must be after start date")
		return
	}

	session.StartDate = req.StartDate
	session.EndDate = req.EndDate
	if req.MaxStudents > 0 && req.MaxStudents != session.MaxStudents {
		allowed, err := s.canAdjustCapacity(r, claims, session.ProfessorID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if !allowed {
			writeError(w, http.StatusForbidden, "Only an admin or the head of department can change the student capacity.")
			return
		}
		session.MaxStudents = req.MaxStudents
	}

	if _, err := s.store.UpdateSession(r.Context(), session); err != nil {
		s.log.Error().Err(err).Msg("update session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidateActiveSessions(r)
	w.WriteHeader(http.StatusNoContent)
}

// canAdjustCapacity reports whether the caller may change a session's
// MaxStudents: admins always, professors only when they head their own
// department.
func (s *Server) canAdjustCapacity(r *http.Request, claims *auth.Claims, professorID int64) (bool, error) {
	if claims.Role == auth.RoleAdmin {
		return true, nil
	}

	professor, err := s.store.GetProfessor(r.Context(), professorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		s.log.Error().Err(err).Msg("session capacity: load professor")
		return false, err
	}
	if professor.Department == nil || professor.Department.HeadOfDeptID == nil {
		return false, nil
	}
	return *professor.Department.HeadOfDeptID == professorID, nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	sessionID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration session not found")
			return
		}
		s.log.Error().Err(err).Msg("delete session: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := authorizeOwnerID(claims, session.ProfessorID, "You are not authorized to delete this session."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	if _, err := s.store.DeleteSession(r.Context(), sessionID); err != nil {
		s.log.Error().Err(err).Msg("delete session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidateActiveSessions(r)
	w.WriteHeader(http.StatusNoContent)
}
