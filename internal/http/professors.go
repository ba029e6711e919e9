package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
	"thesisreg/internal/repository"
)

func (s *Server) handleListProfessors(w http.ResponseWriter, r *http.Request) {
	professors, err := s.store.ListProfessors(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list professors")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, professors)
}

func (s *Server) handleGetProfessor(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}

	professor, err := s.store.GetProfessor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Professor not found")
			return
		}
		s.log.Error().Err(err).Msg("get professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, professor)
}

func (s *Server) handleListProfessorsByDepartment(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "departmentName")

	professors, err := s.store.ListProfessorsByDepartment(r.Context(), department)
	if err != nil {
		s.log.Error().Err(err).Msg("list professors by department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(professors) == 0 {
		writeError(w, http.StatusNotFound, "No professors found in department "+department)
		return
	}
	writeJSON(w, http.StatusOK, professors)
}

func (s *Server) handleGetProfessorDepartment(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}

	professor, err := s.store.GetProfessor(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Professor not found")
			return
		}
		s.log.Error().Err(err).Msg("get professor department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if professor.Department == nil {
		writeError(w, http.StatusNotFound, "Professor has no department")
		return
	}
	writeJSON(w, http.StatusOK, professor.Department)
}

func (s *Server) handleGetProfessorSessions(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}

	sessions, err := s.store.ListSessionsByProfessor(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("list professor sessions")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(sessions) == 0 {
		writeError(w, http.StatusNotFound, "No registration sessions found for this professor")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

type createProfessorRequest struct {
	UserID       int64  `json:"userId"`
	DepartmentID *int64 `json:"departmentId"`
}

func (s *Server) handleCreateProfessor(w http.ResponseWriter, r *http.Request) {
	var req createProfessorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.store.GetUserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "User not found")
			return
		}
		s.log.Error().Err(err).Msg("create professor: load user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if req.DepartmentID != nil {
		if _, err := s.store.GetDepartment(r.Context(), *req.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "Department not found")
				return
			}
			s.log.Error().Err(err).Msg("create professor: load department")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	professor := model.Professor{
		UserID:       req.UserID,
		DepartmentID: req.DepartmentID,
	}
	if err := s.store.CreateProfessor(r.Context(), professor); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "Professor already exists")
			return
		}
		s.log.Error().Err(err).Msg("create professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, professor)
}

type updateProfessorRequest struct {
	DepartmentID *int64 `json:"departmentId"`
}

func (s *Server) handleUpdateProfessor(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You are not authorized to modify this professor."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	s.updateProfessorProfile(w, r, userID)
}

func (s *Server) handleAdminUpdateProfessor(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}
	s.updateProfessorProfile(w, r, userID)
}

func (s *Server) updateProfessorProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	var req updateProfessorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DepartmentID != nil {
		if _, err := s.store.GetDepartment(r.Context(), *req.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "Department not found")
				return
			}
			s.log.Error().Err(err).Msg("update professor: load department")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	updated, err := s.store.UpdateProfessor(r.Context(), userID, req.DepartmentID)
	if err != nil {
		s.log.Error().Err(err).Msg("update professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Professor not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProfessor(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You are not authorized to delete this professor."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	deleted, err := s.store.DeleteProfessor(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Professor not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
