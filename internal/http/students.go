package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
	"thesisreg/internal/repository"
)

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.store.ListStudents(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list students")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	student, err := s.store.GetStudent(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		s.log.Error().Err(err).Msg("get student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleGetStudentByNumber(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "studentNumber")

	student, err := s.store.GetStudentByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Student not found")
			return
		}
		s.log.Error().Err(err).Msg("get student by number")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleListStudentsByDepartment(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "departmentName")

	students, err := s.store.ListStudentsByDepartment(r.Context(), department)
	if err != nil {
		s.log.Error().Err(err).Msg("list students by department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if len(students) == 0 {
		writeError(w, http.StatusNotFound, "No students found in department "+department)
		return
	}
	writeJSON(w, http.StatusOK, students)
}

type createStudentRequest struct {
	UserID        int64   `json:"userId"`
	StudentNumber *string `json:"studentNumber"`
	Department    *string `json:"department"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := s.store.GetUserByID(r.Context(), req.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "User not found")
			return
		}
		s.log.Error().Err(err).Msg("create student: load user")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	student := model.Student{
		UserID:        req.UserID,
		StudentNumber: req.StudentNumber,
		Department:    req.Department,
	}
	if err := s.store.CreateStudent(r.Context(), student); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			writeError(w, http.StatusBadRequest, "Student already exists")
			return
		}
		s.log.Error().Err(err).Msg("create student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, student)
}

type updateStudentRequest struct {
	StudentNumber *string `json:"studentNumber"`
	Department    *string `json:"department"`
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You are not authorized to modify this student."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	s.updateStudentProfile(w, r, userID)
}

func (s *Server) handleAdminUpdateStudent(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}
	s.updateStudentProfile(w, r, userID)
}

func (s *Server) updateStudentProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	var req updateStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.store.UpdateStudent(r.Context(), userID, req.StudentNumber, req.Department)
	if err != nil {
		s.log.Error().Err(err).Msg("update student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	userID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}
	if err := authorizeOwnerID(claims, userID, "You are not authorized to delete this student."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	// Removing a student removes the whole account; the profile row goes
	// with it through the cascade.
	deleted, err := s.store.DeleteUser(r.Context(), userID)
	if err != nil {
		s.log.Error().Err(err).Msg("delete student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Student not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteStudentsByDepartment(w http.ResponseWriter, r *http.Request) {
	department := chi.URLParam(r, "departmentName")

	count, err := s.store.DeleteStudentsByDepartment(r.Context(), department)
	if err != nil {
		s.log.Error().Err(err).Msg("delete students by department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count == 0 {
		writeError(w, http.StatusNotFound, "No students found in department "+department)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
}
