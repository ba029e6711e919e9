package http

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

func (s *Server) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := s.store.ListDepartments(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list departments")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (s *Server) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid department id")
		return
	}

	department, err := s.store.GetDepartment(r.Context(), departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Department not found")
			return
		}
		s.log.Error().Err(err).Msg("get department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, department)
}

type departmentRequest struct {
	Name         *string `json:"departmentName"`
	HeadOfDeptID *int64  `json:"headOfDepartmentId"`
}

func (s *Server) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HeadOfDeptID != nil {
		if ok, err := s.headProfessorExists(r, *req.HeadOfDeptID); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		} else if !ok {
			writeError(w, http.StatusBadRequest, "Invalid HeadOfDepartmentId. No professor found with the given ID.")
			return
		}
	}

	department := model.Department{
		Name:         req.Name,
		HeadOfDeptID: req.HeadOfDeptID,
	}
	if err := s.store.CreateDepartment(r.Context(), &department); err != nil {
		s.log.Error().Err(err).Msg("create department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, department)
}

func (s *Server) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid department id")
		return
	}

	var req departmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HeadOfDeptID != nil {
		if ok, err := s.headProfessorExists(r, *req.HeadOfDeptID); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		} else if !ok {
			writeError(w, http.StatusBadRequest, "Invalid HeadOfDepartmentId. No professor found with the given ID.")
			return
		}
	}

	updated, err := s.store.UpdateDepartment(r.Context(), departmentID, req.Name, req.HeadOfDeptID)
	if err != nil {
		s.log.Error().Err(err).Msg("update department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Department not found")
		return
	}

	department, err := s.store.GetDepartment(r.Context(), departmentID)
	if err != nil {
		s.log.Error().Err(err).Msg("update department: reload")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, department)
}

func (s *Server) handleDeleteDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid department id")
		return
	}

	department, err := s.store.GetDepartment(r.Context(), departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Department not found")
			return
		}
		s.log.Error().Err(err).Msg("delete department: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	inUse, err := s.store.DepartmentInUse(r.Context(), department)
	if err != nil {
		s.log.Error().Err(err).Msg("delete department: usage check")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if inUse {
		writeError(w, http.StatusBadRequest, "Cannot delete department. It has associated professors or students.")
		return
	}

	if _, err := s.store.DeleteDepartment(r.Context(), departmentID); err != nil {
		s.log.Error().Err(err).Msg("delete department")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, department)
}

func (s *Server) headProfessorExists(r *http.Request, professorID int64) (bool, error) {
	ok, err := s.store.ProfessorExists(r.Context(), professorID)
	if err != nil {
		s.log.Error().Err(err).Msg("department: professor check")
	}
	return ok, err
}
