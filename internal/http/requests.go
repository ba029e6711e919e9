package http

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/auth"
	"thesisreg/internal/model"
)

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.ListRequests(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list requests")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	request, err := s.store.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration request not found")
			return
		}
		s.log.Error().Err(err).Msg("get request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleListRequestsByStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := idParam(r, "studentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid student id")
		return
	}

	requests, err := s.store.ListRequestsByStudent(r.Context(), studentID)
	if err != nil {
		s.log.Error().Err(err).Msg("list requests by student")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleListRequestsBySession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r, "sessionId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session id")
		return
	}

	requests, err := s.store.ListRequestsBySession(r.Context(), sessionID)
	if err != nil {
		s.log.Error().Err(err).Msg("list requests by session")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleListApprovedRequestsByProfessor(w http.ResponseWriter, r *http.Request) {
	professorID, err := idParam(r, "professorId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid professor id")
		return
	}

	requests, err := s.store.ListRequestsByProfessor(r.Context(), professorID, model.StatusApproved)
	if err != nil {
		s.log.Error().Err(err).Msg("list approved requests by professor")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

type createRequestRequest struct {
	StudentID             int64  `json:"studentId"`
	RegistrationSessionID int64  `json:"registrationSessionId"`
	ProposedTheme         string `json:"proposedTheme"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	var req createRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := authorizeOwnerID(claims, req.StudentID, "Students can only create their own requests."); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	studentExists, err := s.store.StudentExists(r.Context(), req.StudentID)
	if err != nil {
		s.log.Error().Err(err).Msg("create request: student check")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	sessionExists := false
	if studentExists {
		if _, err := s.store.GetSession(r.Context(), req.RegistrationSessionID); err == nil {
			sessionExists = true
		} else if !errors.Is(err, pgx.ErrNoRows) {
			s.log.Error().Err(err).Msg("create request: session check")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	if !studentExists || !sessionExists {
		writeError(w, http.StatusBadRequest, "Invalid student or registration session ID")
		return
	}

	request := model.RegistrationRequest{
		StudentID:             req.StudentID,
		RegistrationSessionID: req.RegistrationSessionID,
		Status:                model.StatusPending,
		ProposedTheme:         req.ProposedTheme,
	}
	if err := s.store.CreateRequest(r.Context(), &request); err != nil {
		s.log.Error().Err(err).Msg("create request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, request)
}

type updateRequestRequest struct {
	RegistrationSessionID int64               `json:"registrationSessionId"`
	Status                model.RequestStatus `json:"status"`
	ProposedTheme         *string             `json:"proposedTheme"`
	StatusJustification   *string             `json:"statusJustification"`
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	requestID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	var req updateRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid status. Allowed values are: Pending, Approved, Rejected")
		return
	}

	request, err := s.store.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration request not found")
			return
		}
		s.log.Error().Err(err).Msg("update request: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := s.authorizeRequestAccess(r, claims, request); err != nil {
		if isForbidden(err) {
			writeError(w, http.StatusForbidden, err.Error())
		} else {
			s.log.Error().Err(err).Msg("update request: authorize")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	wasApproved := request.Status == model.StatusApproved
	if req.RegistrationSessionID != 0 && req.RegistrationSessionID != request.RegistrationSessionID {
		if _, err := s.store.GetSession(r.Context(), req.RegistrationSessionID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "Invalid registration session ID")
				return
			}
			s.log.Error().Err(err).Msg("update request: session check")
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		request.RegistrationSessionID = req.RegistrationSessionID
	}
	if req.Status != "" {
		request.Status = req.Status
	}
	if req.ProposedTheme != nil {
		request.ProposedTheme = *req.ProposedTheme
	}
	if req.StatusJustification != nil {
		request.StatusJustification = *req.StatusJustification
	}

	updated, err := s.store.UpdateRequest(r.Context(), request)
	if err != nil {
		s.log.Error().Err(err).Msg("update request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Registration request not found")
		return
	}

	if !wasApproved && request.Status == model.StatusApproved {
		if err := s.attachAcademicDefault(r, request); err != nil {
			// Approval stands even without the template; the professor
			// can upload it manually.
			s.log.Warn().Err(err).Int64("request_id", request.ID).Msg("academic template attach failed")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	requestID, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	request, err := s.store.GetRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Registration request not found")
			return
		}
		s.log.Error().Err(err).Msg("delete request: load")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := s.authorizeRequestAccess(r, claims, request); err != nil {
		if isForbidden(err) {
			writeError(w, http.StatusForbidden, err.Error())
		} else {
			s.log.Error().Err(err).Msg("delete request: authorize")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	if _, err := s.store.DeleteRequest(r.Context(), requestID); err != nil {
		s.log.Error().Err(err).Msg("delete request")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorizeRequestAccess applies the transitive ownership rule: admins
// pass, students must own the request, professors must own the session the
// request targets.
func (s *Server) authorizeRequestAccess(r *http.Request, claims *auth.Claims, request model.RegistrationRequest) error {
	if claims == nil {
		return &forbiddenError{reason: "You are not authorized to modify this request."}
	}
	switch claims.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleStudent:
		if claims.UserID() != request.StudentID {
			return &forbiddenError{reason: "Students can only modify their own requests."}
		}
		return nil
	case auth.RoleProfessor:
		session, err := s.store.GetSession(r.Context(), request.RegistrationSessionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &forbiddenError{reason: "Professors can only modify requests for their own sessions."}
			}
			return err
		}
		if claims.UserID() != session.ProfessorID {
			return &forbiddenError{reason: "Professors can only modify requests for their own sessions."}
		}
		return nil
	}
	return &forbiddenError{reason: "You are not authorized to modify this request."}
}
