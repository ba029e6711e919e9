package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const requestColumns = `r.id, r.student_id, r.registration_session_id, r.status, r.proposed_theme, r.status_justification`

func scanRequest(row pgx.Row) (model.RegistrationRequest, error) {
	var request model.RegistrationRequest
	err := row.Scan(
		&request.ID,
		&request.StudentID,
		&request.RegistrationSessionID,
		&request.Status,
		&request.ProposedTheme,
		&request.StatusJustification,
	)
	return request, err
}

func (s *Store) GetRequest(ctx context.Context, requestID int64) (model.RegistrationRequest, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+requestColumns+` FROM registration_requests r WHERE r.id = $1
	`, requestID)
	request, err := scanRequest(row)
	if err != nil {
		return model.RegistrationRequest{}, err
	}
	s.attachRequestRefs(ctx, &request)
	return request, nil
}

func (s *Store) ListRequests(ctx context.Context) ([]model.RegistrationRequest, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM registration_requests r ORDER BY r.id
	`)
}

func (s *Store) ListRequestsByStudent(ctx context.Context, studentID int64) ([]model.RegistrationRequest, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM registration_requests r
		WHERE r.student_id = $1 ORDER BY r.id
	`, studentID)
}

func (s *Store) ListRequestsBySession(ctx context.Context, sessionID int64) ([]model.RegistrationRequest, error) {
	return s.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM registration_requests r
		WHERE r.registration_session_id = $1 ORDER BY r.id
	`, sessionID)
}

// ListRequestsByProfessor returns the requests aimed at any of the
// professor's sessions, optionally filtered by status.
func (s *Store) ListRequestsByProfessor(ctx context.Context, professorID int64, status model.RequestStatus) ([]model.RegistrationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM registration_requests r
		JOIN registration_sessions rs ON rs.id = r.registration_session_id
		WHERE rs.professor_id = $1`
	args := []any{professorID}
	if status != "" {
		query += ` AND r.status = $2`
		args = append(args, status)
	}
	return s.queryRequests(ctx, query+` ORDER BY r.id`, args...)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]model.RegistrationRequest, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]model.RegistrationRequest, 0)
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range requests {
		s.attachRequestRefs(ctx, &requests[i])
	}
	return requests, nil
}

func (s *Store) attachRequestRefs(ctx context.Context, request *model.RegistrationRequest) {
	if student, err := s.GetStudent(ctx, request.StudentID); err == nil {
		request.Student = &student
	}
	if session, err := s.GetSession(ctx, request.RegistrationSessionID); err == nil {
		request.RegistrationSession = &session
	}
}

func (s *Store) CreateRequest(ctx context.Context, request *model.RegistrationRequest) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO registration_requests (student_id, registration_session_id, status, proposed_theme, status_justification)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, request.StudentID, request.RegistrationSessionID, request.Status, request.ProposedTheme, request.StatusJustification)
	return row.Scan(&request.ID)
}

func (s *Store) UpdateRequest(ctx context.Context, request model.RegistrationRequest) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registration_requests
		SET registration_session_id = $2, status = $3, proposed_theme = $4, status_justification = $5
		WHERE id = $1
	`, request.ID, request.RegistrationSessionID, request.Status, request.ProposedTheme, request.StatusJustification)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteRequest(ctx context.Context, requestID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM registration_requests WHERE id = $1`, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
