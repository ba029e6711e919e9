package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const sessionColumns = `rs.id, rs.professor_id, rs.max_students, rs.start_date, rs.end_date`

func scanSession(row pgx.Row) (model.RegistrationSession, error) {
	var session model.RegistrationSession
	err := row.Scan(
		&session.ID,
		&session.ProfessorID,
		&session.MaxStudents,
		&session.StartDate,
		&session.EndDate,
	)
	return session, err
}

func (s *Store) GetSession(ctx context.Context, sessionID int64) (model.RegistrationSession, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM registration_sessions rs WHERE rs.id = $1
	`, sessionID)
	session, err := scanSession(row)
	if err != nil {
		return model.RegistrationSession{}, err
	}
	s.attachProfessor(ctx, &session)
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]model.RegistrationSession, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM registration_sessions rs ORDER BY rs.id
	`)
}

func (s *Store) ListSessionsByProfessor(ctx context.Context, professorID int64) ([]model.RegistrationSession, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM registration_sessions rs
		WHERE rs.professor_id = $1 ORDER BY rs.id
	`, professorID)
}

// ListActiveSessions returns the sessions open at the given instant,
// the set students pick a professor from.
func (s *Store) ListActiveSessions(ctx context.Context, now time.Time) ([]model.RegistrationSession, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+` FROM registration_sessions rs
		WHERE rs.start_date <= $1 AND rs.end_date >= $1
		ORDER BY rs.id
	`, now)
}

func (s *Store) querySessions(ctx context.Context, query string, args ...any) ([]model.RegistrationSession, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]model.RegistrationSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range sessions {
		s.attachProfessor(ctx, &sessions[i])
	}
	return sessions, nil
}

func (s *Store) attachProfessor(ctx context.Context, session *model.RegistrationSession) {
	professor, err := s.GetProfessor(ctx, session.ProfessorID)
	if err != nil {
		return
	}
	professor.Department = nil
	session.Professor = &professor
}

func (s *Store) CreateSession(ctx context.Context, session *model.RegistrationSession) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO registration_sessions (professor_id, max_students, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, session.ProfessorID, session.MaxStudents, session.StartDate, session.EndDate)
	return row.Scan(&session.ID)
}

func (s *Store) UpdateSession(ctx context.Context, session model.RegistrationSession) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE registration_sessions
		SET max_students = $2, start_date = $3, end_date = $4
		WHERE id = $1
	`, session.ID, session.MaxStudents, session.StartDate, session.EndDate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM registration_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
