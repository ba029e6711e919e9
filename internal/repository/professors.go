package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const professorColumns = `p.user_id, p.department_id,
	u.id, u.username, u.email, u.password_hash, u.role, u.created_at, u.updated_at`

func scanProfessor(row pgx.Row) (model.Professor, error) {
	var professor model.Professor
	var user model.User
	err := row.Scan(
		&professor.UserID,
		&professor.DepartmentID,
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.Professor{}, err
	}
	professor.User = &user
	return professor, nil
}

func (s *Store) GetProfessor(ctx context.Context, userID int64) (model.Professor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+professorColumns+`
		FROM professors p JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`, userID)
	professor, err := scanProfessor(row)
	if err != nil {
		return model.Professor{}, err
	}
	if professor.DepartmentID != nil {
		if department, err := s.GetDepartment(ctx, *professor.DepartmentID); err == nil {
			department.HeadOfDepartment = nil
			professor.Department = &department
		}
	}
	return professor, nil
}

func (s *Store) ListProfessors(ctx context.Context) ([]model.Professor, error) {
	return s.queryProfessors(ctx, `
		SELECT `+professorColumns+`
		FROM professors p JOIN users u ON u.id = p.user_id
		ORDER BY p.user_id
	`)
}

func (s *Store) ListProfessorsByDepartment(ctx context.Context, department string) ([]model.Professor, error) {
	return s.queryProfessors(ctx, `
		SELECT `+professorColumns+`
		FROM professors p
		JOIN users u ON u.id = p.user_id
		JOIN departments d ON d.department_id = p.department_id
		WHERE d.department_name = $1
		ORDER BY p.user_id
	`, department)
}

func (s *Store) queryProfessors(ctx context.Context, query string, args ...any) ([]model.Professor, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	professors := make([]model.Professor, 0)
	for rows.Next() {
		professor, err := scanProfessor(rows)
		if err != nil {
			return nil, err
		}
		professors = append(professors, professor)
	}
	return professors, rows.Err()
}

func (s *Store) ProfessorExists(ctx context.Context, userID int64) (bool, error) {
	return exists(ctx, s.pool, `SELECT 1 FROM professors WHERE user_id = $1`, userID)
}

func (s *Store) CreateProfessor(ctx context.Context, professor model.Professor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO professors (user_id, department_id)
		VALUES ($1, $2)
	`, professor.UserID, professor.DepartmentID)
	if isUniqueViolation(err, "") {
		return ErrAlreadyExists
	}
	return err
}

func (s *Store) UpdateProfessor(ctx context.Context, userID int64, departmentID *int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE professors SET department_id = $2 WHERE user_id = $1
	`, userID, departmentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteProfessor(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM professors WHERE user_id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
