package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

const studentColumns = `s.user_id, s.student_number, s.department,
	u.id, u.username, u.email, u.password_hash, u.role, u.created_at, u.updated_at`

func scanStudent(row pgx.Row) (model.Student, error) {
	var student model.Student
	var user model.User
	err := row.Scan(
		&student.UserID,
		&student.StudentNumber,
		&student.Department,
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return model.Student{}, err
	}
	student.User = &user
	return student, nil
}

func (s *Store) GetStudent(ctx context.Context, userID int64) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1
	`, userID)
	return scanStudent(row)
}

func (s *Store) GetStudentByNumber(ctx context.Context, studentNumber string) (model.Student, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.student_number = $1
	`, studentNumber)
	return scanStudent(row)
}

func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	return s.queryStudents(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		ORDER BY s.user_id
	`)
}

func (s *Store) ListStudentsByDepartment(ctx context.Context, department string) ([]model.Student, error) {
	return s.queryStudents(ctx, `
		SELECT `+studentColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.department = $1
		ORDER BY s.user_id
	`, department)
}

func (s *Store) queryStudents(ctx context.Context, query string, args ...any) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]model.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) StudentExists(ctx context.Context, userID int64) (bool, error) {
	return exists(ctx, s.pool, `SELECT 1 FROM students WHERE user_id = $1`, userID)
}

func (s *Store) CreateStudent(ctx context.Context, student model.Student) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO students (user_id, student_number, department)
		VALUES ($1, $2, $3)
	`, student.UserID, student.StudentNumber, student.Department)
	if isUniqueViolation(err, "") {
		return ErrAlreadyExists
	}
	return err
}

func (s *Store) UpdateStudent(ctx context.Context, userID int64, studentNumber, department *string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE students SET student_number = $2, department = $3 WHERE user_id = $1
	`, userID, studentNumber, department)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteStudentsByDepartment(ctx context.Context, department string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM students WHERE department = $1`, department)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
