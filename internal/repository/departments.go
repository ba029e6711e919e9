package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/model"
)

func scanDepartment(row pgx.Row) (model.Department, error) {
	var department model.Department
	err := row.Scan(&department.ID, &department.Name, &department.HeadOfDeptID)
	return department, err
}

func (s *Store) GetDepartment(ctx context.Context, departmentID int64) (model.Department, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT department_id, department_name, head_of_department_id
		FROM departments WHERE department_id = $1
	`, departmentID)
	department, err := scanDepartment(row)
	if err != nil {
		return model.Department{}, err
	}
	s.attachHead(ctx, &department)
	return department, nil
}

func (s *Store) ListDepartments(ctx context.Context) ([]model.Department, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT department_id, department_name, head_of_department_id
		FROM departments ORDER BY department_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]model.Department, 0)
	for rows.Next() {
		department, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range departments {
		s.attachHead(ctx, &departments[i])
	}
	return departments, nil
}

// attachHead embeds the head-of-department professor, with user, for
// display. Lookup failures leave the field empty rather than failing
// the department read.
func (s *Store) attachHead(ctx context.Context, department *model.Department) {
	if department.HeadOfDeptID == nil {
		return
	}
	head, err := s.GetProfessor(ctx, *department.HeadOfDeptID)
	if err != nil {
		return
	}
	head.Department = nil
	department.HeadOfDepartment = &head
}

func (s *Store) CreateDepartment(ctx context.Context, department *model.Department) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO departments (department_name, head_of_department_id)
		VALUES ($1, $2)
		RETURNING department_id
	`, department.Name, department.HeadOfDeptID)
	return row.Scan(&department.ID)
}

func (s *Store) UpdateDepartment(ctx context.Context, departmentID int64, name *string, headID *int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE departments SET department_name = $2, head_of_department_id = $3
		WHERE department_id = $1
	`, departmentID, name, headID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DepartmentInUse reports whether any professor or student still
// references the department.
func (s *Store) DepartmentInUse(ctx context.Context, department model.Department) (bool, error) {
	hasProfessors, err := exists(ctx, s.pool, `SELECT 1 FROM professors WHERE department_id = $1`, department.ID)
	if err != nil {
		return false, err
	}
	if hasProfessors {
		return true, nil
	}
	if department.Name == nil {
		return false, nil
	}
	return exists(ctx, s.pool, `SELECT 1 FROM students WHERE department = $1`, *department.Name)
}

func (s *Store) DeleteDepartment(ctx context.Context, departmentID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM departments WHERE department_id = $1`, departmentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
