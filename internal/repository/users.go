package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"thesisreg/internal/auth"
	"thesisreg/internal/model"
)

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, userID int64) (model.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

// GetUserWithProfile loads a user plus the student or professor stub
// that goes with their role, if one exists.
func (s *Store) GetUserWithProfile(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	switch user.Role {
	case auth.RoleStudent:
		if student, err := s.GetStudent(ctx, userID); err == nil {
			student.User = nil
			user.Student = &student
		}
	case auth.RoleProfessor:
		if professor, err := s.GetProfessor(ctx, userID); err == nil {
			professor.User = nil
			user.Professor = &professor
		}
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, s.pool, `SELECT 1 FROM users WHERE email = $1`, email)
}

func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, s.pool, `SELECT 1 FROM users WHERE username = $1`, username)
}

// CreateUserWithProfile inserts the user and the role-specific stub in
// one transaction: either both rows land or neither does. Unique
// violations on email or username surface as the duplicate errors even
// when the advisory pre-checks raced.
func (s *Store) CreateUserWithProfile(ctx context.Context, user *model.User) error {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at
		`, user.Username, user.Email, user.PasswordHash, user.Role)
		if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}

		switch user.Role {
		case auth.RoleStudent:
			_, err := tx.Exec(ctx, `INSERT INTO students (user_id) VALUES ($1)`, user.ID)
			return err
		case auth.RoleProfessor:
			_, err := tx.Exec(ctx, `INSERT INTO professors (user_id) VALUES ($1)`, user.ID)
			return err
		}
		return nil
	})
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, "users_email_key"):
		return ErrDuplicateEmail
	case isUniqueViolation(err, "users_username_key"):
		return ErrDuplicateUsername
	default:
		return err
	}
}

type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

func (s *Store) UpdateUser(ctx context.Context, userID int64, update UserUpdate) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email),
		    password_hash = COALESCE($4, password_hash),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, update.Username, update.Email, update.PasswordHash)
	user, err := scanUser(row)
	switch {
	case err == nil:
		return user, nil
	case isUniqueViolation(err, "users_email_key"):
		return model.User{}, ErrDuplicateEmail
	case isUniqueViolation(err, "users_username_key"):
		return model.User{}, ErrDuplicateUsername
	default:
		return model.User{}, err
	}
}

// DeleteUser removes the user; student and professor stubs go with it
// through the FK cascade.
func (s *Store) DeleteUser(ctx context.Context, userID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
