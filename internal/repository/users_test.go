package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	"thesisreg/internal/auth"
	"thesisreg/internal/db"
	"thesisreg/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		TRUNCATE users, departments, registration_sessions, registration_requests, file_uploads
		RESTART IDENTITY CASCADE
	`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewStore(pool)
}

func TestCreateUserWithProfile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := model.User{
		Username:     "ana",
		Email:        "ana@stud.ase.ro",
		PasswordHash: "hash",
		Role:         auth.RoleStudent,
	}
	if err := store.CreateUserWithProfile(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Fatal("expected database-assigned timestamps")
	}

	loaded, err := store.GetUserWithProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CreatedAt.IsZero() {
		t.Fatal("expected persisted created_at")
	}
	if loaded.Student == nil {
		t.Fatal("expected student profile stub")
	}
	if loaded.Professor != nil {
		t.Fatal("unexpected professor profile")
	}

	prof := model.User{
		Username:     "popescu",
		Email:        "popescu@ase.ro",
		PasswordHash: "hash",
		Role:         auth.RoleProfessor,
	}
	if err := store.CreateUserWithProfile(ctx, &prof); err != nil {
		t.Fatalf("create professor: %v", err)
	}
	loaded, err = store.GetUserWithProfile(ctx, prof.ID)
	if err != nil {
		t.Fatalf("load professor: %v", err)
	}
	if loaded.Professor == nil {
		t.Fatal("expected professor profile stub")
	}
}

func TestCreateUserDuplicates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := model.User{Username: "ana", Email: "ana@stud.ase.ro", Role: auth.RoleStudent}
	if err := store.CreateUserWithProfile(ctx, &first); err != nil {
		t.Fatalf("create: %v", err)
	}

	sameEmail := model.User{Username: "alta", Email: "ana@stud.ase.ro", Role: auth.RoleStudent}
	if err := store.CreateUserWithProfile(ctx, &sameEmail); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	sameUsername := model.User{Username: "ana", Email: "alta@stud.ase.ro", Role: auth.RoleStudent}
	if err := store.CreateUserWithProfile(ctx, &sameUsername); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}

	// No orphan profile rows survive a rolled-back registration.
	students, err := store.ListStudents(ctx)
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(students))
	}
}
