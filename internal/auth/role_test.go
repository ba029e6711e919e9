package auth

import "testing"

func TestAssignRole(t *testing.T) {
	cases := []struct {
		email string
		want  Role
	}{
		{"ana@stud.ase.ro", RoleStudent},
		{"popescu@ase.ro", RoleProfessor},
		{"admin@ase.ro", RoleAdmin},
		{"secretariat-admin@ase.ro", RoleAdmin},
		// student domain wins over the admin substring by evaluation order
		{"admin@stud.ase.ro", RoleStudent},
		{"someone@gmail.com", RoleProfessor},
	}
	for _, tc := range cases {
		if got := AssignRole(tc.email); got != tc.want {
			t.Fatalf("AssignRole(%q) = %s, want %s", tc.email, got, tc.want)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleStudent, RoleProfessor, RoleAdmin} {
		if !role.Valid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if Role("dev").Valid() {
		t.Fatalf("expected unknown role to be invalid")
	}
}
