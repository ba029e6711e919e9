package http

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"thesisreg/internal/auth"
	"thesisreg/internal/db"
	"thesisreg/internal/repository"
)

// newIntegrationServer wires a server against the database named by
// DATABASE_URL and resets its tables. Tests that need it skip when the
// variable is unset.
func newIntegrationServer(t *testing.T) *Server {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `
		TRUNCATE users, departments, registration_sessions, registration_requests, file_uploads
		RESTART IDENTITY CASCADE
	`)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.UploadDir = t.TempDir()
	cfg.TemplateDir = t.TempDir()
	return NewServer(cfg, repository.NewStore(pool), nil, nil, zerolog.Nop())
}

func register(t *testing.T, s *Server, username, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":%q}`, username, email, password)
	rec := doReq(t, s, "POST", "/api/auth/register", "", body)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	s := newIntegrationServer(t)

	token := register(t, s, "ana", "ana@stud.ase.ro", "parola123")

	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, token)
	require.NoError(t, err)
	require.Equal(t, auth.RoleStudent, claims.Role)
	require.Equal(t, "ana@stud.ase.ro", claims.Email)

	// Registration created the student profile stub alongside the user.
	rec := doReq(t, s, "GET", fmt.Sprintf("/api/user/%d", claims.UserID()), token, "")
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), `"student"`)
	// Audit timestamps come from the database, never the zero time.
	require.NotContains(t, rec.Body.String(), "0001-01-01")

	rec = doReq(t, s, "POST", "/api/auth/login", "", `{"email":"ana@stud.ase.ro","password":"parola123"}`)
	require.Equal(t, 200, rec.Code)

	rec = doReq(t, s, "POST", "/api/auth/login", "", `{"email":"ana@stud.ase.ro","password":"gresit"}`)
	require.Equal(t, 401, rec.Code)
	wrongPassword := rec.Body.String()

	rec = doReq(t, s, "POST", "/api/auth/login", "", `{"email":"nimeni@stud.ase.ro","password":"parola123"}`)
	require.Equal(t, 401, rec.Code)
	// Unknown accounts and wrong passwords are indistinguishable.
	require.Equal(t, wrongPassword, rec.Body.String())
}

func TestRegisterRoleAssignment(t *testing.T) {
	s := newIntegrationServer(t)

	cases := []struct {
		email string
		role  auth.Role
	}{
		{"ion@stud.ase.ro", auth.RoleStudent},
		{"popescu@ase.ro", auth.RoleProfessor},
		{"admin@ase.ro", auth.RoleAdmin},
	}
	for i, tc := range cases {
		token := register(t, s, fmt.Sprintf("user%d", i), tc.email, "parola123")
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, token)
		require.NoError(t, err)
		require.Equal(t, tc.role, claims.Role, tc.email)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	s := newIntegrationServer(t)

	register(t, s, "ana", "ana@stud.ase.ro", "parola123")

	rec := doReq(t, s, "POST", "/api/auth/register", "",
		`{"username":"alta","email":"ana@stud.ase.ro","password":"parola123"}`)
	require.Equal(t, 400, rec.Code)
	require.Contains(t, rec.Body.String(), "Email already in use")

	rec = doReq(t, s, "POST", "/api/auth/register", "",
		`{"username":"ana","email":"alta@stud.ase.ro","password":"parola123"}`)
	require.Equal(t, 400, rec.Code)
	require.Contains(t, rec.Body.String(), "Username already in use")
}

func TestConcurrentRegistration(t *testing.T) {
	s := newIntegrationServer(t)

	const workers = 4
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := fmt.Sprintf(`{"username":"race%d","email":"race@stud.ase.ro","password":"parola123"}`, i)
			rec := doReq(t, s, "POST", "/api/auth/register", "", body)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, code := range codes {
		switch code {
		case 200:
			succeeded++
		case 400:
		default:
			t.Fatalf("unexpected status %d", code)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one registration may win")
}

type staticVerifier struct {
	profile auth.GoogleProfile
	err     error
}

func (v staticVerifier) Verify(_ context.Context, _ string) (auth.GoogleProfile, error) {
	return v.profile, v.err
}

func TestGoogleLoginProvisionsUser(t *testing.T) {
	s := newIntegrationServer(t)
	s.verifier = staticVerifier{profile: auth.GoogleProfile{Email: "maria@ase.ro", Name: "Maria Pop"}}

	rec := doReq(t, s, "POST", "/api/auth/google-login", "", `{"idToken":"fake"}`)
	require.Equal(t, 200, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, resp.Token)
	require.NoError(t, err)
	require.Equal(t, auth.RoleProfessor, claims.Role)

	// A federated account has no local password, so the password path
	// stays shut.
	rec = doReq(t, s, "POST", "/api/auth/login", "", `{"email":"maria@ase.ro","password":""}`)
	require.Equal(t, 401, rec.Code)

	// A second federated login reuses the account.
	rec = doReq(t, s, "POST", "/api/auth/google-login", "", `{"idToken":"fake"}`)
	require.Equal(t, 200, rec.Code)
}

func TestGoogleLoginRejectsInvalidToken(t *testing.T) {
	s := newIntegrationServer(t)
	s.verifier = staticVerifier{err: fmt.Errorf("token expired")}

	rec := doReq(t, s, "POST", "/api/auth/google-login", "", `{"idToken":"fake"}`)
	require.Equal(t, 401, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid Google token: token expired")
}

func TestRegistrationFlow(t *testing.T) {
	s := newIntegrationServer(t)

	profToken := register(t, s, "popescu", "popescu@ase.ro", "parola123")
	profClaims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, profToken)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"professorId":%d,"maxStudents":3,"startDate":"2026-01-01T00:00:00Z","endDate":"2027-01-01T00:00:00Z"}`,
		profClaims.UserID())
	rec := doReq(t, s, "POST", "/api/registrationsession", profToken, body)
	require.Equal(t, 201, rec.Code, rec.Body.String())
	var session struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))

	studToken := register(t, s, "ana", "ana@stud.ase.ro", "parola123")
	studClaims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, studToken)
	require.NoError(t, err)

	body = fmt.Sprintf(`{"studentId":%d,"registrationSessionId":%d,"proposedTheme":"Sisteme distribuite"}`,
		studClaims.UserID(), session.ID)
	rec = doReq(t, s, "POST", "/api/registrationrequest", studToken, body)
	require.Equal(t, 201, rec.Code, rec.Body.String())
	var request struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &request))

	// Moving the request to a session that does not exist is refused
	// before it can hit the foreign key.
	rec = doReq(t, s, "PUT", fmt.Sprintf("/api/registrationrequest/%d", request.ID), studToken,
		`{"registrationSessionId":9999}`)
	require.Equal(t, 400, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid registration session ID")

	// A professor who does not own the session cannot touch the request.
	otherProf := register(t, s, "ionescu", "ionescu@ase.ro", "parola123")
	rec = doReq(t, s, "PUT", fmt.Sprintf("/api/registrationrequest/%d", request.ID), otherProf,
		`{"status":"Approved"}`)
	require.Equal(t, 403, rec.Code)

	rec = doReq(t, s, "PUT", fmt.Sprintf("/api/registrationrequest/%d", request.ID), profToken,
		`{"status":"Approved","statusJustification":"Tema acceptata"}`)
	require.Equal(t, 204, rec.Code, rec.Body.String())

	rec = doReq(t, s, "GET", fmt.Sprintf("/api/registrationrequest/approved-by-professor/%d", profClaims.UserID()),
		profToken, "")
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "Sisteme distribuite")
}
