package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"thesisreg/internal/auth"
	"thesisreg/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "thesisreg",
		JWTAudience: "thesisreg-client",
		TokenTTL:    time.Hour,
	}
}

// newBareServer has no store behind it; every test against it must be
// rejected by middleware or request decoding before any data access.
func newBareServer() *Server {
	return NewServer(testConfig(), nil, nil, nil, zerolog.Nop())
}

func mustToken(t *testing.T, cfg config.Config, userID int64, email string, role auth.Role) string {
	t.Helper()
	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL, userID, email, role)
	require.NoError(t, err)
	return token
}

func doReq(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	s := newBareServer()

	rec := doReq(t, s, "GET", "/api/user", "", "")
	require.Equal(t, 401, rec.Code)
	require.Contains(t, rec.Body.String(), "Missing or invalid token")
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	s := newBareServer()

	otherCfg := testConfig()
	otherCfg.JWTSecret = "other-secret"

	cases := map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": mustToken(t, otherCfg, 1, "a@b.c", auth.RoleStudent),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doReq(t, s, "GET", "/api/user", token, "")
			require.Equal(t, 401, rec.Code)
		})
	}
}

func TestRoleGate(t *testing.T) {
	s := newBareServer()

	student := mustToken(t, s.cfg, 7, "x@stud.ase.ro", auth.RoleStudent)
	rec := doReq(t, s, "DELETE", "/api/department/1", student, "")
	require.Equal(t, 403, rec.Code)
	require.Contains(t, rec.Body.String(), "insufficient role")

	// Admin passes the gate and fails later on the malformed body.
	admin := mustToken(t, s.cfg, 1, "admin@ase.ro", auth.RoleAdmin)
	rec = doReq(t, s, "POST", "/api/department", admin, "{")
	require.Equal(t, 400, rec.Code)
}

func TestOwnershipGate(t *testing.T) {
	s := newBareServer()

	other := mustToken(t, s.cfg, 7, "x@stud.ase.ro", auth.RoleStudent)
	rec := doReq(t, s, "PUT", "/api/student/5", other, `{"studentNumber":"123"}`)
	require.Equal(t, 403, rec.Code)
	require.Contains(t, rec.Body.String(), "not authorized to modify this student")

	// The owner and an admin both clear the gate; the malformed body
	// shows the handler was reached.
	owner := mustToken(t, s.cfg, 5, "y@stud.ase.ro", auth.RoleStudent)
	rec = doReq(t, s, "PUT", "/api/student/5", owner, "{")
	require.Equal(t, 400, rec.Code)

	admin := mustToken(t, s.cfg, 1, "admin@ase.ro", auth.RoleAdmin)
	rec = doReq(t, s, "PUT", "/api/student/5", admin, "{")
	require.Equal(t, 400, rec.Code)
}

func TestSessionCreateOwnership(t *testing.T) {
	s := newBareServer()

	student := mustToken(t, s.cfg, 3, "x@stud.ase.ro", auth.RoleStudent)
	rec := doReq(t, s, "POST", "/api/registrationsession", student, "{}")
	require.Equal(t, 403, rec.Code)

	professor := mustToken(t, s.cfg, 3, "prof@ase.ro", auth.RoleProfessor)
	body := `{"professorId":99,"maxStudents":5,"startDate":"2026-01-01T00:00:00Z","endDate":"2026-02-01T00:00:00Z"}`
	rec = doReq(t, s, "POST", "/api/registrationsession", professor, body)
	require.Equal(t, 403, rec.Code)
	require.Contains(t, rec.Body.String(), "only create sessions for yourself")
}

func TestUploadRejectsMalformedMultipart(t *testing.T) {
	s := newBareServer()
	token := mustToken(t, s.cfg, 1, "x@stud.ase.ro", auth.RoleStudent)

	req := httptest.NewRequest("POST", "/api/fileupload/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, 400, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid multipart form")
	require.NotContains(t, rec.Body.String(), "50MB")
}

func TestGoogleLoginUnconfigured(t *testing.T) {
	s := newBareServer()

	rec := doReq(t, s, "POST", "/api/auth/google-login", "", `{"idToken":"abc"}`)
	require.Equal(t, 503, rec.Code)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
