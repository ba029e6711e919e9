package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"thesisreg/internal/auth"
	"thesisreg/internal/config"
	"thesisreg/internal/repository"
)

// TokenVerifier validates a third-party identity token and returns the
// verified profile. Implemented by auth.GoogleVerifier; stubbed in tests.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (auth.GoogleProfile, error)
}

type Server struct {
	cfg      config.Config
	store    *repository.Store
	verifier TokenVerifier
	redis    *redis.Client
	log      zerolog.Logger
}

func NewServer(cfg config.Config, store *repository.Store, verifier TokenVerifier, redisClient *redis.Client, logger zerolog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		verifier: verifier,
		redis:    redisClient,
		log:      logger,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/google-login", s.handleGoogleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/user", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Get("/{id}", s.handleGetUser)
				r.Put("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})

			r.Route("/student", func(r chi.Router) {
				r.Get("/", s.handleListStudents)
				r.Get("/by-department/{departmentName}", s.handleListStudentsByDepartment)
				r.Get("/by-student-number/{studentNumber}", s.handleGetStudentByNumber)
				r.Get("/{id}", s.handleGetStudent)
				r.Post("/", s.handleCreateStudent)
				r.With(s.requireRole(auth.RoleStudent, auth.RoleAdmin)).Put("/{id}", s.handleUpdateStudent)
				r.With(s.requireRole(auth.RoleAdmin)).Put("/admin-update/{id}", s.handleAdminUpdateStudent)
				r.With(s.requireRole(auth.RoleStudent, auth.RoleAdmin)).Delete("/{id}", s.handleDeleteStudent)
				r.With(s.requireRole(auth.RoleAdmin)).Delete("/by-department/{departmentName}", s.handleDeleteStudentsByDepartment)
			})

			r.Route("/professor", func(r chi.Router) {
				r.Get("/", s.handleListProfessors)
				r.Get("/by-department/{departmentName}", s.handleListProfessorsByDepartment)
				r.Get("/{id}", s.handleGetProfessor)
				r.Get("/{id}/department", s.handleGetProfessorDepartment)
				r.Get("/{id}/registration-sessions", s.handleGetProfessorSessions)
				r.Post("/", s.handleCreateProfessor)
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Put("/{id}", s.handleUpdateProfessor)
				r.With(s.requireRole(auth.RoleAdmin)).Put("/admin-update/{id}", s.handleAdminUpdateProfessor)
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Delete("/{id}", s.handleDeleteProfessor)
			})

			r.Route("/department", func(r chi.Router) {
				r.Get("/", s.handleListDepartments)
				r.Get("/{id}", s.handleGetDepartment)
				r.With(s.requireRole(auth.RoleAdmin)).Post("/", s.handleCreateDepartment)
				r.With(s.requireRole(auth.RoleAdmin)).Put("/{id}", s.handleUpdateDepartment)
				r.With(s.requireRole(auth.RoleAdmin)).Delete("/{id}", s.handleDeleteDepartment)
			})

			r.Route("/registrationsession", func(r chi.Router) {
				r.Get("/", s.handleListSessions)
				r.Get("/active", s.handleListActiveSessions)
				r.Get("/{id}", s.handleGetSession)
				r.With(s.requireRole(auth.RoleProfessor)).Post("/", s.handleCreateSession)
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Put("/{id}", s.handleUpdateSession)
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Delete("/{id}", s.handleDeleteSession)
			})

			r.Route("/registrationrequest", func(r chi.Router) {
				r.Get("/", s.handleListRequests)
				r.Get("/by-student/{studentId}", s.handleListRequestsByStudent)
				r.Get("/by-session/{sessionId}", s.handleListRequestsBySession)
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Get("/approved-by-professor/{professorId}", s.handleListApprovedRequestsByProfessor)
				r.Get("/{id}", s.handleGetRequest)
				r.With(s.requireRole(auth.RoleStudent, auth.RoleAdmin)).Post("/", s.handleCreateRequest)
				r.Put("/{id}", s.handleUpdateRequest)
				r.Delete("/{id}", s.handleDeleteRequest)
			})

			r.Route("/fileupload", func(r chi.Router) {
				r.With(s.requireRole(auth.RoleProfessor, auth.RoleAdmin)).Get("/", s.handleListFiles)
				r.Get("/by-professor/{professorId}", s.handleListFilesByProfessor)
				r.Get("/by-request/{requestId}", s.handleListFilesByRequest)
				r.Get("/download/{id}", s.handleDownloadFile)
				r.Get("/{id}", s.handleGetFile)
				r.Post("/upload", s.handleUploadFile)
				r.Delete("/{id}", s.handleDeleteFile)
			})
		})
	})

	return r
}

// Auth middleware

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.JWTAudience, token)
		if err != nil {
			// The precise cause stays server-side; clients get a
			// uniform rejection.
			s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
			writeError(w, http.StatusUnauthorized, "Missing or invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, "Missing or invalid token")
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "Forbidden: insufficient role")
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Helpers

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
