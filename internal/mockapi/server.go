// Package mockapi é um backend de desenvolvimento, em memória, que implementa
// o contrato REST consumido pelo portal. Serve para rodar o cliente localmente
// (cmd/egovmock) e como servidor dos testes de integração.
package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
	"egovportal/internal/pkg/logger"
	"egovportal/internal/pkg/token"
)

// Options configura o Server.
type Options struct {
	JWTSecret   string
	TokenExpiry time.Duration
	BcryptCost  int        // 0 usa bcrypt.DefaultCost; testes usam bcrypt.MinCost
	RateLimit   rate.Limit // 0 desativa o limitador
	RateBurst   int
	Seed        bool
	Logger      logger.Logger
}

// Server é o backend de desenvolvimento.
type Server struct {
	store    *memStore
	tokens   *token.Service
	registry *tokenRegistry
	logger   logger.Logger
	router   http.Handler
}

// New monta o Server e suas rotas.
func New(opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "egovportal-dev-secret"
	}
	if opts.TokenExpiry == 0 {
		opts.TokenExpiry = time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	s := &Server{
		store:    newMemStore(opts.BcryptCost),
		tokens:   token.NewService(opts.JWTSecret, opts.TokenExpiry),
		registry: newTokenRegistry(),
		logger:   opts.Logger,
	}
	s.router = s.routes(opts)

	if opts.Seed {
		if err := s.Seed(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler devolve o http.Handler com todas as rotas sob /api.
func (s *Server) Handler() http.Handler { return s.router }

// RevokeAll invalida todos os tokens emitidos até agora.
func (s *Server) RevokeAll() { s.registry.revokeAll() }

// CreateUser cadastra um usuário diretamente, com qualquer papel.
func (s *Server) CreateUser(in domain.UserInput) (domain.Identity, error) {
	return s.store.createUser(in)
}

// CreateDepartment cadastra um departamento diretamente.
func (s *Server) CreateDepartment(in domain.DepartmentInput) (domain.Department, error) {
	return s.store.createDepartment(in)
}

// CreateService cadastra um serviço diretamente.
func (s *Server) CreateService(in domain.ServiceInput) (domain.Service, error) {
	return s.store.createService(in)
}

// Seed cria o administrador, o servidor público e um catálogo mínimo.
func (s *Server) Seed() error {
	users := []domain.UserInput{
		{Name: "Portal Admin", Email: "admin@egov.local", Password: "admin123", Role: domain.RoleAdmin},
		{Name: "Olivia Officer", Email: "officer@egov.local", Password: "officer123", Role: domain.RoleOfficer},
	}
	for _, u := range users {
		if _, err := s.store.createUser(u); err != nil {
			return err
		}
	}
	interior, err := s.store.createDepartment(domain.DepartmentInput{Name: "Department of Interior", Description: "Identity documents and civil registry"})
	if err != nil {
		return err
	}
	commerce, err := s.store.createDepartment(domain.DepartmentInput{Name: "Department of Commerce", Description: "Business licensing"})
	if err != nil {
		return err
	}
	services := []domain.ServiceInput{
		{DepartmentID: interior.ID, Name: "ID Card Renewal", Fee: 50},
		{DepartmentID: interior.ID, Name: "Birth Certificate", Fee: 20},
		{DepartmentID: commerce.ID, Name: "Business License", Fee: 100},
	}
	for _, svc := range services {
		if _, err := s.store.createService(svc); err != nil {
			return err
		}
	}
	s.logger.Info("Backend de desenvolvimento populado.", map[string]interface{}{"users": len(users), "services": len(services)})
	return nil
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		r.Use(s.rateLimiter(opts.RateLimit, burst))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, apperror.NewNotFoundError("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, domain.ErrorResponse{Code: http.StatusMethodNotAllowed, Category: "METHOD_NOT_ALLOWED", Message: "Method not allowed"})
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	admin := s.requireRoles(domain.RoleAdmin)
	citizen := s.requireRoles(domain.RoleCitizen)
	staff := s.requireRoles(domain.RoleOfficer, domain.RoleAdmin)
	payers := s.requireRoles(domain.RoleCitizen, domain.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/profile", s.getProfile)
			r.Put("/auth/profile", s.updateProfile)

			r.Get("/departments", s.listDepartments)
			r.Get("/departments/{id}", s.getDepartment)
			r.With(admin).Post("/departments", s.createDepartment)
			r.With(admin).Put("/departments/{id}", s.updateDepartment)
			r.With(admin).Delete("/departments/{id}", s.deleteDepartment)

			r.Get("/services", s.listServices)
			r.With(admin).Post("/services", s.createService)
			r.With(admin).Put("/services/{id}", s.updateService)
			r.With(admin).Delete("/services/{id}", s.deleteService)

			r.Get("/requests", s.listRequests)
			r.Get("/requests/{id}", s.getRequest)
			r.With(citizen).Post("/requests", s.createRequest)
			r.With(staff).Patch("/requests/{id}/status", s.updateRequestStatus)
			r.With(payers).Delete("/requests/{id}", s.deleteRequest)

			r.Get("/notifications", s.listNotifications)
			r.Patch("/notifications/{id}/read", s.markNotificationRead)

			r.With(admin).Get("/users", s.listUsers)
			r.With(admin).Post("/users", s.createUser)
			r.With(admin).Put("/users/{id}", s.updateUser)
			r.With(admin).Delete("/users/{id}", s.deleteUser)

			r.With(admin).Get("/reports/dashboard", s.reportDashboard)
			r.With(admin).Get("/reports/stats", s.reportStats)

			r.With(citizen).Post("/payments/simulate", s.simulatePayment)
			r.With(payers).Get("/payments", s.listPayments)
		})
	})
	return r
}

// --- Respostas ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError traduz um erro tipado para status HTTP e corpo {code, category, message}.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		s.logger.Error("Erro interno no backend de desenvolvimento.", err)
	}
	s.writeJSON(w, status, domain.ErrorResponse{Code: status, Category: category, Message: message})
}
