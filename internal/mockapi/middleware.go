package mockapi

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
	"egovportal/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims são os dados do usuário extraídos do JWT e anexados ao contexto.
type UserClaims struct {
	UserID int64
	Role   domain.UserRole
}

// TokenValidator define o contrato de validação necessário para o middleware.
type TokenValidator interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// tokenRegistry guarda os tokens emitidos e ainda aceitos; RevokeAll esvazia.
type tokenRegistry struct {
	mu     sync.RWMutex
	active map[string]struct{}
}

func newTokenRegistry() *tokenRegistry {
	return &tokenRegistry{active: map[string]struct{}{}}
}

func (t *tokenRegistry) add(tok string) {
	t.mu.Lock()
	t.active[tok] = struct{}{}
	t.mu.Unlock()
}

func (t *tokenRegistry) valid(tok string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.active[tok]
	return ok
}

func (t *tokenRegistry) revokeAll() {
	t.mu.Lock()
	t.active = map[string]struct{}{}
	t.mu.Unlock()
}

// authMiddleware valida o JWT do header Authorization: Bearer <token> e anexa
// as claims ao contexto.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(authHeader) == len("Bearer ") {
			s.writeError(w, apperror.NewUnauthorizedError("Missing or malformed authorization token"))
			return
		}
		tokenString := authHeader[len("Bearer "):]

		claims, err := s.tokens.ValidateToken(tokenString)
		if err != nil || !s.registry.valid(tokenString) {
			s.writeError(w, apperror.NewUnauthorizedError("Invalid or expired token"))
			return
		}

		userClaims := UserClaims{UserID: claims.UserID, Role: domain.UserRole(claims.Role)}
		ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserClaimsFromContext extrai as claims anexadas pelo authMiddleware.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}

// requireRoles permite a requisição apenas se o papel do usuário estiver em roles.
func (s *Server) requireRoles(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserClaimsFromContext(r.Context())
			if !ok {
				s.writeError(w, apperror.NewUnauthorizedError("Authorization required"))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			s.writeError(w, apperror.NewForbiddenError("You do not have permission to perform this action"))
		})
	}
}

// rateLimiter limita requisições por IP com um token bucket por cliente.
func (s *Server) rateLimiter(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			mu.Lock()
			lim, ok := limiters[ip]
			if !ok {
				lim = rate.NewLimiter(limit, burst)
				limiters[ip] = lim
			}
			mu.Unlock()

			if !lim.Allow() {
				s.writeJSON(w, http.StatusTooManyRequests, domain.ErrorResponse{
					Code:     http.StatusTooManyRequests,
					Category: "RATE_LIMITED",
					Message:  "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
