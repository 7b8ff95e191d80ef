package domain

import (
	"strings"

	apperror "egovportal/internal/errors"
)

// Identity representa o usuário autenticado, como devolvido pelo backend
// em /auth/login, /auth/register e /auth/profile.
type Identity struct {
	ID      int64    `json:"id"`
	Email   string   `json:"email"`
	Name    string   `json:"name,omitempty"`
	Role    UserRole `json:"role"`
	Phone   string   `json:"phone,omitempty"`
	Address string   `json:"address,omitempty"`
}

// DisplayName devolve o nome do usuário ou, na falta dele, o email.
func (i Identity) DisplayName() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.Email
}

// UserRole é um tipo string para representar o papel do usuário no portal.
type UserRole string

// Papéis reconhecidos pelo portal.
const (
	RoleCitizen UserRole = "citizen"
	RoleOfficer UserRole = "officer"
	RoleAdmin   UserRole = "admin"
)

// Valid informa se o papel é um dos três papéis conhecidos.
func (r UserRole) Valid() bool {
	switch r {
	case RoleCitizen, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converte uma string (ex: flag da CLI) em UserRole.
func ParseRole(s string) (UserRole, bool) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Credentials é o payload de login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration representa o formulário de cadastro do cidadão.
// ConfirmPassword nunca sai do cliente.
type Registration struct {
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"-"`
	Phone           string   `json:"phone,omitempty"`
	Address         string   `json:"address,omitempty"`
	Role            UserRole `json:"role"`
}

// ProfileUpdate é o payload de PUT /auth/profile.
type ProfileUpdate struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// UserInput é o payload de criação/edição de usuários pelo administrador.
type UserInput struct {
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email,omitempty"`
	Password string   `json:"password,omitempty"`
	Role     UserRole `json:"role,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Address  string   `json:"address,omitempty"`
}

// Validate checa o formulário de cadastro antes de qualquer chamada de rede.
func (r Registration) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return apperror.NewValidationError("Email and password are required")
	}
	if r.Password != r.ConfirmPassword {
		return apperror.NewValidationError("Passwords do not match")
	}
	return nil
}
