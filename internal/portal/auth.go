package portal

import (
	"context"

	"egovportal/internal/domain"
)

// HomePath devolve o painel de cada papel.
func HomePath(role domain.UserRole) string {
	switch role {
	case domain.RoleCitizen:
		return "/citizen/dashboard"
	case domain.RoleOfficer:
		return "/officer/dashboard"
	case domain.RoleAdmin:
		return "/admin/dashboard"
	}
	return "/"
}

// LoginPath devolve a página de login do portal de cada papel.
func LoginPath(role domain.UserRole) string {
	switch role {
	case domain.RoleOfficer:
		return "/officer/login"
	case domain.RoleAdmin:
		return "/admin/login"
	}
	return "/citizen/login"
}

func accessDenied(role domain.UserRole) string {
	switch role {
	case domain.RoleOfficer, domain.RoleAdmin:
		return "Access denied: not an " + string(role)
	}
	return "Access denied: not a " + string(role)
}

// LoginAs é o formulário de login de um portal (cidadão, servidor ou
// administrador). Uma conta de outro papel é deslogada em seguida e o login
// falha como qualquer outro erro.
func (p *Portal) LoginAs(ctx context.Context, portalRole domain.UserRole, email, password string) domain.AuthResult {
	result := p.session.Login(ctx, email, password)
	if !result.Success {
		return result
	}
	if result.Identity.Role != portalRole {
		p.logger.Warn("Login em portal de outro papel.", map[string]interface{}{
			"portal": string(portalRole),
			"role":   string(result.Identity.Role),
		})
		p.session.Logout()
		return domain.AuthFailure(accessDenied(portalRole))
	}
	return result
}

// RegisterCitizen é o formulário de cadastro. O papel é sempre cidadão, e a
// confirmação de senha é conferida antes de qualquer chamada de rede.
func (p *Portal) RegisterCitizen(ctx context.Context, reg domain.Registration) domain.AuthResult {
	reg.Role = domain.RoleCitizen
	return p.session.Register(ctx, reg)
}
