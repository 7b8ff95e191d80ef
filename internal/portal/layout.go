package portal

import "egovportal/internal/domain"

// MenuItem é uma entrada do menu lateral.
type MenuItem struct {
	Path  string
	Label string
}

// Shell é a moldura comum das telas autenticadas.
type Shell struct {
	Title       string
	Menu        []MenuItem
	DisplayName string
	Role        domain.UserRole
}

var menus = map[domain.UserRole][]MenuItem{
	domain.RoleCitizen: {
		{Path: "/citizen/dashboard", Label: "Dashboard"},
		{Path: "/citizen/apply", Label: "Apply for Service"},
		{Path: "/citizen/requests", Label: "Track Requests"},
		{Path: "/citizen/payments", Label: "Payments"},
		{Path: "/citizen/notifications", Label: "Notifications"},
		{Path: "/citizen/profile", Label: "Profile"},
	},
	domain.RoleOfficer: {
		{Path: "/officer/dashboard", Label: "Dashboard"},
	},
	domain.RoleAdmin: {
		{Path: "/admin/dashboard", Label: "Dashboard"},
		{Path: "/admin/departments", Label: "Departments"},
		{Path: "/admin/services", Label: "Services"},
		{Path: "/admin/users", Label: "Users"},
		{Path: "/admin/reports", Label: "Reports"},
		{Path: "/admin/notifications", Label: "Notifications"},
	},
}

var titles = map[domain.UserRole]string{
	domain.RoleCitizen: "Citizen Portal",
	domain.RoleOfficer: "Officer Portal",
	domain.RoleAdmin:   "Admin Portal",
}

// MenuFor devolve uma cópia do menu do papel.
func MenuFor(role domain.UserRole) []MenuItem {
	return append([]MenuItem(nil), menus[role]...)
}

// Shell monta a moldura para a sessão atual. ok é false sem sessão.
func (p *Portal) Shell() (shell Shell, ok bool) {
	snap := p.session.Snapshot()
	if snap.Session == nil {
		return Shell{}, false
	}
	user := snap.Session.User
	return Shell{
		Title:       titles[user.Role],
		Menu:        MenuFor(user.Role),
		DisplayName: user.DisplayName(),
		Role:        user.Role,
	}, true
}

// Logout encerra a sessão. Não chama o backend.
func (p *Portal) Logout() {
	p.session.Logout()
}
