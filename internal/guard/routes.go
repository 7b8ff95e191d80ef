package guard

import (
	"strings"

	"egovportal/internal/domain"
	"egovportal/internal/session"
)

// Page identifica uma tela do portal.
type Page string

const (
	PageLanding              Page = "landing"
	PageCitizenLogin         Page = "citizen-login"
	PageCitizenRegister      Page = "citizen-register"
	PageOfficerLogin         Page = "officer-login"
	PageAdminLogin           Page = "admin-login"
	PageCitizenDashboard     Page = "citizen-dashboard"
	PageCitizenApply         Page = "citizen-apply"
	PageCitizenRequests      Page = "citizen-requests"
	PageCitizenNotifications Page = "citizen-notifications"
	PageCitizenProfile       Page = "citizen-profile"
	PageCitizenPayments      Page = "citizen-payments"
	PageOfficerDashboard     Page = "officer-dashboard"
	PageOfficerRequest       Page = "officer-request"
	PageAdminDashboard       Page = "admin-dashboard"
	PageAdminDepartments     Page = "admin-departments"
	PageAdminServices        Page = "admin-services"
	PageAdminUsers           Page = "admin-users"
	PageAdminReports         Page = "admin-reports"
	PageAdminNotifications   Page = "admin-notifications"
	PageNotFound             Page = "not-found"
)

// Route associa um padrão de caminho a uma página e aos papéis exigidos.
// Roles vazio significa página pública.
type Route struct {
	Pattern string
	Page    Page
	Roles   []domain.UserRole
}

// Public informa se a rota dispensa autenticação.
func (r Route) Public() bool { return len(r.Roles) == 0 }

var (
	citizenOnly = []domain.UserRole{domain.RoleCitizen}
	officerOnly = []domain.UserRole{domain.RoleOfficer}
	adminOnly   = []domain.UserRole{domain.RoleAdmin}
)

// Routes é a superfície de rotas do portal.
var Routes = []Route{
	{Pattern: "/", Page: PageLanding},
	{Pattern: "/citizen/login", Page: PageCitizenLogin},
	{Pattern: "/citizen/register", Page: PageCitizenRegister},
	{Pattern: "/officer/login", Page: PageOfficerLogin},
	{Pattern: "/admin/login", Page: PageAdminLogin},

	{Pattern: "/citizen/dashboard", Page: PageCitizenDashboard, Roles: citizenOnly},
	{Pattern: "/citizen/apply", Page: PageCitizenApply, Roles: citizenOnly},
	{Pattern: "/citizen/requests", Page: PageCitizenRequests, Roles: citizenOnly},
	{Pattern: "/citizen/notifications", Page: PageCitizenNotifications, Roles: citizenOnly},
	{Pattern: "/citizen/profile", Page: PageCitizenProfile, Roles: citizenOnly},
	{Pattern: "/citizen/payments", Page: PageCitizenPayments, Roles: citizenOnly},

	{Pattern: "/officer/dashboard", Page: PageOfficerDashboard, Roles: officerOnly},
	{Pattern: "/officer/request/:id", Page: PageOfficerRequest, Roles: officerOnly},

	{Pattern: "/admin/dashboard", Page: PageAdminDashboard, Roles: adminOnly},
	{Pattern: "/admin/departments", Page: PageAdminDepartments, Roles: adminOnly},
	{Pattern: "/admin/services", Page: PageAdminServices, Roles: adminOnly},
	{Pattern: "/admin/users", Page: PageAdminUsers, Roles: adminOnly},
	{Pattern: "/admin/reports", Page: PageAdminReports, Roles: adminOnly},
	{Pattern: "/admin/notifications", Page: PageAdminNotifications, Roles: adminOnly},
}

// NotFound é a rota usada quando nenhum padrão casa. É pública.
var NotFound = Route{Pattern: "*", Page: PageNotFound}

// Match é o resultado de Resolve.
type Match struct {
	Route  Route
	Params map[string]string
}

// Resolve encontra a rota do caminho. Query string e barra final são ignoradas.
func Resolve(path string) Match {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segs := splitPath(path)
	for _, r := range Routes {
		if params, ok := matchPattern(splitPath(r.Pattern), segs); ok {
			return Match{Route: r, Params: params}
		}
	}
	return Match{Route: NotFound}
}

// Navigate resolve o caminho e avalia o acesso com o estado atual da sessão.
// Deve ser chamado a cada navegação: a decisão nunca é reaproveitada.
func Navigate(src SnapshotSource, path string) (Match, Decision) {
	m := Resolve(path)
	return m, Evaluate(src.Snapshot(), m.Route.Roles)
}

// SnapshotSource é satisfeito por *session.Store.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchPattern(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}
