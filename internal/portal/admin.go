package portal

import (
	"context"
	"strings"

	"egovportal/internal/apiclient"
	"egovportal/internal/domain"
)

// AdminDashboard carrega o resumo geral.
func (p *Portal) AdminDashboard(ctx context.Context) (domain.DashboardReport, error) {
	resp, err := p.api.Reports.Dashboard(ctx)
	if err != nil {
		return domain.DashboardReport{}, p.fail("admin.dashboard", err, "Failed to load dashboard")
	}
	report, err := one[domain.DashboardReport](resp, "dashboard")
	if err != nil {
		return domain.DashboardReport{}, p.fail("admin.dashboard", err, "Failed to load dashboard")
	}
	return report, nil
}

// Reports carrega as estatísticas por status e por serviço.
func (p *Portal) Reports(ctx context.Context) (domain.StatsReport, error) {
	resp, err := p.api.Reports.Stats(ctx)
	if err != nil {
		return domain.StatsReport{}, p.fail("admin.reports", err, "Failed to load reports")
	}
	stats, err := one[domain.StatsReport](resp, "stats")
	if err != nil {
		return domain.StatsReport{}, p.fail("admin.reports", err, "Failed to load reports")
	}
	return stats, nil
}

// --- Departamentos ---

// Departments lista os departamentos.
func (p *Portal) Departments(ctx context.Context) ([]domain.Department, error) {
	resp, err := p.api.Departments.List(ctx)
	if err != nil {
		return nil, p.fail("admin.departments", err, "Failed to load departments")
	}
	depts, err := list[domain.Department](resp, "departments")
	if err != nil {
		return nil, p.fail("admin.departments", err, "Failed to load departments")
	}
	return depts, nil
}

// SaveDepartment cria (id == 0) ou edita um departamento.
func (p *Portal) SaveDepartment(ctx context.Context, id int64, in domain.DepartmentInput) (domain.Department, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Department{}, invalid("Department name is required")
	}
	var (
		resp *apiclient.Response
		err  error
	)
	if id == 0 {
		resp, err = p.api.Departments.Create(ctx, in)
	} else {
		resp, err = p.api.Departments.Update(ctx, id, in)
	}
	if err != nil {
		return domain.Department{}, p.fail("admin.departments.save", err, "Operation failed")
	}
	dept, err := one[domain.Department](resp, "department")
	if err != nil {
		return domain.Department{}, p.fail("admin.departments.save", err, "Operation failed")
	}
	return dept, nil
}

// DeleteDepartment remove um departamento.
func (p *Portal) DeleteDepartment(ctx context.Context, id int64) error {
	if _, err := p.api.Departments.Delete(ctx, id); err != nil {
		return p.fail("admin.departments.delete", err, "Failed to delete department")
	}
	return nil
}

// --- Serviços ---

// Services lista todos os serviços.
func (p *Portal) Services(ctx context.Context) ([]domain.Service, error) {
	resp, err := p.api.Services.List(ctx)
	if err != nil {
		return nil, p.fail("admin.services", err, "Failed to load services")
	}
	services, err := list[domain.Service](resp, "services")
	if err != nil {
		return nil, p.fail("admin.services", err, "Failed to load services")
	}
	return services, nil
}

// SaveService cria (id == 0) ou edita um serviço.
func (p *Portal) SaveService(ctx context.Context, id int64, in domain.ServiceInput) (domain.Service, error) {
	if strings.TrimSpace(in.Name) == "" || in.DepartmentID <= 0 {
		return domain.Service{}, invalid("Service name and department are required")
	}
	if in.Fee < 0 {
		return domain.Service{}, invalid("Fee cannot be negative")
	}
	var (
		resp *apiclient.Response
		err  error
	)
	if id == 0 {
		resp, err = p.api.Services.Create(ctx, in)
	} else {
		resp, err = p.api.Services.Update(ctx, id, in)
	}
	if err != nil {
		return domain.Service{}, p.fail("admin.services.save", err, "Operation failed")
	}
	svc, err := one[domain.Service](resp, "service")
	if err != nil {
		return domain.Service{}, p.fail("admin.services.save", err, "Operation failed")
	}
	return svc, nil
}

// DeleteService remove um serviço.
func (p *Portal) DeleteService(ctx context.Context, id int64) error {
	if _, err := p.api.Services.Delete(ctx, id); err != nil {
		return p.fail("admin.services.delete", err, "Failed to delete")
	}
	return nil
}

// --- Usuários ---

// Users lista os usuários.
func (p *Portal) Users(ctx context.Context) ([]domain.Identity, error) {
	resp, err := p.api.Users.List(ctx)
	if err != nil {
		return nil, p.fail("admin.users", err, "Failed to load users")
	}
	users, err := list[domain.Identity](resp, "users")
	if err != nil {
		return nil, p.fail("admin.users", err, "Failed to load users")
	}
	return users, nil
}

// SaveUser cria (id == 0) ou edita um usuário de qualquer papel.
func (p *Portal) SaveUser(ctx context.Context, id int64, in domain.UserInput) (domain.Identity, error) {
	if in.Role != "" && !in.Role.Valid() {
		return domain.Identity{}, invalid("Invalid role")
	}
	if id == 0 && (strings.TrimSpace(in.Email) == "" || in.Password == "") {
		return domain.Identity{}, invalid("Email and password are required")
	}
	var (
		resp *apiclient.Response
		err  error
	)
	if id == 0 {
		resp, err = p.api.Users.Create(ctx, in)
	} else {
		resp, err = p.api.Users.Update(ctx, id, in)
	}
	if err != nil {
		return domain.Identity{}, p.fail("admin.users.save", err, "Operation failed")
	}
	user, err := one[domain.Identity](resp, "user")
	if err != nil {
		return domain.Identity{}, p.fail("admin.users.save", err, "Operation failed")
	}
	return user, nil
}

// DeleteUser remove um usuário.
func (p *Portal) DeleteUser(ctx context.Context, id int64) error {
	if _, err := p.api.Users.Delete(ctx, id); err != nil {
		return p.fail("admin.users.delete", err, "Failed to delete user")
	}
	return nil
}
