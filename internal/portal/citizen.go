package portal

import (
	"context"
	"strings"

	"egovportal/internal/domain"
)

// recentRequests é quantas solicitações o painel do cidadão mostra.
const recentRequests = 5

// CitizenDashboardView é o painel do cidadão.
type CitizenDashboardView struct {
	Recent []domain.ServiceRequest
	Stats  domain.RequestStats
}

// RequestFilter filtra listas de solicitações. Status vazio ou "all" não filtra.
type RequestFilter struct {
	Status domain.RequestStatus
	Search string
}

func (f RequestFilter) apply(requests []domain.ServiceRequest, withCitizen bool) []domain.ServiceRequest {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]domain.ServiceRequest, 0, len(requests))
	for _, r := range requests {
		if f.Status != "" && f.Status != "all" && r.Status != f.Status {
			continue
		}
		if term != "" {
			hit := strings.Contains(strings.ToLower(r.ServiceName), term) ||
				strings.Contains(strings.ToLower(r.Description), term) ||
				(withCitizen && strings.Contains(strings.ToLower(r.CitizenName), term))
			if !hit {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func (p *Portal) requests(ctx context.Context, op string) ([]domain.ServiceRequest, error) {
	resp, err := p.api.Requests.List(ctx)
	if err != nil {
		return nil, p.fail(op, err, "Failed to load requests")
	}
	reqs, err := list[domain.ServiceRequest](resp, "requests")
	if err != nil {
		return nil, p.fail(op, err, "Failed to load requests")
	}
	return reqs, nil
}

// CitizenDashboard mostra as cinco solicitações mais recentes e a contagem por status.
func (p *Portal) CitizenDashboard(ctx context.Context) (CitizenDashboardView, error) {
	reqs, err := p.requests(ctx, "citizen.dashboard")
	if err != nil {
		return CitizenDashboardView{}, err
	}
	recent := reqs
	if len(recent) > recentRequests {
		recent = recent[:recentRequests]
	}
	return CitizenDashboardView{Recent: recent, Stats: domain.CountRequests(reqs)}, nil
}

// TrackRequests lista as solicitações do cidadão, filtradas por status e por
// texto no nome do serviço ou na descrição.
func (p *Portal) TrackRequests(ctx context.Context, filter RequestFilter) ([]domain.ServiceRequest, error) {
	reqs, err := p.requests(ctx, "citizen.requests")
	if err != nil {
		return nil, err
	}
	return filter.apply(reqs, false), nil
}

// ApplyView é o formulário de solicitação: departamentos e, se escolhido, seus serviços.
type ApplyView struct {
	Departments []domain.Department
	Services    []domain.Service
}

// ApplyForm carrega os departamentos e, com departmentID > 0, os serviços dele.
func (p *Portal) ApplyForm(ctx context.Context, departmentID int64) (ApplyView, error) {
	resp, err := p.api.Departments.List(ctx)
	if err != nil {
		return ApplyView{}, p.fail("citizen.apply", err, "Failed to load departments")
	}
	depts, err := list[domain.Department](resp, "departments")
	if err != nil {
		return ApplyView{}, p.fail("citizen.apply", err, "Failed to load departments")
	}
	view := ApplyView{Departments: depts, Services: []domain.Service{}}
	if departmentID <= 0 {
		return view, nil
	}

	resp, err = p.api.Services.ListByDepartment(ctx, departmentID)
	if err != nil {
		return ApplyView{}, p.fail("citizen.apply", err, "Failed to load services")
	}
	if view.Services, err = list[domain.Service](resp, "services"); err != nil {
		return ApplyView{}, p.fail("citizen.apply", err, "Failed to load services")
	}
	return view, nil
}

// Apply envia uma solicitação com seus documentos.
func (p *Portal) Apply(ctx context.Context, in domain.NewRequest) (domain.ServiceRequest, error) {
	if in.ServiceID <= 0 {
		return domain.ServiceRequest{}, invalid("Please select a service")
	}
	resp, err := p.api.Requests.Create(ctx, in)
	if err != nil {
		return domain.ServiceRequest{}, p.fail("citizen.apply", err, "Failed to submit application")
	}
	req, err := one[domain.ServiceRequest](resp, "request")
	if err != nil {
		return domain.ServiceRequest{}, p.fail("citizen.apply", err, "Failed to submit application")
	}
	p.logger.Info("Solicitação enviada.", map[string]interface{}{"request_id": req.ID, "service_id": in.ServiceID})
	return req, nil
}

// WithdrawRequest retira uma solicitação ainda pendente.
func (p *Portal) WithdrawRequest(ctx context.Context, id int64) error {
	if _, err := p.api.Requests.Delete(ctx, id); err != nil {
		return p.fail("citizen.withdraw", err, "Failed to withdraw request")
	}
	return nil
}

// Notifications lista os avisos do usuário logado (todos, para o administrador).
func (p *Portal) Notifications(ctx context.Context) ([]domain.Notification, error) {
	resp, err := p.api.Notifications.List(ctx)
	if err != nil {
		return nil, p.fail("notifications", err, "Failed to load notifications")
	}
	notes, err := list[domain.Notification](resp, "notifications")
	if err != nil {
		return nil, p.fail("notifications", err, "Failed to load notifications")
	}
	return notes, nil
}

// MarkNotificationRead marca um aviso como lido.
func (p *Portal) MarkNotificationRead(ctx context.Context, id int64) error {
	if _, err := p.api.Notifications.MarkRead(ctx, id); err != nil {
		return p.fail("notifications.read", err, "Failed to update notification")
	}
	return nil
}

// Profile busca o perfil atualizado no backend.
func (p *Portal) Profile(ctx context.Context) (domain.Identity, error) {
	resp, err := p.api.Profile.Profile(ctx)
	if err != nil {
		return domain.Identity{}, p.fail("profile", err, "Failed to load profile")
	}
	user, err := one[domain.Identity](resp, "user")
	if err != nil {
		return domain.Identity{}, p.fail("profile", err, "Failed to load profile")
	}
	return user, nil
}

// UpdateProfile salva o perfil e troca a identidade da sessão pela devolvida.
func (p *Portal) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (domain.Identity, error) {
	resp, err := p.api.Profile.UpdateProfile(ctx, in)
	if err != nil {
		return domain.Identity{}, p.fail("profile.update", err, "Failed to update profile")
	}
	user, err := one[domain.Identity](resp, "user")
	if err != nil {
		return domain.Identity{}, p.fail("profile.update", err, "Failed to update profile")
	}
	if err := p.session.UpdateIdentity(user); err != nil {
		return domain.Identity{}, p.fail("profile.update", err, "Failed to update profile")
	}
	return user, nil
}

// Payments lista os pagamentos do cidadão.
func (p *Portal) Payments(ctx context.Context) ([]domain.Payment, error) {
	resp, err := p.api.Payments.List(ctx)
	if err != nil {
		return nil, p.fail("payments", err, "Failed to load payments")
	}
	payments, err := list[domain.Payment](resp, "payments")
	if err != nil {
		return nil, p.fail("payments", err, "Failed to load payments")
	}
	return payments, nil
}

// Pay simula o pagamento da taxa de uma solicitação.
func (p *Portal) Pay(ctx context.Context, in domain.PaymentInput) (domain.Payment, error) {
	if in.RequestID <= 0 || in.Amount <= 0 {
		return domain.Payment{}, invalid("Request and amount are required")
	}
	resp, err := p.api.Payments.Simulate(ctx, in)
	if err != nil {
		return domain.Payment{}, p.fail("payments.simulate", err, "Payment failed")
	}
	payment, err := one[domain.Payment](resp, "payment")
	if err != nil {
		return domain.Payment{}, p.fail("payments.simulate", err, "Payment failed")
	}
	return payment, nil
}
