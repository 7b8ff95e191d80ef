package portal

import (
	"context"
	"strings"

	"egovportal/internal/domain"
)

// OfficerDashboardView é o painel do servidor público. Stats conta todas as
// solicitações; Requests já vem filtrada.
type OfficerDashboardView struct {
	Requests []domain.ServiceRequest
	Stats    domain.RequestStats
}

// OfficerDashboard lista as solicitações filtradas por status e por texto no
// serviço, no nome do cidadão ou na descrição.
func (p *Portal) OfficerDashboard(ctx context.Context, filter RequestFilter) (OfficerDashboardView, error) {
	reqs, err := p.requests(ctx, "officer.dashboard")
	if err != nil {
		return OfficerDashboardView{}, err
	}
	return OfficerDashboardView{
		Requests: filter.apply(reqs, true),
		Stats:    domain.CountRequests(reqs),
	}, nil
}

// RequestDetail carrega uma solicitação.
func (p *Portal) RequestDetail(ctx context.Context, id int64) (domain.ServiceRequest, error) {
	resp, err := p.api.Requests.Get(ctx, id)
	if err != nil {
		return domain.ServiceRequest{}, p.fail("officer.request", err, "Failed to load request")
	}
	req, err := one[domain.ServiceRequest](resp, "request")
	if err != nil {
		return domain.ServiceRequest{}, p.fail("officer.request", err, "Failed to load request")
	}
	return req, nil
}

// StartProcessing move a solicitação para "processing".
func (p *Portal) StartProcessing(ctx context.Context, id int64, notes string) (domain.ServiceRequest, error) {
	return p.decide(ctx, id, domain.StatusUpdate{Status: domain.StatusProcessing, OfficerNotes: notes}, "Failed to update request")
}

// Approve aprova a solicitação; as notas são opcionais.
func (p *Portal) Approve(ctx context.Context, id int64, notes string) (domain.ServiceRequest, error) {
	return p.decide(ctx, id, domain.StatusUpdate{Status: domain.StatusApproved, OfficerNotes: notes}, "Failed to approve request")
}

// Reject rejeita a solicitação. Sem motivo, falha antes de chamar o backend.
func (p *Portal) Reject(ctx context.Context, id int64, notes string) (domain.ServiceRequest, error) {
	if strings.TrimSpace(notes) == "" {
		return domain.ServiceRequest{}, invalid("Please provide rejection reason")
	}
	return p.decide(ctx, id, domain.StatusUpdate{Status: domain.StatusRejected, OfficerNotes: notes}, "Failed to reject request")
}

func (p *Portal) decide(ctx context.Context, id int64, upd domain.StatusUpdate, msg string) (domain.ServiceRequest, error) {
	resp, err := p.api.Requests.UpdateStatus(ctx, id, upd)
	if err != nil {
		return domain.ServiceRequest{}, p.fail("officer.decide", err, msg)
	}
	req, err := one[domain.ServiceRequest](resp, "request")
	if err != nil {
		return domain.ServiceRequest{}, p.fail("officer.decide", err, msg)
	}
	p.logger.Info("Solicitação atualizada.", map[string]interface{}{"request_id": id, "status": string(upd.Status)})
	return req, nil
}
