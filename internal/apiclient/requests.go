package apiclient

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
)

// RequestsAPI agrupa /requests.
type RequestsAPI struct{ c *Client }

func (r *RequestsAPI) List(ctx context.Context) (*Response, error) {
	return r.c.do(ctx, call{op: "requests.list", method: http.MethodGet, path: "/requests", fallback: "Failed to load requests"})
}

func (r *RequestsAPI) Get(ctx context.Context, id int64) (*Response, error) {
	return r.c.do(ctx, call{op: "requests.get", method: http.MethodGet, path: idPath("/requests", id), fallback: "Failed to load request"})
}

// Create envia a solicitação como multipart/form-data: service_id,
// description e um campo "documents" por arquivo anexado.
func (r *RequestsAPI) Create(ctx context.Context, in domain.NewRequest) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("service_id", strconv.FormatInt(in.ServiceID, 10)); err != nil {
		return nil, apperror.NewInternalError("falha ao montar formulário", err)
	}
	if err := mw.WriteField("description", in.Description); err != nil {
		return nil, apperror.NewInternalError("falha ao montar formulário", err)
	}
	for _, doc := range in.Documents {
		part, err := mw.CreateFormFile("documents", doc.Name)
		if err != nil {
			return nil, apperror.NewInternalError("falha ao anexar documento", err)
		}
		if _, err := part.Write(doc.Content); err != nil {
			return nil, apperror.NewInternalError("falha ao anexar documento", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, apperror.NewInternalError("falha ao montar formulário", err)
	}

	return r.c.do(ctx, call{
		op:          "requests.create",
		method:      http.MethodPost,
		path:        "/requests",
		body:        &buf,
		contentType: mw.FormDataContentType(),
		fallback:    "Failed to submit application",
	})
}

// UpdateStatus chama PATCH /requests/{id}/status com {status, officer_notes}.
func (r *RequestsAPI) UpdateStatus(ctx context.Context, id int64, in domain.StatusUpdate) (*Response, error) {
	return r.c.doJSON(ctx, call{op: "requests.update_status", method: http.MethodPatch, path: idPath("/requests", id) + "/status", fallback: "Failed to update request status"}, in)
}

func (r *RequestsAPI) Delete(ctx context.Context, id int64) (*Response, error) {
	return r.c.do(ctx, call{op: "requests.delete", method: http.MethodDelete, path: idPath("/requests", id), fallback: "Failed to delete request"})
}

// NotificationsAPI agrupa /notifications.
type NotificationsAPI struct{ c *Client }

func (n *NotificationsAPI) List(ctx context.Context) (*Response, error) {
	return n.c.do(ctx, call{op: "notifications.list", method: http.MethodGet, path: "/notifications", fallback: "Failed to load notifications"})
}

// MarkRead chama PATCH /notifications/{id}/read.
func (n *NotificationsAPI) MarkRead(ctx context.Context, id int64) (*Response, error) {
	return n.c.do(ctx, call{op: "notifications.mark_read", method: http.MethodPatch, path: idPath("/notifications", id) + "/read", fallback: "Failed to update notification"})
}

// ReportsAPI agrupa /reports.
type ReportsAPI struct{ c *Client }

func (r *ReportsAPI) Dashboard(ctx context.Context) (*Response, error) {
	return r.c.do(ctx, call{op: "reports.dashboard", method: http.MethodGet, path: "/reports/dashboard", fallback: "Failed to load dashboard"})
}

func (r *ReportsAPI) Stats(ctx context.Context) (*Response, error) {
	return r.c.do(ctx, call{op: "reports.stats", method: http.MethodGet, path: "/reports/stats", fallback: "Failed to load reports"})
}

// PaymentsAPI agrupa /payments.
type PaymentsAPI struct{ c *Client }

// Simulate chama POST /payments/simulate.
func (p *PaymentsAPI) Simulate(ctx context.Context, in domain.PaymentInput) (*Response, error) {
	return p.c.doJSON(ctx, call{op: "payments.simulate", method: http.MethodPost, path: "/payments/simulate", fallback: "Payment failed"}, in)
}

func (p *PaymentsAPI) List(ctx context.Context) (*Response, error) {
	return p.c.do(ctx, call{op: "payments.list", method: http.MethodGet, path: "/payments", fallback: "Failed to load payments"})
}
