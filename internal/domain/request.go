package domain

import "time"

// RequestStatus é o estado de uma solicitação de serviço.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusProcessing RequestStatus = "processing"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
)

// Valid informa se o status é conhecido.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Document é um arquivo anexado a uma solicitação.
type Document struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ServiceRequest é a solicitação feita por um cidadão para um serviço.
type ServiceRequest struct {
	ID           int64         `json:"id"`
	CitizenID    int64         `json:"citizen_id"`
	CitizenName  string        `json:"citizen_name,omitempty"`
	CitizenEmail string        `json:"citizen_email,omitempty"`
	ServiceID    int64         `json:"service_id"`
	ServiceName  string        `json:"service_name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Status       RequestStatus `json:"status"`
	OfficerNotes string        `json:"officer_notes,omitempty"`
	Documents    []Document    `json:"documents,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at,omitempty"`
}

// Upload é um documento a ser enviado junto com a solicitação (multipart).
type Upload struct {
	Name    string
	Content []byte
}

// NewRequest é o formulário de solicitação de serviço.
type NewRequest struct {
	ServiceID   int64
	Description string
	Documents   []Upload
}

// StatusUpdate é o payload de PATCH /requests/{id}/status.
type StatusUpdate struct {
	Status       RequestStatus `json:"status"`
	OfficerNotes string        `json:"officer_notes"`
}

// RequestStats resume as solicitações por status.
type RequestStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
}

// CountRequests calcula as estatísticas de uma lista de solicitações.
func CountRequests(requests []ServiceRequest) RequestStats {
	stats := RequestStats{Total: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case StatusPending:
			stats.Pending++
		case StatusProcessing:
			stats.Processing++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}
