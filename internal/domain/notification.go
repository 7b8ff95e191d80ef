package domain

import "time"

// Notification é um aviso destinado a um usuário.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id,omitempty"`
	Type      string    `json:"type"` // success, info, warning
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Payment é um pagamento (simulado) de taxa de serviço.
type Payment struct {
	ID            int64     `json:"id"`
	RequestID     int64     `json:"request_id"`
	UserID        int64     `json:"user_id,omitempty"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method,omitempty"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentInput é o payload de POST /payments/simulate.
type PaymentInput struct {
	RequestID int64   `json:"request_id"`
	Amount    float64 `json:"amount"`
	Method    string  `json:"method,omitempty"`
}

// DashboardReport é o resumo de /reports/dashboard.
type DashboardReport struct {
	TotalUsers       int          `json:"total_users"`
	TotalDepartments int          `json:"total_departments"`
	TotalServices    int          `json:"total_services"`
	Requests         RequestStats `json:"requests"`
	Revenue          float64      `json:"revenue"`
}

// ServiceStat é a contagem de solicitações por serviço em /reports/stats.
type ServiceStat struct {
	ServiceID   int64  `json:"service_id"`
	ServiceName string `json:"service_name"`
	Count       int    `json:"count"`
}

// StatsReport é o corpo de /reports/stats.
type StatsReport struct {
	ByStatus  map[RequestStatus]int `json:"by_status"`
	ByService []ServiceStat         `json:"by_service"`
}
