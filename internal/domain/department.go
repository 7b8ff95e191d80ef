package domain

import "time"

// Department representa um órgão do governo que oferece serviços.
type Department struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// DepartmentInput é o payload de criação/edição de departamento.
type DepartmentInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Service representa um serviço público solicitável por cidadãos.
type Service struct {
	ID             int64   `json:"id"`
	DepartmentID   int64   `json:"department_id"`
	DepartmentName string  `json:"department_name,omitempty"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	Fee            float64 `json:"fee"`
}

// ServiceInput é o payload de criação/edição de serviço.
type ServiceInput struct {
	DepartmentID int64   `json:"department_id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Fee          float64 `json:"fee"`
}
