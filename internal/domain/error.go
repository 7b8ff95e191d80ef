package domain

// ErrorResponse é o corpo de erro esperado do backend: {message}.
// Code e Category são preenchidos pelo backend de desenvolvimento.
type ErrorResponse struct {
	Code     int    `json:"code,omitempty"`
	Category string `json:"category,omitempty"`
	Message  string `json:"message"`
}
