// Package portal implementa as telas do portal sobre a sessão e o cliente
// HTTP. Cada tela é um método que busca ou envia dados e devolve a visão
// pronta para exibição, ou um *Error com a mensagem a mostrar ao usuário.
package portal

import (
	"context"
	"errors"
	"fmt"

	"egovportal/internal/apiclient"
	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
	"egovportal/internal/pkg/logger"
	"egovportal/internal/session"
)

// SessionService é o que as telas usam do session.Store.
type SessionService interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) domain.AuthResult
	Register(ctx context.Context, reg domain.Registration) domain.AuthResult
	Logout()
	UpdateIdentity(identity domain.Identity) error
}

// ProfileAPI cobre /auth/profile.
type ProfileAPI interface {
	Profile(ctx context.Context) (*apiclient.Response, error)
	UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*apiclient.Response, error)
}

// DepartmentsAPI cobre /departments.
type DepartmentsAPI interface {
	List(ctx context.Context) (*apiclient.Response, error)
	Get(ctx context.Context, id int64) (*apiclient.Response, error)
	Create(ctx context.Context, in domain.DepartmentInput) (*apiclient.Response, error)
	Update(ctx context.Context, id int64, in domain.DepartmentInput) (*apiclient.Response, error)
	Delete(ctx context.Context, id int64) (*apiclient.Response, error)
}

// ServicesAPI cobre /services.
type ServicesAPI interface {
	List(ctx context.Context) (*apiclient.Response, error)
	ListByDepartment(ctx context.Context, departmentID int64) (*apiclient.Response, error)
	Create(ctx context.Context, in domain.ServiceInput) (*apiclient.Response, error)
	Update(ctx context.Context, id int64, in domain.ServiceInput) (*apiclient.Response, error)
	Delete(ctx context.Context, id int64) (*apiclient.Response, error)
}

// RequestsAPI cobre /requests.
type RequestsAPI interface {
	List(ctx context.Context) (*apiclient.Response, error)
	Get(ctx context.Context, id int64) (*apiclient.Response, error)
	Create(ctx context.Context, in domain.NewRequest) (*apiclient.Response, error)
	UpdateStatus(ctx context.Context, id int64, in domain.StatusUpdate) (*apiclient.Response, error)
	Delete(ctx context.Context, id int64) (*apiclient.Response, error)
}

// UsersAPI cobre /users.
type UsersAPI interface {
	List(ctx context.Context) (*apiclient.Response, error)
	Create(ctx context.Context, in domain.UserInput) (*apiclient.Response, error)
	Update(ctx context.Context, id int64, in domain.UserInput) (*apiclient.Response, error)
	Delete(ctx context.Context, id int64) (*apiclient.Response, error)
}

// NotificationsAPI cobre /notifications.
type NotificationsAPI interface {
	List(ctx context.Context) (*apiclient.Response, error)
	MarkRead(ctx context.Context, id int64) (*apiclient.Response, error)
}

// ReportsAPI cobre /reports.
type ReportsAPI interface {
	Dashboard(ctx context.Context) (*apiclient.Response, error)
	Stats(ctx context.Context) (*apiclient.Response, error)
}

// PaymentsAPI cobre /payments.
type PaymentsAPI interface {
	Simulate(ctx context.Context, in domain.PaymentInput) (*apiclient.Response, error)
	List(ctx context.Context) (*apiclient.Response, error)
}

// Backend agrupa os grupos de operações usados pelas telas.
type Backend struct {
	Profile       ProfileAPI
	Departments   DepartmentsAPI
	Services      ServicesAPI
	Requests      RequestsAPI
	Users         UsersAPI
	Notifications NotificationsAPI
	Reports       ReportsAPI
	Payments      PaymentsAPI
}

// BackendFrom monta o Backend a partir do cliente HTTP.
func BackendFrom(c *apiclient.Client) Backend {
	return Backend{
		Profile:       c.Auth,
		Departments:   c.Departments,
		Services:      c.Services,
		Requests:      c.Requests,
		Users:         c.Users,
		Notifications: c.Notifications,
		Reports:       c.Reports,
		Payments:      c.Payments,
	}
}

// Portal reúne as telas.
type Portal struct {
	session SessionService
	api     Backend
	logger  logger.Logger
}

// New cria o Portal.
func New(sess SessionService, api Backend, log logger.Logger) *Portal {
	if log == nil {
		log = logger.Nop()
	}
	return &Portal{session: sess, api: api, logger: log}
}

// Error é a falha de uma tela. Message é o texto para o usuário.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message devolve o texto a exibir para qualquer erro devolvido pelas telas.
func Message(err error, fallback string) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Message
	}
	return apperror.UserMessage(err, fallback)
}

// invalid é uma recusa local, sem chamada de rede.
func invalid(msg string) error {
	return &Error{Message: msg, Err: apperror.NewValidationError(msg)}
}

// fail converte a falha de uma chamada. A mensagem do servidor tem prioridade;
// backend fora do ar e sessão expirada mantêm suas mensagens próprias; o resto
// usa o texto da tela.
func (p *Portal) fail(op string, err error, msg string) error {
	var apiErr *apperror.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ServerMessage != "":
			msg = apiErr.ServerMessage
		case apiErr.Kind == apperror.KindUnreachable || apiErr.Kind == apperror.KindUnauthorized:
			msg = apiErr.Message()
		}
	}
	p.logger.Warn("Falha na tela.", map[string]interface{}{"op": op, "error": err.Error()})
	return &Error{Message: msg, Err: err}
}

// list lê uma coleção do corpo; coleção ausente é lista vazia.
func list[T any](resp *apiclient.Response, name string) ([]T, error) {
	var out []T
	found, err := resp.Field(name, &out)
	if err != nil {
		return nil, err
	}
	if !found || out == nil {
		return []T{}, nil
	}
	return out, nil
}

// one lê um objeto do corpo; objeto ausente é erro.
func one[T any](resp *apiclient.Response, name string) (T, error) {
	var out T
	found, err := resp.Field(name, &out)
	if err != nil {
		return out, err
	}
	if !found {
		return out, fmt.Errorf("resposta sem o campo %q", name)
	}
	return out, nil
}
