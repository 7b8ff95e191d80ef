package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do portal.
// Ela permite que o código externo (páginas, CLI, backend de desenvolvimento)
// acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "UNAUTHORIZED", "UNREACHABLE")
	HTTPStatus() int  // Código HTTP associado
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Erros de Domínio ---

// ValidationError representa falhas de validação de dados de entrada.
// No cliente é usado para validações que acontecem antes de qualquer chamada de rede.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., email duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa credenciais ausentes, inválidas ou expiradas.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// ForbiddenError representa um usuário autenticado sem o papel necessário.
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return fmt.Sprintf("Acesso negado: %s", e.Msg) }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden } // 403
func (e *ForbiddenError) Unwrap() error    { return nil }

// NewForbiddenError cria um novo erro de permissão.
func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// --- Erros de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro interno.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewStorageError é um atalho para falhas do armazenamento persistente da sessão.
func NewStorageError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (storage): %s", msg, err.Error()), err)
}

// --- Erros da fronteira HTTP do cliente ---

// Kind classifica uma falha de chamada ao backend.
type Kind int

const (
	// KindUnreachable: nenhuma resposta HTTP foi recebida.
	KindUnreachable Kind = iota + 1
	// KindUnauthorized: o backend respondeu 401. A sessão já foi encerrada.
	KindUnauthorized
	// KindApplication: qualquer outro status fora de 2xx.
	KindApplication
	// KindDecode: resposta 2xx com corpo que não pôde ser interpretado.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "UNREACHABLE"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindApplication:
		return "APPLICATION_ERROR"
	case KindDecode:
		return "DECODE_ERROR"
	}
	return "UNKNOWN_ERROR"
}

// APIError é o erro devolvido pelo cliente HTTP para qualquer chamada mal-sucedida.
// Carrega o suficiente para extrair uma mensagem legível: a mensagem do servidor
// quando existir, ou o texto padrão da operação.
type APIError struct {
	Kind          Kind
	Op            string // e.g. "requests.list"
	Status        int    // 0 quando não houve resposta
	ServerMessage string
	Fallback      string
	Body          []byte
	Err           error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindUnreachable:
		return fmt.Sprintf("%s: backend inacessível: %v", e.Op, e.Err)
	case KindDecode:
		return fmt.Sprintf("%s: resposta inválida: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, e.Message())
}

func (e *APIError) Category() string { return e.Kind.String() }

func (e *APIError) HTTPStatus() int {
	if e.Kind == KindUnreachable {
		return http.StatusServiceUnavailable
	}
	return e.Status
}

func (e *APIError) Unwrap() error { return e.Err }

// Message devolve a mensagem do servidor ou, na falta dela, o padrão da operação.
func (e *APIError) Message() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	if e.Kind == KindUnreachable {
		return "Backend server not reachable."
	}
	return e.Fallback
}

// IsUnauthorized informa se err (ou algum erro encapsulado) é uma rejeição 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.Kind == KindUnauthorized
}

// IsUnreachable informa se err indica que o backend não respondeu.
func IsUnreachable(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.Kind == KindUnreachable
}

// UserMessage extrai a mensagem a ser exibida ao usuário.
// Prioriza a mensagem do servidor, depois a padrão da operação e por fim fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
		return fallback
	}
	var valErr *ValidationError
	if stderrors.As(err, &valErr) {
		return valErr.Msg
	}
	return fallback
}

// --- Helper para o backend de desenvolvimento (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP, categoria e mensagem.
// A mensagem é a do próprio erro, sem o prefixo de categoria, para o corpo {message}.
func MapToHTTPStatus(err error) (int, string, string) {
	switch e := err.(type) {
	case *ValidationError:
		return e.HTTPStatus(), e.Category(), e.Msg
	case *NotFoundError:
		return e.HTTPStatus(), e.Category(), e.Msg
	case *ConflictError:
		return e.HTTPStatus(), e.Category(), e.Msg
	case *UnauthorizedError:
		return e.HTTPStatus(), e.Category(), e.Msg
	case *ForbiddenError:
		return e.HTTPStatus(), e.Category(), e.Msg
	case AppError:
		return e.HTTPStatus(), e.Category(), e.Error()
	}

	// Erro não tipado: tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
