// Package apiclient é a única fronteira HTTP do portal: toda chamada ao
// backend passa por aqui. O cliente injeta o token de sessão, classifica as
// falhas e, em respostas 401, encerra a sessão antes de devolver o erro.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperror "egovportal/internal/errors"
	"egovportal/internal/pkg/logger"
)

// DefaultBaseURL é usado quando nenhuma URL é configurada.
const DefaultBaseURL = "http://localhost:5000/api"

// maxBodyBytes limita o corpo lido de qualquer resposta.
const maxBodyBytes = 10 << 20

// ErrResponseTooLarge indica um corpo de resposta acima de maxBodyBytes.
var ErrResponseTooLarge = errors.New("response too large")

// Session é o que o cliente precisa da sessão: o token atual e o efeito
// colateral de logout forçado em respostas 401.
type Session interface {
	Token() string
	ForceLogout()
}

// Client agrupa os conjuntos de operações por domínio.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	logger     logger.Logger

	Auth          *AuthAPI
	Departments   *DepartmentsAPI
	Services      *ServicesAPI
	Requests      *RequestsAPI
	Users         *UsersAPI
	Notifications *NotificationsAPI
	Reports       *ReportsAPI
	Payments      *PaymentsAPI
}

// New cria o cliente. baseURL é fixado aqui e nunca relido.
// httpClient nil usa um http.Client sem timeout próprio (padrões do transporte).
// session nil significa que nenhuma credencial é enviada.
func New(baseURL string, httpClient *http.Client, session Session, log logger.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
		logger:     log,
	}
	c.Auth = &AuthAPI{c: c}
	c.Departments = &DepartmentsAPI{c: c}
	c.Services = &ServicesAPI{c: c}
	c.Requests = &RequestsAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Notifications = &NotificationsAPI{c: c}
	c.Reports = &ReportsAPI{c: c}
	c.Payments = &PaymentsAPI{c: c}
	return c
}

// NewHTTPClient devolve um http.Client com o timeout indicado; zero mantém o
// comportamento do transporte.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// BaseURL devolve o endereço base configurado.
func (c *Client) BaseURL() string { return c.baseURL }

// call descreve uma chamada ao backend.
type call struct {
	op          string // identificador da operação para logs e erros
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	fallback    string // mensagem padrão da operação
}

func (c *Client) doJSON(ctx context.Context, cl call, payload any) (*Response, error) {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, apperror.NewInternalError("falha ao serializar payload de "+cl.op, err)
		}
		cl.body = bytes.NewReader(raw)
		cl.contentType = "application/json"
	}
	return c.do(ctx, cl)
}

// do executa a chamada, sem retentativas.
func (c *Client) do(ctx context.Context, cl call) (*Response, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, cl.body)
	if err != nil {
		return nil, apperror.NewInternalError("falha ao montar requisição "+cl.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancelamento pelo chamador não é indisponibilidade do backend.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", cl.op, ctxErr)
		}
		c.logger.Warn("Backend inacessível.", map[string]interface{}{"op": cl.op, "url": u, "request_id": requestID, "error": err.Error()})
		return nil, &apperror.APIError{Kind: apperror.KindUnreachable, Op: cl.op, Fallback: cl.fallback, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", cl.op, ctxErr)
		}
		return nil, &apperror.APIError{Kind: apperror.KindUnreachable, Op: cl.op, Status: resp.StatusCode, Fallback: cl.fallback, Err: err}
	}

	c.logger.Debug("Chamada ao backend concluída.", map[string]interface{}{
		"op":          cl.op,
		"method":      cl.method,
		"path":        cl.path,
		"status":      resp.StatusCode,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Info("Backend rejeitou a credencial; encerrando sessão.", map[string]interface{}{"op": cl.op})
		if c.session != nil {
			c.session.ForceLogout()
		}
		return nil, &apperror.APIError{
			Kind:          apperror.KindUnauthorized,
			Op:            cl.op,
			Status:        resp.StatusCode,
			ServerMessage: messageFrom(body),
			Fallback:      cl.fallback,
			Body:          body,
		}
	case len(body) > maxBodyBytes:
		c.logger.Warn("Resposta acima do limite.", map[string]interface{}{"op": cl.op, "request_id": requestID, "limit": maxBodyBytes})
		return nil, &apperror.APIError{
			Kind:     apperror.KindDecode,
			Op:       cl.op,
			Status:   resp.StatusCode,
			Fallback: cl.fallback,
			Err:      fmt.Errorf("%w (limit %d bytes)", ErrResponseTooLarge, maxBodyBytes),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &apperror.APIError{
			Kind:          apperror.KindApplication,
			Op:            cl.op,
			Status:        resp.StatusCode,
			ServerMessage: messageFrom(body),
			Fallback:      cl.fallback,
			Body:          body,
		}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// decodeError converte uma falha de interpretação de corpo 2xx num APIError.
func decodeError(op, fallback string, resp *Response, err error) error {
	if err == nil {
		err = errors.New("campo ausente")
	}
	return &apperror.APIError{
		Kind:     apperror.KindDecode,
		Op:       op,
		Status:   resp.Status,
		Fallback: fallback,
		Body:     resp.Body,
		Err:      err,
	}
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
