package apiclient

import (
	"context"
	"net/http"

	"egovportal/internal/domain"
)

// AuthAPI agrupa /auth/*.
type AuthAPI struct{ c *Client }

// Register chama POST /auth/register.
func (a *AuthAPI) Register(ctx context.Context, reg domain.Registration) (*Response, error) {
	return a.c.doJSON(ctx, call{
		op:       "auth.register",
		method:   http.MethodPost,
		path:     "/auth/register",
		fallback: "Failed to register. Please check your input.",
	}, reg)
}

// Login chama POST /auth/login.
func (a *AuthAPI) Login(ctx context.Context, creds domain.Credentials) (*Response, error) {
	return a.c.doJSON(ctx, call{
		op:       "auth.login",
		method:   http.MethodPost,
		path:     "/auth/login",
		fallback: "Login failed. Please check your credentials.",
	}, creds)
}

// Profile chama GET /auth/profile.
func (a *AuthAPI) Profile(ctx context.Context) (*Response, error) {
	return a.c.do(ctx, call{
		op:       "auth.profile",
		method:   http.MethodGet,
		path:     "/auth/profile",
		fallback: "Failed to fetch profile",
	})
}

// UpdateProfile chama PUT /auth/profile.
func (a *AuthAPI) UpdateProfile(ctx context.Context, in domain.ProfileUpdate) (*Response, error) {
	return a.c.doJSON(ctx, call{
		op:       "auth.update_profile",
		method:   http.MethodPut,
		path:     "/auth/profile",
		fallback: "Failed to update profile",
	}, in)
}

// LoginSession faz o login e interpreta {data:{token,user}}.
func (a *AuthAPI) LoginSession(ctx context.Context, creds domain.Credentials) (domain.AuthPayload, error) {
	resp, err := a.Login(ctx, creds)
	if err != nil {
		return domain.AuthPayload{}, err
	}
	return decodeAuth("auth.login", resp)
}

// RegisterSession faz o registro (que já devolve token e usuário) e interpreta a resposta.
func (a *AuthAPI) RegisterSession(ctx context.Context, reg domain.Registration) (domain.AuthPayload, error) {
	resp, err := a.Register(ctx, reg)
	if err != nil {
		return domain.AuthPayload{}, err
	}
	return decodeAuth("auth.register", resp)
}

func decodeAuth(op string, resp *Response) (domain.AuthPayload, error) {
	var payload domain.AuthPayload
	if err := resp.Decode(&payload); err != nil {
		return domain.AuthPayload{}, decodeError(op, "", resp, err)
	}
	if payload.Data.Token == "" {
		return domain.AuthPayload{}, decodeError(op, "", resp, nil)
	}
	return payload, nil
}
