package apiclient_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"egovportal/internal/apiclient"
	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
)

// MockSession é uma implementação mock da interface apiclient.Session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Token() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSession) ForceLogout() {
	m.Called()
}

func newClient(t *testing.T, h http.HandlerFunc, sess apiclient.Session) *apiclient.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return apiclient.New(ts.URL+"/api", ts.Client(), sess, nil)
}

func TestNew_DefaultBaseURL(t *testing.T) {
	c := apiclient.New("", nil, nil, nil)
	assert.Equal(t, apiclient.DefaultBaseURL, c.BaseURL())

	c = apiclient.New("http://example.test/api/", nil, nil, nil)
	assert.Equal(t, "http://example.test/api", c.BaseURL())
}

func TestDo_AttachesBearerToken(t *testing.T) {
	sess := new(MockSession)
	sess.On("Token").Return("T")

	var gotAuth, gotPath, gotRequestID string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"requests":[]}`))
	}, sess)

	resp, err := c.Requests.List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Bearer T", gotAuth)
	assert.Equal(t, "/api/requests", gotPath)
	assert.NotEmpty(t, gotRequestID)
	sess.AssertExpectations(t)
}

func TestDo_NoAuthorizationWhenLoggedOut(t *testing.T) {
	sess := new(MockSession)
	sess.On("Token").Return("")

	var hadHeader bool
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, hadHeader = r.Header["Authorization"]
		w.Write([]byte(`{"departments":[]}`))
	}, sess)

	_, err := c.Departments.List(context.Background())

	require.NoError(t, err)
	assert.False(t, hadHeader)
}

func TestDo_UnauthorizedForcesLogoutOnce(t *testing.T) {
	sess := new(MockSession)
	sess.On("Token").Return("T")
	sess.On("ForceLogout").Return().Once()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}, sess)

	resp, err := c.Requests.List(context.Background())

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, apperror.IsUnauthorized(err))
	var apiErr *apperror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Token expired", apiErr.Message())
	sess.AssertNumberOfCalls(t, "ForceLogout", 1)
}

func TestDo_ApplicationErrorKeepsServerMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":409,"category":"CONFLICT","message":"Email already registered"}`))
	}, nil)

	_, err := c.Auth.Register(context.Background(), domain.Registration{Email: "a@b.c", Password: "x"})

	var apiErr *apperror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apperror.KindApplication, apiErr.Kind)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Email already registered", apiErr.Message())
}

func TestDo_ApplicationErrorFallsBackToOperationMessage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	_, err := c.Auth.Profile(context.Background())

	assert.Equal(t, "Failed to fetch profile", apperror.UserMessage(err, "x"))
}

func TestDo_OversizedBodyIsRejected(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), 10<<20+1))
	}, nil)

	_, err := c.Requests.List(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, apiclient.ErrResponseTooLarge)
	var apiErr *apperror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apperror.KindDecode, apiErr.Kind)
}

func TestDo_BodyAtLimitIsAccepted(t *testing.T) {
	payload := []byte(`{"requests":[]}`)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
		w.Write(bytes.Repeat([]byte(" "), 10<<20-len(payload)))
	}, nil)

	resp, err := c.Requests.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, resp.Body, 10<<20)
}

func TestDo_UnreachableBackend(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	sess := new(MockSession)
	sess.On("Token").Return("T")
	c := apiclient.New(url+"/api", nil, sess, nil)

	_, err := c.Departments.List(context.Background())

	require.Error(t, err)
	assert.True(t, apperror.IsUnreachable(err))
	assert.Equal(t, "Backend server not reachable.", apperror.UserMessage(err, "x"))
	sess.AssertNotCalled(t, "ForceLogout")
}

func TestDo_CanceledContextIsNotUnreachable(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Departments.List(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperror.IsUnreachable(err))
}

func TestServices_ListByDepartmentQuery(t *testing.T) {
	var query string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"services":[{"id":5,"name":"ID Card Renewal","department_id":3,"fee":50}]}`))
	}, nil)

	resp, err := c.Services.ListByDepartment(context.Background(), 3)
	require.NoError(t, err)

	var services []domain.Service
	found, err := resp.Field("services", &services)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "department=3", query)
	require.Len(t, services, 1)
	assert.Equal(t, 50.0, services[0].Fee)
}

func TestRequests_CreateSendsMultipart(t *testing.T) {
	var (
		serviceID, description, fileName, fileBody string
	)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		serviceID = r.FormValue("service_id")
		description = r.FormValue("description")
		f, fh, err := r.FormFile("documents")
		require.NoError(t, err)
		defer f.Close()
		raw, _ := io.ReadAll(f)
		fileName, fileBody = fh.Filename, string(raw)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"request":{"id":9,"status":"pending"}}`))
	}, nil)

	resp, err := c.Requests.Create(context.Background(), domain.NewRequest{
		ServiceID:   7,
		Description: "Renewal",
		Documents:   []domain.Upload{{Name: "id.pdf", Content: []byte("pdf")}},
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "7", serviceID)
	assert.Equal(t, "Renewal", description)
	assert.Equal(t, "id.pdf", fileName)
	assert.Equal(t, "pdf", fileBody)
}

func TestRequests_UpdateStatusPatch(t *testing.T) {
	var method, path string
	var calls int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		method, path = r.Method, r.URL.Path
		w.Write([]byte(`{"request":{"id":4,"status":"approved"}}`))
	}, nil)

	_, err := c.Requests.UpdateStatus(context.Background(), 4, domain.StatusUpdate{Status: domain.StatusApproved})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "/api/requests/4/status", path)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAuth_LoginSessionDecodesPayload(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Login successful","data":{"token":"T","user":{"id":1,"email":"a@b.c","role":"citizen"}}}`))
	}, nil)

	payload, err := c.Auth.LoginSession(context.Background(), domain.Credentials{Email: "a@b.c", Password: "x"})

	require.NoError(t, err)
	assert.Equal(t, "T", payload.Data.Token)
	assert.Equal(t, domain.RoleCitizen, payload.Data.User.Role)
}

func TestAuth_LoginSessionWithoutTokenIsDecodeError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"ok"}`))
	}, nil)

	_, err := c.Auth.LoginSession(context.Background(), domain.Credentials{})

	var apiErr *apperror.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apperror.KindDecode, apiErr.Kind)
}
