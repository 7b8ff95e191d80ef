package mockapi_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"egovportal/internal/domain"
	"egovportal/internal/mockapi"
)

func newTestServer(t *testing.T) (*mockapi.Server, *httptest.Server) {
	t.Helper()
	s, err := mockapi.New(mockapi.Options{BcryptCost: bcrypt.MinCost, Seed: true})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func login(t *testing.T, ts *httptest.Server, email, password string) domain.AuthPayload {
	t.Helper()
	var payload domain.AuthPayload
	status := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", domain.Credentials{Email: email, Password: password}, &payload)
	require.Equal(t, http.StatusOK, status)
	return payload
}

func registerCitizen(t *testing.T, ts *httptest.Server, email string) domain.AuthPayload {
	t.Helper()
	var payload domain.AuthPayload
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", domain.UserInput{
		Name: "Ana", Email: email, Password: "secret", Role: domain.RoleAdmin,
	}, &payload)
	require.Equal(t, http.StatusCreated, status)
	return payload
}

func firstService(t *testing.T, ts *httptest.Server, token string) domain.Service {
	t.Helper()
	var body struct {
		Services []domain.Service `json:"services"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/services", token, nil, &body))
	require.NotEmpty(t, body.Services)
	return body.Services[0]
}

func TestPing(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegister_ForcesCitizenRole(t *testing.T) {
	_, ts := newTestServer(t)

	payload := registerCitizen(t, ts, "ana@example.com")

	assert.NotEmpty(t, payload.Data.Token)
	assert.Equal(t, domain.RoleCitizen, payload.Data.User.Role)
	assert.Equal(t, "Registration successful", payload.Message)
}

func TestRegister_DuplicateEmailConflicts(t *testing.T) {
	_, ts := newTestServer(t)
	registerCitizen(t, ts, "ana@example.com")

	var errBody domain.ErrorResponse
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", domain.UserInput{Email: "ANA@example.com", Password: "x"}, &errBody)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already registered", errBody.Message)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	var errBody domain.ErrorResponse
	status := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", domain.Credentials{Email: "admin@egov.local", Password: "wrong"}, &errBody)

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", errBody.Message)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s, ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, ts, http.MethodGet, "/api/requests", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, ts, http.MethodGet, "/api/requests", "garbage", nil, nil))

	tok := login(t, ts, "admin@egov.local", "admin123").Data.Token
	assert.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/requests", tok, nil, nil))

	s.RevokeAll()
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, ts, http.MethodGet, "/api/requests", tok, nil, nil))
}

func TestRoleRestrictions(t *testing.T) {
	_, ts := newTestServer(t)
	citizen := registerCitizen(t, ts, "ana@example.com").Data.Token
	officer := login(t, ts, "officer@egov.local", "officer123").Data.Token

	assert.Equal(t, http.StatusForbidden, doJSON(t, ts, http.MethodGet, "/api/users", citizen, nil, nil))
	assert.Equal(t, http.StatusForbidden, doJSON(t, ts, http.MethodGet, "/api/reports/dashboard", officer, nil, nil))
	assert.Equal(t, http.StatusForbidden, doJSON(t, ts, http.MethodPost, "/api/departments", officer, domain.DepartmentInput{Name: "X"}, nil))
}

func TestServices_FilterByDepartment(t *testing.T) {
	_, ts := newTestServer(t)
	tok := registerCitizen(t, ts, "ana@example.com").Data.Token

	var depts struct {
		Departments []domain.Department `json:"departments"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/departments", tok, nil, &depts))
	require.Len(t, depts.Departments, 2)

	var all, filtered struct {
		Services []domain.Service `json:"services"`
	}
	doJSON(t, ts, http.MethodGet, "/api/services", tok, nil, &all)
	doJSON(t, ts, http.MethodGet, "/api/services?department="+strconv.FormatInt(depts.Departments[0].ID, 10), tok, nil, &filtered)

	assert.Len(t, all.Services, 3)
	assert.Len(t, filtered.Services, 2)
	for _, svc := range filtered.Services {
		assert.Equal(t, depts.Departments[0].ID, svc.DepartmentID)
	}
}

func TestRequestLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	citizen := registerCitizen(t, ts, "ana@example.com").Data.Token
	other := registerCitizen(t, ts, "bob@example.com").Data.Token
	officer := login(t, ts, "officer@egov.local", "officer123").Data.Token

	// 1. Cidadão envia a solicitação em multipart com um documento.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("service_id", strconv.FormatInt(firstService(t, ts, citizen).ID, 10)))
	require.NoError(t, mw.WriteField("description", "Lost my card"))
	fw, err := mw.CreateFormFile("documents", "photo.jpg")
	require.NoError(t, err)
	fw.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/requests", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+citizen)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var created struct {
		Request domain.ServiceRequest `json:"request"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.StatusPending, created.Request.Status)
	require.Len(t, created.Request.Documents, 1)
	assert.Equal(t, "photo.jpg", created.Request.Documents[0].Name)

	// 2. Outro cidadão não enxerga a solicitação.
	var list struct {
		Requests []domain.ServiceRequest `json:"requests"`
	}
	doJSON(t, ts, http.MethodGet, "/api/requests", other, nil, &list)
	assert.Empty(t, list.Requests)
	path := "/api/requests/" + strconv.FormatInt(created.Request.ID, 10)
	assert.Equal(t, http.StatusNotFound, doJSON(t, ts, http.MethodGet, path, other, nil, nil))

	// 3. Rejeição sem motivo falha; aprovação gera notificação.
	assert.Equal(t, http.StatusBadRequest, doJSON(t, ts, http.MethodPatch, path+"/status", officer, domain.StatusUpdate{Status: domain.StatusRejected}, nil))
	assert.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodPatch, path+"/status", officer, domain.StatusUpdate{Status: domain.StatusApproved}, nil))

	var notes struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	doJSON(t, ts, http.MethodGet, "/api/notifications", citizen, nil, &notes)
	require.Len(t, notes.Notifications, 2)
	assert.Equal(t, "Request Approved", notes.Notifications[0].Title)

	// 4. Solicitação aprovada não pode ser retirada pelo cidadão.
	assert.Equal(t, http.StatusConflict, doJSON(t, ts, http.MethodDelete, path, citizen, nil, nil))
}

func TestPayments(t *testing.T) {
	_, ts := newTestServer(t)
	citizen := registerCitizen(t, ts, "ana@example.com").Data.Token

	var created struct {
		Request domain.ServiceRequest `json:"request"`
	}
	status := doJSON(t, ts, http.MethodPost, "/api/requests", citizen, map[string]interface{}{"service_id": firstService(t, ts, citizen).ID, "description": "Shop"}, &created)
	require.Equal(t, http.StatusCreated, status)

	var paid struct {
		Payment domain.Payment `json:"payment"`
	}
	status = doJSON(t, ts, http.MethodPost, "/api/payments/simulate", citizen, domain.PaymentInput{RequestID: created.Request.ID, Amount: 100}, &paid)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "completed", paid.Payment.Status)
	assert.Contains(t, paid.Payment.TransactionID, "txn_")

	var list struct {
		Payments []domain.Payment `json:"payments"`
	}
	doJSON(t, ts, http.MethodGet, "/api/payments", citizen, nil, &list)
	assert.Len(t, list.Payments, 1)
}

func TestAdminReports(t *testing.T) {
	_, ts := newTestServer(t)
	admin := login(t, ts, "admin@egov.local", "admin123").Data.Token

	var body struct {
		Dashboard domain.DashboardReport `json:"dashboard"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/reports/dashboard", admin, nil, &body))
	assert.Equal(t, 2, body.Dashboard.TotalUsers)
	assert.Equal(t, 3, body.Dashboard.TotalServices)
}

func TestRateLimiter(t *testing.T) {
	s, err := mockapi.New(mockapi.Options{BcryptCost: bcrypt.MinCost, RateLimit: 1, RateBurst: 1})
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	first, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	first.Body.Close()
	second, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	second.Body.Close()

	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
