package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"egovportal/config"
	"egovportal/internal/domain"
	"egovportal/internal/mockapi"
	"egovportal/internal/pkg/storage"
)

// terminal simula um usuário com seu próprio arquivo de sessão.
type terminal struct {
	t   *testing.T
	cfg *config.Config
}

func newBackend(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	srv, err := mockapi.New(mockapi.Options{BcryptCost: bcrypt.MinCost, Seed: true})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL + "/api"
}

func newTerminal(t *testing.T, apiURL string) *terminal {
	t.Helper()
	return &terminal{t: t, cfg: &config.Config{
		LogLevel:       "error",
		APIBaseURL:     apiURL,
		Storage:        storage.BackendFile,
		StoragePath:    filepath.Join(t.TempDir(), "session.json"),
		StorageTimeout: 5,
		Namespace:      "test",
	}}
}

func (tm *terminal) run(args ...string) (int, string, string) {
	tm.t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), tm.cfg, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (tm *terminal) mustRun(args ...string) string {
	tm.t.Helper()
	code, out, errOut := tm.run(args...)
	require.Equal(tm.t, 0, code, "egovctl %v: %s", args, errOut)
	return out
}

func (tm *terminal) registerCitizen(email string) {
	tm.t.Helper()
	tm.mustRun("register", "--name", "Ana Citizen", "--email", email, "--password", "secret", "--confirm", "secret")
}

var requestIDPattern = regexp.MustCompile(`Request #(\d+)`)

func TestRun_Usage(t *testing.T) {
	_, api := newBackend(t)
	tm := newTerminal(t, api)

	code, _, errOut := tm.run()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "usage: egovctl")

	code, _, errOut = tm.run("teleport")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown command "teleport"`)

	code, _, errOut = tm.run("approve")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "missing id")

	code, _, _ = tm.run("login", "--portal", "mayor", "--email", "a@b.c", "--password", "x")
	assert.Equal(t, 2, code)
}

func TestRun_GuardRedirectsWithoutSession(t *testing.T) {
	_, api := newBackend(t)
	tm := newTerminal(t, api)

	code, _, errOut := tm.run("open", "/citizen/dashboard")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Redirected to /")

	out := tm.mustRun("open", "/")
	assert.Contains(t, out, "/citizen/login")

	code, _, errOut = tm.run("whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Not logged in")
}

func TestRun_CitizenAndOfficerWorkflow(t *testing.T) {
	srv, api := newBackend(t)
	dept, err := srv.CreateDepartment(domain.DepartmentInput{Name: "Department of Transport"})
	require.NoError(t, err)
	svc, err := srv.CreateService(domain.ServiceInput{DepartmentID: dept.ID, Name: "Driving Licence", Fee: 35})
	require.NoError(t, err)

	citizen := newTerminal(t, api)
	citizen.registerCitizen("ana@example.com")

	// A sessão sobrevive entre invocações através do arquivo.
	out := citizen.mustRun("whoami")
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "role: citizen")

	out = citizen.mustRun("departments")
	assert.Contains(t, out, "Department of Transport")

	out = citizen.mustRun("services", "--department", itoa(dept.ID))
	assert.Contains(t, out, "Driving Licence")

	doc := filepath.Join(t.TempDir(), "passport.pdf")
	require.NoError(t, os.WriteFile(doc, []byte("%PDF-1.4"), 0o600))
	out = citizen.mustRun("apply", "--service", itoa(svc.ID), "--description", "First licence", "--file", doc)
	m := requestIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	requestID := m[1]

	out = citizen.mustRun("requests", "--status", "pending")
	assert.Contains(t, out, "Driving Licence")

	code, _, errOut := citizen.run("open", "/admin/dashboard")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Redirected to /")

	officer := newTerminal(t, api)
	officer.mustRun("login", "--portal", "officer", "--email", "officer@egov.local", "--password", "officer123")

	out = officer.mustRun("request", requestID)
	assert.Contains(t, out, "passport.pdf")
	assert.Contains(t, out, "Ana Citizen")

	code, _, errOut = officer.run("reject", requestID)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Please provide rejection reason")

	out = officer.mustRun("approve", requestID, "--notes", "All documents verified")
	assert.Contains(t, out, "is now approved")

	out = officer.mustRun("requests", "--search", "ana")
	assert.Contains(t, out, "Ana Citizen")

	out = citizen.mustRun("requests", "--status", "approved")
	assert.Contains(t, out, "Driving Licence")

	out = citizen.mustRun("notifications")
	assert.NotContains(t, out, "No notifications")

	out = citizen.mustRun("payments", "pay", "--request", requestID, "--amount", "35")
	assert.Contains(t, out, "completed (35.00)")

	out = citizen.mustRun("profile", "--phone", "555-0101")
	assert.Contains(t, out, "Profile updated successfully!")
	assert.Contains(t, out, "555-0101")

	citizen.mustRun("logout")
	code, _, _ = citizen.run("whoami")
	assert.Equal(t, 1, code)
}

func TestRun_LoginThroughWrongPortalIsRefused(t *testing.T) {
	_, api := newBackend(t)
	citizen := newTerminal(t, api)
	citizen.registerCitizen("bruno@example.com")
	citizen.mustRun("logout")

	code, _, errOut := citizen.run("login", "--portal", "officer", "--email", "bruno@example.com", "--password", "secret")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Access denied: not an officer")

	code, _, errOut = citizen.run("login", "--email", "bruno@example.com", "--password", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "error: Invalid credentials")
	assert.NotContains(t, errOut, "Session expired")

	code, _, _ = citizen.run("whoami")
	assert.Equal(t, 1, code)
}

func TestRun_RevokedTokenForcesLogout(t *testing.T) {
	srv, api := newBackend(t)
	citizen := newTerminal(t, api)
	citizen.registerCitizen("carla@example.com")

	srv.RevokeAll()

	code, _, errOut := citizen.run("requests")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Signed out. Redirected to /")

	code, _, errOut = citizen.run("requests")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Access denied to /citizen/requests")
}

func TestRun_AdminManagesCatalog(t *testing.T) {
	srv, api := newBackend(t)
	busy, err := srv.CreateDepartment(domain.DepartmentInput{Name: "Department of Labour"})
	require.NoError(t, err)
	_, err = srv.CreateService(domain.ServiceInput{DepartmentID: busy.ID, Name: "Work Permit", Fee: 10})
	require.NoError(t, err)

	admin := newTerminal(t, api)
	admin.mustRun("login", "--portal", "admin", "--email", "admin@egov.local", "--password", "admin123")

	code, _, errOut := admin.run("departments", "delete", itoa(busy.ID))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Department still has services")

	out := admin.mustRun("departments", "add", "--name", "Department of Health")
	assert.Contains(t, out, "saved")

	out = admin.mustRun("departments")
	assert.Contains(t, out, "Department of Health")

	code, _, errOut = admin.run("services", "add", "--name", "Vaccination Card")
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, errOut)

	out = admin.mustRun("users", "add", "--name", "Omar", "--email", "omar@egov.local", "--password", "pw", "--role", "officer")
	assert.Contains(t, out, "saved")

	code, _, errOut = admin.run("users", "add", "--name", "Omar", "--email", "omar@egov.local", "--password", "pw", "--role", "officer")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Email already registered")

	out = admin.mustRun("users")
	assert.Contains(t, out, "omar@egov.local")

	out = admin.mustRun("reports")
	assert.Contains(t, out, "Users: 3")

	out = admin.mustRun("open", "/admin/dashboard")
	assert.Contains(t, out, "Admin Portal")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
