package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"egovportal/internal/apiclient"
	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
	"egovportal/internal/guard"
	"egovportal/internal/mockapi"
	"egovportal/internal/pkg/storage"
	"egovportal/internal/session"
)

// MockAuthenticator é uma implementação mock da interface session.Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) LoginSession(ctx context.Context, creds domain.Credentials) (domain.AuthPayload, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(domain.AuthPayload), args.Error(1)
}

func (m *MockAuthenticator) RegisterSession(ctx context.Context, reg domain.Registration) (domain.AuthPayload, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(domain.AuthPayload), args.Error(1)
}

// recordingNavigator guarda os destinos navegados.
type recordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

// failingStore falha em toda escrita.
type failingStore struct{ *storage.MemoryStore }

func (failingStore) Set(context.Context, string, string) error { return errors.New("disk full") }

// userWriteFails falha apenas na gravação do usuário, depois de ativado.
type userWriteFails struct {
	*storage.MemoryStore
	active bool
}

func (u *userWriteFails) Set(ctx context.Context, key, value string) error {
	if u.active && key == domain.StorageKeyUser {
		return errors.New("disk full")
	}
	return u.MemoryStore.Set(ctx, key, value)
}

func authPayload(token string, user domain.Identity) domain.AuthPayload {
	var p domain.AuthPayload
	p.Data.Token = token
	p.Data.User = user
	return p
}

func TestInitialize_EmptyStorageIsLoggedOut(t *testing.T) {
	store := session.NewStore(storage.NewMemoryStore(), nil, nil)
	assert.True(t, store.Loading())

	store.Initialize()

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Authenticated())
}

func TestInitialize_CorruptedUserIsLoggedOut(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(ctx, domain.StorageKeyToken, "T"))
	require.NoError(t, mem.Set(ctx, domain.StorageKeyUser, "{not json"))

	store := session.NewStore(mem, nil, nil)
	store.Initialize()

	assert.False(t, store.Loading())
	assert.Equal(t, "", store.Token())
}

func TestInitialize_TokenWithoutUserIsLoggedOut(t *testing.T) {
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), domain.StorageKeyToken, "T"))

	store := session.NewStore(mem, nil, nil)
	store.Initialize()

	_, ok := store.Current()
	assert.False(t, ok)
}

func TestLogin_PersistsAndInitializeRestores(t *testing.T) {
	mem := storage.NewMemoryStore()
	auth := new(MockAuthenticator)
	user := domain.Identity{ID: 1, Email: "a@b.com", Name: "Ana", Role: domain.RoleCitizen}
	auth.On("LoginSession", mock.Anything, domain.Credentials{Email: "a@b.com", Password: "x"}).
		Return(authPayload("T", user), nil)

	store := session.NewStore(mem, nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()

	result := store.Login(context.Background(), "a@b.com", "x")

	require.True(t, result.Success)
	assert.Equal(t, user, result.Identity)

	restored := session.NewStore(mem, nil, nil)
	restored.Initialize()
	got, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, domain.Session{Token: "T", User: user}, got)
	auth.AssertExpectations(t)
}

func TestLogin_FailureUsesServerMessageOrDefault(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("LoginSession", mock.Anything, domain.Credentials{Email: "a", Password: "bad"}).
		Return(domain.AuthPayload{}, &apperror.APIError{Kind: apperror.KindApplication, Status: 401, ServerMessage: "Invalid credentials"})
	auth.On("LoginSession", mock.Anything, domain.Credentials{Email: "a", Password: "down"}).
		Return(domain.AuthPayload{}, &apperror.APIError{Kind: apperror.KindUnreachable, Err: errors.New("refused")})

	store := session.NewStore(storage.NewMemoryStore(), nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()

	assert.Equal(t, domain.AuthFailure("Invalid credentials"), store.Login(context.Background(), "a", "bad"))
	assert.Equal(t, domain.AuthFailure(session.MsgLoginFailed), store.Login(context.Background(), "a", "down"))
	assert.False(t, store.Snapshot().Authenticated())
}

func TestLogin_StorageFailureRollsBack(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("LoginSession", mock.Anything, mock.Anything).
		Return(authPayload("T", domain.Identity{ID: 1, Role: domain.RoleCitizen}), nil)

	store := session.NewStore(failingStore{storage.NewMemoryStore()}, nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()

	result := store.Login(context.Background(), "a", "x")

	assert.Equal(t, domain.AuthFailure(session.MsgSessionNotSaved), result)
	assert.Equal(t, "", store.Token())
}

func TestLogin_StorageFailureDropsPreviousSession(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("LoginSession", mock.Anything, domain.Credentials{Email: "a", Password: "x"}).
		Return(authPayload("A", domain.Identity{ID: 1, Role: domain.RoleCitizen}), nil)
	auth.On("LoginSession", mock.Anything, domain.Credentials{Email: "b", Password: "y"}).
		Return(authPayload("B", domain.Identity{ID: 2, Role: domain.RoleCitizen}), nil)

	st := &userWriteFails{MemoryStore: storage.NewMemoryStore()}
	store := session.NewStore(st, nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()
	require.True(t, store.Login(context.Background(), "a", "x").Success)

	var last session.Snapshot
	changes := 0
	unsubscribe := store.Subscribe(func(s session.Snapshot) { last = s; changes++ })
	defer unsubscribe()

	st.active = true
	result := store.Login(context.Background(), "b", "y")

	assert.Equal(t, domain.AuthFailure(session.MsgSessionNotSaved), result)
	assert.Equal(t, "", store.Token())
	assert.False(t, store.Snapshot().Authenticated())
	assert.Equal(t, 1, changes)
	assert.False(t, last.Authenticated())
	assert.Zero(t, st.Len())

	reloaded := session.NewStore(st, nil, nil)
	reloaded.Initialize()
	assert.Equal(t, store.Snapshot().Authenticated(), reloaded.Snapshot().Authenticated())
}

func TestRegister_PasswordMismatchNeverCallsNetwork(t *testing.T) {
	auth := new(MockAuthenticator)
	store := session.NewStore(storage.NewMemoryStore(), nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()

	var changes int
	unsubscribe := store.Subscribe(func(session.Snapshot) { changes++ })
	defer unsubscribe()

	result := store.Register(context.Background(), domain.Registration{
		Email: "a@b.com", Password: "one", ConfirmPassword: "two", Role: domain.RoleCitizen,
	})

	assert.Equal(t, domain.AuthFailure("Passwords do not match"), result)
	assert.Zero(t, changes)
	auth.AssertNotCalled(t, "RegisterSession", mock.Anything, mock.Anything)
}

func TestRegister_LogsInAutomatically(t *testing.T) {
	auth := new(MockAuthenticator)
	reg := domain.Registration{Name: "Ana", Email: "a@b.com", Password: "x", ConfirmPassword: "x", Role: domain.RoleCitizen}
	auth.On("RegisterSession", mock.Anything, reg).
		Return(authPayload("R", domain.Identity{ID: 4, Email: "a@b.com", Role: domain.RoleCitizen}), nil)

	store := session.NewStore(storage.NewMemoryStore(), nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()

	result := store.Register(context.Background(), reg)

	assert.True(t, result.Success)
	assert.Equal(t, "R", store.Token())
}

func TestLogout_ThenInitializeIsLoggedOut(t *testing.T) {
	mem := storage.NewMemoryStore()
	auth := new(MockAuthenticator)
	auth.On("LoginSession", mock.Anything, mock.Anything).
		Return(authPayload("T", domain.Identity{ID: 1, Role: domain.RoleAdmin}), nil)

	store := session.NewStore(mem, nil, nil)
	store.SetAuthenticator(auth)
	store.Initialize()
	require.True(t, store.Login(context.Background(), "a", "x").Success)

	store.Logout()
	store.Logout()

	assert.Equal(t, 0, mem.Len())
	fresh := session.NewStore(mem, nil, nil)
	fresh.Initialize()
	assert.False(t, fresh.Snapshot().Authenticated())
}

func TestUpdateIdentity(t *testing.T) {
	mem := storage.NewMemoryStore()
	store := session.NewStore(mem, nil, nil)
	store.Initialize()

	assert.ErrorIs(t, store.UpdateIdentity(domain.Identity{ID: 1}), session.ErrNoSession)

	auth := new(MockAuthenticator)
	auth.On("LoginSession", mock.Anything, mock.Anything).
		Return(authPayload("T", domain.Identity{ID: 1, Name: "Old", Role: domain.RoleCitizen}), nil)
	store.SetAuthenticator(auth)
	require.True(t, store.Login(context.Background(), "a", "x").Success)

	require.NoError(t, store.UpdateIdentity(domain.Identity{ID: 1, Name: "New", Role: domain.RoleCitizen}))

	restored := session.NewStore(mem, nil, nil)
	restored.Initialize()
	got, ok := restored.Current()
	require.True(t, ok)
	assert.Equal(t, "T", got.Token)
	assert.Equal(t, "New", got.User.Name)
}

func TestSubscribe_ReceivesChangesUntilUnsubscribed(t *testing.T) {
	store := session.NewStore(storage.NewMemoryStore(), nil, nil)

	var seen []session.Snapshot
	unsubscribe := store.Subscribe(func(s session.Snapshot) { seen = append(seen, s) })
	store.Initialize()
	store.Initialize()
	unsubscribe()
	store.Logout()

	require.Len(t, seen, 1)
	assert.False(t, seen[0].Loading)
}

// stubBackend devolve sempre o mesmo corpo de login.
func stubBackend(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"token":"T","user":{"id":1,"email":"a@b.com","role":"citizen"}}}`))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestScenario_CitizenLoginThenGuard(t *testing.T) {
	ts := stubBackend(t)
	store := session.NewStore(storage.NewMemoryStore(), nil, nil)
	client := apiclient.New(ts.URL+"/api", ts.Client(), store, nil)
	store.SetAuthenticator(client.Auth)
	store.Initialize()

	result := store.Login(context.Background(), "a@b.com", "x")

	require.True(t, result.Success)
	assert.Equal(t, "T", store.Token())
	assert.Equal(t, domain.RoleCitizen, store.Snapshot().Role())

	_, d := guard.Navigate(store, "/citizen/dashboard")
	assert.Equal(t, guard.Allow, d.Outcome)
	_, d = guard.Navigate(store, "/admin/dashboard")
	assert.Equal(t, guard.RedirectTo("/"), d)
}

func TestScenario_UnauthorizedClearsSessionOnce(t *testing.T) {
	backend, err := mockapi.New(mockapi.Options{BcryptCost: bcrypt.MinCost, Seed: true})
	require.NoError(t, err)
	ts := httptest.NewServer(backend.Handler())
	defer ts.Close()

	mem := storage.NewMemoryStore()
	nav := &recordingNavigator{}
	store := session.NewStore(mem, nav, nil)
	client := apiclient.New(ts.URL+"/api", ts.Client(), store, nil)
	store.SetAuthenticator(client.Auth)
	store.Initialize()

	reg := domain.Registration{Name: "Ana", Email: "ana@example.com", Password: "pw", ConfirmPassword: "pw", Role: domain.RoleCitizen}
	require.True(t, store.Register(context.Background(), reg).Success)
	require.Equal(t, 2, mem.Len())

	backend.RevokeAll()
	resp, err := client.Requests.List(context.Background())

	assert.Nil(t, resp)
	assert.True(t, apperror.IsUnauthorized(err))
	assert.False(t, store.Snapshot().Authenticated())
	assert.Equal(t, 0, mem.Len())
	assert.Equal(t, []string{"/"}, nav.Paths())
}
