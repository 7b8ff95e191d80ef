// Package session é a fonte única de "quem está logado". O Store mantém a
// sessão em memória, espelhada no armazenamento persistente (chaves token e
// user), e é injetado em tudo que precisa dela: cliente HTTP, guarda de rotas,
// páginas e layout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"egovportal/internal/domain"
	apperror "egovportal/internal/errors"
	"egovportal/internal/pkg/logger"
	"egovportal/internal/pkg/storage"
)

// Mensagens padrão quando o backend não informa {message}.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "Registration failed"
	MsgSessionNotSaved    = "Could not save session"
)

// LandingPath é a página pública para onde o logout forçado navega.
const LandingPath = "/"

// storageTimeout limita cada operação no armazenamento persistente.
const storageTimeout = 5 * time.Second

// ErrNoSession é devolvido por UpdateIdentity quando ninguém está logado.
var ErrNoSession = errors.New("session: nenhuma sessão ativa")

// Authenticator é o contrato com o cliente HTTP para login e registro.
type Authenticator interface {
	LoginSession(ctx context.Context, creds domain.Credentials) (domain.AuthPayload, error)
	RegisterSession(ctx context.Context, reg domain.Registration) (domain.AuthPayload, error)
}

// Navigator executa a navegação "dura" do logout forçado.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapta uma função a Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Snapshot é o estado observado por guarda, layout e assinantes.
type Snapshot struct {
	Loading bool
	Session *domain.Session // nil quando deslogado
}

// Authenticated informa se há sessão.
func (s Snapshot) Authenticated() bool { return s.Session != nil }

// Role devolve o papel da sessão, ou "" se deslogado.
func (s Snapshot) Role() domain.UserRole {
	if s.Session == nil {
		return ""
	}
	return s.Session.User.Role
}

// Store implementa o ciclo de vida da sessão.
type Store struct {
	mu      sync.RWMutex
	loading bool
	current *domain.Session

	storage storage.Store
	auth    Authenticator
	nav     Navigator
	logger  logger.Logger

	initOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore cria o Store no estado loading. nav pode ser nil.
func NewStore(st storage.Store, nav Navigator, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		loading: true,
		storage: st,
		nav:     nav,
		logger:  log,
		subs:    make(map[int]func(Snapshot)),
	}
}

// SetAuthenticator liga o Store ao cliente HTTP. O cliente, por sua vez,
// depende do Store para o token, por isso a ligação é feita depois da construção.
func (s *Store) SetAuthenticator(a Authenticator) {
	s.mu.Lock()
	s.auth = a
	s.mu.Unlock()
}

// Initialize lê token e usuário persistidos. Roda uma única vez; chamadas
// seguintes não fazem nada. Sempre encerra a fase loading, e qualquer falha
// de leitura ou de parse resulta em estado deslogado.
func (s *Store) Initialize() {
	s.initOnce.Do(func() {
		sess := s.readPersisted()

		s.mu.Lock()
		s.current = sess
		s.loading = false
		s.mu.Unlock()

		s.logger.Debug("Sessão inicializada.", map[string]interface{}{"authenticated": sess != nil})
		s.notify()
	})
}

func (s *Store) readPersisted() *domain.Session {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	tok, err := s.storage.Get(ctx, domain.StorageKeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Falha ao ler token persistido; iniciando deslogado.", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}
	rawUser, err := s.storage.Get(ctx, domain.StorageKeyUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("Falha ao ler usuário persistido; iniciando deslogado.", map[string]interface{}{"error": err.Error()})
		}
		return nil
	}
	if tok == "" || rawUser == "" {
		return nil
	}
	var user domain.Identity
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.logger.Warn("Usuário persistido ilegível; iniciando deslogado.", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return &domain.Session{Token: tok, User: user}
}

// Snapshot devolve uma cópia do estado atual.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.loading}
	if s.current != nil {
		cp := *s.current
		snap.Session = &cp
	}
	return snap
}

// Current devolve a sessão atual, se houver.
func (s *Store) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.Session{}, false
	}
	return *s.current, true
}

// Token devolve o token atual ou "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// Loading informa se Initialize ainda não terminou.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Login autentica no backend e, em caso de sucesso, persiste e ativa a sessão.
func (s *Store) Login(ctx context.Context, email, password string) domain.AuthResult {
	auth := s.authenticator()
	if auth == nil {
		return domain.AuthFailure(MsgLoginFailed)
	}
	payload, err := auth.LoginSession(ctx, domain.Credentials{Email: email, Password: password})
	if err != nil {
		s.logger.Info("Login recusado.", map[string]interface{}{"email": email, "error": err.Error()})
		return domain.AuthFailure(failureMessage(err, MsgLoginFailed))
	}
	return s.establish(payload, MsgLoginFailed)
}

// Register cadastra no backend; a resposta já traz token e usuário (login automático).
// Um formulário inválido (ex: senhas diferentes) falha sem nenhuma chamada de rede.
func (s *Store) Register(ctx context.Context, reg domain.Registration) domain.AuthResult {
	if err := reg.Validate(); err != nil {
		return domain.AuthFailure(apperror.UserMessage(err, MsgRegistrationFailed))
	}
	auth := s.authenticator()
	if auth == nil {
		return domain.AuthFailure(MsgRegistrationFailed)
	}
	payload, err := auth.RegisterSession(ctx, reg)
	if err != nil {
		s.logger.Info("Registro recusado.", map[string]interface{}{"email": reg.Email, "error": err.Error()})
		return domain.AuthFailure(failureMessage(err, MsgRegistrationFailed))
	}
	return s.establish(payload, MsgRegistrationFailed)
}

func (s *Store) authenticator() Authenticator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.auth
}

// establish grava token e usuário e só então troca a sessão em memória.
func (s *Store) establish(payload domain.AuthPayload, fallback string) domain.AuthResult {
	if payload.Data.Token == "" {
		return domain.AuthFailure(fallback)
	}
	sess := &domain.Session{Token: payload.Data.Token, User: payload.Data.User}
	if err := s.persist(sess); err != nil {
		// A gravação parcial pode ter sobrescrito a sessão anterior: memória e
		// armazenamento voltam juntos para deslogado.
		s.logger.Error("Falha ao persistir sessão; login desfeito.", err)
		s.Logout()
		return domain.AuthFailure(MsgSessionNotSaved)
	}

	s.mu.Lock()
	s.current = sess
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("Sessão iniciada.", map[string]interface{}{"user_id": sess.User.ID, "role": string(sess.User.Role)})
	s.notify()
	return domain.AuthSuccess(sess.User)
}

// Logout limpa armazenamento e memória incondicionalmente. Não chama o backend
// e é seguro quando já não há sessão.
func (s *Store) Logout() {
	s.clearPersisted()

	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if had {
		s.logger.Info("Sessão encerrada.", nil)
	}
	s.notify()
}

// ForceLogout é o efeito colateral de uma resposta 401: encerra a sessão e
// navega para a página pública.
func (s *Store) ForceLogout() {
	s.Logout()
	if s.nav != nil {
		s.nav.Navigate(LandingPath)
	}
}

// UpdateIdentity troca o usuário (memória e armazenamento) sem tocar no token.
func (s *Store) UpdateIdentity(identity domain.Identity) error {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return ErrNoSession
	}

	next := &domain.Session{Token: cur.Token, User: identity}
	raw, err := json.Marshal(identity)
	if err != nil {
		return apperror.NewInternalError("falha ao serializar usuário", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := s.storage.Set(ctx, domain.StorageKeyUser, string(raw)); err != nil {
		return apperror.NewStorageError("falha ao gravar usuário", err)
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.notify()
	return nil
}

// Subscribe registra fn para ser chamada a cada mudança de estado.
// Devolve a função que cancela a inscrição.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) persist(sess *domain.Session) error {
	raw, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := s.storage.Set(ctx, domain.StorageKeyToken, sess.Token); err != nil {
		return err
	}
	return s.storage.Set(ctx, domain.StorageKeyUser, string(raw))
}

func (s *Store) clearPersisted() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	for _, key := range []string{domain.StorageKeyToken, domain.StorageKeyUser} {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Error("Falha ao remover chave da sessão.", err)
		}
	}
}

// failureMessage usa a mensagem enviada pelo servidor ou o texto padrão.
func failureMessage(err error, fallback string) string {
	var apiErr *apperror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ServerMessage != "" {
			return apiErr.ServerMessage
		}
	}
	return fallback
}
