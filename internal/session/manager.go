package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

const (
	loginFallback    = "Login failed. Please try again."
	registerFallback = "Registration failed. Please try again."

	defaultLogoutTimeout = 5 * time.Second
)

// State is the manager's position in the authentication state machine.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Erroring
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Erroring:
		return "erroring"
	default:
		return "unknown"
	}
}

// AuthAPI is the part of the backend the manager talks to.
type AuthAPI interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.LoginResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.RegisterResponse, error)
	Logout(ctx context.Context, token string) error
}

// Options configures a Manager.
type Options struct {
	API           AuthAPI
	Store         Store
	Logger        *zap.Logger
	Dispatcher    events.Dispatcher
	LogoutTimeout time.Duration
}

// Manager is the only component that mutates session state. Readers take
// snapshots through Session and Capabilities.
//
// Only one of Login, Register and Logout may run at a time; a second call
// fails immediately with a BUSY error.
type Manager struct {
	api           AuthAPI
	store         Store
	logger        *zap.Logger
	dispatcher    events.Dispatcher
	logoutTimeout time.Duration

	mu      sync.RWMutex
	state   State
	session *domain.Session
	lastErr error
	busy    bool
}

// NewManager builds an anonymous manager; call Restore to rehydrate it.
func NewManager(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore(logger)
	}
	timeout := opts.LogoutTimeout
	if timeout <= 0 {
		timeout = defaultLogoutTimeout
	}
	return &Manager{
		api:           opts.API,
		store:         store,
		logger:        logger,
		dispatcher:    opts.Dispatcher,
		logoutTimeout: timeout,
	}
}

// Restore seeds the manager from its store. Store failures leave it anonymous.
func (m *Manager) Restore(ctx context.Context) {
	m.mu.Lock()
	s, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("session store unavailable, starting anonymous", zap.Error(err))
		s = nil
	}
	m.session = s
	if s.Authenticated() {
		m.state = Authenticated
	} else {
		m.state = Anonymous
	}
	m.mu.Unlock()

	if s.Authenticated() {
		m.publish(ctx, events.TransitionRestored, s)
	}
}

// Login authenticates against the backend and persists the resulting session.
// On failure any existing session is left untouched.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	creds := credentials{Username: strings.TrimSpace(username), Password: password}
	if err := creds.validateLogin(); err != nil {
		return err
	}
	if err := m.begin(true); err != nil {
		return err
	}
	s, err := m.login(ctx, creds)
	m.finish(err)
	if err == nil {
		m.publish(ctx, events.TransitionLogin, s)
	}
	return err
}

// Register creates an account and then logs in with the same credentials.
// The error's details name the failing step.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	creds := credentials{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := creds.validateRegister(); err != nil {
		return err
	}
	if err := m.begin(true); err != nil {
		return err
	}

	var s *domain.Session
	_, err := m.api.Register(ctx, backend.RegisterRequest{
		Username: creds.Username,
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		err = authFailure(err, registerFallback, "registration")
	} else {
		s, err = m.login(ctx, creds)
	}
	m.finish(err)
	if err == nil {
		m.publish(ctx, events.TransitionRegister, s)
	}
	return err
}

// Logout clears the local session first and then tells the backend, best effort.
// Only a failure to clear the local store is returned.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.begin(false); err != nil {
		return err
	}

	m.mu.Lock()
	var token string
	if m.session != nil {
		token = m.session.Token
	}
	m.session = nil
	clearErr := m.store.Clear(ctx)
	m.state = Anonymous
	m.lastErr = nil
	m.busy = false
	m.mu.Unlock()

	if clearErr != nil {
		m.logger.Error("failed to clear session store", zap.Error(clearErr))
		clearErr = apperrors.NewInternalError(clearErr)
	}
	m.publish(ctx, events.TransitionLogout, nil)

	if token != "" {
		m.revoke(ctx, token)
	}
	return clearErr
}

// Invalidate drops the session when token is still the current credential.
func (m *Manager) Invalidate(token string) {
	m.mu.Lock()
	if m.session == nil || token == "" || m.session.Token != token {
		m.mu.Unlock()
		return
	}
	m.session = nil
	if !m.busy {
		m.state = Anonymous
	}
	err := m.store.Clear(context.Background())
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("failed to clear invalidated session", zap.Error(err))
	}
	m.logger.Info("session invalidated by backend")
	m.publish(context.Background(), events.TransitionInvalidated, nil)
}

// Token returns the current bearer token, empty when anonymous.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return ""
	}
	return m.session.Token
}

// Session returns a copy of the current session, nil when anonymous.
func (m *Manager) Session() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Capabilities derives the capability view of the last completed transition.
func (m *Manager) Capabilities() domain.Capabilities {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.CapabilitiesOf(m.session)
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError is the error of the last failed transition, cleared on success.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Busy reports whether a transition is in flight.
func (m *Manager) Busy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.busy
}

func (m *Manager) begin(authenticating bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return apperrors.NewBusy("authentication")
	}
	m.busy = true
	if authenticating {
		m.state = Authenticating
	}
	return nil
}

func (m *Manager) finish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if err != nil {
		m.state = Erroring
		m.lastErr = err
		return
	}
	m.state = Authenticated
	m.lastErr = nil
}

// login performs the backend exchange and commits the session. Callers hold the busy flag.
func (m *Manager) login(ctx context.Context, creds credentials) (*domain.Session, error) {
	resp, err := m.api.Login(ctx, backend.LoginRequest{Username: creds.Username, Password: creds.Password})
	if err != nil {
		return nil, authFailure(err, loginFallback, "login")
	}
	if resp.Token == "" || len(resp.Roles) == 0 || resp.Username == "" {
		m.logger.Warn("login response missing token, username or roles")
		return nil, apperrors.NewAuthError(loginFallback, map[string]any{"step": "login"})
	}

	s := &domain.Session{
		Identity: domain.Identity{
			ID:       resp.ID,
			Username: resp.Username,
			Email:    resp.Email,
			Roles:    append([]string(nil), resp.Roles...),
		},
		Token: resp.Token,
	}

	m.mu.Lock()
	if err := m.store.Save(ctx, s); err != nil {
		m.mu.Unlock()
		m.logger.Error("failed to persist session", zap.Error(err))
		return nil, apperrors.NewAuthError("Could not save your session. Please try again.", map[string]any{"step": "login"})
	}
	var previous string
	if m.session != nil {
		previous = m.session.Token
	}
	m.session = s
	m.mu.Unlock()

	// The replaced credential is useless locally; revoke it like a logout.
	if previous != "" && previous != s.Token {
		m.revoke(ctx, previous)
	}
	return s.Clone(), nil
}

// revoke asks the backend to drop token. Failures are logged only.
func (m *Manager) revoke(ctx context.Context, token string) {
	if m.api == nil {
		return
	}
	remoteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.logoutTimeout)
	defer cancel()
	if err := m.api.Logout(remoteCtx, token); err != nil {
		m.logger.Warn("remote logout failed", zap.Error(err))
	}
}

func (m *Manager) publish(ctx context.Context, transition events.SessionTransition, s *domain.Session) {
	payload := events.SessionChangedPayload{Transition: transition, Authenticated: s.Authenticated()}
	var actor events.Actor
	if s != nil {
		payload.Roles = s.Roles
		actor = events.Actor{UserID: s.ID, Username: s.Username}
	}
	events.Publish(ctx, m.dispatcher, events.Event{
		Type:    events.EventSessionChanged,
		Actor:   actor,
		Payload: payload,
	})
}

// authFailure converts a backend error into an AUTH_FAILED error. Backend
// messages are kept; transport and internal failures get the generic fallback.
func authFailure(err error, fallback, step string) error {
	cause := apperrors.ToDomainError(err)
	message := cause.Message
	switch cause.Code {
	case apperrors.CodeNetwork, apperrors.CodeInternal, apperrors.CodeBusy:
		message = fallback
	}
	if strings.TrimSpace(message) == "" {
		message = fallback
	}
	return &apperrors.DomainError{
		Code:       apperrors.CodeAuthFailed,
		Message:    message,
		HTTPStatus: cause.HTTPStatus,
		Details:    map[string]any{"step": step, "cause": cause.Code},
		Err:        err,
	}
}
