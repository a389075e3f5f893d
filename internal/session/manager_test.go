package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/backend/backendtest"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

type harness struct {
	srv     *backendtest.Server
	store   *MemoryStore
	manager *Manager
	events  []events.SessionChangedPayload
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)

	h := &harness{srv: srv, store: NewMemoryStore(nil)}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventSessionChanged, func(_ context.Context, e events.Event) error {
		h.events = append(h.events, e.Payload.(events.SessionChangedPayload))
		return nil
	})
	h.manager = NewManager(Options{
		API:        backend.New(backend.Options{BaseURL: srv.URL}),
		Store:      h.store,
		Dispatcher: dispatcher,
	})
	return h
}

func (h *harness) stored(t *testing.T) *domain.Session {
	t.Helper()
	s, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return s
}

func TestManager_LoginPersistsSession(t *testing.T) {
	h := newHarness(t)
	id := h.srv.AddUser("alice", "alice@example.com", "secret1", domain.RoleUser, domain.RoleAdmin)

	require.NoError(t, h.manager.Login(context.Background(), "alice", "secret1"))

	assert.Equal(t, Authenticated, h.manager.State())
	stored := h.stored(t)
	require.NotNil(t, stored)
	assert.Equal(t, h.manager.Token(), stored.Token)
	assert.Equal(t, id, stored.ID)

	caps := h.manager.Capabilities()
	assert.True(t, caps.IsAuthenticated())
	assert.True(t, caps.IsAdmin())
	assert.Equal(t, id, caps.SubjectID())

	require.Len(t, h.events, 1)
	assert.Equal(t, events.TransitionLogin, h.events[0].Transition)
	assert.True(t, h.events[0].Authenticated)
}

func TestManager_SessionIsACopy(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	require.NoError(t, h.manager.Login(context.Background(), "alice", "secret1"))

	s := h.manager.Session()
	s.Roles[0] = domain.RoleAdmin
	assert.False(t, h.manager.Capabilities().IsAdmin())
}

func TestManager_WrongPasswordKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	h.srv.AddUser("bob", "bob@example.com", "secret2")
	ctx := context.Background()

	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	before := h.stored(t)

	err := h.manager.Login(ctx, "bob", "wrong")
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeAuthFailed, de.Code)
	assert.Equal(t, "Invalid username or password", de.Message)
	assert.Equal(t, Erroring, h.manager.State())
	assert.Equal(t, err, h.manager.LastError())

	assert.Equal(t, before, h.stored(t))
	assert.Equal(t, "alice", h.manager.Capabilities().Username())
}

// bindClient wires the manager the way the web registry does: its own calls
// go through a client that carries its credentials.
func (h *harness) bindClient() *recordingAPI {
	api := &recordingAPI{AuthAPI: backend.New(backend.Options{BaseURL: h.srv.URL}).WithCredentials(h.manager)}
	h.manager.api = api
	return api
}

func TestManager_BoundClientWrongPasswordKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	h.bindClient()
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	h.srv.AddUser("bob", "bob@example.com", "secret2")
	ctx := context.Background()

	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	before := h.stored(t)
	require.NotNil(t, before)

	err := h.manager.Login(ctx, "bob", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthFailed))
	assert.Empty(t, h.srv.LastAuthorization("POST /auth/login"))

	assert.Equal(t, before, h.stored(t))
	assert.True(t, h.manager.Capabilities().IsAuthenticated())
	assert.Equal(t, "alice", h.manager.Capabilities().Username())
	assert.False(t, h.srv.Revoked(before.Token))
}

func TestManager_BoundClientFailedRegisterKeepsExistingSession(t *testing.T) {
	h := newHarness(t)
	h.bindClient()
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	before := h.stored(t)

	h.srv.FailNext("POST /auth/register", http.StatusUnauthorized, "Registration closed")
	err := h.manager.Register(ctx, "carol", "carol@example.com", "secret3")
	require.Error(t, err)
	assert.Equal(t, "registration", apperrors.ToDomainError(err).Details["step"])
	assert.Empty(t, h.srv.LastAuthorization("POST /auth/register"))
	assert.Equal(t, before, h.stored(t))
}

func TestManager_SwitchingUserRevokesPreviousToken(t *testing.T) {
	h := newHarness(t)
	api := h.bindClient()
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	h.srv.AddUser("bob", "bob@example.com", "secret2")
	ctx := context.Background()

	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	aliceToken := h.manager.Token()
	require.NoError(t, h.manager.Login(ctx, "bob", "secret2"))

	assert.Equal(t, "bob", h.manager.Capabilities().Username())
	assert.Equal(t, []string{aliceToken}, api.LoggedOut)
	assert.True(t, h.srv.Revoked(aliceToken))
	assert.False(t, h.srv.Revoked(h.manager.Token()))
}

// recordingAPI remembers the tokens it was asked to revoke.
type recordingAPI struct {
	AuthAPI
	LoggedOut []string
}

func (r *recordingAPI) Logout(ctx context.Context, token string) error {
	r.LoggedOut = append(r.LoggedOut, token)
	return r.AuthAPI.Logout(ctx, token)
}

func TestManager_LoginUnreachableUsesFallbackMessage(t *testing.T) {
	srv := backendtest.New()
	srv.Close()
	store := NewMemoryStore(nil)
	m := NewManager(Options{API: backend.New(backend.Options{BaseURL: srv.URL}), Store: store})

	err := m.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeAuthFailed, de.Code)
	assert.Equal(t, "Login failed. Please try again.", de.Message)
	assert.Equal(t, apperrors.CodeNetwork, de.Details["cause"])
	assert.False(t, m.Capabilities().IsAuthenticated())
}

func TestManager_LoginValidatesLocally(t *testing.T) {
	h := newHarness(t)

	err := h.manager.Login(context.Background(), "  ", "")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	fields := apperrors.FieldErrors(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "password")
	assert.Zero(t, h.srv.Calls("POST /auth/login"))
	assert.Equal(t, Anonymous, h.manager.State())
}

func TestManager_LogoutClearsAndRevokes(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	token := h.manager.Token()

	require.NoError(t, h.manager.Logout(ctx))

	assert.Nil(t, h.stored(t))
	assert.Empty(t, h.manager.Token())
	assert.Equal(t, Anonymous, h.manager.State())
	assert.True(t, h.srv.Revoked(token))
	assert.Equal(t, "Bearer "+token, h.srv.LastAuthorization("POST /auth/logout"))
	assert.Equal(t, events.TransitionLogout, h.events[len(h.events)-1].Transition)
}

func TestManager_LogoutClearsWhenBackendFails(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))

	h.srv.FailNext("POST /auth/logout", http.StatusInternalServerError, "boom")
	require.NoError(t, h.manager.Logout(ctx))

	assert.Nil(t, h.stored(t))
	assert.False(t, h.manager.Capabilities().IsAuthenticated())
	assert.Equal(t, 1, h.srv.Calls("POST /auth/logout"))
}

func TestManager_LogoutClearsWhenBackendUnreachable(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))

	h.srv.Close()
	require.NoError(t, h.manager.Logout(ctx))
	assert.Nil(t, h.stored(t))
}

func TestManager_LogoutWhenAnonymousSkipsBackend(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.manager.Logout(context.Background()))
	assert.Zero(t, h.srv.Calls("POST /auth/logout"))
}

func TestManager_RegisterLogsIn(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.manager.Register(context.Background(), "carol", "carol@example.com", "secret3"))

	caps := h.manager.Capabilities()
	assert.True(t, caps.IsAuthenticated())
	assert.True(t, caps.HasRole(domain.RoleUser))
	assert.NotNil(t, h.stored(t))
	assert.Equal(t, events.TransitionRegister, h.events[len(h.events)-1].Transition)
}

func TestManager_RegisterAttributesFailingStep(t *testing.T) {
	t.Run("registration", func(t *testing.T) {
		h := newHarness(t)
		h.srv.AddUser("carol", "carol@example.com", "secret3")

		err := h.manager.Register(context.Background(), "carol", "carol2@example.com", "secret3")
		require.Error(t, err)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeAuthFailed, de.Code)
		assert.Equal(t, "Username already exists", de.Message)
		assert.Equal(t, "registration", de.Details["step"])
		assert.Zero(t, h.srv.Calls("POST /auth/login"))
	})

	t.Run("login", func(t *testing.T) {
		h := newHarness(t)
		h.srv.FailNext("POST /auth/login", http.StatusInternalServerError, "")

		err := h.manager.Register(context.Background(), "dave", "dave@example.com", "secret4")
		require.Error(t, err)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "login", de.Details["step"])
		assert.Equal(t, "Login failed. Please try again.", de.Message)
		assert.Equal(t, 1, h.srv.Calls("POST /auth/register"))
		assert.Nil(t, h.stored(t))
	})

	t.Run("unreachable", func(t *testing.T) {
		h := newHarness(t)
		h.srv.Close()

		err := h.manager.Register(context.Background(), "erin", "erin@example.com", "secret5")
		require.Error(t, err)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, "Registration failed. Please try again.", de.Message)
		assert.Equal(t, "registration", de.Details["step"])
	})
}

func TestManager_RegisterValidatesLocally(t *testing.T) {
	h := newHarness(t)

	err := h.manager.Register(context.Background(), "ab", "not-an-email", "123")
	require.Error(t, err)
	fields := apperrors.FieldErrors(err)
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.Zero(t, h.srv.Calls("POST /auth/register"))
}

func TestCredentials_LengthsCountCharacters(t *testing.T) {
	ok := credentials{Username: strings.Repeat("ø", 50), Email: "bjorn@example.com", Password: "ééé"}
	assert.Contains(t, apperrors.FieldErrors(ok.validateRegister()), "password")

	ok.Password = "ééééé€"
	assert.NoError(t, ok.validateRegister())

	long := ok
	long.Username = strings.Repeat("ø", 51)
	assert.Contains(t, apperrors.FieldErrors(long.validateRegister()), "username")
}

func TestManager_InvalidateOnlyCurrentToken(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))
	current := h.manager.Token()

	h.manager.Invalidate("some-older-token")
	assert.Equal(t, current, h.manager.Token())
	assert.NotNil(t, h.stored(t))

	h.manager.Invalidate(current)
	assert.Empty(t, h.manager.Token())
	assert.Nil(t, h.stored(t))
	assert.Equal(t, Anonymous, h.manager.State())
	assert.Equal(t, events.TransitionInvalidated, h.events[len(h.events)-1].Transition)
}

func TestManager_BoundClientInvalidatesOnUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.srv.AddUser("alice", "alice@example.com", "secret1")
	ctx := context.Background()
	require.NoError(t, h.manager.Login(ctx, "alice", "secret1"))

	client := backend.New(backend.Options{BaseURL: h.srv.URL}).WithCredentials(h.manager)
	h.srv.FailNext("POST /reviews", http.StatusUnauthorized, "Token expired")

	_, err := client.CreateReview(ctx, backend.ReviewInput{MovieID: 1, Rating: 5})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	assert.False(t, h.manager.Capabilities().IsAuthenticated())
}

func TestManager_RestoreRehydratesFromStore(t *testing.T) {
	store := NewMemoryStore(nil)
	require.NoError(t, store.Save(context.Background(), sampleSession(t)))

	m := NewManager(Options{Store: store})
	assert.False(t, m.Capabilities().IsAuthenticated())

	m.Restore(context.Background())
	assert.Equal(t, Authenticated, m.State())
	assert.Equal(t, "alice", m.Capabilities().Username())
}

type blockingAPI struct {
	started chan struct{}
	release chan struct{}
	resp    *backend.LoginResponse
	err     error
}

func (b *blockingAPI) Login(ctx context.Context, _ backend.LoginRequest) (*backend.LoginResponse, error) {
	close(b.started)
	<-b.release
	return b.resp, b.err
}

func (b *blockingAPI) Register(context.Context, backend.RegisterRequest) (*backend.RegisterResponse, error) {
	return nil, errors.New("not implemented")
}

func (b *blockingAPI) Logout(context.Context, string) error { return nil }

func TestManager_ConcurrentTransitionIsBusy(t *testing.T) {
	api := &blockingAPI{
		started: make(chan struct{}),
		release: make(chan struct{}),
		resp:    &backend.LoginResponse{Token: "opaque", ID: 1, Username: "alice", Roles: []string{domain.RoleUser}},
	}
	m := NewManager(Options{API: api})

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = m.Login(context.Background(), "alice", "secret1")
	}()
	<-api.started

	assert.True(t, m.Busy())
	assert.Equal(t, Authenticating, m.State())
	err := m.Login(context.Background(), "alice", "secret1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeBusy))
	assert.True(t, apperrors.HasCode(m.Logout(context.Background()), apperrors.CodeBusy))

	close(api.release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.False(t, m.Busy())
	assert.Equal(t, "opaque", m.Token())
}

func TestManager_LoginResponseWithoutRolesIsRejected(t *testing.T) {
	api := &blockingAPI{
		started: make(chan struct{}),
		release: make(chan struct{}),
		resp:    &backend.LoginResponse{Token: "opaque", ID: 1, Username: "alice"},
	}
	close(api.release)
	store := NewMemoryStore(nil)
	m := NewManager(Options{API: api, Store: store})

	err := m.Login(context.Background(), "alice", "secret1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAuthFailed))
	s, _ := store.Load(context.Background())
	assert.Nil(t, s)
}
