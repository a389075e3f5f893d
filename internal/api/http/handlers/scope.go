package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/api/dto"
	"github.com/reelhouse/movie-catalog/internal/auth"
	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/events"
	"github.com/reelhouse/movie-catalog/internal/session"
	apperrors "github.com/reelhouse/movie-catalog/pkg/util/errorutil"
)

// ClientCookie identifies a browser client; each client owns one session.
const ClientCookie = "movie_sid"

const (
	scopeKey   = "client_scope"
	managerKey = "session_manager"
	clientKey  = "backend_client"

	clientCookieMaxAge = 30 * 24 * 60 * 60
)

// Dependencies are shared by the handlers that build per-request services.
type Dependencies struct {
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

func (d Dependencies) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// ClientBinder resolves the client cookie to its session manager and a backend
// client bound to that manager's credentials.
type ClientBinder struct {
	registry *session.Registry
	backend  *backend.Client
	secure   bool
}

// NewClientBinder constructs the binder.
func NewClientBinder(registry *session.Registry, client *backend.Client, secureCookie bool) *ClientBinder {
	return &ClientBinder{registry: registry, backend: client, secure: secureCookie}
}

// Handle issues the client cookie when missing and stores the request scope.
func (b *ClientBinder) Handle(c *fiber.Ctx) error {
	scope := utils.CopyString(c.Cookies(ClientCookie))
	if _, err := uuid.Parse(scope); err != nil {
		scope = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     ClientCookie,
			Value:    scope,
			Path:     "/",
			MaxAge:   clientCookieMaxAge,
			Secure:   b.secure,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}

	manager := b.registry.Get(c.UserContext(), scope)
	c.Locals(scopeKey, scope)
	c.Locals(managerKey, manager)
	c.Locals(clientKey, b.backend.WithCredentials(manager))
	auth.SetCapabilities(c, manager.Capabilities())
	return c.Next()
}

func requestScope(c *fiber.Ctx) (string, *session.Manager, *backend.Client, error) {
	scope, _ := c.Locals(scopeKey).(string)
	manager, _ := c.Locals(managerKey).(*session.Manager)
	client, _ := c.Locals(clientKey).(*backend.Client)
	if scope == "" || manager == nil || client == nil {
		return "", nil, nil, apperrors.NewInternalError(nil)
	}
	return scope, manager, client, nil
}

func sessionView(m *session.Manager) dto.SessionView {
	view := dto.SessionView{State: m.State().String()}
	s := m.Session()
	if !s.Authenticated() {
		return view
	}
	caps := m.Capabilities()
	view.Authenticated = true
	view.UserID = s.ID
	view.Username = s.Username
	view.Email = s.Email
	view.Roles = s.Roles
	view.IsAdmin = caps.IsAdmin()
	return view
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, nil)
	}
	return int64(id), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
