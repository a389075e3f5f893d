package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/api/http/handlers"
	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/backend/backendtest"
	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
	"github.com/reelhouse/movie-catalog/internal/observability"
	"github.com/reelhouse/movie-catalog/internal/session"
)

type webFixture struct {
	srv      *backendtest.Server
	app      *fiber.App
	registry *session.Registry
	drafts   *handlers.DraftStore
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()
	srv := backendtest.New()
	t.Cleanup(srv.Close)
	srv.AddUser("admin", "admin@example.com", "secret1", domain.RoleUser, domain.RoleAdmin)
	srv.AddUser("viewer", "viewer@example.com", "secret1", domain.RoleUser)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	client := backend.New(backend.Options{BaseURL: srv.URL, Metrics: metrics})
	registry := session.NewRegistry(session.RegistryOptions{
		APIs:       func(m *session.Manager) session.AuthAPI { return client.WithCredentials(m) },
		Logger:     logger,
		Dispatcher: dispatcher,
	})
	deps := handlers.Dependencies{
		Logger:     logger,
		Dispatcher: dispatcher,
		Now:        func() time.Time { return time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC) },
	}
	drafts := handlers.NewDraftStore()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("movie-catalog-web", "test", metrics, map[string]handlers.Pinger{"backend": client}),
		Auth:    handlers.NewAuthHandler(),
		Movies:  handlers.NewMoviesHandler(deps),
		Drafts:  handlers.NewDraftsHandler(deps, drafts),
		Persons: handlers.NewPersonsHandler(deps),
		Reviews: handlers.NewReviewsHandler(deps),
		Clients: handlers.NewClientBinder(registry, client, false),
	})
	return &webFixture{srv: srv, app: app, registry: registry, drafts: drafts}
}

// browser keeps the client cookie between requests.
type browser struct {
	t      *testing.T
	app    *fiber.App
	cookie *nethttp.Cookie
}

func (f *webFixture) browser(t *testing.T) *browser {
	return &browser{t: t, app: f.app}
}

type response struct {
	status   int
	location string
	body     map[string]any
}

func (r response) data() map[string]any {
	data, _ := r.body["data"].(map[string]any)
	return data
}

func (r response) errorCode() string {
	e, _ := r.body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (b *browser) do(method, path string, body any) response {
	b.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == handlers.ClientCookie {
			b.cookie = c
		}
	}
	out := response{status: resp.StatusCode, location: resp.Header.Get("Location")}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(b.t, json.Unmarshal(raw, &out.body))
	}
	return out
}

func (b *browser) login(username string) {
	b.t.Helper()
	resp := b.do(nethttp.MethodPost, "/login", map[string]string{"username": username, "password": "secret1"})
	require.Equal(b.t, nethttp.StatusOK, resp.status, resp.body)
}

func TestClientCookie_IsIssuedOnce(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodGet, "/me", nil)
	assert.Equal(t, nethttp.StatusOK, resp.status)
	require.NotNil(t, b.cookie)
	assert.True(t, b.cookie.HttpOnly)
	assert.Equal(t, nethttp.SameSiteLaxMode, b.cookie.SameSite)
	assert.Equal(t, false, resp.data()["authenticated"])

	first := b.cookie.Value
	b.do(nethttp.MethodGet, "/me", nil)
	assert.Equal(t, first, b.cookie.Value)
	assert.Equal(t, 1, f.registry.Len())
}

func TestGuard_AnonymousIsSentToLoginWithDestination(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodGet, "/admin/genres", nil)
	assert.Equal(t, nethttp.StatusSeeOther, resp.status)
	assert.Equal(t, "/login?from=%2Fadmin%2Fgenres", resp.location)

	resp = b.do(nethttp.MethodGet, "/login?from=%2Fadmin%2Fgenres", nil)
	assert.Equal(t, "/admin/genres", resp.data()["from"])

	resp = b.do(nethttp.MethodPost, "/login", map[string]string{"username": "admin", "password": "secret1", "from": "/admin/genres"})
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "/admin/genres", resp.data()["redirect"])

	resp = b.do(nethttp.MethodGet, "/admin/genres", nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Len(t, resp.body["data"], 3)
}

func TestGuard_NonAdminIsSentHome(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)
	b.login("viewer")

	resp := b.do(nethttp.MethodPost, "/admin/movies/drafts", nil)
	assert.Equal(t, nethttp.StatusSeeOther, resp.status)
	assert.Equal(t, "/", resp.location)
	assert.Zero(t, f.drafts.Len(b.cookie.Value))
}

func TestLogin_ExternalDestinationFallsBackHome(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodPost, "/login", map[string]string{"username": "admin", "password": "secret1", "from": "//evil.example"})
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "/", resp.data()["redirect"])
}

func TestLogin_FailureRendersErrorEnvelope(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodPost, "/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.status)
	assert.Equal(t, "AUTH_FAILED", resp.errorCode())
	assert.Equal(t, "Invalid username or password", resp.body["error"].(map[string]any)["message"])

	resp = b.do(nethttp.MethodPost, "/login", map[string]string{"username": "admin"})
	assert.Equal(t, nethttp.StatusBadRequest, resp.status)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())
}

func TestLogin_FailureWhileSignedInKeepsSession(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)
	b.login("viewer")

	resp := b.do(nethttp.MethodPost, "/login", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.status)
	assert.Equal(t, "AUTH_FAILED", resp.errorCode())
	assert.Empty(t, f.srv.LastAuthorization("POST /auth/login"))

	me := b.do(nethttp.MethodGet, "/me", nil).data()
	assert.Equal(t, true, me["authenticated"])
	assert.Equal(t, "viewer", me["username"])

	resp = b.do(nethttp.MethodPost, "/movies/"+itoa(f.srv.AddMovie("Heat", 1995))+"/reviews", map[string]any{"rating": 4})
	assert.Equal(t, nethttp.StatusCreated, resp.status, resp.body)
}

func TestSessions_AreIsolatedPerClient(t *testing.T) {
	f := newWebFixture(t)
	admin := f.browser(t)
	admin.login("admin")
	other := f.browser(t)

	assert.Equal(t, true, admin.do(nethttp.MethodGet, "/me", nil).data()["isAdmin"])
	assert.Equal(t, false, other.do(nethttp.MethodGet, "/me", nil).data()["authenticated"])
	assert.NotEqual(t, admin.cookie.Value, other.cookie.Value)
}

func TestLogout_ClearsSession(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)
	b.login("admin")

	resp := b.do(nethttp.MethodPost, "/logout", nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "/", resp.data()["redirect"])
	assert.Equal(t, false, b.do(nethttp.MethodGet, "/me", nil).data()["authenticated"])
	assert.Equal(t, nethttp.StatusSeeOther, b.do(nethttp.MethodGet, "/admin/roles", nil).status)
}

func TestRegister_SignsIn(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodPost, "/register", map[string]string{"username": "newbie", "email": "newbie@example.com", "password": "secret1"})
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)
	session := resp.data()["session"].(map[string]any)
	assert.Equal(t, "newbie", session["username"])
}

func TestMovies_BrowseAndSearch(t *testing.T) {
	f := newWebFixture(t)
	id := f.srv.AddMovie("The Dark Knight", 2008, 1)
	f.srv.AddMovie("Heat", 1995)
	b := f.browser(t)

	resp := b.do(nethttp.MethodGet, "/movies", nil)
	assert.Len(t, resp.body["data"], 2)

	resp = b.do(nethttp.MethodGet, "/movies/search?q=dark", nil)
	assert.Len(t, resp.body["data"], 1)

	resp = b.do(nethttp.MethodGet, "/movies/"+itoa(id), nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "The Dark Knight", resp.data()["title"])

	resp = b.do(nethttp.MethodGet, "/movies/9999", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())

	resp = b.do(nethttp.MethodGet, "/movies/abc", nil)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())
}

func TestUnknownRoute_IsNotFoundEnvelope(t *testing.T) {
	f := newWebFixture(t)
	resp := f.browser(t).do(nethttp.MethodGet, "/nope", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.status)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())
}

func TestReviews_RequireSession(t *testing.T) {
	f := newWebFixture(t)
	id := f.srv.AddMovie("Heat", 1995)
	b := f.browser(t)
	path := "/movies/" + itoa(id) + "/reviews"

	resp := b.do(nethttp.MethodPost, path, map[string]any{"rating": 5})
	assert.Equal(t, nethttp.StatusSeeOther, resp.status)

	b.login("viewer")
	resp = b.do(nethttp.MethodPost, path, map[string]any{"rating": 5, "reviewText": "Great"})
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)

	resp = b.do(nethttp.MethodGet, path, nil)
	assert.Len(t, resp.body["data"], 1)

	resp = b.do(nethttp.MethodPost, path, map[string]any{"rating": 9})
	assert.Equal(t, nethttp.StatusBadRequest, resp.status)
}

func TestDrafts_SubmitCreatesMovieWithCredits(t *testing.T) {
	f := newWebFixture(t)
	nolan := f.srv.AddPerson("Christopher Nolan")
	b := f.browser(t)
	b.login("admin")

	resp := b.do(nethttp.MethodPost, "/admin/movies/drafts", nil)
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)
	draftID := resp.data()["draftId"].(string)
	base := "/admin/movies/drafts/" + draftID

	resp = b.do(nethttp.MethodPatch, base, map[string]any{"fields": map[string]string{"title": "Inception", "releaseYear": "2010"}})
	require.Equal(t, nethttp.StatusOK, resp.status, resp.body)

	resp = b.do(nethttp.MethodPatch, base, map[string]any{"fields": map[string]string{"rating": "5"}})
	assert.Equal(t, nethttp.StatusBadRequest, resp.status)

	resp = b.do(nethttp.MethodPost, base+"/genres/2", nil)
	assert.Equal(t, true, resp.body["selected"])

	resp = b.do(nethttp.MethodPost, base+"/credits", map[string]any{"personId": nolan, "roleId": 2})
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)

	resp = b.do(nethttp.MethodPost, base+"/persons", map[string]any{"name": "Elliot Page", "roleId": 1, "characterName": "Ariadne"})
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)

	resp = b.do(nethttp.MethodPost, base+"/submit", nil)
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)
	movieID := int64(resp.body["movieId"].(float64))
	movie, ok := f.srv.Movie(movieID)
	require.True(t, ok)
	assert.Equal(t, "Inception", movie.Title)
	assert.Equal(t, fmt.Sprintf("movie %d created", movieID), resp.data()["status"])

	resp = b.do(nethttp.MethodGet, "/movies/"+itoa(movieID), nil)
	assert.Len(t, resp.data()["cast"], 1)
	assert.Len(t, resp.data()["directors"], 1)

	assert.Equal(t, nethttp.StatusNoContent, b.do(nethttp.MethodDelete, base, nil).status)
	assert.Equal(t, nethttp.StatusNotFound, b.do(nethttp.MethodGet, base, nil).status)
}

func TestDrafts_PartialSuccessIs207(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)
	b.login("admin")

	draftID := b.do(nethttp.MethodPost, "/admin/movies/drafts", nil).data()["draftId"].(string)
	base := "/admin/movies/drafts/" + draftID
	b.do(nethttp.MethodPatch, base, map[string]any{"fields": map[string]string{"title": "Heat", "releaseYear": "1995"}})
	b.do(nethttp.MethodPost, base+"/genres/1", nil)
	f.srv.FailNext("POST /movies/:id/genres", nethttp.StatusInternalServerError, "genre service down")

	resp := b.do(nethttp.MethodPost, base+"/submit", nil)
	assert.Equal(t, nethttp.StatusMultiStatus, resp.status)
	assert.Equal(t, "PARTIAL_SUCCESS", resp.errorCode())
	details := resp.body["error"].(map[string]any)["details"].(map[string]any)
	movieID := int64(details["movieId"].(float64))
	_, exists := f.srv.Movie(movieID)
	assert.True(t, exists)

	view := b.do(nethttp.MethodGet, base, nil).data()
	assert.Equal(t, "failed", view["pending"].(map[string]any)["stage"])
	assert.Equal(t, "PARTIAL_SUCCESS", view["error"].(map[string]any)["code"])
}

func TestDrafts_AreScopedToClient(t *testing.T) {
	f := newWebFixture(t)
	owner := f.browser(t)
	owner.login("admin")
	draftID := owner.do(nethttp.MethodPost, "/admin/movies/drafts", nil).data()["draftId"].(string)

	other := f.browser(t)
	other.login("admin")
	resp := other.do(nethttp.MethodGet, "/admin/movies/drafts/"+draftID, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.status)
}

func TestPersons_SearchMinimumLength(t *testing.T) {
	f := newWebFixture(t)
	f.srv.AddPerson("Christopher Nolan")
	b := f.browser(t)
	b.login("admin")

	resp := b.do(nethttp.MethodGet, "/admin/persons/search?name=c", nil)
	assert.Empty(t, resp.body["data"])
	assert.Zero(t, f.srv.Calls("GET /persons/search"))

	resp = b.do(nethttp.MethodGet, "/admin/persons/search?name=chris", nil)
	assert.Len(t, resp.body["data"], 1)
}

func TestHealth(t *testing.T) {
	f := newWebFixture(t)
	b := f.browser(t)

	resp := b.do(nethttp.MethodGet, "/health/live", nil)
	assert.Equal(t, "alive", resp.body["status"])

	resp = b.do(nethttp.MethodGet, "/health/ready", nil)
	require.Equal(t, nethttp.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.body["dependencies"].(map[string]any)["backend"])
	assert.Contains(t, resp.body, "metrics")

	f.srv.FailNext("GET /genres", nethttp.StatusInternalServerError, "down")
	resp = b.do(nethttp.MethodGet, "/health/ready", nil)
	assert.Equal(t, nethttp.StatusServiceUnavailable, resp.status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", resp.errorCode())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestMovies_ListViews(t *testing.T) {
	f := newWebFixture(t)
	f.srv.AddMovie("Heat", 1995, 1)
	b := f.browser(t)

	for _, view := range []string{"plain", "genres", "full"} {
		resp := b.do(nethttp.MethodGet, "/movies?view="+view, nil)
		require.Equal(t, nethttp.StatusOK, resp.status, view)
		assert.Len(t, resp.body["data"], 1, view)
	}

	resp := b.do(nethttp.MethodGet, "/movies?view=poster", nil)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())
}

func TestAdmin_EditLoadsPlainMovie(t *testing.T) {
	f := newWebFixture(t)
	id := f.srv.AddMovie("Heat", 1995)
	b := f.browser(t)
	b.login("admin")

	resp := b.do(nethttp.MethodGet, "/admin/movies/"+itoa(id), nil)
	require.Equal(t, nethttp.StatusOK, resp.status, resp.body)
	assert.Equal(t, "Heat", resp.data()["title"])
	assert.Equal(t, float64(1995), resp.data()["releaseYear"])
}

func TestReviews_GetAndListByUser(t *testing.T) {
	f := newWebFixture(t)
	id := f.srv.AddMovie("Heat", 1995)
	b := f.browser(t)
	b.login("viewer")
	userID := b.do(nethttp.MethodGet, "/me", nil).data()["userId"].(float64)

	resp := b.do(nethttp.MethodPost, "/movies/"+itoa(id)+"/reviews", map[string]any{"rating": 4, "reviewText": "Tense"})
	require.Equal(t, nethttp.StatusCreated, resp.status, resp.body)
	reviewID := int64(resp.data()["reviewId"].(float64))

	resp = b.do(nethttp.MethodGet, "/reviews/"+itoa(reviewID), nil)
	require.Equal(t, nethttp.StatusOK, resp.status, resp.body)
	assert.Equal(t, "Tense", resp.data()["reviewText"])

	resp = b.do(nethttp.MethodGet, "/users/"+itoa(int64(userID))+"/reviews", nil)
	assert.Len(t, resp.body["data"], 1)

	resp = b.do(nethttp.MethodGet, "/reviews/9999", nil)
	assert.Equal(t, "NOT_FOUND", resp.errorCode())
}
