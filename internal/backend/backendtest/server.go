// Package backendtest provides an in-memory catalog backend for tests.
package backendtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

const signingSecret = "backendtest-secret"

type user struct {
	id       int64
	username string
	email    string
	password string
	roles    []string
}

type failure struct {
	status int
	body   string
}

type claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Server is a fake backend. Handlers are keyed "METHOD /route/:param" for
// call counting and fault injection.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	nextID         int64
	users          map[string]*user
	revoked        map[string]bool
	movies         map[int64]*domain.Movie
	movieGenres    map[int64][]int64
	genres         []domain.Genre
	roles          []domain.MovieRole
	persons        map[int64]*domain.Person
	participations map[int64]*domain.Participation
	reviews        map[int64]*domain.Review
	calls          map[string]int
	failures       map[string][]failure
	lastAuth       map[string]string
}

// New starts a fake backend seeded with genres, roles and no users.
func New() *Server {
	s := &Server{
		nextID:         100,
		users:          map[string]*user{},
		revoked:        map[string]bool{},
		movies:         map[int64]*domain.Movie{},
		movieGenres:    map[int64][]int64{},
		persons:        map[int64]*domain.Person{},
		participations: map[int64]*domain.Participation{},
		reviews:        map[int64]*domain.Review{},
		calls:          map[string]int{},
		failures:       map[string][]failure{},
		lastAuth:       map[string]string{},
		genres: []domain.Genre{
			{ID: 1, Name: "Action"},
			{ID: 2, Name: "Sci-Fi"},
			{ID: 3, Name: "Drama"},
		},
		roles: []domain.MovieRole{
			{ID: 1, Name: "Actor"},
			{ID: 2, Name: "Director"},
			{ID: 3, Name: "Producer"},
			{ID: 4, Name: "Writer"},
		},
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true, Immutable: true})
	s.routes(app)
	s.Server = httptest.NewServer(adaptor.FiberApp(app))
	return s
}

// AddUser seeds an account and returns its id.
func (s *Server) AddUser(username, email, password string, roles ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}
	id := s.id()
	s.users[username] = &user{id: id, username: username, email: email, password: password, roles: roles}
	return id
}

// AddPerson seeds a person and returns its id.
func (s *Server) AddPerson(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.persons[id] = &domain.Person{ID: id, Name: name}
	return id
}

// AddMovie seeds a movie and returns its id.
func (s *Server) AddMovie(title string, year int64, genreIDs ...int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.movies[id] = &domain.Movie{ID: id, Title: title, ReleaseYear: year}
	s.movieGenres[id] = genreIDs
	return id
}

// FailNext makes the next call to route respond with status and a {"message"} body.
func (s *Server) FailNext(route string, status int, message string) {
	body, _ := json.Marshal(map[string]string{"message": message})
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], failure{status: status, body: string(body)})
}

// Calls returns how many times route was hit, including injected failures.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastAuthorization returns the Authorization header of the last call to route.
func (s *Server) LastAuthorization(route string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth[route]
}

// Movie returns a copy of a stored movie.
func (s *Server) Movie(id int64) (domain.Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[id]
	if !ok {
		return domain.Movie{}, false
	}
	return *m, true
}

// MovieCount returns the number of stored movies.
func (s *Server) MovieCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movies)
}

// Revoked reports whether token was logged out.
func (s *Server) Revoked(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[token]
}

// IssueToken signs a token for username the same way login does.
func IssueToken(username string, roles []string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	return tok.SignedString([]byte(signingSecret))
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) handle(app *fiber.App, method, route string, h fiber.Handler) {
	key := method + " " + route
	app.Add(method, route, func(c *fiber.Ctx) error {
		s.mu.Lock()
		s.calls[key]++
		s.lastAuth[key] = c.Get(fiber.HeaderAuthorization)
		var injected *failure
		if queue := s.failures[key]; len(queue) > 0 {
			injected = &queue[0]
			s.failures[key] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(injected.status).SendString(injected.body)
		}
		return h(c)
	})
}

// authorize checks the bearer token and writes the rejection itself when it fails.
func (s *Server) authorize(c *fiber.Ctx, adminOnly bool) (*user, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		_ = reply(c, http.StatusUnauthorized, "Full authentication is required")
		return nil, false
	}
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(signingSecret), nil
	})
	if err != nil || !parsed.Valid {
		_ = reply(c, http.StatusUnauthorized, "Invalid token")
		return nil, false
	}
	cl, _ := parsed.Claims.(*claims)

	s.mu.Lock()
	revoked := s.revoked[raw]
	u := s.users[cl.Subject]
	s.mu.Unlock()
	if revoked || u == nil {
		_ = reply(c, http.StatusUnauthorized, "Token has been revoked")
		return nil, false
	}
	if adminOnly && !slices.Contains(u.roles, domain.RoleAdmin) {
		_ = reply(c, http.StatusForbidden, "Access denied")
		return nil, false
	}
	return u, true
}

func reply(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}
