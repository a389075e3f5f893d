package backendtest

import (
	"net/http"
	"slices"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

func (s *Server) routes(app *fiber.App) {
	s.handle(app, http.MethodPost, "/auth/register", s.register)
	s.handle(app, http.MethodPost, "/auth/login", s.login)
	s.handle(app, http.MethodPost, "/auth/logout", s.logout)

	s.handle(app, http.MethodGet, "/movies", s.listMovies)
	s.handle(app, http.MethodGet, "/movies/with-genres", s.listMoviesWithGenres)
	s.handle(app, http.MethodGet, "/movies/full-details", s.listFullDetails)
	s.handle(app, http.MethodGet, "/movies/full-details/:id", s.getFullDetails)
	s.handle(app, http.MethodDelete, "/movies/cast/:participationId", s.removeCast)
	s.handle(app, http.MethodGet, "/movies/:id", s.getMovie)
	s.handle(app, http.MethodPost, "/movies", s.createMovie)
	s.handle(app, http.MethodPut, "/movies/:id", s.updateMovie)
	s.handle(app, http.MethodDelete, "/movies/:id", s.deleteMovie)
	s.handle(app, http.MethodPost, "/movies/:id/genres", s.attachGenres)
	s.handle(app, http.MethodPost, "/movies/:id/cast", s.addCast)
	s.handle(app, http.MethodPost, "/movies/:id/cast/bulk", s.addCastBulk)
	s.handle(app, http.MethodGet, "/movies/:id/cast", s.listCast)

	s.handle(app, http.MethodGet, "/persons", s.listPersons)
	s.handle(app, http.MethodGet, "/persons/search", s.searchPersons)
	s.handle(app, http.MethodGet, "/persons/:id", s.getPerson)
	s.handle(app, http.MethodPost, "/persons", s.createPerson)
	s.handle(app, http.MethodPut, "/persons/:id", s.updatePerson)
	s.handle(app, http.MethodDelete, "/persons/:id", s.deletePerson)

	s.handle(app, http.MethodGet, "/genres", s.listGenres)
	s.handle(app, http.MethodGet, "/roles", s.listRoles)

	s.handle(app, http.MethodGet, "/reviews/movie/:id", s.reviewsByMovie)
	s.handle(app, http.MethodGet, "/reviews/user/:id", s.reviewsByUser)
	s.handle(app, http.MethodGet, "/reviews/:id", s.getReview)
	s.handle(app, http.MethodPost, "/reviews", s.createReview)
	s.handle(app, http.MethodPut, "/reviews/:id", s.updateReview)
	s.handle(app, http.MethodPatch, "/reviews/:id", s.patchReview)
	s.handle(app, http.MethodDelete, "/reviews/:id", s.deleteReview)
}

func (s *Server) register(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		s.mu.Unlock()
		return reply(c, http.StatusBadRequest, "Username already exists")
	}
	id := s.id()
	u := &user{id: id, username: req.Username, email: req.Email, password: req.Password, roles: []string{domain.RoleUser}}
	s.users[req.Username] = u
	s.mu.Unlock()

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "User registered successfully",
		"userId":   u.id,
		"username": u.username,
		"email":    u.email,
		"roles":    u.roles,
	})
}

func (s *Server) login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	u := s.users[req.Username]
	s.mu.Unlock()
	if u == nil || u.password != req.Password {
		return reply(c, http.StatusUnauthorized, "Invalid username or password")
	}
	token, err := IssueToken(u.username, u.roles)
	if err != nil {
		return reply(c, http.StatusInternalServerError, "Error during login: "+err.Error())
	}
	return c.JSON(fiber.Map{
		"token":    token,
		"type":     "Bearer",
		"id":       u.id,
		"username": u.username,
		"email":    u.email,
		"roles":    u.roles,
	})
}

func (s *Server) logout(c *fiber.Ctx) error {
	raw, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || raw == "" {
		return reply(c, http.StatusBadRequest, "Invalid Authorization header")
	}
	s.mu.Lock()
	s.revoked[raw] = true
	s.mu.Unlock()
	return reply(c, http.StatusOK, "Logged out successfully")
}

func (s *Server) listMovies(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Movie, 0, len(s.movies))
	for _, id := range s.movieIDs() {
		out = append(out, *s.movies[id])
	}
	return c.JSON(out)
}

func (s *Server) listMoviesWithGenres(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MovieWithGenres, 0, len(s.movies))
	for _, id := range s.movieIDs() {
		m := domain.MovieWithGenres{Movie: *s.movies[id], Genres: []string{}}
		for _, g := range s.genresOf(id) {
			m.Genres = append(m.Genres, g.Name)
		}
		out = append(out, m)
	}
	return c.JSON(out)
}

func (s *Server) listFullDetails(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.MovieFullDetails, 0, len(s.movies))
	for _, id := range s.movieIDs() {
		out = append(out, s.fullDetails(id))
	}
	return c.JSON(out)
}

func (s *Server) getFullDetails(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	return c.JSON(s.fullDetails(int64(id)))
}

func (s *Server) getMovie(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movies[int64(id)]
	if !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	return c.JSON(m)
}

func (s *Server) createMovie(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	var m domain.Movie
	if err := c.BodyParser(&m); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(m.Title) == "" {
		return reply(c, http.StatusBadRequest, "Title is required")
	}
	if m.ReleaseYear < 1888 {
		return reply(c, http.StatusBadRequest, "Release year cannot be before 1888")
	}
	s.mu.Lock()
	m.ID = s.id()
	s.movies[m.ID] = &m
	s.mu.Unlock()
	return c.Status(http.StatusCreated).JSON(m)
}

func (s *Server) updateMovie(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var m domain.Movie
	if err := c.BodyParser(&m); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	m.ID = int64(id)
	s.movies[m.ID] = &m
	return c.JSON(m)
}

func (s *Server) deleteMovie(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	delete(s.movies, int64(id))
	delete(s.movieGenres, int64(id))
	for pid, p := range s.participations {
		if p.MovieID == int64(id) {
			delete(s.participations, pid)
		}
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) attachGenres(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var req struct {
		GenreIDs []int64 `json:"genreIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	for _, gid := range req.GenreIDs {
		if !slices.ContainsFunc(s.genres, func(g domain.Genre) bool { return g.ID == gid }) {
			return reply(c, http.StatusBadRequest, "Unknown genre")
		}
		if !slices.Contains(s.movieGenres[int64(id)], gid) {
			s.movieGenres[int64(id)] = append(s.movieGenres[int64(id)], gid)
		}
	}
	return reply(c, http.StatusOK, "Genres added")
}

func (s *Server) addCast(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var credit domain.CastCredit
	if err := c.BodyParser(&credit); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.addCredits(int64(id), []domain.CastCredit{credit}); msg != "" {
		return reply(c, http.StatusBadRequest, msg)
	}
	return c.Status(http.StatusCreated).SendString("Cast/crew member added successfully")
}

func (s *Server) addCastBulk(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var credits []domain.CastCredit
	if err := c.BodyParser(&credits); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.addCredits(int64(id), credits); msg != "" {
		return reply(c, http.StatusBadRequest, msg)
	}
	return c.Status(http.StatusCreated).SendString("Cast/crew members added successfully")
}

func (s *Server) listCast(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.castOf(int64(id)))
}

func (s *Server) removeCast(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("participationId")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participations[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Participation not found")
	}
	delete(s.participations, int64(id))
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) listPersons(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.personsMatching(""))
}

func (s *Server) searchPersons(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.personsMatching(c.Query("name")))
}

func (s *Server) getPerson(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.persons[int64(id)]
	if !ok {
		return reply(c, http.StatusNotFound, "Person not found")
	}
	return c.JSON(p)
}

func (s *Server) createPerson(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, false); !ok {
		return nil
	}
	var p domain.Person
	if err := c.BodyParser(&p); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(p.Name) == "" {
		return reply(c, http.StatusBadRequest, "Name is required")
	}
	s.mu.Lock()
	p.ID = s.id()
	s.persons[p.ID] = &p
	s.mu.Unlock()
	return c.Status(http.StatusCreated).JSON(p)
}

func (s *Server) updatePerson(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var p domain.Person
	if err := c.BodyParser(&p); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Person not found")
	}
	p.ID = int64(id)
	s.persons[p.ID] = &p
	return c.JSON(p)
}

func (s *Server) deletePerson(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, true); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Person not found")
	}
	delete(s.persons, int64(id))
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) listGenres(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.genres)
}

func (s *Server) listRoles(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.roles)
}

func (s *Server) reviewsByMovie(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.reviewsWhere(func(r *domain.Review) bool { return r.MovieID == int64(id) }))
}

func (s *Server) reviewsByUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(s.reviewsWhere(func(r *domain.Review) bool { return r.UserID == int64(id) }))
}

func (s *Server) getReview(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[int64(id)]
	if !ok {
		return reply(c, http.StatusNotFound, "Review not found")
	}
	return c.JSON(r)
}

func (s *Server) createReview(c *fiber.Ctx) error {
	u, ok := s.authorize(c, false)
	if !ok {
		return nil
	}
	var r domain.Review
	if err := c.BodyParser(&r); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return reply(c, http.StatusBadRequest, "Rating must be between 1 and 5")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movies[r.MovieID]; !ok {
		return reply(c, http.StatusNotFound, "Movie not found")
	}
	r.ID = s.id()
	r.UserName = u.username
	s.reviews[r.ID] = &r
	return c.Status(http.StatusCreated).JSON(r)
}

func (s *Server) updateReview(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, false); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var r domain.Review
	if err := c.BodyParser(&r); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reviews[int64(id)]
	if !ok {
		return reply(c, http.StatusNotFound, "Review not found")
	}
	existing.Rating = r.Rating
	existing.ReviewText = r.ReviewText
	return c.JSON(existing)
}

func (s *Server) patchReview(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, false); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	var patch struct {
		Rating     *int64  `json:"rating"`
		ReviewText *string `json:"reviewText"`
	}
	if err := c.BodyParser(&patch); err != nil {
		return reply(c, http.StatusBadRequest, "invalid payload")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.reviews[int64(id)]
	if !ok {
		return reply(c, http.StatusNotFound, "Review not found")
	}
	if patch.Rating != nil {
		existing.Rating = *patch.Rating
	}
	if patch.ReviewText != nil {
		existing.ReviewText = patch.ReviewText
	}
	return c.JSON(existing)
}

func (s *Server) deleteReview(c *fiber.Ctx) error {
	if _, ok := s.authorize(c, false); !ok {
		return nil
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return reply(c, http.StatusBadRequest, "invalid id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[int64(id)]; !ok {
		return reply(c, http.StatusNotFound, "Review not found")
	}
	delete(s.reviews, int64(id))
	return c.SendStatus(http.StatusNoContent)
}

// helpers below expect s.mu to be held

func (s *Server) movieIDs() []int64 {
	ids := make([]int64, 0, len(s.movies))
	for id := range s.movies {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Server) genresOf(movieID int64) []domain.Genre {
	var out []domain.Genre
	for _, gid := range s.movieGenres[movieID] {
		for _, g := range s.genres {
			if g.ID == gid {
				out = append(out, g)
			}
		}
	}
	return out
}

func (s *Server) addCredits(movieID int64, credits []domain.CastCredit) string {
	if _, ok := s.movies[movieID]; !ok {
		return "Movie not found"
	}
	for _, cr := range credits {
		if _, ok := s.persons[cr.PersonID]; !ok {
			return "Person not found"
		}
		if s.role(cr.RoleID) == nil {
			return "Role not found"
		}
	}
	for _, cr := range credits {
		id := s.id()
		s.participations[id] = &domain.Participation{
			ID:            id,
			MovieID:       movieID,
			Person:        s.persons[cr.PersonID],
			Role:          s.role(cr.RoleID),
			CharacterName: cr.CharacterName,
		}
	}
	return ""
}

func (s *Server) role(id int64) *domain.MovieRole {
	for i := range s.roles {
		if s.roles[i].ID == id {
			return &s.roles[i]
		}
	}
	return nil
}

func (s *Server) castOf(movieID int64) []domain.Participation {
	out := []domain.Participation{}
	for _, p := range s.participations {
		if p.MovieID == movieID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) personsMatching(name string) []domain.Person {
	needle := strings.ToLower(strings.TrimSpace(name))
	out := []domain.Person{}
	for _, p := range s.persons {
		if needle == "" || strings.Contains(strings.ToLower(p.Name), needle) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) reviewsWhere(keep func(*domain.Review) bool) []domain.Review {
	out := []domain.Review{}
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) fullDetails(movieID int64) domain.MovieFullDetails {
	out := domain.MovieFullDetails{
		Movie:     *s.movies[movieID],
		Genres:    []domain.GenreRef{},
		Cast:      []domain.PersonCredits{},
		Directors: []domain.PersonCredits{},
		Producers: []domain.PersonCredits{},
		Writers:   []domain.PersonCredits{},
		Reviews:   s.reviewsWhere(func(r *domain.Review) bool { return r.MovieID == movieID }),
	}
	for _, g := range s.genresOf(movieID) {
		out.Genres = append(out.Genres, domain.GenreRef{ID: g.ID, Name: g.Name, Description: g.Description})
	}
	for _, p := range s.castOf(movieID) {
		credit := domain.PersonCredits{
			PersonID: p.Person.ID,
			Name:     p.Person.Name,
			Roles:    []domain.RoleCredit{{RoleID: p.Role.ID, RoleName: p.Role.Name, Note: p.CharacterName}},
		}
		switch p.Role.Name {
		case "Director":
			out.Directors = append(out.Directors, credit)
		case "Producer":
			out.Producers = append(out.Producers, credit)
		case "Writer":
			out.Writers = append(out.Writers, credit)
		default:
			out.Cast = append(out.Cast, credit)
		}
	}
	return out
}
