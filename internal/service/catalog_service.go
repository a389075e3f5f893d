package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/reelhouse/movie-catalog/internal/domain"
	"github.com/reelhouse/movie-catalog/internal/events"
)

// CatalogService covers movie browsing and admin maintenance of existing movies.
type CatalogService struct {
	movies     MovieAPI
	viewer     Viewer
	logger     *zap.Logger
	dispatcher events.Dispatcher
	now        func() time.Time
}

// CatalogDependencies bundles collaborators for the catalog service.
type CatalogDependencies struct {
	Movies     MovieAPI
	Viewer     Viewer
	Logger     *zap.Logger
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &CatalogService{
		movies:     deps.Movies,
		viewer:     deps.Viewer,
		logger:     logger,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

func (s *CatalogService) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	return s.movies.ListMovies(ctx)
}

func (s *CatalogService) ListWithGenres(ctx context.Context) ([]domain.MovieWithGenres, error) {
	return s.movies.ListMoviesWithGenres(ctx)
}

func (s *CatalogService) ListFullDetails(ctx context.Context) ([]domain.MovieFullDetails, error) {
	return s.movies.ListMoviesFullDetails(ctx)
}

// Search filters the genre listing by a case-insensitive title match.
// An empty query returns every movie.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.MovieWithGenres, error) {
	movies, err := s.movies.ListMoviesWithGenres(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return movies, nil
	}
	out := make([]domain.MovieWithGenres, 0, len(movies))
	for _, m := range movies {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Movie returns the plain record, as prefilled into the edit form.
func (s *CatalogService) Movie(ctx context.Context, id int64) (*domain.Movie, error) {
	return s.movies.GetMovie(ctx, id)
}

func (s *CatalogService) Detail(ctx context.Context, id int64) (*domain.MovieFullDetails, error) {
	return s.movies.GetMovieFullDetails(ctx, id)
}

// Update replaces the primary fields of a movie, validated like a new one.
func (s *CatalogService) Update(ctx context.Context, id int64, fields map[string]string) (*domain.Movie, error) {
	input, err := ValidateMovieFields(fields, s.now())
	if err != nil {
		return nil, err
	}
	movie, err := s.movies.UpdateMovie(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("movie updated", zap.Int64("movie_id", id))
	return movie, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.movies.DeleteMovie(ctx, id); err != nil {
		return err
	}
	s.logger.Info("movie deleted", zap.Int64("movie_id", id))
	caps := actorOf(s.viewer)
	events.Publish(ctx, s.dispatcher, events.Event{
		Type:    events.EventMovieDeleted,
		Actor:   events.Actor{UserID: caps.SubjectID(), Username: caps.Username()},
		Payload: events.MovieDeletedPayload{MovieID: id},
	})
	return nil
}

func (s *CatalogService) Genres(ctx context.Context) ([]domain.Genre, error) {
	return s.movies.ListGenres(ctx)
}

func (s *CatalogService) Roles(ctx context.Context) ([]domain.MovieRole, error) {
	return s.movies.ListRoles(ctx)
}

func (s *CatalogService) Cast(ctx context.Context, movieID int64) ([]domain.Participation, error) {
	return s.movies.ListCast(ctx, movieID)
}

func (s *CatalogService) RemoveCast(ctx context.Context, participationID int64) error {
	return s.movies.RemoveCast(ctx, participationID)
}
