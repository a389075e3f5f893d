package backend

import (
	"context"
	"net/http"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// MovieInput is the create/update payload for a movie.
type MovieInput struct {
	Title       string   `json:"title"`
	ReleaseYear int64    `json:"releaseYear"`
	Duration    *int64   `json:"duration"`
	Description *string  `json:"description"`
	Language    *string  `json:"language"`
	Country     *string  `json:"country"`
	PosterURL   *string  `json:"posterUrl"`
	TrailerURL  *string  `json:"trailerUrl"`
	AvgRating   *float64 `json:"avgRating,omitempty"`
}

type genreAttachRequest struct {
	GenreIDs []int64 `json:"genreIds"`
}

func (c *Client) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	var out []domain.Movie
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/movies", path: "/movies", fallback: "Failed to load movies"}, &out)
	return out, err
}

func (c *Client) ListMoviesWithGenres(ctx context.Context) ([]domain.MovieWithGenres, error) {
	var out []domain.MovieWithGenres
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/movies/with-genres", path: "/movies/with-genres", fallback: "Failed to load movies"}, &out)
	return out, err
}

func (c *Client) ListMoviesFullDetails(ctx context.Context) ([]domain.MovieFullDetails, error) {
	var out []domain.MovieFullDetails
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/movies/full-details", path: "/movies/full-details", fallback: "Failed to load movies"}, &out)
	return out, err
}

func (c *Client) GetMovieFullDetails(ctx context.Context, id int64) (*domain.MovieFullDetails, error) {
	var out domain.MovieFullDetails
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "/movies/full-details/{id}",
		path:     idPath("/movies/full-details/%d", id),
		fallback: "Failed to load movie details",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	var out domain.Movie
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/movies/{id}", path: idPath("/movies/%d", id), fallback: "Failed to load movie"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMovie creates the movie and returns it with its assigned id.
func (c *Client) CreateMovie(ctx context.Context, in MovieInput) (*domain.Movie, error) {
	var out domain.Movie
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/movies",
		path:     "/movies",
		body:     in,
		auth:     true,
		fallback: "Failed to add movie. Please check all fields and try again.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMovie(ctx context.Context, id int64, in MovieInput) (*domain.Movie, error) {
	var out domain.Movie
	err := c.do(ctx, call{
		method:   http.MethodPut,
		endpoint: "/movies/{id}",
		path:     idPath("/movies/%d", id),
		body:     in,
		auth:     true,
		fallback: "Failed to update movie",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMovie(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/movies/{id}",
		path:     idPath("/movies/%d", id),
		auth:     true,
		fallback: "Failed to delete movie",
	}, nil)
}

// AttachGenres tags an existing movie with genres.
func (c *Client) AttachGenres(ctx context.Context, movieID int64, genreIDs []int64) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/movies/{id}/genres",
		path:     idPath("/movies/%d/genres", movieID),
		body:     genreAttachRequest{GenreIDs: genreIDs},
		auth:     true,
		fallback: "Failed to add genres",
	}, nil)
}
