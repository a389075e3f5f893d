package service

import (
	"context"

	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/domain"
)

// MovieAPI is the movie, genre and cast surface of the backend.
type MovieAPI interface {
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	ListMoviesWithGenres(ctx context.Context) ([]domain.MovieWithGenres, error)
	ListMoviesFullDetails(ctx context.Context) ([]domain.MovieFullDetails, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	GetMovieFullDetails(ctx context.Context, id int64) (*domain.MovieFullDetails, error)
	CreateMovie(ctx context.Context, in backend.MovieInput) (*domain.Movie, error)
	UpdateMovie(ctx context.Context, id int64, in backend.MovieInput) (*domain.Movie, error)
	DeleteMovie(ctx context.Context, id int64) error
	AttachGenres(ctx context.Context, movieID int64, genreIDs []int64) error
	AddCastBulk(ctx context.Context, movieID int64, credits []domain.CastCredit) error
	ListCast(ctx context.Context, movieID int64) ([]domain.Participation, error)
	RemoveCast(ctx context.Context, participationID int64) error
	ListGenres(ctx context.Context) ([]domain.Genre, error)
	ListRoles(ctx context.Context) ([]domain.MovieRole, error)
}

// PersonAPI is the person surface of the backend.
type PersonAPI interface {
	ListPersons(ctx context.Context) ([]domain.Person, error)
	SearchPersons(ctx context.Context, name string) ([]domain.Person, error)
	GetPerson(ctx context.Context, id int64) (*domain.Person, error)
	CreatePerson(ctx context.Context, in backend.PersonInput) (*domain.Person, error)
	UpdatePerson(ctx context.Context, id int64, in backend.PersonInput) (*domain.Person, error)
	DeletePerson(ctx context.Context, id int64) error
}

// ReviewAPI is the review surface of the backend.
type ReviewAPI interface {
	ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error)
	ListReviewsByUser(ctx context.Context, userID int64) ([]domain.Review, error)
	GetReview(ctx context.Context, id int64) (*domain.Review, error)
	CreateReview(ctx context.Context, in backend.ReviewInput) (*domain.Review, error)
	UpdateReview(ctx context.Context, id int64, in backend.ReviewInput) (*domain.Review, error)
	PatchReview(ctx context.Context, id int64, patch backend.ReviewPatch) (*domain.Review, error)
	DeleteReview(ctx context.Context, id int64) error
}

// Viewer exposes the capability view of the current session.
type Viewer interface {
	Capabilities() domain.Capabilities
}

var (
	_ MovieAPI  = (*backend.Client)(nil)
	_ PersonAPI = (*backend.Client)(nil)
	_ ReviewAPI = (*backend.Client)(nil)
)

func actorOf(v Viewer) domain.Capabilities {
	if v == nil {
		return domain.Capabilities{}
	}
	return v.Capabilities()
}
