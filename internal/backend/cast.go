package backend

import (
	"context"
	"net/http"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// AddCast attaches one person to a movie.
func (c *Client) AddCast(ctx context.Context, movieID int64, credit domain.CastCredit) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/movies/{id}/cast",
		path:     idPath("/movies/%d/cast", movieID),
		body:     credit,
		auth:     true,
		fallback: "Failed to add cast member",
	}, nil)
}

// AddCastBulk attaches several people to a movie in one call.
func (c *Client) AddCastBulk(ctx context.Context, movieID int64, credits []domain.CastCredit) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/movies/{id}/cast/bulk",
		path:     idPath("/movies/%d/cast/bulk", movieID),
		body:     credits,
		auth:     true,
		fallback: "Failed to add cast and crew",
	}, nil)
}

func (c *Client) ListCast(ctx context.Context, movieID int64) ([]domain.Participation, error) {
	var out []domain.Participation
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "/movies/{id}/cast",
		path:     idPath("/movies/%d/cast", movieID),
		fallback: "Failed to load cast and crew",
	}, &out)
	return out, err
}

func (c *Client) RemoveCast(ctx context.Context, participationID int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/movies/cast/{id}",
		path:     idPath("/movies/cast/%d", participationID),
		auth:     true,
		fallback: "Failed to remove cast member",
	}, nil)
}
