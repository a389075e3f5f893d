package backend

import (
	"context"
	"net/http"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

func (c *Client) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var out []domain.Genre
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/genres", path: "/genres", fallback: "Failed to load genres"}, &out)
	return out, err
}

func (c *Client) ListRoles(ctx context.Context) ([]domain.MovieRole, error) {
	var out []domain.MovieRole
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/roles", path: "/roles", fallback: "Failed to load roles"}, &out)
	return out, err
}

// Ping checks that the backend answers by listing genres, the cheapest public call.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListGenres(ctx)
	return err
}
