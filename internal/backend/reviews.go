package backend

import (
	"context"
	"net/http"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// ReviewInput is the create/update payload for a review.
type ReviewInput struct {
	UserID     int64   `json:"userId"`
	MovieID    int64   `json:"movieId"`
	Rating     int64   `json:"rating"`
	ReviewText *string `json:"reviewText"`
}

// ReviewPatch carries the fields of a partial update; nil fields are left unchanged.
type ReviewPatch struct {
	Rating     *int64  `json:"rating,omitempty"`
	ReviewText *string `json:"reviewText,omitempty"`
}

func (c *Client) ListReviewsByMovie(ctx context.Context, movieID int64) ([]domain.Review, error) {
	var out []domain.Review
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "/reviews/movie/{id}",
		path:     idPath("/reviews/movie/%d", movieID),
		fallback: "Failed to load reviews",
	}, &out)
	return out, err
}

func (c *Client) ListReviewsByUser(ctx context.Context, userID int64) ([]domain.Review, error) {
	var out []domain.Review
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "/reviews/user/{id}",
		path:     idPath("/reviews/user/%d", userID),
		fallback: "Failed to load reviews",
	}, &out)
	return out, err
}

func (c *Client) GetReview(ctx context.Context, id int64) (*domain.Review, error) {
	var out domain.Review
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/reviews/{id}", path: idPath("/reviews/%d", id), fallback: "Failed to load review"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReview(ctx context.Context, in ReviewInput) (*domain.Review, error) {
	var out domain.Review
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/reviews",
		path:     "/reviews",
		body:     in,
		auth:     true,
		fallback: "Failed to submit review",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateReview(ctx context.Context, id int64, in ReviewInput) (*domain.Review, error) {
	var out domain.Review
	err := c.do(ctx, call{
		method:   http.MethodPut,
		endpoint: "/reviews/{id}",
		path:     idPath("/reviews/%d", id),
		body:     in,
		auth:     true,
		fallback: "Failed to update review",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchReview(ctx context.Context, id int64, patch ReviewPatch) (*domain.Review, error) {
	var out domain.Review
	err := c.do(ctx, call{
		method:   http.MethodPatch,
		endpoint: "/reviews/{id}",
		path:     idPath("/reviews/%d", id),
		body:     patch,
		auth:     true,
		fallback: "Failed to update review",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteReview(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/reviews/{id}",
		path:     idPath("/reviews/%d", id),
		auth:     true,
		fallback: "Failed to delete review",
	}, nil)
}
