package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

// PersonInput is the create/update payload for a person.
type PersonInput struct {
	Name       string  `json:"name"`
	BirthDate  *string `json:"birthDate"`
	Bio        *string `json:"bio"`
	ProfileURL *string `json:"profileUrl"`
}

func (c *Client) ListPersons(ctx context.Context) ([]domain.Person, error) {
	var out []domain.Person
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/persons", path: "/persons", fallback: "Failed to load people"}, &out)
	return out, err
}

func (c *Client) SearchPersons(ctx context.Context, name string) ([]domain.Person, error) {
	var out []domain.Person
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: "/persons/search",
		path:     "/persons/search",
		query:    url.Values{"name": []string{name}},
		fallback: "Search failed",
	}, &out)
	return out, err
}

func (c *Client) GetPerson(ctx context.Context, id int64) (*domain.Person, error) {
	var out domain.Person
	err := c.do(ctx, call{method: http.MethodGet, endpoint: "/persons/{id}", path: idPath("/persons/%d", id), fallback: "Failed to load person"}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePerson(ctx context.Context, in PersonInput) (*domain.Person, error) {
	var out domain.Person
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/persons",
		path:     "/persons",
		body:     in,
		auth:     true,
		fallback: "Failed to create person",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePerson(ctx context.Context, id int64, in PersonInput) (*domain.Person, error) {
	var out domain.Person
	err := c.do(ctx, call{
		method:   http.MethodPut,
		endpoint: "/persons/{id}",
		path:     idPath("/persons/%d", id),
		body:     in,
		auth:     true,
		fallback: "Failed to update person",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePerson(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: "/persons/{id}",
		path:     idPath("/persons/%d", id),
		auth:     true,
		fallback: "Failed to delete person",
	}, nil)
}
