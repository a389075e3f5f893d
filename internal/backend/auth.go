package backend

import (
	"context"
	"net/http"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the session-bearing response of POST /auth/login.
type LoginResponse struct {
	Token    string   `json:"token"`
	Type     string   `json:"type,omitempty"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is informational; it does not carry a usable session.
type RegisterResponse struct {
	Message  string   `json:"message"`
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/auth/login",
		path:     "/auth/login",
		body:     req,
		fallback: "Login failed. Please try again.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/auth/register",
		path:     "/auth/register",
		body:     req,
		fallback: "Registration failed. Please try again.",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout asks the backend to revoke token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: "/auth/logout",
		path:     "/auth/logout",
		body:     struct{}{},
		auth:     true,
		token:    token,
		fallback: "Logout failed",
	}, nil)
}
