package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/api/dto"
	"github.com/reelhouse/movie-catalog/internal/auth"
)

// AuthHandler exposes login, register, logout and the current session.
type AuthHandler struct{}

// NewAuthHandler constructs handler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// LoginPage handles GET /login. It echoes the destination saved by the guard.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"from":    auth.SafeDestination(c.Query("from")),
		"session": sessionView(manager),
	}})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := manager.Login(c.UserContext(), req.Username, req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Session:  sessionView(manager),
		Redirect: auth.SafeDestination(destination(c, req.From)),
	}})
}

// Register handles POST /register; on success the new user is signed in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := manager.Register(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.AuthResponse{
		Session:  sessionView(manager),
		Redirect: auth.SafeDestination(destination(c, req.From)),
	}})
}

// Logout handles POST /logout. The local session is cleared even when the
// backend cannot be reached.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	if err := manager.Logout(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Session:  sessionView(manager),
		Redirect: auth.HomePath,
	}})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	_, manager, _, err := requestScope(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionView(manager)})
}

func destination(c *fiber.Ctx, from string) string {
	if from != "" {
		return from
	}
	return c.Query("from")
}
