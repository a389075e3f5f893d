package auth

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

// Redirect targets used by the guard handlers.
const (
	LoginPath = "/login"
	HomePath  = "/"
)

// RequireSession lets authenticated callers through.
func RequireSession() fiber.Handler {
	return guard(false)
}

// RequireAdmin lets callers holding ROLE_ADMIN through.
func RequireAdmin() fiber.Handler {
	return guard(true)
}

func guard(requireAdmin bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := Decide(CapabilitiesFromContext(c), requireAdmin, c.OriginalURL())
		switch decision.Kind {
		case RedirectToLogin:
			return c.Redirect(LoginPath+"?from="+url.QueryEscape(decision.SavedDestination), fiber.StatusSeeOther)
		case RedirectToHome:
			return c.Redirect(HomePath, fiber.StatusSeeOther)
		default:
			return c.Next()
		}
	}
}

// SafeDestination returns from when it is a local path, HomePath otherwise.
func SafeDestination(from string) string {
	if from == "" || from[0] != '/' || (len(from) > 1 && (from[1] == '/' || from[1] == '\\')) {
		return HomePath
	}
	return from
}
