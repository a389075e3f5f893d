package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/domain"
)

const capabilitiesKey = "auth_capabilities"

// SetCapabilities stores the caller's capability view for the guard handlers.
func SetCapabilities(c *fiber.Ctx, caps domain.Capabilities) {
	c.Locals(capabilitiesKey, caps)
}

// CapabilitiesFromContext retrieves the capability view, anonymous when unset.
func CapabilitiesFromContext(c *fiber.Ctx) domain.Capabilities {
	caps, _ := c.Locals(capabilitiesKey).(domain.Capabilities)
	return caps
}
