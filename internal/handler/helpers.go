package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parseQueryInt reads an optional integer query parameter, returning 0 when
// absent.
func parseQueryInt(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
