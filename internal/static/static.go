package static

import (
	"bytes"
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed configure.html
var configurePage []byte

// HandleConfigure serves the configuration page. The page prefills itself from
// the userData segment when opened from an installed addon.
func HandleConfigure(version string) fiber.Handler {
	page := bytes.ReplaceAll(configurePage, []byte("{{version}}"), []byte(version))

	return func(c *fiber.Ctx) error {
		c.Response().Header.Add("Cache-control", "max-age=86400, public")
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(page)
	}
}
