package utils

import (
	"path"

	"github.com/gofiber/fiber/v2"
)

// CleanPath removes dot segments and repeated slashes from a decoded
// request path. A trailing slash is kept so directory prefixes still match.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}

	cleaned := path.Clean(p)
	if p[len(p)-1] == '/' && cleaned != "/" {
		cleaned += "/"
	}

	return cleaned
}

// ResolvePath returns the path fasthttp serves for the request: decoded and
// normalized, unlike the raw path fiber routes on.
func ResolvePath(c *fiber.Ctx) string {
	return CleanPath(string(c.Context().Path()))
}
