package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
)

// StripPort lowercases host and removes a trailing port, keeping IPv6
// literals without their brackets.
func StripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end > 0 {
			return strings.ToLower(host[1:end])
		}
	}

	if i := strings.LastIndexByte(host, ':'); i >= 0 && strings.IndexByte(host, ':') == i {
		host = host[:i]
	}

	return strings.ToLower(host)
}

func ResolveHostname(c *fiber.Ctx) string {
	return StripPort(c.Hostname())
}

func ResolveGinHostname(c *gin.Context) string {
	return StripPort(c.Request.Host)
}
