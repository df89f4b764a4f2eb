package utils

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
)

func remoteIPFromHeaders(get func(key string) string, direct string) string {
	cfIP := strings.TrimSpace(get("CF-Connecting-IP"))
	if cfIP != "" {
		return cfIP
	}

	// Try X-Forwarded-For header
	xff := strings.TrimSpace(get("X-Forwarded-For"))
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Fallback to direct IP
	return direct
}

func ResolveRemoteIP(c *fiber.Ctx) string {
	return remoteIPFromHeaders(func(key string) string { return c.Get(key) }, c.IP())
}

func ResolveGinRemoteIP(c *gin.Context) string {
	return ResolveRequestRemoteIP(c.Request)
}

func ResolveRequestRemoteIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	return remoteIPFromHeaders(r.Header.Get, direct)
}
