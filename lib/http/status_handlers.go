package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"static-file-filter/lib/config"
	"static-file-filter/lib/db/rejects"
)

const (
	StatusPath  = "/_pf/_status"
	ConfigPath  = "/_pf/_config"
	RejectsPath = "/_pf/_rejects"
	MetricsPath = "/_pf/_metrics"

	defaultRejectsLimit = 100
	yamlContentType     = "application/yaml; charset=utf-8"
)

var startedAt time.Time

func init() {
	startedAt = time.Now()
}

// StatusSource is what the admin endpoints report on.
type StatusSource struct {
	Engine  string
	Store   *config.Store
	Rejects *rejects.Log
}

func (s *StatusSource) status() map[string]interface{} {
	scopes := 0
	s.Store.Walk(func(*config.Scope, int) { scopes++ })

	return map[string]interface{}{
		"started":     startedAt.Format(time.RFC3339),
		"uptime":      time.Since(startedAt).Round(time.Second).String(),
		"engine":      s.Engine,
		"mergePolicy": s.Store.Policy(),
		"scopes":      scopes,
		"rejectsSize": s.Rejects.Size(),
		"rejectsCap":  s.Rejects.Cap(),
	}
}

func (s *StatusSource) recent(ctx context.Context, limit string) []*rejects.RejectRecord {
	n, err := strconv.Atoi(limit)
	if err != nil || n <= 0 {
		n = defaultRejectsLimit
	}
	return s.Rejects.Recent(ctx, n)
}

func Status(src *StatusSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, src.status())
	}
}

func Config(src *StatusSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		out, err := config.Dump(src.Store)
		if err != nil {
			ctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		ctx.Data(http.StatusOK, yamlContentType, out)
	}
}

func Rejects(src *StatusSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, src.recent(ctx.Request.Context(), ctx.Query("n")))
	}
}

func FiberStatus(src *StatusSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(src.status())
	}
}

func FiberConfig(src *StatusSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := config.Dump(src.Store)
		if err != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		c.Set(fiber.HeaderContentType, yamlContentType)
		return c.Send(out)
	}
}

func FiberRejects(src *StatusSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(src.recent(c.UserContext(), c.Query("n")))
	}
}
