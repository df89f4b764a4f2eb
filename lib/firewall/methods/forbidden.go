package methods

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
)

func Forbidden(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusForbidden)
}

func AbortForbidden(c *gin.Context) {
	c.AbortWithStatus(http.StatusForbidden)
}

func WriteForbidden(w http.ResponseWriter) {
	w.WriteHeader(http.StatusForbidden)
}
