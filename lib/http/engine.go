package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"static-file-filter/lib/firewall"
	"static-file-filter/lib/metrics"
)

const (
	EngineFiber = "fiber"
	EngineGin   = "gin"
)

// ContentOptions selects the stage serving requests the firewall let through.
type ContentOptions struct {
	Upstream string
	Root     string
}

func (o ContentOptions) validate() error {
	if o.Upstream == "" && o.Root == "" {
		return fmt.Errorf("either an upstream or a document root is required")
	}
	return nil
}

// NewFiberApp builds the fiber pipeline: admin endpoints, firewall, content.
func NewFiberApp(fw *firewall.Firewall, src *StatusSource, content ContentOptions) (*fiber.App, error) {
	if err := content.validate(); err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
	})
	app.Use(recover.New())
	app.Use(metrics.MetricsMiddleware())

	app.Get(StatusPath, FiberStatus(src))
	app.Get(ConfigPath, FiberConfig(src))
	app.Get(RejectsPath, FiberRejects(src))
	app.Get(MetricsPath, metrics.MetricsHandler())

	if err := fw.RegisterFiber(app); err != nil {
		return nil, err
	}

	if content.Upstream != "" {
		app.Use(FiberReverseProxy(content.Upstream))
	} else {
		app.Static("/", content.Root)
	}

	return app, nil
}

// NewGinApp builds the same pipeline on gin.
func NewGinApp(fw *firewall.Firewall, src *StatusSource, content ContentOptions) (*gin.Engine, error) {
	if err := content.validate(); err != nil {
		return nil, err
	}

	app := gin.New()
	app.Use(gin.Recovery())
	app.Use(metrics.GinMetricsMiddleware())

	app.GET(StatusPath, Status(src))
	app.GET(ConfigPath, Config(src))
	app.GET(RejectsPath, Rejects(src))
	app.GET(MetricsPath, metrics.GinMetricsHandler())

	if err := fw.RegisterGin(app); err != nil {
		return nil, err
	}

	if content.Upstream != "" {
		app.Use(ReverseProxy(content.Upstream))
	} else {
		app.Use(gin.WrapH(http.FileServer(http.Dir(content.Root))))
	}

	return app, nil
}

// NewHandler builds the pipeline on the named engine as a net/http handler.
func NewHandler(engine string, fw *firewall.Firewall, src *StatusSource, content ContentOptions) (http.Handler, error) {
	switch engine {
	case EngineGin:
		gin.SetMode(gin.ReleaseMode)
		app, err := NewGinApp(fw, src, content)
		if err != nil {
			return nil, err
		}
		return app, nil

	case EngineFiber, "":
		app, err := NewFiberApp(fw, src, content)
		if err != nil {
			return nil, err
		}
		return adaptor.FiberApp(app), nil

	default:
		return nil, fmt.Errorf("unknown engine: %s (expected fiber or gin)", engine)
	}
}
