package http

import (
	"net/http"
	"net/http/httputil"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"

	"static-file-filter/lib/log"
)

var transport *http.Transport

func init() {
	transport = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		TLSHandshakeTimeout:   3 * time.Second,
		ResponseHeaderTimeout: 10 * time.Minute,
		IdleConnTimeout:       1 * time.Minute,
		DisableKeepAlives:     false,
		MaxIdleConns:          1000,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       0,
		ForceAttemptHTTP2:     false,
	}
}

func requestDirector(targetServer string, host string) func(req *http.Request) {
	return func(req *http.Request) {
		req.URL.Scheme = "http"
		req.URL.Host = targetServer
		req.Host = host
	}
}

// ReverseProxy is the gin content stage forwarding to targetServer.
func ReverseProxy(targetServer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rp := &httputil.ReverseProxy{
			Director:  requestDirector(targetServer, c.Request.Host),
			Transport: transport,
			ErrorHandler: func(writer http.ResponseWriter, request *http.Request, err error) {
				if !strings.Contains(err.Error(), "context canceled") {
					log.Error("ErrorHandler in ReverseProxy", err.Error())
				}
				writer.WriteHeader(http.StatusBadGateway)
			},
		}
		rp.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}

// FiberReverseProxy is the fiber content stage forwarding to targetServer.
func FiberReverseProxy(targetServer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := proxy.Do(c, "http://"+targetServer+c.OriginalURL()); err != nil {
			log.Error("ErrorHandler in FiberReverseProxy", err.Error())
			return c.SendStatus(fiber.StatusBadGateway)
		}
		return nil
	}
}
