package firewall

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"

	"static-file-filter/lib/config"
	"static-file-filter/lib/db/rejects"
	. "static-file-filter/lib/firewall/interfaces"
	"static-file-filter/lib/firewall/methods"
	"static-file-filter/lib/firewall/rules"
	"static-file-filter/lib/log"
	"static-file-filter/lib/metrics"
	"static-file-filter/lib/utils"
)

var (
	ErrUnresolved        = errors.New("firewall: configuration store is not resolved")
	ErrAlreadyRegistered = errors.New("firewall: handler is already registered")
)

// Recorder receives every forbidden request.
type Recorder interface {
	Record(host, path, scope, extension, remoteIP string) *rejects.RejectRecord
}

type Firewall struct {
	store      *config.Store
	filters    []FilterInterface
	recorder   Recorder
	registered atomic.Bool
}

// New builds a firewall over a resolved store. recorder may be nil.
func New(store *config.Store, recorder Recorder) (*Firewall, error) {
	if store == nil || !store.Resolved() {
		return nil, ErrUnresolved
	}

	store.Walk(func(scope *config.Scope, _ int) {
		metrics.SetScopeEntries(scope.Name(), len(scope.Extensions))
	})

	return &Firewall{
		store: store,
		filters: []FilterInterface{
			&rules.StaticFileFilter{},
		},
		recorder: recorder,
	}, nil
}

// executeFilters runs a slice of filters and returns the first failing result
func executeFilters(filters []FilterInterface, r *Request) FilterResult {
	var result FilterResult

	for _, filter := range filters {
		result = filter.Handler(r)

		if result.Passed {
			if result.BreakLoop { // stop filtering
				return result
			}
			continue // passed current filter, skip to next
		}

		// not passed current filter
		if result.Error != nil {
			log.Error("Error in firewall", result.Error.Error())
		}

		return result
	}

	return rules.PassToNext
}

// Check decides one request. hostname must be lowercase and without port,
// path decoded and cleaned the way the content stage resolves it.
func (fw *Firewall) Check(hostname, path, remoteIP string) FilterResult {
	scope := fw.store.Lookup(hostname, path)

	result := executeFilters(fw.filters, &Request{
		Hostname: hostname,
		Path:     path,
		RemoteIP: remoteIP,
		Scope:    scope,
	})

	if !result.Passed {
		fw.reject(hostname, path, remoteIP, scope, result)
	}

	return result
}

func (fw *Firewall) reject(hostname, path, remoteIP string, scope *config.Scope, result FilterResult) {
	scopeName := ""
	if scope != nil {
		scopeName = scope.Name()
	}

	metrics.IncRejected(scopeName, result.Extension)

	if fw.recorder != nil {
		fw.recorder.Record(hostname, path, scopeName, result.Extension, remoteIP)
	}

	log.WithFields(log.Fields{
		"host":      hostname,
		"path":      path,
		"scope":     scopeName,
		"extension": result.Extension,
	}).Debug("forbidden by extension")
}

func (fw *Firewall) FiberHandler(c *fiber.Ctx) error {
	result := fw.Check(utils.ResolveHostname(c), utils.ResolvePath(c), utils.ResolveRemoteIP(c))
	if result.Passed {
		return c.Next()
	}

	return methods.Forbidden(c)
}

func (fw *Firewall) GinHandler(c *gin.Context) {
	result := fw.Check(utils.ResolveGinHostname(c), utils.CleanPath(c.Request.URL.Path), utils.ResolveGinRemoteIP(c))
	if result.Passed {
		c.Next()
		return
	}

	methods.AbortForbidden(c)
}

// Middleware adapts the firewall to plain net/http handler chains.
func (fw *Firewall) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := fw.Check(utils.StripPort(r.Host), utils.CleanPath(r.URL.Path), utils.ResolveRequestRemoteIP(r))
		if !result.Passed {
			methods.WriteForbidden(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// FiberPipeline is the part of a fiber app that installs handlers ahead of
// the content stage.
type FiberPipeline interface {
	Use(args ...interface{}) fiber.Router
}

// GinPipeline is the gin counterpart of FiberPipeline.
type GinPipeline interface {
	Use(middleware ...gin.HandlerFunc) gin.IRoutes
}

func (fw *Firewall) claim() error {
	if !fw.registered.CompareAndSwap(false, true) {
		return ErrAlreadyRegistered
	}
	return nil
}

// RegisterFiber installs the firewall into p. It must be called once, before
// the content stage is added.
func (fw *Firewall) RegisterFiber(p FiberPipeline) error {
	if err := fw.claim(); err != nil {
		return err
	}

	p.Use(fw.FiberHandler)
	return nil
}

func (fw *Firewall) RegisterGin(p GinPipeline) error {
	if err := fw.claim(); err != nil {
		return err
	}

	p.Use(fw.GinHandler)
	return nil
}
