package firewall

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"static-file-filter/lib/config"
	"static-file-filter/lib/db/rejects"
	. "static-file-filter/lib/firewall/interfaces"
	"static-file-filter/lib/firewall/rules"
)

// global declares exe and bat, route A declares php, route B nothing.
const endToEndFilterfile = `
static_file_filter exe bat

location /a/ {
    static_file_filter php
}

location /b/ {
}
`

func newStore(t *testing.T, src string) *config.Store {
	t.Helper()

	store, err := config.Parse("Filterfile", strings.NewReader(src), config.ParseOptions{})
	require.NoError(t, err)
	require.NoError(t, store.Resolve())

	return store
}

func newFirewall(t *testing.T, src string) (*Firewall, *rejects.Log) {
	t.Helper()

	recorder, err := rejects.NewLog(rejects.Config{Capacity: 16})
	require.NoError(t, err)
	t.Cleanup(func() { _ = recorder.Close() })

	fw, err := New(newStore(t, src), recorder)
	require.NoError(t, err)

	return fw, recorder
}

var endToEndCases = []struct {
	name   string
	path   string
	status int
}{
	{"own entry upper case", "/a/download/file.PHP", http.StatusForbidden},
	{"inherited in route with entries", "/a/download/file.exe", http.StatusForbidden},
	{"inherited in empty route", "/b/download/file.exe", http.StatusForbidden},
	{"allowed", "/b/img/photo.png", http.StatusOK},
	{"not denied outside route", "/c/file.php", http.StatusOK},
	{"bare extension path", "/a/.php", http.StatusForbidden},
	{"query string ignored", "/b/photo.png?x=.exe", http.StatusOK},
	{"percent encoded extension", "/a/file.ph%70", http.StatusForbidden},
	{"percent encoded dot", "/b/file%2eexe", http.StatusForbidden},
	{"trailing slash", "/b/file.exe/", http.StatusForbidden},
	{"dot segments", "/c/../a/file.php", http.StatusForbidden},
	{"encoded allowed", "/b/photo%2epng", http.StatusOK},
}

func TestNewRequiresResolvedStore(t *testing.T) {
	_, err := New(config.NewStore(), nil)
	assert.ErrorIs(t, err, ErrUnresolved)

	_, err = New(nil, nil)
	assert.ErrorIs(t, err, ErrUnresolved)
}

func TestCheck(t *testing.T) {
	fw, recorder := newFirewall(t, endToEndFilterfile)

	result := fw.Check("example.com", "/a/file.PHP", "198.51.100.1")
	assert.False(t, result.Passed)
	assert.Equal(t, http.StatusForbidden, result.Status)
	assert.Equal(t, "php", result.Extension)

	result = fw.Check("example.com", "/b/photo.png", "198.51.100.1")
	assert.True(t, result.Passed)

	recent := recorder.Recent(context.Background(), 0)
	require.Len(t, recent, 1)
	assert.Equal(t, "location /a/", recent[0].Scope)
	assert.Equal(t, "/a/file.PHP", recent[0].Path)
}

func TestCheckWithoutRecorder(t *testing.T) {
	fw, err := New(newStore(t, endToEndFilterfile), nil)
	require.NoError(t, err)

	assert.False(t, fw.Check("example.com", "/a/file.php", "").Passed)
}

func TestFiberHandler(t *testing.T) {
	fw, _ := newFirewall(t, endToEndFilterfile)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	require.NoError(t, fw.RegisterFiber(app))
	app.Use(func(c *fiber.Ctx) error {
		return c.SendString("content")
	})

	for _, tt := range endToEndCases {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestGinHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fw, _ := newFirewall(t, endToEndFilterfile)

	app := gin.New()
	require.NoError(t, fw.RegisterGin(app))
	app.Use(func(c *gin.Context) {
		c.String(http.StatusOK, "content")
	})

	for _, tt := range endToEndCases {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	fw, _ := newFirewall(t, endToEndFilterfile)

	handler := fw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("content"))
	}))

	for _, tt := range endToEndCases {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestServerScopes(t *testing.T) {
	fw, _ := newFirewall(t, `
static_file_filter exe

server files.test {
    static_file_filter zip
}

server www.test {
    location /cgi/ {
        static_file_filter pl
    }
}
`)

	handler := fw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		host   string
		path   string
		status int
	}{
		{"files.test", "/a.zip", http.StatusForbidden},
		{"files.test:8080", "/a.exe", http.StatusForbidden},
		{"www.test", "/a.zip", http.StatusOK},
		{"WWW.test", "/cgi/run.pl", http.StatusForbidden},
		{"www.test", "/run.pl", http.StatusOK},
		{"unknown.test", "/a.zip", http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Host = tt.host
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, tt.status, w.Code, tt.host+tt.path)
	}
}

func TestNothingDeclaredPassesEverything(t *testing.T) {
	fw, _ := newFirewall(t, "server a.test {\n    location / {\n    }\n}\n")

	for _, path := range []string{"/a.php", "/b.exe", "/.htaccess", "/"} {
		assert.True(t, fw.Check("a.test", path, "").Passed, path)
	}
}

func TestRegisterOnce(t *testing.T) {
	fw, _ := newFirewall(t, endToEndFilterfile)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	require.NoError(t, fw.RegisterFiber(app))
	assert.ErrorIs(t, fw.RegisterFiber(app), ErrAlreadyRegistered)
	assert.ErrorIs(t, fw.RegisterGin(gin.New()), ErrAlreadyRegistered)
}

type stubFilter struct {
	result FilterResult
	calls  int
}

func (sf *stubFilter) Handler(r *Request) FilterResult {
	sf.calls++
	return sf.result
}

func TestExecuteFilters(t *testing.T) {
	breaker := &stubFilter{result: rules.BreakLoopResult}
	rejecter := &stubFilter{result: rules.AbortRequestResult}

	result := executeFilters([]FilterInterface{breaker, rejecter}, &Request{})
	assert.True(t, result.Passed)
	assert.Equal(t, 0, rejecter.calls)

	passer := &stubFilter{result: rules.PassToNext}
	failing := &stubFilter{result: FilterResult{Error: errors.New("boom"), Status: http.StatusForbidden}}

	result = executeFilters([]FilterInterface{passer, failing, rejecter}, &Request{})
	assert.False(t, result.Passed)
	assert.EqualError(t, result.Error, "boom")
	assert.Equal(t, 1, passer.calls)
	assert.Equal(t, 0, rejecter.calls)

	result = executeFilters(nil, &Request{})
	assert.Equal(t, rules.PassToNext, result)
}
