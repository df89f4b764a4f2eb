package interfaces

import (
	"static-file-filter/lib/config"
)

// Request is the host-independent view of an incoming request. Path is
// decoded and free of dot segments.
type Request struct {
	Hostname string
	Path     string
	RemoteIP string
	Scope    *config.Scope
}

type FilterInterface interface {
	Handler(r *Request) FilterResult
}

type FilterResult struct {
	Error     error
	Status    int
	Extension string
	Passed    bool
	BreakLoop bool
}
