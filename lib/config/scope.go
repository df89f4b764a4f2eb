package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoExtensions = errors.New("at least one extension is required")
	ErrResolved     = errors.New("configuration is already resolved")
)

// Denylist is the ordered list of extensions (without the leading dot)
// a scope refuses to serve.
type Denylist []string

type Kind int

const (
	KindGlobal Kind = iota
	KindServer
	KindLocation
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindServer:
		return "server"
	case KindLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Scope is one node of the global -> server -> location hierarchy.
type Scope struct {
	Kind   Kind
	Hosts  []string
	Prefix string

	Parent   *Scope
	Children []*Scope

	// Extensions is nil until the scope declares something or inherits
	// a list during Resolve.
	Extensions Denylist

	declared int
	store    *Store
}

// Name identifies the scope in logs, metrics and dumps.
func (s *Scope) Name() string {
	switch s.Kind {
	case KindServer:
		if len(s.Hosts) == 0 {
			return "server"
		}
		return "server " + strings.Join(s.Hosts, " ")
	case KindLocation:
		return "location " + s.Prefix
	default:
		return "main"
	}
}

// Declared returns the entries declared directly in this scope.
func (s *Scope) Declared() Denylist {
	if s.declared == 0 {
		return nil
	}
	return s.Extensions[:s.declared:s.declared]
}

// Declare appends extensions to the scope's own list. Every entry is a
// private copy, callers may reuse their buffers afterwards.
func (s *Scope) Declare(extensions ...string) error {
	if len(extensions) == 0 {
		return ErrNoExtensions
	}
	if s.store != nil && s.store.resolved {
		return ErrResolved
	}

	if s.Extensions == nil {
		s.Extensions = make(Denylist, 0, len(extensions))
	}

	for _, ext := range extensions {
		s.Extensions = append(s.Extensions, strings.Clone(ext))
	}
	s.declared = len(s.Extensions)

	return nil
}

// Location creates a nested location scope matching the given path prefix.
func (s *Scope) Location(prefix string) (*Scope, error) {
	if s.store != nil && s.store.resolved {
		return nil, ErrResolved
	}

	child := &Scope{
		Kind:   KindLocation,
		Prefix: prefix,
		Parent: s,
		store:  s.store,
	}
	s.Children = append(s.Children, child)

	return child, nil
}

func (s *Scope) matchesHost(host string) bool {
	for _, h := range s.Hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}

func (s *Scope) String() string {
	return fmt.Sprintf("%s %v", s.Name(), []string(s.Extensions))
}
