package config

import (
	"fmt"
	"strings"
)

type MergePolicy string

const (
	// MergeAppend adds the parent's resolved entries after the child's own.
	MergeAppend MergePolicy = "append"
	// MergeReplace keeps a child's own list and ignores the parent's.
	MergeReplace MergePolicy = "replace"
)

func ParseMergePolicy(v string) (MergePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(MergeAppend):
		return MergeAppend, nil
	case string(MergeReplace):
		return MergeReplace, nil
	default:
		return "", fmt.Errorf("invalid merge policy: %s (expected append or replace)", v)
	}
}

// Store holds the scope tree. It is filled during configuration load,
// resolved once and read concurrently afterwards.
type Store struct {
	root     *Scope
	policy   MergePolicy
	resolved bool
}

type Option func(*Store)

func WithMergePolicy(policy MergePolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{policy: MergeAppend}
	for _, opt := range opts {
		opt(s)
	}
	s.root = &Scope{Kind: KindGlobal, store: s}

	return s
}

func (s *Store) Root() *Scope {
	return s.root
}

func (s *Store) Policy() MergePolicy {
	return s.policy
}

func (s *Store) Resolved() bool {
	return s.resolved
}

// Server adds a server scope answering for the given host names. The first
// server added is the default one for unknown hosts.
func (s *Store) Server(hosts ...string) (*Scope, error) {
	if s.resolved {
		return nil, ErrResolved
	}

	server := &Scope{
		Kind:   KindServer,
		Hosts:  hosts,
		Parent: s.root,
		store:  s,
	}
	s.root.Children = append(s.root.Children, server)

	return server, nil
}

// Merge resolves child against an already resolved parent.
func Merge(parent, child *Scope, policy MergePolicy) {
	if child.Extensions == nil {
		child.Extensions = parent.Extensions
		return
	}

	if policy == MergeReplace {
		return
	}

	child.Extensions = append(child.Extensions, parent.Extensions...)
}

// Resolve merges every scope into its children, root to leaves. Calling it
// again is a no-op.
func (s *Store) Resolve() error {
	if s.resolved {
		return nil
	}

	var walk func(parent *Scope)
	walk = func(parent *Scope) {
		for _, child := range parent.Children {
			Merge(parent, child, s.policy)
			walk(child)
		}
	}
	walk(s.root)

	s.resolved = true

	return nil
}

// Walk visits every scope depth-first, parents before children.
func (s *Store) Walk(fn func(scope *Scope, depth int)) {
	var walk func(scope *Scope, depth int)
	walk = func(scope *Scope, depth int) {
		fn(scope, depth)
		for _, child := range scope.Children {
			walk(child, depth+1)
		}
	}
	walk(s.root, 0)
}

// Lookup returns the scope handling a request for host and path, or nil
// when the store has not been resolved yet. host must not carry a port.
func (s *Store) Lookup(host, path string) *Scope {
	if !s.resolved {
		return nil
	}

	scope := s.root
	if server := s.server(host); server != nil {
		scope = server
	}

	for {
		next := longestPrefix(scope.Children, path)
		if next == nil {
			return scope
		}
		scope = next
	}
}

func (s *Store) server(host string) *Scope {
	var fallback *Scope

	for _, child := range s.root.Children {
		if child.Kind != KindServer {
			continue
		}
		if child.matchesHost(host) {
			return child
		}
		if fallback == nil {
			fallback = child
		}
	}

	return fallback
}

func longestPrefix(children []*Scope, path string) *Scope {
	var best *Scope

	for _, child := range children {
		if child.Kind != KindLocation || !strings.HasPrefix(path, child.Prefix) {
			continue
		}
		if best == nil || len(child.Prefix) > len(best.Prefix) {
			best = child
		}
	}

	return best
}
