package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coredns/caddy/caddyfile"
)

const (
	DirectiveName = "static_file_filter"

	serverDirective   = "server"
	locationDirective = "location"
)

// ParseOptions tunes how a Filterfile is read.
type ParseOptions struct {
	MergePolicy MergePolicy
	// Strict rejects extension tokens carrying dots, slashes or whitespace.
	Strict bool
}

// LoadFile parses and resolves the Filterfile at path.
func LoadFile(path string, opts ParseOptions) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	store, err := Parse(path, f, opts)
	if err != nil {
		return nil, err
	}

	if err := store.Resolve(); err != nil {
		return nil, fmt.Errorf("failed to resolve config: %w", err)
	}

	return store, nil
}

// Parse reads Filterfile syntax into an unresolved Store.
//
// Syntax:
//
//	static_file_filter <ext> [<ext>...]
//	server [<host>...] {
//	    static_file_filter <ext>...
//	    location <prefix> {
//	        ...
//	    }
//	}
//
// Top level location blocks are accepted only in files without servers.
// A block may also close on the line that opened it:
//
//	location /a/ { static_file_filter php }
func Parse(filename string, input io.Reader, opts ParseOptions) (*Store, error) {
	policy := opts.MergePolicy
	if policy == "" {
		policy = MergeAppend
	}

	d := caddyfile.NewDispenser(filename, input)
	p := &parser{
		d:      &d,
		store:  NewStore(WithMergePolicy(policy)),
		strict: opts.Strict,
	}

	if err := p.parseBlock(p.store.Root(), false); err != nil {
		return nil, err
	}

	return p.store, nil
}

type parser struct {
	d      *caddyfile.Dispenser
	store  *Store
	strict bool

	hasServer   bool
	topLocation bool
	// closing is set when a '}' ended a directive's arguments
	closing bool
}

func (p *parser) parseBlock(scope *Scope, nested bool) error {
	for {
		var directive string
		switch {
		case p.closing:
			p.closing = false
			directive = "}"
		case p.d.Next():
			directive = p.d.Val()
		default:
			if nested {
				return p.d.Errf("unexpected end of file, missing '}'")
			}
			return nil
		}

		switch directive {
		case "}":
			if !nested {
				return p.d.Errf("unexpected '}'")
			}
			return nil

		case DirectiveName:
			args, block := p.args()
			if block {
				return p.d.Errf("%s does not take a block", DirectiveName)
			}
			if len(args) == 0 {
				return p.d.ArgErr()
			}
			if p.strict {
				if err := ValidateExtensions(args); err != nil {
					return p.d.Errf("%v", err)
				}
			}
			if err := scope.Declare(args...); err != nil {
				return p.d.Errf("%v", err)
			}

		case serverDirective:
			if scope.Kind != KindGlobal {
				return p.d.Errf("server is only allowed at the top level")
			}
			hosts, block := p.args()
			if !block {
				return p.d.Errf("server requires a block")
			}
			if p.topLocation {
				return p.d.Errf("server blocks cannot be mixed with top level location blocks")
			}
			for i := range hosts {
				hosts[i] = strings.ToLower(hosts[i])
			}
			server, err := p.store.Server(hosts...)
			if err != nil {
				return p.d.Errf("%v", err)
			}
			p.hasServer = true
			if err := p.parseBlock(server, true); err != nil {
				return err
			}

		case locationDirective:
			args, block := p.args()
			if len(args) != 1 {
				return p.d.ArgErr()
			}
			if !block {
				return p.d.Errf("location requires a block")
			}
			if scope.Kind == KindGlobal {
				// locations outside a server are only reachable when no server exists
				if p.hasServer {
					return p.d.Errf("location must be inside a server block when server blocks are declared")
				}
				p.topLocation = true
			}
			location, err := scope.Location(args[0])
			if err != nil {
				return p.d.Errf("%v", err)
			}
			if err := p.parseBlock(location, true); err != nil {
				return err
			}

		default:
			return p.d.Errf("unknown directive '%s'", directive)
		}
	}
}

// args collects the remaining tokens of the current line. It reports
// whether the line ended by opening a block. A closing brace ends the
// arguments and is handed to the enclosing block.
func (p *parser) args() ([]string, bool) {
	var args []string

	for p.d.NextArg() {
		switch p.d.Val() {
		case "{":
			return args, true
		case "}":
			p.closing = true
			return args, false
		}
		args = append(args, p.d.Val())
	}

	return args, false
}
