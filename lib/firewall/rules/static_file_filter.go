package rules

import (
	"strings"

	"static-file-filter/lib/config"
	. "static-file-filter/lib/firewall/interfaces"
)

type Verdict int

const (
	Pass Verdict = iota
	Reject
)

func (v Verdict) String() string {
	if v == Reject {
		return "reject"
	}
	return "pass"
}

// Evaluate rejects path when its extension is in list.
func Evaluate(list config.Denylist, path string) Verdict {
	if _, ok := Match(list, path); ok {
		return Reject
	}
	return Pass
}

// Match returns the first entry of list that path ends with, preceded by a
// dot. A path made of only the dot and the extension never matches.
func Match(list config.Denylist, path string) (string, bool) {
	for _, ext := range list {
		n := len(ext)
		if len(path) > n+1 &&
			path[len(path)-n-1] == '.' &&
			equalFoldASCII(path[len(path)-n:], ext) {
			return ext, true
		}
	}

	return "", false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca == cb {
			continue
		}
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}

	return true
}

// StaticFileFilter forbids requests for extensions denylisted in the
// request's scope.
type StaticFileFilter struct{}

func (sff *StaticFileFilter) Handler(r *Request) FilterResult {
	if r.Scope == nil {
		return PassToNext
	}

	// file servers resolve "x.exe/" to "x.exe"
	ext, matched := Match(r.Scope.Extensions, strings.TrimRight(r.Path, "/"))
	if !matched {
		return PassToNext
	}

	result := AbortRequestResult
	result.Extension = ext

	return result
}
