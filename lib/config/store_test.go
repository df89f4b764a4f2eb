package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, store *Store, hosts ...string) *Scope {
	t.Helper()

	server, err := store.Server(hosts...)
	require.NoError(t, err)
	return server
}

func newLocation(t *testing.T, parent *Scope, prefix string) *Scope {
	t.Helper()

	location, err := parent.Location(prefix)
	require.NoError(t, err)
	return location
}

func TestDeclareRequiresArguments(t *testing.T) {
	store := NewStore()

	err := store.Root().Declare()
	assert.ErrorIs(t, err, ErrNoExtensions)
	assert.Nil(t, store.Root().Extensions)
}

func TestDeclareAccumulates(t *testing.T) {
	store := NewStore()
	scope := store.Root()

	require.NoError(t, scope.Declare("a"))
	require.NoError(t, scope.Declare("b", "c"))

	assert.Equal(t, Denylist{"a", "b", "c"}, scope.Extensions)
	assert.Equal(t, Denylist{"a", "b", "c"}, scope.Declared())
}

func TestDeclareCopiesInput(t *testing.T) {
	store := NewStore()
	buf := []byte("php")

	require.NoError(t, store.Root().Declare(string(buf)))
	buf[0] = 'x'

	assert.Equal(t, Denylist{"php"}, store.Root().Extensions)
}

func TestDeclareAfterResolve(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Resolve())

	assert.ErrorIs(t, store.Root().Declare("php"), ErrResolved)
}

func TestAddScopeAfterResolve(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Resolve())

	server, err := store.Server("example.com")
	assert.ErrorIs(t, err, ErrResolved)
	assert.Nil(t, server)

	location, err := store.Root().Location("/a/")
	assert.ErrorIs(t, err, ErrResolved)
	assert.Nil(t, location)
	assert.Empty(t, store.Root().Children)
}

func TestMergeInheritsByReference(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Root().Declare("exe"))
	child := newLocation(t, store.Root(), "/a/")

	require.NoError(t, store.Resolve())

	assert.Equal(t, Denylist{"exe"}, child.Extensions)
	assert.Nil(t, child.Declared())
	assert.Same(t, &store.Root().Extensions[0], &child.Extensions[0])
}

func TestMergeAppendsParentEntries(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Root().Declare("exe"))
	child := newLocation(t, store.Root(), "/a/")
	require.NoError(t, child.Declare("php"))
	grandchild := newLocation(t, child, "/a/b/")

	require.NoError(t, store.Resolve())

	assert.Equal(t, Denylist{"php", "exe"}, child.Extensions)
	assert.Equal(t, Denylist{"php"}, child.Declared())
	assert.Equal(t, child.Extensions, grandchild.Extensions)
}

func TestMergeGrowsPastDeclaredCapacity(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Root().Declare("exe", "bat", "cmd", "com"))
	child := newLocation(t, store.Root(), "/a/")
	require.NoError(t, child.Declare("php"))
	require.Equal(t, 1, cap(child.Extensions))

	require.NoError(t, store.Resolve())

	assert.Equal(t, Denylist{"php", "exe", "bat", "cmd", "com"}, child.Extensions)
	assert.Equal(t, Denylist{"exe", "bat", "cmd", "com"}, store.Root().Extensions)
}

func TestMergeReplacePolicy(t *testing.T) {
	store := NewStore(WithMergePolicy(MergeReplace))
	require.NoError(t, store.Root().Declare("exe"))
	own := newLocation(t, store.Root(), "/a/")
	require.NoError(t, own.Declare("php"))
	inherited := newLocation(t, store.Root(), "/b/")

	require.NoError(t, store.Resolve())

	assert.Equal(t, Denylist{"php"}, own.Extensions)
	assert.Equal(t, Denylist{"exe"}, inherited.Extensions)
}

func TestMergeNothingDeclared(t *testing.T) {
	store := NewStore()
	server := newServer(t, store, "example.com")
	location := newLocation(t, server, "/")

	require.NoError(t, store.Resolve())

	assert.Nil(t, store.Root().Extensions)
	assert.Nil(t, server.Extensions)
	assert.Nil(t, location.Extensions)
}

func TestResolveIsIdempotent(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Root().Declare("exe"))
	child := newLocation(t, store.Root(), "/a/")
	require.NoError(t, child.Declare("php"))

	require.NoError(t, store.Resolve())
	require.NoError(t, store.Resolve())

	assert.Equal(t, Denylist{"php", "exe"}, child.Extensions)
}

func TestLookup(t *testing.T) {
	store := NewStore()
	first := newServer(t, store, "example.com")
	download := newLocation(t, first, "/download/")
	nested := newLocation(t, download, "/download/private/")
	second := newServer(t, store, "static.example.com", "cdn.example.com")
	img := newLocation(t, second, "/img/")
	imgLong := newLocation(t, second, "/img/large/")

	assert.Nil(t, store.Lookup("example.com", "/"), "unresolved store")
	require.NoError(t, store.Resolve())

	tests := []struct {
		name string
		host string
		path string
		want *Scope
	}{
		{"server root", "example.com", "/index.html", first},
		{"location", "example.com", "/download/file.zip", download},
		{"nested location", "example.com", "/download/private/a.txt", nested},
		{"host case", "CDN.example.com", "/img/a.png", img},
		{"longest prefix", "cdn.example.com", "/img/large/a.png", imgLong},
		{"default server", "unknown.test", "/download/x", download},
		{"server without location", "static.example.com", "/css/a.css", second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, tt.want, store.Lookup(tt.host, tt.path))
		})
	}
}

func TestLookupWithoutServers(t *testing.T) {
	store := NewStore()
	route := newLocation(t, store.Root(), "/a/")
	require.NoError(t, store.Resolve())

	assert.Same(t, store.Root(), store.Lookup("any", "/b/c"))
	assert.Same(t, route, store.Lookup("any", "/a/c"))
}

func TestParseMergePolicy(t *testing.T) {
	p, err := ParseMergePolicy("")
	require.NoError(t, err)
	assert.Equal(t, MergeAppend, p)

	p, err = ParseMergePolicy("Replace")
	require.NoError(t, err)
	assert.Equal(t, MergeReplace, p)

	_, err = ParseMergePolicy("override")
	assert.Error(t, err)
}

func TestScopeName(t *testing.T) {
	store := NewStore()
	server := newServer(t, store, "a.test", "b.test")

	assert.Equal(t, "main", store.Root().Name())
	assert.Equal(t, "server a.test b.test", server.Name())
	assert.Equal(t, "location /x/", newLocation(t, server, "/x/").Name())
	assert.Equal(t, "server", newServer(t, store).Name())
}
