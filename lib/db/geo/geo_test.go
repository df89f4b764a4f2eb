package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilResolver(t *testing.T) {
	var r *Resolver

	assert.Equal(t, "", r.Country("8.8.8.8"))
	assert.NoError(t, r.Close())
}

func TestOpenInvalid(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "garbage.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))
	_, err = Open(path)
	assert.Error(t, err)
}
