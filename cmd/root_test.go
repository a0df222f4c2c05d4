package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reforge-tools/reforge/internal/config"
)

func TestStoreDirPrefersConfiguration(t *testing.T) {
	dir, err := storeDir(&config.Config{StoreDirectory: "/var/lib/reforge"})
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/reforge", dir)

	dir, err = storeDir(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, "store", filepath.Base(dir))
	assert.Contains(t, dir, ".reforge")
}

func TestLibraryCacheDirDefaultsUnderStore(t *testing.T) {
	cfg := &config.Config{LibraryCacheDirectory: "/tmp/libs"}
	assert.Equal(t, "/tmp/libs", libraryCacheDir(cfg, "/store"))
	assert.Equal(t, filepath.Join("/store", "libdeps"), libraryCacheDir(&config.Config{}, "/store"))
}
