package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func sha1hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func TestFetchVerifiesChecksum(t *testing.T) {
	payload := []byte("server jar bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "server.jar")
	c := NewClient(zaptest.NewLogger(t))
	require.NoError(t, c.Fetch(context.Background(), srv.URL, dest, sha1hex(payload)))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFetchRemovesFileOnMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tampered"))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "server.jar")
	c := NewClient(zaptest.NewLogger(t))
	err := c.Fetch(context.Background(), srv.URL, dest, sha1hex([]byte("original")))
	require.ErrorIs(t, err, ErrChecksumMismatch)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "unverified content must not stay behind")
}

func TestFetchWithoutChecksum(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("no digest published"))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "file")
	c := NewClient(zaptest.NewLogger(t))
	assert.NoError(t, c.Fetch(context.Background(), srv.URL, dest, ""))
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "file")
	c := NewClient(zaptest.NewLogger(t))
	err := c.Fetch(context.Background(), srv.URL, dest, "")
	assert.ErrorContains(t, err, "unexpected status")
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	payload := []byte("artifact content")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	assert.NoError(t, VerifyFile(path, sha1hex(payload)))
	assert.ErrorIs(t, VerifyFile(path, sha1hex([]byte("other"))), ErrChecksumMismatch)
}
