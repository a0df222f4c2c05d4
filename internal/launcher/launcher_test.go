package launcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const detailFixture = `{
	"id": "1.12.2",
	"type": "release",
	"time": "2018-01-19T12:00:00+00:00",
	"releaseTime": "2017-09-18T08:39:46+00:00",
	"mainClass": "net.minecraft.client.main.Main",
	"downloads": {
		"server": {
			"sha1": "886945bfb2b978778c3a0288fd7fab09d315b25f",
			"size": 30222121,
			"url": "https://launcher.mojang.com/v1/objects/886945/server.jar"
		},
		"client": {
			"sha1": "0f275f657fb5ae834d7253f6269d8b4861c57d2c",
			"size": 10180113,
			"url": "https://launcher.mojang.com/v1/objects/0f275f/client.jar"
		}
	},
	"libraries": [
		{
			"name": "com.google.guava:guava:21.0",
			"downloads": {
				"artifact": {
					"path": "com/google/guava/guava/21.0/guava-21.0.jar",
					"sha1": "3a3d111be1be1b745edfa7d91678a12d7ed38709",
					"size": 2521113,
					"url": "https://libraries.minecraft.net/com/google/guava/guava/21.0/guava-21.0.jar"
				}
			}
		}
	]
}`

func newFixtureServer(t *testing.T, detailHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/mc/game/version_manifest.json", func(w http.ResponseWriter, r *http.Request) {
		manifest := `{
			"latest": {"release": "1.12.2", "snapshot": "18w06a"},
			"versions": [
				{"id": "18w06a", "type": "snapshot", "url": "` + srv.URL + `/v1/packages/18w06a.json",
				 "time": "2018-02-09T12:09:55+00:00", "releaseTime": "2018-02-09T12:09:55+00:00"},
				{"id": "1.12.2", "type": "release", "url": "` + srv.URL + `/v1/packages/1.12.2.json",
				 "time": "2018-01-19T12:00:00+00:00", "releaseTime": "2017-09-18T08:39:46+00:00"}
			]
		}`
		_, _ = w.Write([]byte(manifest))
	})
	mux.HandleFunc("/v1/packages/1.12.2.json", func(w http.ResponseWriter, r *http.Request) {
		if detailHits != nil {
			detailHits.Add(1)
		}
		_, _ = w.Write([]byte(detailFixture))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := NewClient(zaptest.NewLogger(t))
	c.HTTP = srv.Client()
	c.ManifestURL = srv.URL + "/mc/game/version_manifest.json"
	return c
}

func TestManifest(t *testing.T) {
	srv := newFixtureServer(t, nil)
	c := newTestClient(t, srv)

	m, err := c.Manifest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.12.2", m.LatestRelease)
	assert.Equal(t, "18w06a", m.LatestSnapshot)
	require.Len(t, m.Versions, 2)

	v, ok := m.Version("1.12.2")
	require.True(t, ok)
	assert.Equal(t, TypeRelease, v.Type)

	// Identifier matching ignores case.
	_, ok = m.Version("18W06A")
	assert.True(t, ok)

	_, ok = m.Version("0.0.0")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	srv := newFixtureServer(t, nil)
	c := newTestClient(t, srv)

	v, err := c.Resolve(context.Background(), "1.12.2")
	require.NoError(t, err)

	assert.Equal(t, "1.12.2", v.ID)
	assert.Equal(t, TypeRelease, v.Type)
	assert.Equal(t, "net.minecraft.client.main.Main", v.MainClass)

	server, ok := v.Server()
	require.True(t, ok)
	assert.Equal(t, "886945bfb2b978778c3a0288fd7fab09d315b25f", server.SHA1)
	assert.Equal(t, int64(30222121), server.Size)

	require.Len(t, v.Libraries, 1)
	assert.Equal(t, "com.google.guava:guava:21.0", v.Libraries[0].Name)
	require.NotNil(t, v.Libraries[0].Artifact)
	assert.Equal(t, "com/google/guava/guava/21.0/guava-21.0.jar", v.Libraries[0].Artifact.Path)
}

func TestResolveUnknownVersion(t *testing.T) {
	srv := newFixtureServer(t, nil)
	c := newTestClient(t, srv)

	_, err := c.Resolve(context.Background(), "0.0.0")
	assert.ErrorIs(t, err, ErrUnknownVersion)
}

func TestDetailCaching(t *testing.T) {
	var hits atomic.Int32
	srv := newFixtureServer(t, &hits)
	c := newTestClient(t, srv)

	for i := 0; i < 3; i++ {
		_, err := c.Resolve(context.Background(), "1.12.2")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load(), "detail documents are immutable and cached by URL")
}

func TestManifestRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(zaptest.NewLogger(t))
	c.HTTP = srv.Client()
	c.ManifestURL = srv.URL

	_, err := c.Manifest(context.Background())
	assert.ErrorContains(t, err, "unexpected status")
}
