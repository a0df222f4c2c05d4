// Package launcher talks to the game distribution's launcher metadata
// service: the global version manifest plus the per-version detail document
// carrying download locations, checksums and the library list.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"
)

// ManifestURL is the published location of the launcher version manifest.
const ManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

// ErrUnknownVersion marks a version identifier the manifest does not list.
var ErrUnknownVersion = errors.New("unknown game version")

// Version types as published in the manifest.
const (
	TypeRelease  = "release"
	TypeSnapshot = "snapshot"
)

// Manifest is the top level version listing.
type Manifest struct {
	LatestRelease  string
	LatestSnapshot string
	Versions       []VersionRef
}

// VersionRef is one row of the manifest: the identifier plus the location
// of the detail document.
type VersionRef struct {
	ID          string
	Type        string
	URL         string
	Time        time.Time
	ReleaseTime time.Time
}

// Version finds a row by identifier, case-insensitively.
func (m *Manifest) Version(id string) (VersionRef, bool) {
	for _, v := range m.Versions {
		if strings.EqualFold(v.ID, id) {
			return v, true
		}
	}
	return VersionRef{}, false
}

// Download is a single downloadable file with its integrity data.
type Download struct {
	URL  string
	SHA1 string
	Size int64
	Path string // repository-relative path, set for library artifacts
}

// Library is one external dependency declared by a game version.
type Library struct {
	Name     string // group:artifact:version coordinate
	Artifact *Download
}

// GameVersion is the per-version detail document.
type GameVersion struct {
	ID          string
	Type        string
	Time        time.Time
	ReleaseTime time.Time
	MainClass   string
	Downloads   map[string]Download // keyed by role: "server", "client", ...
	Libraries   []Library
}

// Server returns the server archive download.
func (v *GameVersion) Server() (Download, bool) {
	d, ok := v.Downloads["server"]
	return d, ok
}

// Client fetches and caches launcher metadata. Detail documents are
// immutable per URL, so they sit in a small LRU keyed by location.
type Client struct {
	HTTP        *http.Client
	ManifestURL string

	logger *zap.Logger
	cache  *lru.Cache[string, *GameVersion]
}

// NewClient returns a Client against the published manifest location.
func NewClient(logger *zap.Logger) *Client {
	cache, _ := lru.New[string, *GameVersion](32)
	return &Client{
		HTTP:        http.DefaultClient,
		ManifestURL: ManifestURL,
		logger:      logger,
		cache:       cache,
	}
}

// Manifest retrieves the top level version listing.
func (c *Client) Manifest(ctx context.Context) (*Manifest, error) {
	doc, err := c.fetchJSON(ctx, c.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("retrieve launcher manifest: %w", err)
	}
	m := &Manifest{}
	if latest, ok := doc["latest"].(map[string]any); ok {
		m.LatestRelease = str(latest, "release")
		m.LatestSnapshot = str(latest, "snapshot")
	}
	rows, ok := doc["versions"].([]any)
	if !ok {
		return nil, fmt.Errorf("launcher manifest: missing versions list")
	}
	for _, raw := range rows {
		row, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.Versions = append(m.Versions, VersionRef{
			ID:          str(row, "id"),
			Type:        str(row, "type"),
			URL:         str(row, "url"),
			Time:        timestamp(row, "time"),
			ReleaseTime: timestamp(row, "releaseTime"),
		})
	}
	return m, nil
}

// Resolve looks a version identifier up in the manifest and retrieves its
// detail document.
func (c *Client) Resolve(ctx context.Context, id string) (*GameVersion, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	ref, ok := m.Version(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, id)
	}
	return c.Detail(ctx, ref.URL)
}

// Detail retrieves a version detail document, consulting the cache first.
func (c *Client) Detail(ctx context.Context, url string) (*GameVersion, error) {
	if v, ok := c.cache.Get(url); ok {
		return v, nil
	}
	doc, err := c.fetchJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("retrieve version document: %w", err)
	}

	v := &GameVersion{
		ID:          str(doc, "id"),
		Type:        str(doc, "type"),
		Time:        timestamp(doc, "time"),
		ReleaseTime: timestamp(doc, "releaseTime"),
		MainClass:   str(doc, "mainClass"),
		Downloads:   map[string]Download{},
	}
	if downloads, ok := doc["downloads"].(map[string]any); ok {
		for role, raw := range downloads {
			if d, ok := raw.(map[string]any); ok {
				v.Downloads[role] = parseDownload(d)
			}
		}
	}
	if libs, ok := doc["libraries"].([]any); ok {
		for _, raw := range libs {
			lib, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			entry := Library{Name: str(lib, "name")}
			if dl, ok := lib["downloads"].(map[string]any); ok {
				if art, ok := dl["artifact"].(map[string]any); ok {
					d := parseDownload(art)
					entry.Artifact = &d
				}
			}
			v.Libraries = append(v.Libraries, entry)
		}
	}

	c.cache.Add(url, v)
	return v, nil
}

func (c *Client) fetchJSON(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	parsed, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("parse %s: expected a top-level object", url)
	}
	return doc, nil
}

func parseDownload(m map[string]any) Download {
	d := Download{
		URL:  str(m, "url"),
		SHA1: str(m, "sha1"),
		Path: str(m, "path"),
	}
	switch size := m["size"].(type) {
	case int64:
		d.Size = size
	case float64:
		d.Size = int64(size)
	}
	return d
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func timestamp(m map[string]any, key string) time.Time {
	t, _ := time.Parse(time.RFC3339, str(m, key))
	return t
}
