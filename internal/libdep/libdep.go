// Package libdep resolves third-party library archives needed as
// decompiler classpath context. Libraries are fetched into a flat local
// cache, deliberately separate from the pipeline artifact store: they are
// inputs sourced from public repositories, not pipeline products.
package libdep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/reforge-tools/reforge/internal/download"
	"github.com/reforge-tools/reforge/internal/launcher"
)

// Default repositories, tried in order.
const (
	GameLibraryRepository = "https://libraries.minecraft.net"
	CentralRepository     = "https://repo.maven.apache.org/maven2"
)

// Spec is a library coordinate in the groupId:artifactId:version form with
// optional packaging and classifier tokens.
type Spec struct {
	Group      string
	Artifact   string
	Version    string
	Packaging  string // "jar" when omitted
	Classifier string
}

// ParseSpec parses groupId:artifactId:version[:packaging[:classifier]].
func ParseSpec(s string) (Spec, error) {
	tokens := strings.Split(s, ":")
	if len(tokens) < 3 || len(tokens) > 5 {
		return Spec{}, fmt.Errorf("library coordinate %q must be in format groupId:artifactId:version[:packaging[:classifier]]", s)
	}
	for _, tok := range tokens {
		if tok == "" {
			return Spec{}, fmt.Errorf("library coordinate %q contains an empty token", s)
		}
	}
	spec := Spec{
		Group:     tokens[0],
		Artifact:  tokens[1],
		Version:   tokens[2],
		Packaging: "jar",
	}
	if len(tokens) > 3 {
		spec.Packaging = tokens[3]
	}
	if len(tokens) > 4 {
		spec.Classifier = tokens[4]
	}
	return spec, nil
}

// String renders the coordinate back in its colon form.
func (s Spec) String() string {
	out := s.Group + ":" + s.Artifact + ":" + s.Version
	if s.Packaging != "jar" || s.Classifier != "" {
		out += ":" + s.Packaging
	}
	if s.Classifier != "" {
		out += ":" + s.Classifier
	}
	return out
}

// Path returns the repository-relative file path of the coordinate.
func (s Spec) Path() string {
	file := s.Artifact + "-" + s.Version
	if s.Classifier != "" {
		file += "-" + s.Classifier
	}
	file += "." + s.Packaging
	return strings.ReplaceAll(s.Group, ".", "/") + "/" + s.Artifact + "/" + s.Version + "/" + file
}

// Resolver fetches libraries into a local cache directory.
type Resolver struct {
	Repositories []string
	CacheDir     string
	Downloader   *download.Client
	Logger       *zap.Logger
}

// NewResolver returns a Resolver against the default repositories.
func NewResolver(cacheDir string, logger *zap.Logger) *Resolver {
	return &Resolver{
		Repositories: []string{GameLibraryRepository, CentralRepository},
		CacheDir:     cacheDir,
		Downloader:   download.NewClient(logger),
		Logger:       logger,
	}
}

// Resolve fetches a coordinate unless already cached and returns its local
// path. Repositories are tried in order; every failure but the last is
// logged and swallowed.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) (string, error) {
	return r.fetch(ctx, spec.Path(), "", spec.String())
}

// ResolveLibraries resolves every library of a version document that
// declares a downloadable artifact and returns their local paths. Declared
// locations and checksums take precedence over repository probing.
func (r *Resolver) ResolveLibraries(ctx context.Context, libs []launcher.Library) ([]string, error) {
	paths := make([]string, 0, len(libs))
	for _, lib := range libs {
		if lib.Artifact == nil {
			continue
		}
		local := filepath.Join(r.CacheDir, filepath.FromSlash(lib.Artifact.Path))
		if _, err := os.Stat(local); err == nil {
			paths = append(paths, local)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return nil, fmt.Errorf("library cache: %w", err)
		}
		if err := r.Downloader.Fetch(ctx, lib.Artifact.URL, local, lib.Artifact.SHA1); err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
		paths = append(paths, local)
	}
	return paths, nil
}

func (r *Resolver) fetch(ctx context.Context, relPath, sha1sum, name string) (string, error) {
	local := filepath.Join(r.CacheDir, filepath.FromSlash(relPath))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("library cache: %w", err)
	}

	var lastErr error
	for _, repo := range r.Repositories {
		url := strings.TrimSuffix(repo, "/") + "/" + relPath
		lastErr = r.Downloader.Fetch(ctx, url, local, sha1sum)
		if lastErr == nil {
			return local, nil
		}
		if r.Logger != nil {
			r.Logger.Debug("repository miss",
				zap.String("library", name),
				zap.String("repository", repo),
				zap.Error(lastErr))
		}
	}
	return "", fmt.Errorf("library %s: %w", name, lastErr)
}
