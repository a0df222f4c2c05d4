package stages

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/reforge-tools/reforge/internal/download"
	"github.com/reforge-tools/reforge/internal/launcher"
	"github.com/reforge-tools/reforge/internal/libdep"
	"github.com/reforge-tools/reforge/internal/pipeline"
)

// FetchURL downloads a fixed location into its output artifact. The mapping
// archives come from versioned, immutable URLs, so the artifact coordinate
// alone decides whether a fetch happens at all.
type FetchURL struct {
	TaskName   string
	URL        string
	SHA1       string // optional
	Downloader *download.Client
}

// Name implements pipeline.Task.
func (t *FetchURL) Name() string { return t.TaskName }

// Contract implements pipeline.Contractor.
func (t *FetchURL) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresOutput: true}
}

// Run implements pipeline.Task.
func (t *FetchURL) Run(ctx context.Context, tc *pipeline.Context) error {
	tc.Logger().Info("downloading", zap.String("url", t.URL))
	return t.Downloader.Fetch(ctx, t.URL, tc.OutputFile(), t.SHA1)
}

// FetchServer resolves the configured game version against the launcher
// metadata service and downloads the server archive it declares, verified
// against the published checksum.
type FetchServer struct {
	Version    string
	Launcher   *launcher.Client
	Downloader *download.Client
}

// Name implements pipeline.Task.
func (t *FetchServer) Name() string { return "fetch-server" }

// Contract implements pipeline.Contractor.
func (t *FetchServer) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresOutput: true}
}

// Run implements pipeline.Task.
func (t *FetchServer) Run(ctx context.Context, tc *pipeline.Context) error {
	v, err := t.Launcher.Resolve(ctx, t.Version)
	if err != nil {
		return err
	}
	if v.Type == launcher.TypeSnapshot {
		tc.Logger().Warn("generating against a snapshot version",
			zap.String("version", v.ID))
	}
	d, ok := v.Server()
	if !ok {
		return fmt.Errorf("version %s declares no server download", v.ID)
	}
	tc.Logger().Info("downloading server archive",
		zap.String("url", d.URL),
		zap.Int64("size", d.Size))
	return t.Downloader.Fetch(ctx, d.URL, tc.OutputFile(), d.SHA1)
}

// Classpath hands the resolved library paths from the preload stage to the
// decompile stage within a single run. It is not a cacheable artifact: the
// libraries live in their own cache and are re-enumerated every run.
type Classpath struct {
	mu    sync.Mutex
	paths []string
}

func (c *Classpath) set(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = paths
}

// Paths returns the resolved library archive paths.
func (c *Classpath) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paths
}

// PreloadLibraries resolves every library the game version declares into the
// local library cache, so the decompile stage starts with a complete
// classpath instead of faulting archives in mid-run.
type PreloadLibraries struct {
	Version   string
	Launcher  *launcher.Client
	Resolver  *libdep.Resolver
	Classpath *Classpath
}

// Name implements pipeline.Task.
func (t *PreloadLibraries) Name() string { return "preload-libraries" }

// Run implements pipeline.Task.
func (t *PreloadLibraries) Run(ctx context.Context, tc *pipeline.Context) error {
	v, err := t.Launcher.Resolve(ctx, t.Version)
	if err != nil {
		return err
	}
	paths, err := t.Resolver.ResolveLibraries(ctx, v.Libraries)
	if err != nil {
		return err
	}
	t.Classpath.set(paths)
	tc.Logger().Info("libraries resolved", zap.Int("count", len(paths)))
	return nil
}
