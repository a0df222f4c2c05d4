// Package stages provides the concrete pipeline tasks of a generation run
// and the fixed topology that binds them to artifact coordinates. Tasks only
// compose the domain packages; every decision about ordering and caching
// lives in the pipeline engine.
package stages

import (
	"fmt"
	"strings"

	"github.com/reforge-tools/reforge/internal/artifact"
	"github.com/reforge-tools/reforge/internal/config"
	"github.com/reforge-tools/reforge/internal/decompile"
	"github.com/reforge-tools/reforge/internal/download"
	"github.com/reforge-tools/reforge/internal/gitrepo"
	"github.com/reforge-tools/reforge/internal/launcher"
	"github.com/reforge-tools/reforge/internal/libdep"
	"github.com/reforge-tools/reforge/internal/pipeline"
	"github.com/reforge-tools/reforge/internal/source"
)

// Group is the coordinate group all pipeline artifacts are published under.
const Group = "org.reforge.minecraft"

// Coordinates are the fixed artifact addresses of one generation run.
// Composed versions are what make caching correct: bumping any upstream
// version changes every downstream coordinate.
type Coordinates struct {
	SRG       artifact.Coordinate
	MCP       artifact.Coordinate
	Server    artifact.Coordinate
	ServerSRG artifact.Coordinate
	ServerMCP artifact.Coordinate
	Source    artifact.Coordinate
}

// PlanCoordinates derives the coordinate set from the configured versions.
func PlanCoordinates(cfg *config.Config) Coordinates {
	mapped := cfg.GameVersion + "-" + cfg.SRGVersion
	readable := mapped + "-" + cfg.MCPVersion
	return Coordinates{
		SRG:       artifact.Coordinate{Group: Group, Name: "srg", Version: cfg.SRGVersion, Extension: "zip"},
		MCP:       artifact.Coordinate{Group: Group, Name: "mcp", Version: cfg.MCPVersion, Extension: "zip"},
		Server:    artifact.Coordinate{Group: Group, Name: "server", Version: cfg.GameVersion, Extension: "jar"},
		ServerSRG: artifact.Coordinate{Group: Group, Name: "server-srg", Version: mapped, Extension: "jar"},
		ServerMCP: artifact.Coordinate{Group: Group, Name: "server-mcp", Version: readable, Extension: "jar"},
		Source:    artifact.Coordinate{Group: Group, Name: "server-mcp", Version: readable, Extension: "jar", Classifier: "source"},
	}
}

// SplitMCPVersion splits a `<channel>-<version>` identifier.
func SplitMCPVersion(v string) (channel, version string, err error) {
	i := strings.IndexByte(v, '-')
	if i <= 0 || i == len(v)-1 {
		return "", "", fmt.Errorf("mcp version %q is not in <channel>-<version> form", v)
	}
	return v[:i], v[i+1:], nil
}

// Environment carries the external collaborators a generation run needs.
// The command layer builds one per invocation; tests substitute fakes.
type Environment struct {
	Launcher   *launcher.Client
	Downloader *download.Client
	Libraries  *libdep.Resolver
	Engine     decompile.Engine
	Formatter  source.Formatter
}

// Plan assembles the full generation pipeline in its fixed registration
// order. It fails fast on configuration-level problems (malformed mcp
// version, unresolvable encoding) so no stage ever starts from a bad setup.
func Plan(cfg *config.Config, env Environment) ([]pipeline.Stage, error) {
	channel, version, err := SplitMCPVersion(cfg.MCPVersion)
	if err != nil {
		return nil, err
	}
	enc, err := cfg.TextEncoding()
	if err != nil {
		return nil, err
	}

	coords := PlanCoordinates(cfg)
	classpath := &Classpath{}
	identity := gitrepo.DefaultIdentity

	stages := []pipeline.Stage{
		{
			Task: &FetchURL{
				TaskName:   "fetch-srg",
				URL:        fmt.Sprintf(cfg.SRGURL, cfg.SRGVersion),
				Downloader: env.Downloader,
			},
			Output: &coords.SRG,
		},
		{
			Task: &FetchURL{
				TaskName:   "fetch-mcp",
				URL:        fmt.Sprintf(cfg.MCPURL, channel, version),
				Downloader: env.Downloader,
			},
			Output: &coords.MCP,
		},
		{
			Task: &FetchServer{
				Version:    cfg.GameVersion,
				Launcher:   env.Launcher,
				Downloader: env.Downloader,
			},
			Output: &coords.Server,
		},
		{
			Task: &PreloadLibraries{
				Version:   cfg.GameVersion,
				Launcher:  env.Launcher,
				Resolver:  env.Libraries,
				Classpath: classpath,
			},
		},
		{
			Task:       &ApplySRG{Workers: cfg.Workers},
			Input:      &coords.Server,
			Output:     &coords.ServerSRG,
			Parameters: map[string]artifact.Coordinate{"srg": coords.SRG},
		},
		{
			Task:       &ApplyMCP{Workers: cfg.Workers},
			Input:      &coords.ServerSRG,
			Output:     &coords.ServerMCP,
			Parameters: map[string]artifact.Coordinate{"mcp": coords.MCP},
		},
		{
			Task: &Decompile{
				Engine:    env.Engine,
				Classpath: classpath,
				Encoding:  enc,
			},
			Input:  &coords.ServerMCP,
			Output: &coords.Source,
		},
		{
			Task: &ExtractSource{
				Formatter:       env.Formatter,
				Encoding:        enc,
				Workers:         cfg.Workers,
				AccessRulesPath: cfg.AccessTransformations,
			},
			Input:      &coords.Source,
			OutputPath: cfg.OutputDirectory,
		},
		{
			Task:      &GitInit{Identity: identity},
			InputPath: cfg.OutputDirectory,
		},
		{
			Task:      &GitAdd{Identity: identity, Patterns: []string{"*.java"}},
			InputPath: cfg.OutputDirectory,
		},
		{
			Task:      &GitCommit{Identity: identity, Message: "Initial snapshot"},
			InputPath: cfg.OutputDirectory,
		},
		{
			Task:      &GitBranch{Identity: identity, Branch: gitrepo.UpstreamBranch},
			InputPath: cfg.OutputDirectory,
		},
		{
			Task:      &GitApplyPatches{Identity: identity, PatchDir: cfg.PatchDirectory},
			InputPath: cfg.OutputDirectory,
		},
	}
	return stages, nil
}
