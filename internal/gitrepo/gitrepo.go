// Package gitrepo drives the version control operations of the final
// pipeline step: snapshot the extracted tree on a baseline branch, then
// replay an ordered patch set on top of it.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// UpstreamBranch is the baseline branch carrying the pristine snapshot.
const UpstreamBranch = "upstream"

// Identity is the committer/author recorded on the baseline snapshot.
type Identity struct {
	Name  string
	Email string
}

// DefaultIdentity is used when the configuration supplies none.
var DefaultIdentity = Identity{Name: "Reforge", Email: "reforge@localhost"}

// PatchError reports which patch of an ordered set failed to apply.
// Partial application state stays behind for inspection.
type PatchError struct {
	Index int // 1-based position in the ordered set
	File  string
	Err   error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %d (%s) failed to apply: %v", e.Index, e.File, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// Client runs git against a single working tree.
type Client struct {
	GitPath  string // "git" when empty
	Dir      string
	Identity Identity
	Logger   *zap.Logger
}

// NewClient returns a Client for the given working tree.
func NewClient(dir string, logger *zap.Logger) *Client {
	return &Client{Dir: dir, Identity: DefaultIdentity, Logger: logger}
}

// Init initializes a fresh repository in the working tree.
func (c *Client) Init(ctx context.Context) error {
	return c.run(ctx, "init")
}

// AddMatching stages every file under the tree whose name matches one of
// the given glob patterns (e.g. "*.java").
func (c *Client) AddMatching(ctx context.Context, patterns ...string) error {
	args := []string{"add", "--"}
	for _, p := range patterns {
		args = append(args, ":(glob)**/"+p)
	}
	return c.run(ctx, args...)
}

// Commit records the staged tree as a single snapshot.
func (c *Client) Commit(ctx context.Context, message string) error {
	return c.run(ctx, "commit", "--allow-empty", "-m", message)
}

// CreateBranch creates a branch at the current head.
func (c *Client) CreateBranch(ctx context.Context, name string) error {
	return c.run(ctx, "branch", name)
}

// ApplyPatches applies every *.patch and *.mbox file in dir against the
// working tree, in lexical filename order. An empty or missing directory is a valid
// configuration and applies nothing. On failure the error names the
// offending patch by position and filename; already-applied patches are
// left in place.
func (c *Client) ApplyPatches(ctx context.Context, dir string) (int, error) {
	patches, err := listPatches(dir)
	if err != nil {
		return 0, err
	}
	for i, patch := range patches {
		if c.Logger != nil {
			c.Logger.Info("applying patch",
				zap.Int("position", i+1),
				zap.String("file", filepath.Base(patch)))
		}
		if err := c.run(ctx, "am", "--3way", patch); err != nil {
			return i, &PatchError{Index: i + 1, File: filepath.Base(patch), Err: err}
		}
	}
	return len(patches), nil
}

func listPatches(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patch directory %s: %w", dir, err)
	}
	var patches []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".patch") && !strings.HasSuffix(e.Name(), ".mbox") {
			continue
		}
		patches = append(patches, filepath.Join(dir, e.Name()))
	}
	sort.Strings(patches)
	return patches, nil
}

func (c *Client) run(ctx context.Context, args ...string) error {
	gitPath := c.GitPath
	if gitPath == "" {
		gitPath = "git"
	}
	cmd := exec.CommandContext(ctx, gitPath, args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+c.Identity.Name,
		"GIT_AUTHOR_EMAIL="+c.Identity.Email,
		"GIT_COMMITTER_NAME="+c.Identity.Name,
		"GIT_COMMITTER_EMAIL="+c.Identity.Email,
	)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(output.String()))
	}
	return nil
}
