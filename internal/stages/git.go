package stages

import (
	"context"

	"go.uber.org/zap"

	"github.com/reforge-tools/reforge/internal/gitrepo"
	"github.com/reforge-tools/reforge/internal/pipeline"
)

// The git stages run against the extracted working tree. Each is a separate
// pipeline stage so a failed patch replay leaves the snapshot commits in
// place for inspection.

func gitClient(tc *pipeline.Context, id gitrepo.Identity) *gitrepo.Client {
	if id == (gitrepo.Identity{}) {
		id = gitrepo.DefaultIdentity
	}
	return &gitrepo.Client{Dir: tc.InputDir(), Identity: id, Logger: tc.Logger()}
}

// GitInit initializes a repository in the working tree.
type GitInit struct {
	Identity gitrepo.Identity
}

// Name implements pipeline.Task.
func (t *GitInit) Name() string { return "git-init" }

// Contract implements pipeline.Contractor.
func (t *GitInit) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInputPath: true}
}

// Run implements pipeline.Task.
func (t *GitInit) Run(ctx context.Context, tc *pipeline.Context) error {
	return gitClient(tc, t.Identity).Init(ctx)
}

// GitAdd stages files matching the configured patterns.
type GitAdd struct {
	Identity gitrepo.Identity
	Patterns []string
}

// Name implements pipeline.Task.
func (t *GitAdd) Name() string { return "git-add" }

// Contract implements pipeline.Contractor.
func (t *GitAdd) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInputPath: true}
}

// Run implements pipeline.Task.
func (t *GitAdd) Run(ctx context.Context, tc *pipeline.Context) error {
	patterns := t.Patterns
	if len(patterns) == 0 {
		patterns = []string{"*.java"}
	}
	return gitClient(tc, t.Identity).AddMatching(ctx, patterns...)
}

// GitCommit records the staged tree as the baseline snapshot.
type GitCommit struct {
	Identity gitrepo.Identity
	Message  string
}

// Name implements pipeline.Task.
func (t *GitCommit) Name() string { return "git-commit" }

// Contract implements pipeline.Contractor.
func (t *GitCommit) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInputPath: true}
}

// Run implements pipeline.Task.
func (t *GitCommit) Run(ctx context.Context, tc *pipeline.Context) error {
	message := t.Message
	if message == "" {
		message = "Initial snapshot"
	}
	return gitClient(tc, t.Identity).Commit(ctx, message)
}

// GitBranch marks the snapshot with the baseline branch.
type GitBranch struct {
	Identity gitrepo.Identity
	Branch   string
}

// Name implements pipeline.Task.
func (t *GitBranch) Name() string { return "git-branch" }

// Contract implements pipeline.Contractor.
func (t *GitBranch) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInputPath: true}
}

// Run implements pipeline.Task.
func (t *GitBranch) Run(ctx context.Context, tc *pipeline.Context) error {
	branch := t.Branch
	if branch == "" {
		branch = gitrepo.UpstreamBranch
	}
	return gitClient(tc, t.Identity).CreateBranch(ctx, branch)
}

// GitApplyPatches replays the configured patch set on top of the snapshot.
type GitApplyPatches struct {
	Identity gitrepo.Identity
	PatchDir string
}

// Name implements pipeline.Task.
func (t *GitApplyPatches) Name() string { return "git-apply-patches" }

// Contract implements pipeline.Contractor.
func (t *GitApplyPatches) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInputPath: true}
}

// Run implements pipeline.Task.
func (t *GitApplyPatches) Run(ctx context.Context, tc *pipeline.Context) error {
	n, err := gitClient(tc, t.Identity).ApplyPatches(ctx, t.PatchDir)
	if err != nil {
		return err
	}
	if n == 0 {
		tc.Logger().Info("no patches to apply", zap.String("directory", t.PatchDir))
		return nil
	}
	tc.Logger().Info("patches applied", zap.Int("count", n))
	return nil
}
