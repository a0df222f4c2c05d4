// Package pipeline runs a fixed, ordered sequence of stages over the
// artifact store. The engine is strictly sequential: a stage whose output
// coordinate already exists is skipped, everything else runs to completion
// or aborts the whole pipeline.
package pipeline

import (
	"context"

	"github.com/reforge-tools/reforge/internal/artifact"
)

// Task is a unit of pipeline work. Implementations declare their contract
// (input/output artifact, named parameters, working-tree paths) so the engine
// can validate every registration before the first stage runs.
type Task interface {
	Name() string
	Run(ctx context.Context, tc *Context) error
}

// Contract describes what a task requires from its stage registration.
// The zero value declares a task with no inputs or outputs.
type Contract struct {
	RequiresInput      bool
	RequiresOutput     bool
	RequiresInputPath  bool
	RequiresOutputPath bool
	Parameters         []string
}

// Contractor is implemented by tasks with a non-trivial contract.
type Contractor interface {
	Contract() Contract
}

func contractOf(t Task) Contract {
	if c, ok := t.(Contractor); ok {
		return c.Contract()
	}
	return Contract{}
}

// Stage binds a task to concrete coordinates and paths.
type Stage struct {
	Task Task

	// Input and Output are artifact coordinates; Output drives cache skips.
	Input  *artifact.Coordinate
	Output *artifact.Coordinate

	// Parameters maps the task's declared parameter names to coordinates.
	Parameters map[string]artifact.Coordinate

	// InputPath and OutputPath are working-tree directories for stages that
	// operate outside the store (source extraction, snapshotting).
	InputPath  string
	OutputPath string
}
