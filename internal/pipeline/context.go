package pipeline

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/reforge-tools/reforge/internal/artifact"
)

// Context hands a running task its resolved inputs and staging locations.
type Context struct {
	stage   Stage
	store   *artifact.Store
	scratch string
	logger  *zap.Logger

	outputFile string
}

// Logger returns the stage-scoped logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Scratch returns a stage-private temporary directory.
func (c *Context) Scratch() string { return c.scratch }

// InputFile resolves the stage's input artifact to a local path.
func (c *Context) InputFile() (string, error) {
	if c.stage.Input == nil {
		return "", fmt.Errorf("stage %s declares no input artifact", c.stage.Task.Name())
	}
	a, err := c.store.Get(*c.stage.Input)
	if err != nil {
		return "", err
	}
	return a.Path, nil
}

// ParameterFile resolves a named parameter artifact to a local path.
func (c *Context) ParameterFile(name string) (string, error) {
	coord, ok := c.stage.Parameters[name]
	if !ok {
		return "", fmt.Errorf("stage %s: parameter %q not bound", c.stage.Task.Name(), name)
	}
	a, err := c.store.Get(coord)
	if err != nil {
		return "", err
	}
	return a.Path, nil
}

// OutputFile returns the staging path for the stage's output artifact. The
// engine publishes it to the store only after the task succeeds.
func (c *Context) OutputFile() string { return c.outputFile }

// InputDir returns the stage's working-tree input directory.
func (c *Context) InputDir() string { return c.stage.InputPath }

// OutputDir returns the stage's working-tree output directory.
func (c *Context) OutputDir() string { return c.stage.OutputPath }

func newContext(stage Stage, store *artifact.Store, scratch string, logger *zap.Logger) *Context {
	c := &Context{stage: stage, store: store, scratch: scratch, logger: logger}
	if stage.Output != nil {
		c.outputFile = filepath.Join(scratch, "output."+stage.Output.Extension)
	}
	return c
}
