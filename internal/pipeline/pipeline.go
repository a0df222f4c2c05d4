package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/reforge-tools/reforge/internal/artifact"
)

// Pipeline executes registered stages strictly in registration order.
type Pipeline struct {
	stages []Stage
	store  *artifact.Store
	logger *zap.Logger
}

// New builds a pipeline over the given store.
func New(store *artifact.Store, logger *zap.Logger, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, store: store, logger: logger}
}

// Validate checks every registration against its task contract. It returns a
// *ConfigError for the first violation; no stage runs until all pass.
func (p *Pipeline) Validate() error {
	for _, s := range p.stages {
		name := s.Task.Name()
		c := contractOf(s.Task)

		if c.RequiresInput && s.Input == nil {
			return &ConfigError{Stage: name, Reason: "task requires an input artifact but none is bound"}
		}
		if c.RequiresOutput && s.Output == nil {
			return &ConfigError{Stage: name, Reason: "task requires an output artifact but none is bound"}
		}
		if c.RequiresInputPath && s.InputPath == "" {
			return &ConfigError{Stage: name, Reason: "task requires an input path but none is bound"}
		}
		if c.RequiresOutputPath && s.OutputPath == "" {
			return &ConfigError{Stage: name, Reason: "task requires an output path but none is bound"}
		}

		declared := make(map[string]bool, len(c.Parameters))
		for _, p := range c.Parameters {
			declared[p] = true
		}
		for param := range s.Parameters {
			if !declared[param] {
				return &ConfigError{Stage: name, Reason: fmt.Sprintf("unknown parameter %q", param)}
			}
		}
		for _, param := range c.Parameters {
			if _, ok := s.Parameters[param]; !ok {
				return &ConfigError{Stage: name, Reason: fmt.Sprintf("required parameter %q is not bound", param)}
			}
		}

		if s.Output != nil {
			if err := s.Output.Validate(); err != nil {
				return &ConfigError{Stage: name, Reason: err.Error()}
			}
		}
	}
	return nil
}

// Execute validates and then runs the pipeline. A stage whose output
// coordinate already exists in the store is skipped entirely, side effects
// included. The first failure aborts the run.
func (p *Pipeline) Execute(ctx context.Context) error {
	if err := p.Validate(); err != nil {
		return err
	}

	for _, s := range p.stages {
		name := s.Task.Name()
		log := p.logger.With(zap.String("stage", name))

		if s.Output != nil && p.store.Exists(*s.Output) {
			log.Info("stage skipped, output cached",
				zap.String("coordinate", s.Output.String()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return &ExecError{Stage: name, Err: err}
		}

		log.Info("stage starting")
		if err := p.runStage(ctx, s, log); err != nil {
			log.Error("stage failed", zap.Error(err))
			return err
		}
		log.Info("stage finished")
	}
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, s Stage, log *zap.Logger) error {
	name := s.Task.Name()

	scratch, err := os.MkdirTemp("", "reforge-"+name+"-")
	if err != nil {
		return &ExecError{Stage: name, Err: fmt.Errorf("allocate scratch dir: %w", err)}
	}
	defer os.RemoveAll(scratch)

	tc := newContext(s, p.store, scratch, log)
	if err := s.Task.Run(ctx, tc); err != nil {
		return &ExecError{Stage: name, Err: err}
	}

	// Publish the staged output; it becomes visible to later stages of this
	// same run immediately.
	if s.Output != nil {
		if _, err := p.store.Put(*s.Output, tc.OutputFile()); err != nil {
			return &ExecError{Stage: name, Err: fmt.Errorf("publish output: %w", err)}
		}
	}
	return nil
}
