package stages

import (
	"context"

	"golang.org/x/text/encoding"

	"github.com/reforge-tools/reforge/internal/decompile"
	"github.com/reforge-tools/reforge/internal/pipeline"
)

// Decompile turns the fully mapped archive into a source archive through the
// decompilation bridge, with the preloaded library classpath as context.
type Decompile struct {
	Engine    decompile.Engine
	Classpath *Classpath
	Encoding  encoding.Encoding
}

// Name implements pipeline.Task.
func (t *Decompile) Name() string { return "decompile" }

// Contract implements pipeline.Contractor.
func (t *Decompile) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInput: true, RequiresOutput: true}
}

// Run implements pipeline.Task.
func (t *Decompile) Run(ctx context.Context, tc *pipeline.Context) error {
	in, err := tc.InputFile()
	if err != nil {
		return err
	}
	b := &decompile.Bridge{
		Engine:       t.Engine,
		Dependencies: t.Classpath.Paths(),
		Encoding:     t.Encoding,
		Logger:       tc.Logger(),
	}
	return b.Decompile(ctx, in, tc.OutputFile(), tc.Scratch())
}
