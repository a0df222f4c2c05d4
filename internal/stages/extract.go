package stages

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/text/encoding"

	"github.com/reforge-tools/reforge/internal/pipeline"
	"github.com/reforge-tools/reforge/internal/source"
)

// ExtractSource unpacks the source archive into the output working tree,
// formatting each file and applying any configured access transformations on
// the way out.
type ExtractSource struct {
	Formatter       source.Formatter
	Encoding        encoding.Encoding
	Workers         int
	AccessRulesPath string // optional
}

// Name implements pipeline.Task.
func (t *ExtractSource) Name() string { return "extract-source" }

// Contract implements pipeline.Contractor.
func (t *ExtractSource) Contract() pipeline.Contract {
	return pipeline.Contract{RequiresInput: true, RequiresOutputPath: true}
}

// Run implements pipeline.Task.
func (t *ExtractSource) Run(ctx context.Context, tc *pipeline.Context) error {
	var at *source.AccessTransformer
	if t.AccessRulesPath != "" {
		f, err := os.Open(t.AccessRulesPath)
		if err != nil {
			return fmt.Errorf("open access transformations: %w", err)
		}
		rules, err := source.ParseAccessRules(f)
		f.Close()
		if err != nil {
			return err
		}
		at = source.NewAccessTransformer(rules)
	}

	in, err := tc.InputFile()
	if err != nil {
		return err
	}
	e := &source.Extractor{
		Formatter: t.Formatter,
		Encoding:  t.Encoding,
		Workers:   t.Workers,
		Logger:    tc.Logger(),
	}
	return e.Extract(ctx, in, tc.OutputDir(), at)
}
