package stages

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/reforge-tools/reforge/internal/jar"
	"github.com/reforge-tools/reforge/internal/keyword"
	"github.com/reforge-tools/reforge/internal/mapping"
	"github.com/reforge-tools/reforge/internal/pipeline"
	"github.com/reforge-tools/reforge/internal/remap"
)

// DefaultRules matches the server archive layout: bundled third-party
// packages are dropped and only the named game resources are carried over.
func DefaultRules() jar.Rules {
	return jar.Rules{
		ExcludeClassPrefixes: []string{"com/", "io/", "it/", "javax/", "org/"},
		IncludeResourcePrefixes: []string{
			"assets/",
			"log4j2.xml",
			"yggdrasil_session_pubkey.der",
		},
	}
}

// ApplySRG rewrites the server archive with the first-level mapping tables
// from the srg archive parameter: joined.srg for identifiers, joined.exc for
// parameter names, exceptor.json for nested-class structure. The latter two
// are optional table files; a missing one just skips its pass.
type ApplySRG struct {
	Workers int
}

// Name implements pipeline.Task.
func (t *ApplySRG) Name() string { return "apply-srg" }

// Contract implements pipeline.Contractor.
func (t *ApplySRG) Contract() pipeline.Contract {
	return pipeline.Contract{
		RequiresInput:  true,
		RequiresOutput: true,
		Parameters:     []string{"srg"},
	}
}

// Run implements pipeline.Task.
func (t *ApplySRG) Run(ctx context.Context, tc *pipeline.Context) error {
	srgPath, err := tc.ParameterFile("srg")
	if err != nil {
		return err
	}
	zr, err := zip.OpenReader(srgPath)
	if err != nil {
		return fmt.Errorf("open srg archive: %w", err)
	}
	defer zr.Close()

	joined, ok, err := archiveEntry(&zr.Reader, "joined.srg")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("srg archive carries no joined.srg")
	}
	srg, err := mapping.ParseSRG(bytes.NewReader(joined))
	if err != nil {
		return err
	}
	comp := &mapping.Composite{
		Classes: []mapping.ClassMapping{srg},
		Fields:  []mapping.FieldMapping{srg},
		Methods: []mapping.MethodMapping{srg},
	}

	if exc, ok, err := archiveEntry(&zr.Reader, "joined.exc"); err != nil {
		return err
	} else if ok {
		params, err := mapping.ParseParamTable(bytes.NewReader(exc))
		if err != nil {
			return err
		}
		comp.Parameters = []mapping.ParameterMapping{params}
	}

	chain := remap.Chain{
		&remap.DebugStrip{SourceFile: true, SourceDebugExtension: true},
		&remap.VariableTableConstruction{},
		remap.NewRename(comp),
	}
	if data, ok, err := archiveEntry(&zr.Reader, "exceptor.json"); err != nil {
		return err
	} else if ok {
		table, err := mapping.ParseInnerClassTable(data)
		if err != nil {
			return err
		}
		chain = append(chain, &remap.InnerClassCorrection{Table: table})
	}
	chain = append(chain, &remap.ConstructorCleanup{})

	in, err := tc.InputFile()
	if err != nil {
		return err
	}
	rw := jar.NewRewriter(DefaultRules(), tc.Logger())
	rw.Workers = t.Workers
	return rw.RewriteArchive(ctx, in, tc.OutputFile(), func(name string, data []byte) (string, []byte, error) {
		out, err := chain.Apply(data)
		if err != nil {
			return "", nil, err
		}
		return mappedEntryName(comp, name), out, nil
	})
}

// ApplyMCP rewrites the intermediate archive with the second-level csv name
// tables and resolves any identifier that would collide with a source
// language keyword. The archive was filtered by the first pass, so no entry
// rules apply here.
type ApplyMCP struct {
	Workers int
}

// Name implements pipeline.Task.
func (t *ApplyMCP) Name() string { return "apply-mcp" }

// Contract implements pipeline.Contractor.
func (t *ApplyMCP) Contract() pipeline.Contract {
	return pipeline.Contract{
		RequiresInput:  true,
		RequiresOutput: true,
		Parameters:     []string{"mcp"},
	}
}

// Run implements pipeline.Task.
func (t *ApplyMCP) Run(ctx context.Context, tc *pipeline.Context) error {
	mcpPath, err := tc.ParameterFile("mcp")
	if err != nil {
		return err
	}
	zr, err := zip.OpenReader(mcpPath)
	if err != nil {
		return fmt.Errorf("open mcp archive: %w", err)
	}
	defer zr.Close()

	fields, err := csvTable(&zr.Reader, "fields.csv")
	if err != nil {
		return err
	}
	methods, err := csvTable(&zr.Reader, "methods.csv")
	if err != nil {
		return err
	}

	names := &mapping.Composite{
		Fields:  []mapping.FieldMapping{fields},
		Methods: []mapping.MethodMapping{methods},
	}
	// Keyword resolution is a separate pass over the already renamed
	// identifiers: a csv row whose readable name is itself a reserved word
	// still gets resolved.
	kw := keyword.NewResolver()
	collisions := &mapping.Composite{
		Classes: []mapping.ClassMapping{kw},
		Fields:  []mapping.FieldMapping{kw},
		Methods: []mapping.MethodMapping{kw},
	}
	chain := remap.Chain{remap.NewRename(names), remap.NewRename(collisions)}

	in, err := tc.InputFile()
	if err != nil {
		return err
	}
	rw := jar.NewRewriter(jar.Rules{}, tc.Logger())
	rw.Workers = t.Workers
	return rw.RewriteArchive(ctx, in, tc.OutputFile(), func(name string, data []byte) (string, []byte, error) {
		out, err := chain.Apply(data)
		if err != nil {
			return "", nil, err
		}
		return mappedEntryName(collisions, mappedEntryName(names, name)), out, nil
	})
}

// mappedEntryName moves a class entry to the archive path of its rewritten
// class name.
func mappedEntryName(comp *mapping.Composite, entry string) string {
	return comp.ClassName(strings.TrimSuffix(entry, ".class")) + ".class"
}

func csvTable(zr *zip.Reader, name string) (*mapping.CSVNames, error) {
	data, ok, err := archiveEntry(zr, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("mcp archive carries no %s", name)
	}
	table, err := mapping.ParseCSVNames(bytes.NewReader(data), "searge", "name")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return table, nil
}

// archiveEntry reads one named entry of an archive, reporting whether it
// exists at all.
func archiveEntry(zr *zip.Reader, name string) ([]byte, bool, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", name, err)
		}
		return data, true, nil
	}
	return nil, false, nil
}
