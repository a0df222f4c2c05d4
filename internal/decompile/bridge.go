package decompile

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/reforge-tools/reforge/internal/jar"
	"github.com/reforge-tools/reforge/internal/remap"
)

// Bridge runs the two-pass decompilation. Pass one widens access levels
// into an intermediate archive, because decompilers reconstruct inherited
// member resolution from visibility and obfuscators narrow it below what
// the original source had. Pass two feeds the intermediate archive to the
// engine with every declared dependency archive as read-only classpath
// context, and collects the emitted sources into the output archive.
type Bridge struct {
	Engine       Engine
	Dependencies []string // dependency archive paths, classpath context only
	Encoding     encoding.Encoding
	Logger       *zap.Logger
}

// Decompile rewrites inputPath into a source archive at outputPath, using
// scratchDir for the intermediate archive.
func (b *Bridge) Decompile(ctx context.Context, inputPath, outputPath, scratchDir string) error {
	intermediate := filepath.Join(scratchDir, "intermediate.jar")

	rw := jar.NewRewriter(jar.Rules{}, b.Logger)
	chain := remap.Chain{&remap.AccessCorrection{}}
	err := rw.RewriteArchive(ctx, inputPath, intermediate, func(name string, data []byte) (string, []byte, error) {
		out, err := chain.Apply(data)
		return "", out, err
	})
	if err != nil {
		return fmt.Errorf("access correction pass: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create source archive: %w", err)
	}
	defer out.Close()
	zw := zip.NewWriter(out)

	sink := &archiveSink{zw: zw, encoding: b.Encoding, logger: b.Logger}
	if err := b.Engine.Decompile(ctx, intermediate, b.Dependencies, sink); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize source archive: %w", err)
	}
	return out.Close()
}

// archiveSink writes decompiler output into a zip, re-encoding source text
// into the configured charset. An empty decompiled body is an inconsistency
// worth surfacing but never fatal.
type archiveSink struct {
	zw       *zip.Writer
	encoding encoding.Encoding
	logger   *zap.Logger
}

func (s *archiveSink) OnClassSource(name string, source []byte) error {
	if len(source) == 0 && s.logger != nil {
		s.logger.Warn("decompiler produced an empty body", zap.String("class", name))
	}
	if s.encoding != nil {
		encoded, err := s.encoding.NewEncoder().Bytes(source)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		source = encoded
	}
	return s.write(name, source)
}

func (s *archiveSink) OnResource(name string, data []byte) error {
	return s.write(name, data)
}

func (s *archiveSink) OnDirectory(name string) error {
	return nil // directories materialize implicitly through their entries
}

func (s *archiveSink) write(name string, data []byte) error {
	f, err := s.zw.Create(name)
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
