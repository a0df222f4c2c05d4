// Package decompile turns a fully mapped class archive into a source
// archive. The external decompiler runs behind the Engine interface; the
// Bridge owns the two-pass orchestration around it.
package decompile

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ResultSink receives decompiler output. Implementations are called from a
// single goroutine in archive order.
type ResultSink interface {
	OnClassSource(name string, source []byte) error
	OnResource(name string, data []byte) error
	OnDirectory(name string) error
}

// Engine decompiles an archive. Every classpath element is context only:
// the engine resolves inherited members and signatures against it but emits
// no sources for it.
type Engine interface {
	Decompile(ctx context.Context, archive string, classpath []string, sink ResultSink) error
}

// ExecEngine shells out to a Fernflower-compatible decompiler jar.
type ExecEngine struct {
	JavaPath string // "java" when empty
	ToolJar  string
	Options  []string
	Logger   *zap.Logger
}

// DefaultOptions is the standard decompiler flag set: decompile inner
// classes and generic signatures, escape non-ASCII literals, hide synthetic
// and bridge members, and never give up on a method.
func DefaultOptions() []string {
	return []string{"-din=1", "-dgs=1", "-asc=1", "-rsy=1", "-rbr=1", "-lit=0", "-mpm=0"}
}

// Decompile implements Engine.
func (e *ExecEngine) Decompile(ctx context.Context, archive string, classpath []string, sink ResultSink) error {
	outDir, err := os.MkdirTemp("", "reforge-decompile-*")
	if err != nil {
		return fmt.Errorf("allocate decompiler output directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	javaPath := e.JavaPath
	if javaPath == "" {
		javaPath = "java"
	}
	args := []string{"-jar", e.ToolJar}
	args = append(args, e.Options...)
	for _, cp := range classpath {
		args = append(args, "-e="+cp)
	}
	args = append(args, archive, outDir)

	if e.Logger != nil {
		e.Logger.Info("invoking decompiler",
			zap.String("archive", archive),
			zap.Int("classpath_entries", len(classpath)))
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, javaPath, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("decompiler failed: %w: %s", err, tail(stderr.String(), 2048))
	}

	// The decompiler mirrors the input archive name into the output
	// directory.
	produced := filepath.Join(outDir, filepath.Base(archive))
	return feedArchive(produced, sink)
}

// feedArchive streams every entry of the produced archive into the sink.
func feedArchive(path string, sink ResultSink) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open decompiler output %s: %w", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			if err := sink.OnDirectory(f.Name); err != nil {
				return err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("read decompiler output %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read decompiler output %s: %w", f.Name, err)
		}
		if strings.HasSuffix(f.Name, ".java") {
			err = sink.OnClassSource(f.Name, buf.Bytes())
		} else {
			err = sink.OnResource(f.Name, buf.Bytes())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
