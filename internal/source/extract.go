package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// Extractor unpacks a source archive into a working tree, formatting each
// source file on the way out. Files are processed in parallel; the tree
// layout mirrors the archive.
type Extractor struct {
	Formatter Formatter
	Encoding  encoding.Encoding // nil means UTF-8
	Workers   int
	Logger    *zap.Logger
}

// Extract unpacks archivePath into outputDir, replacing any previous
// contents. Source files are decoded, optionally access-transformed,
// formatted and re-encoded; a formatter failure keeps the unformatted
// original. Non-source entries are copied byte-for-byte.
func (e *Extractor) Extract(ctx context.Context, archivePath, outputDir string, at *AccessTransformer) error {
	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("prepare output directory: %w", err)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open source archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return e.extractFile(ctx, f, outputDir, at)
		})
	}
	return g.Wait()
}

func (e *Extractor) extractFile(ctx context.Context, f *zip.File, outputDir string, at *AccessTransformer) error {
	if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
		return fmt.Errorf("extract %s: entry path escapes the output directory", f.Name)
	}
	dest := filepath.Join(outputDir, filepath.FromSlash(f.Name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}

	if strings.HasSuffix(f.Name, ".java") {
		data, err = e.processSource(ctx, f.Name, data, at)
		if err != nil {
			return err
		}
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

func (e *Extractor) processSource(ctx context.Context, name string, data []byte, at *AccessTransformer) ([]byte, error) {
	text := data
	if e.Encoding != nil {
		decoded, err := e.Encoding.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		text = decoded
	}
	src := string(text)

	if at != nil {
		src = at.Apply(classNameOf(name), src)
	}

	if e.Formatter != nil {
		formatted, err := e.Formatter.Format(ctx, src)
		if err != nil {
			if e.Logger != nil {
				e.Logger.Error("failed to format file",
					zap.String("file", name),
					zap.Error(err))
			}
		} else {
			src = formatted
		}
	}

	out := []byte(src)
	if e.Encoding != nil {
		encoded, err := e.Encoding.NewEncoder().Bytes(out)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		out = encoded
	}
	return out, nil
}

// classNameOf turns an archive entry path into the dotted class name.
func classNameOf(entry string) string {
	name := strings.TrimSuffix(entry, ".java")
	return strings.ReplaceAll(name, "/", ".")
}
