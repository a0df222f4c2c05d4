// Package jar streams class archives through a per-class transform. Entries
// are transformed on a worker pool but written strictly in input order, so a
// rewritten archive diffs cleanly against its source.
package jar

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Transform rewrites one class entry. The name is the full archive path of
// the entry. It returns the archive path the rewritten entry should be
// stored under (empty keeps the original) and the new bytes, so a rename
// pass can move the entry along with the class it carries.
type Transform func(name string, data []byte) (string, []byte, error)

// Rules selects which archive entries survive the rewrite. Class entries are
// kept unless they sit under an excluded prefix; resource entries are kept
// only when they sit under an included prefix. An empty prefix list disables
// the corresponding filter.
type Rules struct {
	ExcludeClassPrefixes    []string
	IncludeResourcePrefixes []string
}

// KeepClass reports whether a class entry survives.
func (r Rules) KeepClass(name string) bool {
	for _, p := range r.ExcludeClassPrefixes {
		if strings.HasPrefix(name, p) {
			return false
		}
	}
	return true
}

// KeepResource reports whether a non-class entry survives.
func (r Rules) KeepResource(name string) bool {
	if len(r.IncludeResourcePrefixes) == 0 {
		return true
	}
	for _, p := range r.IncludeResourcePrefixes {
		if name == p || strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// Rewriter applies a Transform to every class entry of an archive.
type Rewriter struct {
	Rules   Rules
	Workers int
	Logger  *zap.Logger
}

// NewRewriter returns a Rewriter with default parallelism.
func NewRewriter(rules Rules, logger *zap.Logger) *Rewriter {
	return &Rewriter{Rules: rules, Logger: logger}
}

type result struct {
	name string
	data []byte
	err  error
}

type entry struct {
	file  *zip.File
	class bool
}

// RewriteArchive rewrites inputPath into outputPath.
func (rw *Rewriter) RewriteArchive(ctx context.Context, inputPath, outputPath string, transform Transform) error {
	zr, err := zip.OpenReader(inputPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", inputPath, err)
	}
	defer zr.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", outputPath, err)
	}
	defer out.Close()

	if err := rw.Rewrite(ctx, &zr.Reader, out, transform); err != nil {
		return err
	}
	return out.Close()
}

// Rewrite transforms every kept class entry of zr into a new archive written
// to out. Resource entries pass through byte-for-byte.
func (rw *Rewriter) Rewrite(ctx context.Context, zr *zip.Reader, out io.Writer, transform Transform) error {
	kept := rw.selectEntries(zr)

	workers := rw.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	outputs := make([]chan result, len(kept))
	for i := range outputs {
		outputs[i] = make(chan result, 1)
	}

	g.Go(func() error {
		defer close(jobs)
		for i := range kept {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				e := kept[i]
				name := e.file.Name
				data, err := readEntry(e.file)
				if err == nil && e.class && transform != nil {
					var renamed string
					renamed, data, err = transform(e.file.Name, data)
					if err != nil {
						err = fmt.Errorf("transform %s: %w", e.file.Name, err)
					}
					if renamed != "" {
						name = renamed
					}
				}
				select {
				case outputs[i] <- result{name, data, err}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	zw := zip.NewWriter(out)
	g.Go(func() error {
		for i := range kept {
			var res result
			select {
			case res = <-outputs[i]:
			case <-ctx.Done():
				return ctx.Err()
			}
			if res.err != nil {
				return res.err
			}
			f, err := zw.Create(res.name)
			if err != nil {
				return fmt.Errorf("write %s: %w", res.name, err)
			}
			if _, err := f.Write(res.data); err != nil {
				return fmt.Errorf("write %s: %w", res.name, err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return zw.Close()
}

func (rw *Rewriter) selectEntries(zr *zip.Reader) []entry {
	var kept []entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(f.Name, ".class") {
			if rw.Rules.KeepClass(f.Name) {
				kept = append(kept, entry{f, true})
			} else if rw.Logger != nil {
				rw.Logger.Debug("excluding class entry", zap.String("entry", f.Name))
			}
			continue
		}
		if rw.Rules.KeepResource(f.Name) {
			kept = append(kept, entry{f, false})
		} else if rw.Logger != nil {
			rw.Logger.Debug("excluding resource entry", zap.String("entry", f.Name))
		}
	}
	return kept
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return data, nil
}
