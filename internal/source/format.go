// Package source post-processes decompiled sources: extraction from the
// source archive into a working tree, normalization through an external
// formatter and source-level access transformations.
package source

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formatter normalizes source text. A formatter failure on an individual
// file is recoverable; callers keep the unformatted original.
type Formatter interface {
	Format(ctx context.Context, source string) (string, error)
}

// NopFormatter passes source through unchanged.
type NopFormatter struct{}

// Format implements Formatter.
func (NopFormatter) Format(_ context.Context, source string) (string, error) {
	return source, nil
}

// ExecFormatter pipes source text through an external formatter process,
// e.g. google-java-format reading from stdin.
type ExecFormatter struct {
	Path string
	Args []string
}

// Format implements Formatter.
func (f *ExecFormatter) Format(ctx context.Context, source string) (string, error) {
	cmd := exec.CommandContext(ctx, f.Path, f.Args...)
	cmd.Stdin = strings.NewReader(source)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("formatter failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
