package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

// ErrExists is returned by Put when the coordinate already holds content.
// Artifacts are immutable: a published coordinate is never rewritten.
var ErrExists = errors.New("artifact already exists")

// ErrNotFound is returned by Get for unpublished coordinates.
var ErrNotFound = errors.New("artifact not found")

// Artifact is a published, immutable blob resolvable to a store path.
type Artifact struct {
	Coordinate Coordinate
	// Path is the absolute filesystem location of the blob. Only valid for
	// stores backed by the OS filesystem.
	Path string
}

// Store is a coordinate-addressed artifact store on a billy filesystem.
// Reads may happen concurrently; writes are serialized by the caller (the
// pipeline engine runs stages sequentially).
type Store struct {
	fs     billy.Filesystem
	root   string
	index  *Index
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIndex attaches a catalog index that records every publication.
func WithIndex(idx *Index) Option {
	return func(s *Store) { s.index = idx }
}

// NewStore opens a store rooted at dir on the local filesystem.
func NewStore(dir string, logger *zap.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return NewStoreFS(osfs.New(dir), dir, logger, opts...), nil
}

// NewStoreFS opens a store on an arbitrary billy filesystem. root is only
// used to render absolute artifact paths and may be empty for in-memory
// filesystems.
func NewStoreFS(fs billy.Filesystem, root string, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{fs: fs, root: root, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exists reports whether the coordinate has been published.
func (s *Store) Exists(c Coordinate) bool {
	_, err := s.fs.Stat(c.Path())
	return err == nil
}

// Get resolves a published artifact.
func (s *Store) Get(c Coordinate) (*Artifact, error) {
	if !s.Exists(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	return &Artifact{Coordinate: c, Path: s.abs(c)}, nil
}

// Open returns a reader over a published artifact's content.
func (s *Store) Open(c Coordinate) (io.ReadCloser, error) {
	f, err := s.fs.Open(c.Path())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c, err)
	}
	return f, nil
}

// Put publishes the file at src under the coordinate. The content is staged
// to a temporary name and renamed into place so a failed stage never leaves a
// half-written artifact visible.
func (s *Store) Put(c Coordinate, src string) (*Artifact, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s.Exists(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrExists)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open source for %s: %w", c, err)
	}
	defer in.Close()
	return s.publish(c, in)
}

// PutReader publishes content streamed from r under the coordinate.
func (s *Store) PutReader(c Coordinate, r io.Reader) (*Artifact, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if s.Exists(c) {
		return nil, fmt.Errorf("%s: %w", c, ErrExists)
	}
	return s.publish(c, r)
}

func (s *Store) publish(c Coordinate, r io.Reader) (*Artifact, error) {
	target := c.Path()
	dir := path.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := util.TempFile(s.fs, dir, path.Base(target)+".staging-")
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", c, err)
	}
	tmpName := tmp.Name()

	digest := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, digest), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("write %s: %w", c, err)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		_ = s.fs.Remove(tmpName)
		return nil, fmt.Errorf("publish %s: %w", c, err)
	}

	if s.index != nil {
		entry := IndexEntry{
			Coordinate: c.String(),
			Digest:     hex.EncodeToString(digest.Sum(nil)),
			Size:       size,
			Published:  time.Now().UTC(),
		}
		if err := s.index.Record(entry); err != nil {
			// The directory tree is the source of truth; a failed index write
			// degrades `store ls`, not correctness.
			s.logger.Warn("artifact index write failed",
				zap.String("coordinate", c.String()), zap.Error(err))
		}
	}

	s.logger.Info("artifact published",
		zap.String("coordinate", c.String()), zap.Int64("size", size))
	return &Artifact{Coordinate: c, Path: s.abs(c)}, nil
}

func (s *Store) abs(c Coordinate) string {
	if s.root == "" {
		return c.Path()
	}
	return path.Join(s.root, c.Path())
}
