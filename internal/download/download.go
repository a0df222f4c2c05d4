// Package download fetches remote files with integrity verification.
package download

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ErrChecksumMismatch marks a download whose content does not match its
// published digest.
var ErrChecksumMismatch = fmt.Errorf("checksum mismatch")

// Client downloads files over HTTP.
type Client struct {
	HTTP   *http.Client
	Logger *zap.Logger
}

// NewClient returns a download client.
func NewClient(logger *zap.Logger) *Client {
	return &Client{HTTP: http.DefaultClient, Logger: logger}
}

// Fetch downloads url into dest. When sha1sum is non-empty the content is
// verified against it while streaming; a mismatch fails the call and
// removes the destination file so no unverified content stays behind.
func (c *Client) Fetch(ctx context.Context, url, dest, sha1sum string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	hash := sha1.New()
	n, err := io.Copy(io.MultiWriter(out, hash), resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("download %s: %w", url, err)
	}

	if sha1sum != "" {
		actual := hex.EncodeToString(hash.Sum(nil))
		if !strings.EqualFold(actual, sha1sum) {
			os.Remove(dest)
			return fmt.Errorf("%w: %s: expected %s, got %s", ErrChecksumMismatch, url, sha1sum, actual)
		}
	}

	if c.Logger != nil {
		c.Logger.Debug("downloaded file",
			zap.String("url", url),
			zap.Int64("bytes", n))
	}
	return nil
}

// VerifyFile re-computes the SHA-1 digest of an existing file.
func VerifyFile(path, sha1sum string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	hash := sha1.New()
	if _, err := io.Copy(hash, f); err != nil {
		return err
	}
	actual := hex.EncodeToString(hash.Sum(nil))
	if !strings.EqualFold(actual, sha1sum) {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrChecksumMismatch, path, sha1sum, actual)
	}
	return nil
}
