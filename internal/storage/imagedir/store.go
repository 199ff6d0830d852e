// Package imagedir stores downloaded images as prefixed files in a single
// destination directory, each optionally paired with a metadata sidecar,
// and prunes the oldest ones past a retention count.
package imagedir

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wallfetch/internal/domain"
)

type Store struct {
	dest   string
	logger *slog.Logger
}

// New creates the destination directory if absent.
func New(dest string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create destination directory: %w", err)
	}
	return &Store{
		dest:   dest,
		logger: logger.With("component", "imagedir", "dest", dest),
	}, nil
}

func (s *Store) Dest() string {
	return s.dest
}

// Filepath builds the artifact path for a title. Over-long titles are
// truncated before sanitization. The result is guaranteed to live directly
// under the destination directory.
func (s *Store) Filepath(title, suffix string) (string, error) {
	name := Prefix + SafeFilename(truncateTitle(title)) + suffix
	path := filepath.Join(s.dest, name)
	if filepath.Dir(path) != filepath.Clean(s.dest) {
		return "", fmt.Errorf("title %q resolves outside destination directory", title)
	}
	return path, nil
}

func (s *Store) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Touch refreshes the modification time, marking the artifact still wanted
// so it survives pruning.
func (s *Store) Touch(path string) error {
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("touch %s: %w", path, err)
	}
	return nil
}

// Save writes the image bytes to path and returns the byte count.
func (s *Store) Save(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// A truncated image is worse than a missing one.
		_ = os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", path, err)
	}

	return n, nil
}

// WriteSidecar stores the artifact metadata next to the image file.
func (s *Store) WriteSidecar(a *domain.Artifact) error {
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	path := SidecarPath(a.Path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

// SidecarPath maps an artifact path to its sidecar path.
func SidecarPath(artifactPath string) string {
	return strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath)) + sidecarExt
}
