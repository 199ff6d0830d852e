package imagedir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// KeepAtMost deletes every prefixed artifact beyond the keep newest, by
// modification time, along with any sibling files sharing the artifact's
// base name (its sidecar). Individual deletion failures are logged and do
// not stop the sweep. Returns the number of artifacts deleted.
func (s *Store) KeepAtMost(keep int) (int, error) {
	entries, err := os.ReadDir(s.dest)
	if err != nil {
		return 0, fmt.Errorf("read destination directory: %w", err)
	}

	type artifact struct {
		name  string
		mtime time.Time
	}

	var artifacts []artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, Prefix) {
			continue
		}
		if filepath.Ext(name) == sidecarExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.logger.Warn("failed to stat artifact", "name", name, "error", err)
			continue
		}
		artifacts = append(artifacts, artifact{name: name, mtime: info.ModTime()})
	}

	// Newest first; everything past keep goes.
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].mtime.After(artifacts[j].mtime)
	})

	if keep < 0 {
		keep = 0
	}
	if keep >= len(artifacts) {
		return 0, nil
	}

	deleted := 0
	for _, a := range artifacts[keep:] {
		path := filepath.Join(s.dest, a.name)
		s.logger.Info("deleting image", "path", path)
		if err := os.Remove(path); err != nil {
			s.logger.Error("failed to delete artifact", "path", path, "error", err)
			continue
		}
		deleted++

		base := strings.TrimSuffix(a.name, filepath.Ext(a.name))
		siblings, err := filepath.Glob(filepath.Join(s.dest, base+".*"))
		if err != nil {
			s.logger.Warn("failed to glob siblings", "base", base, "error", err)
			continue
		}
		for _, sibling := range siblings {
			if err := os.Remove(sibling); err != nil {
				s.logger.Error("failed to delete sibling", "path", sibling, "error", err)
			}
		}
	}

	return deleted, nil
}
