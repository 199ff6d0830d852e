// Package postgres keeps a queryable record of every downloaded artifact,
// supplementing the per-file sidecars.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"wallfetch/internal/domain"
)

type HistoryStore struct {
	db *sqlx.DB
}

func NewHistoryStore(db *sqlx.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record upserts a download keyed on title; re-downloading the same post
// refreshes its timestamp and path.
func (s *HistoryStore) Record(ctx context.Context, a *domain.Artifact) error {
	query := `
		INSERT INTO downloads (title, path, source_url, downloaded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (title) DO UPDATE SET
			path = EXCLUDED.path,
			source_url = EXCLUDED.source_url,
			downloaded_at = EXCLUDED.downloaded_at`

	_, err := s.db.ExecContext(ctx, query,
		a.Title,
		a.Path,
		a.SourceURL,
		a.DownloadedAt,
	)
	return err
}

// Recent returns the latest downloads, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]domain.Artifact, error) {
	query := `
		SELECT id, title, path, source_url, downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC
		LIMIT $1`

	var artifacts []domain.Artifact
	err := s.db.SelectContext(ctx, &artifacts, query, limit)
	return artifacts, err
}
