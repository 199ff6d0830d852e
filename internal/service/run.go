package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"wallfetch/internal/config"
	"wallfetch/internal/domain"
	"wallfetch/internal/storage/imagedir"
)

// FetchService drives one run: fetch the listing, select images, download
// the missing ones, then prune the destination directory.
type FetchService struct {
	source     Source
	selector   Selector
	downloader Downloader
	store      ImageStore
	history    History
	publisher  Publisher
	logger     *slog.Logger
	config     config.ImagesConfig
}

func NewFetchService(
	source Source,
	selector Selector,
	downloader Downloader,
	store ImageStore,
	history History,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.ImagesConfig,
) *FetchService {
	return &FetchService{
		source:     source,
		selector:   selector,
		downloader: downloader,
		store:      store,
		history:    history,
		publisher:  publisher,
		logger:     logger.With("source", source.ID()),
		config:     cfg,
	}
}

func (s *FetchService) Run(ctx context.Context) (*domain.RunStats, error) {
	startTime := time.Now()
	s.logger.Info("starting run",
		"source_name", s.source.Name(),
		"count", s.config.Count,
		"min_score", s.config.MinScore,
	)

	posts, err := s.source.FetchPosts(ctx, s.config.Count)
	if err != nil {
		// Nothing to do without the listing.
		return nil, fmt.Errorf("fetch posts: %w", err)
	}

	stats := &domain.RunStats{
		SourceID: s.source.ID(),
		Fetched:  len(posts),
	}

	for img := range s.selector.Images(ctx, posts, s.config.Count) {
		stats.Accepted++
		s.saveImage(ctx, img, stats)
	}

	if s.config.KeepCount > 0 && s.config.KeepCount > s.config.Count {
		deleted, err := s.store.KeepAtMost(s.config.KeepCount)
		if err != nil {
			s.logger.Error("prune failed", "error", err)
			stats.Errors++
		}
		stats.Pruned = deleted
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("run completed",
		"fetched", stats.Fetched,
		"accepted", stats.Accepted,
		"downloaded", stats.Downloaded,
		"already_present", stats.AlreadyPresent,
		"errors", stats.Errors,
		"pruned", stats.Pruned,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// saveImage downloads one accepted image unless it is already on disk.
// A present artifact gets its mtime refreshed so pruning keeps it.
func (s *FetchService) saveImage(ctx context.Context, img domain.AcceptedImage, stats *domain.RunStats) {
	path, err := s.store.Filepath(img.Title, imagedir.SuffixFor(img.URL))
	if err != nil {
		s.logger.Warn("unusable title, skipping", "title", img.Title, "error", err)
		stats.Errors++
		return
	}

	if s.store.Exists(path) {
		s.logger.Debug("already saved, touching", "path", path)
		if err := s.store.Touch(path); err != nil {
			s.logger.Warn("failed to touch artifact", "path", path, "error", err)
		}
		stats.AlreadyPresent++
		return
	}

	s.logger.Info("saving image", "title", img.Title, "path", path)

	body, err := s.downloader.Fetch(ctx, img.URL)
	if err != nil {
		s.logger.Warn("download failed, skipping", "url", img.URL, "error", err)
		stats.Errors++
		return
	}
	defer body.Close()

	size, err := s.store.Save(path, body)
	if err != nil {
		s.logger.Warn("save failed, skipping", "path", path, "error", err)
		stats.Errors++
		return
	}
	stats.Downloaded++

	artifact := &domain.Artifact{
		Title:        img.Title,
		Path:         path,
		SourceURL:    img.URL,
		DownloadedAt: time.Now().UTC(),
	}

	if err := s.store.WriteSidecar(artifact); err != nil {
		s.logger.Warn("failed to write sidecar", "path", path, "error", err)
	}

	if s.history != nil {
		if err := s.history.Record(ctx, artifact); err != nil {
			s.logger.Warn("failed to record download", "title", artifact.Title, "error", err)
			stats.Errors++
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, artifact); err != nil {
			s.logger.Warn("failed to publish download", "title", artifact.Title, "error", err)
			stats.Errors++
		} else {
			stats.Published++
		}
	}

	s.logger.Debug("saved image", "path", path, "bytes", size)
}
