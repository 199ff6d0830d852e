// Package selector walks a ranked candidate list and yields the images
// worth downloading, stopping as soon as enough have been accepted.
package selector

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"wallfetch/internal/domain"
	"wallfetch/internal/filter"
	"wallfetch/internal/resolver"
)

// ImageResolver produces the downloadable source image for a candidate.
type ImageResolver interface {
	Resolve(ctx context.Context, c domain.Candidate) (*domain.SourceImage, error)
}

type Selector struct {
	resolver ImageResolver
	filter   *filter.Filter
	minScore int
	logger   *slog.Logger
}

func New(res ImageResolver, f *filter.Filter, minScore int, logger *slog.Logger) *Selector {
	return &Selector{
		resolver: res,
		filter:   f,
		minScore: minScore,
		logger:   logger.With("component", "selector"),
	}
}

// Images returns a lazy, finite sequence of accepted images, in rank
// order, stopping after count emissions or when posts run out. Candidates
// past the stop point are never resolved, so no network lookups happen
// for them.
func (s *Selector) Images(ctx context.Context, posts []domain.Candidate, count int) iter.Seq[domain.AcceptedImage] {
	return func(yield func(domain.AcceptedImage) bool) {
		emitted := 0
		for _, post := range posts {
			if emitted >= count {
				return
			}
			if post.Stickied {
				s.logger.Debug("skipping stickied post", "id", post.ID)
				continue
			}
			if post.Score < s.minScore {
				s.logger.Debug("skipping low-score post",
					"id", post.ID, "score", post.Score, "min_score", s.minScore)
				continue
			}

			img, err := s.resolver.Resolve(ctx, post)
			if err != nil {
				if errors.Is(err, resolver.ErrNoImage) {
					s.logger.Debug("skipping post without image", "id", post.ID)
				} else {
					s.logger.Warn("failed to resolve image, skipping",
						"id", post.ID, "error", err)
				}
				continue
			}

			if !s.filter.Keep(post.Title, img.Resolution()) {
				continue
			}

			accepted := domain.AcceptedImage{
				Title: post.ID + "_" + post.Title,
				URL:   img.URL,
			}
			if !yield(accepted) {
				return
			}
			emitted++
		}
	}
}
