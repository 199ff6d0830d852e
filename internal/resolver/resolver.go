// Package resolver maps candidates to their downloadable source image.
// Hosts that hide the real image behind an embed endpoint get their own
// rule; everything else falls back to the listing's embedded preview data.
package resolver

import (
	"context"
	"errors"
	"log/slog"

	"wallfetch/internal/domain"
)

// ErrNoImage marks a candidate with no usable image data. Callers treat
// it as a silent skip, not a failure.
var ErrNoImage = errors.New("candidate has no usable image")

// Rule resolves source images for the candidates it recognizes.
type Rule interface {
	Matches(c domain.Candidate) bool
	Resolve(ctx context.Context, c domain.Candidate) (*domain.SourceImage, error)
}

// Chain tries rules in order and applies the first that matches.
type Chain struct {
	rules  []Rule
	logger *slog.Logger
}

func NewChain(logger *slog.Logger, rules ...Rule) *Chain {
	return &Chain{
		rules:  rules,
		logger: logger.With("component", "resolver"),
	}
}

func (ch *Chain) Resolve(ctx context.Context, c domain.Candidate) (*domain.SourceImage, error) {
	for _, r := range ch.rules {
		if r.Matches(c) {
			img, err := r.Resolve(ctx, c)
			if err != nil {
				return nil, err
			}
			ch.logger.Debug("resolved source image",
				"id", c.ID, "width", img.Width, "height", img.Height)
			return img, nil
		}
	}
	return nil, ErrNoImage
}
