package resolver

import (
	"context"

	"wallfetch/internal/domain"
)

// PreviewRule reads the source image from the candidate's embedded preview
// data. It matches every candidate and belongs last in the chain.
type PreviewRule struct{}

func NewPreviewRule() *PreviewRule {
	return &PreviewRule{}
}

func (r *PreviewRule) Matches(domain.Candidate) bool {
	return true
}

func (r *PreviewRule) Resolve(_ context.Context, c domain.Candidate) (*domain.SourceImage, error) {
	if c.Preview == nil {
		return nil, ErrNoImage
	}
	img := *c.Preview
	return &img, nil
}
