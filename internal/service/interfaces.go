package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"io"
	"iter"

	"wallfetch/internal/domain"
)

type Source interface {
	ID() string
	Name() string
	FetchPosts(ctx context.Context, limit int) ([]domain.Candidate, error)
}

type Selector interface {
	Images(ctx context.Context, posts []domain.Candidate, count int) iter.Seq[domain.AcceptedImage]
}

type Downloader interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

type ImageStore interface {
	Filepath(title, suffix string) (string, error)
	Exists(path string) bool
	Touch(path string) error
	Save(path string, r io.Reader) (int64, error)
	WriteSidecar(a *domain.Artifact) error
	KeepAtMost(keep int) (int, error)
}

type History interface {
	Record(ctx context.Context, a *domain.Artifact) error
}

type Publisher interface {
	Publish(ctx context.Context, a *domain.Artifact) error
	Close() error
}
