package service

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"wallfetch/internal/config"
	"wallfetch/internal/domain"
	"wallfetch/internal/service/mocks"
)

type FetchServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source     *mocks.MockSource
	selector   *mocks.MockSelector
	downloader *mocks.MockDownloader
	store      *mocks.MockImageStore
	history    *mocks.MockHistory
	publisher  *mocks.MockPublisher

	service *FetchService
	cfg     config.ImagesConfig
	logger  *slog.Logger
}

func (s *FetchServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.selector = mocks.NewMockSelector(s.ctrl)
	s.downloader = mocks.NewMockDownloader(s.ctrl)
	s.store = mocks.NewMockImageStore(s.ctrl)
	s.history = mocks.NewMockHistory(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.ImagesConfig{
		Dest:       "images",
		Count:      10,
		KeepCount:  -1,
		MinScore:   0,
		Resolution: "1920x1080",
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source.EXPECT().ID().Return("test-source").AnyTimes()
	s.source.EXPECT().Name().Return("Test Source").AnyTimes()

	s.service = NewFetchService(
		s.source,
		s.selector,
		s.downloader,
		s.store,
		s.history,
		s.publisher,
		s.logger,
		s.cfg,
	)
}

func (s *FetchServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestFetchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(FetchServiceTestSuite))
}

func seqOf(images ...domain.AcceptedImage) func(context.Context, []domain.Candidate, int) iter.Seq[domain.AcceptedImage] {
	return func(context.Context, []domain.Candidate, int) iter.Seq[domain.AcceptedImage] {
		return slices.Values(images)
	}
}

func (s *FetchServiceTestSuite) TestRun_DownloadsNewImage() {
	ctx := context.Background()

	posts := []domain.Candidate{{ID: "abc", Title: "Lake", Score: 100}}
	img := domain.AcceptedImage{Title: "abc_Lake", URL: "https://example.com/lake.jpg"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(img))

	s.store.EXPECT().Filepath("abc_Lake", ".jpg").Return("images/DOWN-abc_Lake.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-abc_Lake.jpg").Return(false)

	s.downloader.EXPECT().Fetch(ctx, img.URL).Return(io.NopCloser(strings.NewReader("bytes")), nil)
	s.store.EXPECT().Save("images/DOWN-abc_Lake.jpg", gomock.Any()).Return(int64(5), nil)
	s.store.EXPECT().WriteSidecar(gomock.Any()).Return(nil)

	s.history.EXPECT().Record(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.Fetched)
	s.Equal(1, stats.Accepted)
	s.Equal(1, stats.Downloaded)
	s.Equal(0, stats.AlreadyPresent)
	s.Equal(0, stats.Errors)
	s.Equal(1, stats.Published)
	s.Equal(0, stats.Pruned)
}

func (s *FetchServiceTestSuite) TestRun_TouchesExistingImage() {
	ctx := context.Background()

	posts := []domain.Candidate{{ID: "abc", Title: "Lake", Score: 100}}
	img := domain.AcceptedImage{Title: "abc_Lake", URL: "https://example.com/lake.jpg"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(img))

	s.store.EXPECT().Filepath("abc_Lake", ".jpg").Return("images/DOWN-abc_Lake.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-abc_Lake.jpg").Return(true)
	s.store.EXPECT().Touch("images/DOWN-abc_Lake.jpg").Return(nil)

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.AlreadyPresent)
	s.Equal(0, stats.Downloaded)
	s.Equal(0, stats.Errors)
}

func (s *FetchServiceTestSuite) TestRun_SourceErrorIsFatal() {
	ctx := context.Background()

	s.source.EXPECT().FetchPosts(ctx, 10).Return(nil, errors.New("api error"))

	stats, err := s.service.Run(ctx)

	s.Error(err)
	s.Nil(stats)
	s.Contains(err.Error(), "fetch posts")
}

func (s *FetchServiceTestSuite) TestRun_DownloadFailureSkipsItem() {
	ctx := context.Background()

	posts := []domain.Candidate{
		{ID: "bad", Title: "Gone", Score: 100},
		{ID: "good", Title: "Here", Score: 100},
	}
	badImg := domain.AcceptedImage{Title: "bad_Gone", URL: "https://example.com/gone.jpg"}
	goodImg := domain.AcceptedImage{Title: "good_Here", URL: "https://example.com/here.jpg"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(badImg, goodImg))

	s.store.EXPECT().Filepath("bad_Gone", ".jpg").Return("images/DOWN-bad_Gone.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-bad_Gone.jpg").Return(false)
	s.downloader.EXPECT().Fetch(ctx, badImg.URL).Return(nil, errors.New("connection reset"))

	s.store.EXPECT().Filepath("good_Here", ".jpg").Return("images/DOWN-good_Here.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-good_Here.jpg").Return(false)
	s.downloader.EXPECT().Fetch(ctx, goodImg.URL).Return(io.NopCloser(strings.NewReader("bytes")), nil)
	s.store.EXPECT().Save("images/DOWN-good_Here.jpg", gomock.Any()).Return(int64(5), nil)
	s.store.EXPECT().WriteSidecar(gomock.Any()).Return(nil)
	s.history.EXPECT().Record(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(2, stats.Accepted)
	s.Equal(1, stats.Downloaded)
	s.Equal(1, stats.Errors)
}

func (s *FetchServiceTestSuite) TestRun_PrunesWhenKeepCountExceedsCount() {
	ctx := context.Background()

	s.cfg.KeepCount = 25
	service := NewFetchService(s.source, s.selector, s.downloader, s.store, s.history, s.publisher, s.logger, s.cfg)

	s.source.EXPECT().FetchPosts(ctx, 10).Return(nil, nil)
	s.selector.EXPECT().Images(ctx, gomock.Nil(), 10).DoAndReturn(seqOf())
	s.store.EXPECT().KeepAtMost(25).Return(3, nil)

	stats, err := service.Run(ctx)

	s.NoError(err)
	s.Equal(3, stats.Pruned)
}

func (s *FetchServiceTestSuite) TestRun_NoPruneWhenDisabled() {
	ctx := context.Background()

	// KeepCount is -1 from SetupTest; KeepAtMost must not be called.
	s.source.EXPECT().FetchPosts(ctx, 10).Return(nil, nil)
	s.selector.EXPECT().Images(ctx, gomock.Nil(), 10).DoAndReturn(seqOf())

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(0, stats.Pruned)
}

func (s *FetchServiceTestSuite) TestRun_PruneFailureCountsAsError() {
	ctx := context.Background()

	s.cfg.KeepCount = 25
	service := NewFetchService(s.source, s.selector, s.downloader, s.store, s.history, s.publisher, s.logger, s.cfg)

	s.source.EXPECT().FetchPosts(ctx, 10).Return(nil, nil)
	s.selector.EXPECT().Images(ctx, gomock.Nil(), 10).DoAndReturn(seqOf())
	s.store.EXPECT().KeepAtMost(25).Return(0, errors.New("permission denied"))

	stats, err := service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.Errors)
	s.Equal(0, stats.Pruned)
}

func (s *FetchServiceTestSuite) TestRun_OptionalDepsNil() {
	ctx := context.Background()

	service := NewFetchService(s.source, s.selector, s.downloader, s.store, nil, nil, s.logger, s.cfg)

	posts := []domain.Candidate{{ID: "abc", Title: "Lake", Score: 100}}
	img := domain.AcceptedImage{Title: "abc_Lake", URL: "https://example.com/lake.jpg"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(img))

	s.store.EXPECT().Filepath("abc_Lake", ".jpg").Return("images/DOWN-abc_Lake.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-abc_Lake.jpg").Return(false)
	s.downloader.EXPECT().Fetch(ctx, img.URL).Return(io.NopCloser(strings.NewReader("bytes")), nil)
	s.store.EXPECT().Save("images/DOWN-abc_Lake.jpg", gomock.Any()).Return(int64(5), nil)
	s.store.EXPECT().WriteSidecar(gomock.Any()).Return(nil)

	stats, err := service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.Downloaded)
	s.Equal(0, stats.Published)
}

func (s *FetchServiceTestSuite) TestRun_PublishFailureCountsAsError() {
	ctx := context.Background()

	posts := []domain.Candidate{{ID: "abc", Title: "Lake", Score: 100}}
	img := domain.AcceptedImage{Title: "abc_Lake", URL: "https://example.com/lake.jpg"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(img))

	s.store.EXPECT().Filepath("abc_Lake", ".jpg").Return("images/DOWN-abc_Lake.jpg", nil)
	s.store.EXPECT().Exists("images/DOWN-abc_Lake.jpg").Return(false)
	s.downloader.EXPECT().Fetch(ctx, img.URL).Return(io.NopCloser(strings.NewReader("bytes")), nil)
	s.store.EXPECT().Save("images/DOWN-abc_Lake.jpg", gomock.Any()).Return(int64(5), nil)
	s.store.EXPECT().WriteSidecar(gomock.Any()).Return(nil)
	s.history.EXPECT().Record(ctx, gomock.Any()).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("channel closed"))

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.Downloaded)
	s.Equal(0, stats.Published)
	s.Equal(1, stats.Errors)
}

func (s *FetchServiceTestSuite) TestRun_SuffixFollowsURL() {
	ctx := context.Background()

	posts := []domain.Candidate{{ID: "abc", Title: "Lake", Score: 100}}
	img := domain.AcceptedImage{Title: "abc_Lake", URL: "https://example.com/lake.png"}

	s.source.EXPECT().FetchPosts(ctx, 10).Return(posts, nil)
	s.selector.EXPECT().Images(ctx, posts, 10).DoAndReturn(seqOf(img))

	s.store.EXPECT().Filepath("abc_Lake", ".png").Return("images/DOWN-abc_Lake.png", nil)
	s.store.EXPECT().Exists("images/DOWN-abc_Lake.png").Return(true)
	s.store.EXPECT().Touch("images/DOWN-abc_Lake.png").Return(nil)

	stats, err := s.service.Run(ctx)

	s.NoError(err)
	s.Equal(1, stats.AlreadyPresent)
}
