//go:build integration

package postgres

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"wallfetch/internal/domain"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	migrationsPath, err := filepath.Abs("../../../migrations")
	s.Require().NoError(err)

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		postgres.WithInitScripts(
			filepath.Join(migrationsPath, "001_create_downloads.up.sql"),
		),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "DELETE FROM downloads")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) TestHistoryStore_Record() {
	store := NewHistoryStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	artifact := &domain.Artifact{
		Title:        "abc123_Misty Lake",
		Path:         "images/DOWN-abc123_Misty_Lake.jpg",
		SourceURL:    "https://example.com/misty.jpg",
		DownloadedAt: now,
	}

	err := store.Record(s.ctx, artifact)
	s.NoError(err)

	var count int
	err = s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM downloads WHERE title = $1", artifact.Title)
	s.NoError(err)
	s.Equal(1, count)
}

func (s *PostgresIntegrationSuite) TestHistoryStore_Record_UpsertsOnTitle() {
	store := NewHistoryStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	artifact := &domain.Artifact{
		Title:        "abc123_Misty Lake",
		Path:         "images/DOWN-abc123_Misty_Lake.jpg",
		SourceURL:    "https://example.com/misty.jpg",
		DownloadedAt: now.Add(-1 * time.Hour),
	}
	s.NoError(store.Record(s.ctx, artifact))

	artifact.Path = "walls/DOWN-abc123_Misty_Lake.jpg"
	artifact.DownloadedAt = now
	s.NoError(store.Record(s.ctx, artifact))

	var count int
	err := s.db.GetContext(s.ctx, &count, "SELECT COUNT(*) FROM downloads")
	s.NoError(err)
	s.Equal(1, count)

	var path string
	err = s.db.GetContext(s.ctx, &path, "SELECT path FROM downloads WHERE title = $1", artifact.Title)
	s.NoError(err)
	s.Equal("walls/DOWN-abc123_Misty_Lake.jpg", path)
}

func (s *PostgresIntegrationSuite) TestHistoryStore_Recent() {
	store := NewHistoryStore(s.db)
	now := time.Now().Truncate(time.Microsecond)

	for i := 1; i <= 3; i++ {
		artifact := &domain.Artifact{
			Title:        "post" + string(rune('0'+i)),
			Path:         "images/DOWN-post.jpg",
			SourceURL:    "https://example.com/post.jpg",
			DownloadedAt: now.Add(time.Duration(i) * time.Hour),
		}
		s.NoError(store.Record(s.ctx, artifact))
	}

	recent, err := store.Recent(s.ctx, 2)
	s.NoError(err)
	s.Len(recent, 2)

	// Newest first.
	s.Equal("post3", recent[0].Title)
	s.Equal("post2", recent[1].Title)
	s.WithinDuration(now.Add(3*time.Hour), recent[0].DownloadedAt, time.Second)
}

func (s *PostgresIntegrationSuite) TestHistoryStore_Recent_Empty() {
	store := NewHistoryStore(s.db)

	recent, err := store.Recent(s.ctx, 10)
	s.NoError(err)
	s.Len(recent, 0)
}
