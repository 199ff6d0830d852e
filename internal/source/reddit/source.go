package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"wallfetch/internal/domain"
)

const (
	SourceID   = "reddit"
	SourceName = "Reddit listing"
)

// Config holds Reddit source configuration.
type Config struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches a ranked post listing from a subreddit JSON endpoint.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// New creates a new Reddit source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		userAgent:      cfg.UserAgent,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchPosts fetches the listing in rank order, up to limit items.
func (s *Source) FetchPosts(ctx context.Context, limit int) ([]domain.Candidate, error) {
	url := fmt.Sprintf("%s?limit=%d", s.baseURL, limit)

	listing, err := s.fetchListing(ctx, url)
	if err != nil {
		return nil, err
	}

	posts := s.transform(listing.Data.Children)

	s.logger.Debug("fetched listing",
		"children", len(listing.Data.Children),
		"posts", len(posts),
	)

	return posts, nil
}

func (s *Source) fetchListing(ctx context.Context, url string) (*Listing, error) {
	var listing *Listing
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		listing, err = s.doRequest(ctx, url)
		if err == nil {
			return listing, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, url string) (*Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var listing Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &listing, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(children []json.RawMessage) []domain.Candidate {
	posts := make([]domain.Candidate, 0, len(children))

	for _, raw := range children {
		var thread Thread
		if err := json.Unmarshal(raw, &thread); err != nil {
			s.logger.Debug("skipping malformed listing child", "error", err)
			continue
		}

		p := thread.Data
		candidate := domain.Candidate{
			ID:       p.ID,
			Title:    p.Title,
			Stickied: p.Stickied,
			Score:    p.Score,
			Domain:   p.Domain,
			URL:      p.URL,
		}

		if p.Preview != nil && len(p.Preview.Images) > 0 {
			src := p.Preview.Images[0].Source
			candidate.Preview = &domain.SourceImage{
				URL:    src.URL,
				Width:  src.Width,
				Height: src.Height,
			}
		}

		posts = append(posts, candidate)
	}

	return posts
}
