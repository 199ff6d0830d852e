package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wallfetch/internal/domain"
)

const (
	flickrDomain      = "flickr.com"
	defaultNoembedURL = "https://noembed.com/embed"
)

// Photo page URLs carry a numeric photo id; other flickr URLs (profiles,
// albums) have no single image to resolve.
var flickrRE = regexp.MustCompile(`^https?://(?:\w+\.)?flickr\.com/(?:.+)/(\d{10,})(?:/|$)`)

// FlickrRule resolves flickr photo pages through the noembed metadata
// endpoint, since the listing preview is absent or undersized for them.
type FlickrRule struct {
	httpClient *http.Client
	endpoint   string
}

func NewFlickrRule(timeout time.Duration) *FlickrRule {
	return &FlickrRule{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   defaultNoembedURL,
	}
}

// WithEndpoint overrides the embed endpoint, for tests.
func (r *FlickrRule) WithEndpoint(endpoint string) *FlickrRule {
	r.endpoint = endpoint
	return r
}

func (r *FlickrRule) Matches(c domain.Candidate) bool {
	return c.Domain == flickrDomain && flickrRE.MatchString(c.URL)
}

// pixels tolerates dimensions arriving as either JSON numbers or strings;
// noembed is not consistent about it.
type pixels int

func (p *pixels) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("dimension %q: %w", s, err)
	}
	*p = pixels(v)
	return nil
}

type embedResponse struct {
	MediaURL string `json:"media_url"`
	Width    pixels `json:"width"`
	Height   pixels `json:"height"`
}

func (r *FlickrRule) Resolve(ctx context.Context, c domain.Candidate) (*domain.SourceImage, error) {
	q := url.Values{}
	q.Set("url", c.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create embed request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch embed metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed endpoint status: %d", resp.StatusCode)
	}

	var embed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}

	if embed.MediaURL == "" {
		return nil, ErrNoImage
	}

	return &domain.SourceImage{
		URL:    embed.MediaURL,
		Width:  int(embed.Width),
		Height: int(embed.Height),
	}, nil
}
