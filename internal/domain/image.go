package domain

import "time"

// Candidate is one post from the remote listing, considered for download.
type Candidate struct {
	ID       string
	Title    string
	Stickied bool
	Score    int
	Domain   string
	URL      string
	Preview  *SourceImage
}

// Resolution is a width/height pair with no identity.
type Resolution struct {
	Width  int
	Height int
}

// SourceImage describes the actual downloadable image behind a candidate.
type SourceImage struct {
	URL    string
	Width  int
	Height int
}

func (s *SourceImage) Resolution() Resolution {
	return Resolution{Width: s.Width, Height: s.Height}
}

// AcceptedImage is a candidate that passed every filter, reduced to what
// the downloader needs.
type AcceptedImage struct {
	Title string
	URL   string
}

// Artifact is a downloaded image stored under the destination directory.
type Artifact struct {
	ID           int64     `db:"id" json:"-" yaml:"-"`
	Title        string    `db:"title" json:"title" yaml:"title"`
	Path         string    `db:"path" json:"path" yaml:"path"`
	SourceURL    string    `db:"source_url" json:"source_url" yaml:"source_url"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at" yaml:"downloaded_at"`
}
