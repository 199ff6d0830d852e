package domain

import "time"

// RunStats holds statistics about one fetch-and-prune run.
type RunStats struct {
	SourceID       string
	Fetched        int
	Accepted       int
	Downloaded     int
	AlreadyPresent int
	Errors         int
	Pruned         int
	Published      int
	Duration       time.Duration
}
