package reddit

import "encoding/json"

// Listing represents the subreddit listing response structure.
type Listing struct {
	Data ListingData `json:"data"`
}

type ListingData struct {
	// Children are decoded individually so one malformed post does not
	// poison the whole batch.
	Children []json.RawMessage `json:"children"`
}

type Thread struct {
	Data Post `json:"data"`
}

type Post struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Stickied bool     `json:"stickied"`
	Score    int      `json:"score"`
	Domain   string   `json:"domain"`
	URL      string   `json:"url"`
	Preview  *Preview `json:"preview"`
}

type Preview struct {
	Images []PreviewImage `json:"images"`
}

type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

type PreviewSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
