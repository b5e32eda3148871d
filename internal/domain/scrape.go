package domain

import "time"

// Geography is one city/state pair drawn from a geography pool.
type Geography struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// ScrapeRequest is one bounded scrape invocation. NumListings is clamped
// server-side to the configured ceiling before the engine runs.
type ScrapeRequest struct {
	Query       string
	NumListings int
	Headless    bool
	Budget      time.Duration // zero means the configured default
	Geographies []Geography   // optional pool; empty means one bare-query session
}

// ScrapeResult is what the HTTP boundary returns: the deduplicated records
// plus a human-readable count message.
type ScrapeResult struct {
	Message string     `json:"message"`
	Results []Business `json:"results"`
}
