package domain

import "context"

// Engine runs one bounded scrape and returns the deduplicated records in
// extraction order. Budget exhaustion is a partial result, not an error.
type Engine interface {
	Scrape(ctx context.Context, req ScrapeRequest) ([]Business, error)
}

// Browser creates browser sessions. One session per scrape invocation.
type Browser interface {
	NewSession(ctx context.Context, headless bool) (BrowserSession, error)
}

// ListingField names a detail-panel value the session can read for the
// currently focused listing.
type ListingField string

const (
	FieldAddress     ListingField = "address"
	FieldWebsite     ListingField = "website"
	FieldPhone       ListingField = "phone"
	FieldRating      ListingField = "rating"
	FieldReviewCount ListingField = "reviews"
)

// BrowserSession is one exclusively-owned search surface. Every call blocks
// with its own interaction timeout, all shorter than the scrape budget.
type BrowserSession interface {
	// OpenSearch submits the query and waits for at least one listing to
	// render. A render timeout is a session-level soft failure.
	OpenSearch(ctx context.Context, query string) error

	// ListingCount reports how many result listings are currently rendered.
	ListingCount(ctx context.Context) (int, error)

	// FocusListing clicks the i-th rendered listing (DOM order) so its
	// detail panel and URL reflect that listing.
	FocusListing(ctx context.Context, i int) error

	// ListingLabel reads the accessible label of the i-th listing.
	ListingLabel(ctx context.Context, i int) (string, error)

	// DetailText reads one field from the focused listing's panel.
	// found is false when the panel has no matching element.
	DetailText(ctx context.Context, field ListingField) (text string, found bool, err error)

	// CurrentURL returns the view URL after a listing was focused.
	CurrentURL(ctx context.Context) (string, error)

	// ScrollResults performs one scroll gesture on the results feed.
	ScrollResults(ctx context.Context) error

	// EndOfResults reports whether the explicit end-of-list marker is shown.
	EndOfResults(ctx context.Context) (bool, error)

	Close() error
}

// Repository persists scraped businesses and the geography pool.
type Repository interface {
	UpsertBusinesses(ctx context.Context, query string, bs []Business) error
	ListBusinesses(ctx context.Context, query string) ([]Business, error)

	ListGeographies(ctx context.Context, onlyUnprocessed bool) ([]Geography, error)
	UpdateGeographyCoords(ctx context.Context, g Geography, c Coordinates) error
	MarkGeographyProcessed(ctx context.Context, g Geography) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type Coordinates struct{ Lat, Lon float64 }

// Geocoder resolves a geography to map coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city, state string) (Coordinates, error)
}

// EmailFinder hunts a listing's website for a verifiable contact email.
type EmailFinder interface {
	FindEmail(ctx context.Context, website string) (string, error)
}
