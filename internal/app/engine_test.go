package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

type fakeListing struct {
	label   string
	address string
	website string
	phone   string
	rating  string
	reviews string
	url     string
}

// fakeSession simulates a rendered results feed. visible listings grow by
// growPer per scroll gesture until the backing slice is exhausted.
type fakeSession struct {
	base    []fakeListing
	byQuery map[string][]fakeListing

	initial   int // rendered count right after OpenSearch; 0 = all
	growPer   int
	endMarker bool

	openErr    error
	focusFails int // first N focus attempts fail

	cur     []fakeListing
	visible int
	focused int
	queries []string
	scrolls int
	closed  bool
}

func (s *fakeSession) OpenSearch(_ context.Context, query string) error {
	if s.openErr != nil {
		return s.openErr
	}
	s.queries = append(s.queries, query)
	s.cur = s.base
	if l, ok := s.byQuery[query]; ok {
		s.cur = l
	}
	s.visible = s.initial
	if s.visible <= 0 || s.visible > len(s.cur) {
		s.visible = len(s.cur)
	}
	return nil
}

func (s *fakeSession) ListingCount(context.Context) (int, error) { return s.visible, nil }

func (s *fakeSession) FocusListing(_ context.Context, i int) error {
	if s.focusFails > 0 {
		s.focusFails--
		return errors.New("click intercepted")
	}
	if i >= s.visible {
		return errors.New("listing not rendered")
	}
	s.focused = i
	return nil
}

func (s *fakeSession) ListingLabel(_ context.Context, i int) (string, error) {
	return s.cur[i].label, nil
}

func (s *fakeSession) DetailText(_ context.Context, f domain.ListingField) (string, bool, error) {
	l := s.cur[s.focused]
	var v string
	switch f {
	case domain.FieldAddress:
		v = l.address
	case domain.FieldWebsite:
		v = l.website
	case domain.FieldPhone:
		v = l.phone
	case domain.FieldRating:
		v = l.rating
	case domain.FieldReviewCount:
		v = l.reviews
	}
	return v, v != "", nil
}

func (s *fakeSession) CurrentURL(context.Context) (string, error) {
	return s.cur[s.focused].url, nil
}

func (s *fakeSession) ScrollResults(context.Context) error {
	s.scrolls++
	s.visible += s.growPer
	if s.visible > len(s.cur) {
		s.visible = len(s.cur)
	}
	return nil
}

func (s *fakeSession) EndOfResults(context.Context) (bool, error) {
	return s.endMarker && s.visible >= len(s.cur), nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeBrowser struct{ sess *fakeSession }

func (b *fakeBrowser) NewSession(context.Context, bool) (domain.BrowserSession, error) {
	return b.sess, nil
}

type fakeRepo struct {
	upserts map[string][]domain.Business
}

func (r *fakeRepo) UpsertBusinesses(_ context.Context, query string, bs []domain.Business) error {
	if r.upserts == nil {
		r.upserts = map[string][]domain.Business{}
	}
	r.upserts[query] = bs
	return nil
}
func (r *fakeRepo) ListBusinesses(context.Context, string) ([]domain.Business, error) {
	return nil, nil
}
func (r *fakeRepo) ListGeographies(context.Context, bool) ([]domain.Geography, error) {
	return nil, nil
}
func (r *fakeRepo) UpdateGeographyCoords(context.Context, domain.Geography, domain.Coordinates) error {
	return nil
}
func (r *fakeRepo) MarkGeographyProcessed(context.Context, domain.Geography) error { return nil }

func listing(name string) fakeListing {
	return fakeListing{
		label:   name,
		address: name + " St 1",
		website: "https://" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".example",
		phone:   "+1 555 " + name,
		rating:  "4.5 stars",
		reviews: "(12)",
		url:     "https://www.google.com/maps/place/x/@40.7128,-74.0060,15z",
	}
}

func testEngine(sess *fakeSession, sink domain.Repository, cfg EngineConfig) *Engine {
	if cfg.FocusPause == 0 {
		cfg.FocusPause = time.Millisecond
	}
	return NewEngine(&fakeBrowser{sess: sess}, sink, cfg)
}

func TestScrapeCollectsAcrossScrolls(t *testing.T) {
	sess := &fakeSession{
		base:      []fakeListing{listing("A"), listing("B"), listing("C"), listing("D"), listing("E")},
		initial:   2,
		growPer:   2,
		endMarker: true,
	}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 5})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 5})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d results, want 5", len(got))
	}
	// extraction order is feed order
	if got[0].Name != "A" || got[4].Name != "E" {
		t.Fatalf("unexpected order: first=%q last=%q", got[0].Name, got[4].Name)
	}
	if got[0].ReviewsAverage != 4.5 || got[0].ReviewsCount != 12 {
		t.Fatalf("parsed fields wrong: %+v", got[0])
	}
	if got[0].Latitude == nil || *got[0].Latitude != 40.7128 {
		t.Fatalf("latitude not extracted: %+v", got[0].Latitude)
	}
	if !sess.closed {
		t.Fatal("session not closed")
	}
}

func TestScrapeClampsRequestedCount(t *testing.T) {
	var ls []fakeListing
	for _, n := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		ls = append(ls, listing(n))
	}
	sess := &fakeSession{base: ls}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 5})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 1000})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d results, want the ceiling of 5", len(got))
	}
}

func TestScrapeDefaultsToThreeListings(t *testing.T) {
	sess := &fakeSession{base: []fakeListing{listing("A"), listing("B"), listing("C"), listing("D")}}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza"})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want default of 3", len(got))
	}
}

func TestScrapeStopsAfterStallBound(t *testing.T) {
	sess := &fakeSession{base: []fakeListing{listing("A"), listing("B"), listing("C")}}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10, StallLimit: 2})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 5})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want the 3 that rendered", len(got))
	}
	if sess.scrolls != 2 {
		t.Fatalf("got %d scrolls, want 2 before giving up", sess.scrolls)
	}
}

func TestScrapeStopsAtEndMarker(t *testing.T) {
	sess := &fakeSession{
		base:      []fakeListing{listing("A"), listing("B")},
		endMarker: true,
	}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 5})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if sess.scrolls != 0 {
		t.Fatalf("scrolled %d times past an end marker", sess.scrolls)
	}
}

func TestScrapeRejectsDuplicateIdentities(t *testing.T) {
	dup := listing("A")
	dup.rating = "3.0 stars" // same identity, different noise
	sess := &fakeSession{
		base:      []fakeListing{listing("A"), dup, listing("B")},
		endMarker: true,
	}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 5})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2 after dedup", len(got))
	}
	if got[0].ReviewsAverage != 4.5 {
		t.Fatalf("first occurrence not kept: %+v", got[0])
	}
}

func TestScrapeBudgetReturnsPartial(t *testing.T) {
	var ls []fakeListing
	for i := 0; i < 50; i++ {
		ls = append(ls, listing(string(rune('A'+i))))
	}
	sess := &fakeSession{base: ls}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 50})

	// every clock read advances five seconds; the deadline read happens
	// first, then one read on loop entry and one per listing attempt
	now := time.Unix(0, 0)
	e.now = func() time.Time {
		t := now
		now = now.Add(5 * time.Second)
		return t
	}

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{
		Query: "pizza", NumListings: 50, Budget: 40 * time.Second,
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("got %d results, want 6 before the budget elapsed", len(got))
	}
}

func TestScrapeBudgetStopsScrolling(t *testing.T) {
	// One rendered listing, a feed that never grows, and no end marker:
	// once the budget elapses the driver must not keep issuing scroll
	// gestures toward the stall bound.
	sess := &fakeSession{base: []fakeListing{listing("A")}}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10})

	now := time.Unix(0, 0)
	e.now = func() time.Time {
		t := now
		now = now.Add(2 * time.Second)
		return t
	}

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{
		Query: "pizza", NumListings: 5, Budget: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want the 1 collected before exhaustion", len(got))
	}
	if sess.scrolls != 0 {
		t.Fatalf("driver performed %d scroll gestures after the budget elapsed, want 0", sess.scrolls)
	}
}

func TestPaginationStateNames(t *testing.T) {
	cases := map[paginationState]string{
		stateScanning:        "scanning",
		stateGrowing:         "growing",
		stateStalled:         "stalled",
		stateExhausted:       "exhausted",
		paginationState(420): "unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: got %q, want %q", int(state), got, want)
		}
	}
}

func TestScrapeSkipsUnfocusableListing(t *testing.T) {
	sess := &fakeSession{
		base:       []fakeListing{listing("A"), listing("B")},
		endMarker:  true,
		focusFails: 2, // exhausts retries for the first listing only
	}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10, FocusRetries: 2})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 5})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 1 || got[0].Name != "B" {
		t.Fatalf("got %+v, want only B", got)
	}
}

func TestScrapeDrawsEachGeographyOnce(t *testing.T) {
	geos := []domain.Geography{
		{City: "Austin", State: "TX"},
		{City: "Dallas", State: "TX"},
		{City: "Houston", State: "TX"},
	}
	sess := &fakeSession{
		byQuery: map[string][]fakeListing{
			"pizza in Austin, TX":  {listing("A")},
			"pizza in Dallas, TX":  {listing("B")},
			"pizza in Houston, TX": {listing("C")},
		},
		endMarker: true,
	}
	e := testEngine(sess, nil, EngineConfig{MaxListings: 10})

	got, err := e.Scrape(context.Background(), domain.ScrapeRequest{
		Query: "pizza", NumListings: 3, Geographies: geos,
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want one per geography", len(got))
	}
	if len(sess.queries) != 3 {
		t.Fatalf("ran %d sessions, want 3", len(sess.queries))
	}
	seen := map[string]bool{}
	for _, q := range sess.queries {
		if seen[q] {
			t.Fatalf("geography drawn twice: %q", q)
		}
		seen[q] = true
	}
}

func TestScrapePersistsThroughSink(t *testing.T) {
	sess := &fakeSession{base: []fakeListing{listing("A"), listing("B")}, endMarker: true}
	repo := &fakeRepo{}
	e := testEngine(sess, repo, EngineConfig{MaxListings: 10})

	if _, err := e.Scrape(context.Background(), domain.ScrapeRequest{Query: "pizza", NumListings: 2}); err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if len(repo.upserts["pizza"]) != 2 {
		t.Fatalf("sink got %d rows, want 2", len(repo.upserts["pizza"]))
	}
}
