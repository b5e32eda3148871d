package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// Per-interaction timeouts. Each blocking browser call gets its own bound,
// all below the scrape budget, so a single stuck interaction cannot starve
// the engine's deadline check.
const (
	startTimeout    = 20 * time.Second
	navigateTimeout = 45 * time.Second
	renderTimeout   = 50 * time.Second
	interactTimeout = 10 * time.Second
	scrollSettle    = 1500 * time.Millisecond
	focusSettle     = 800 * time.Millisecond
)

type Config struct {
	UserAgent string
}

// Driver launches Chrome sessions over the DevTools protocol.
type Driver struct{ cfg Config }

func New(cfg Config) *Driver { return &Driver{cfg: cfg} }

// NewSession starts one browser with one tab. The session is exclusively
// owned by its caller and must be closed on every exit path.
func (d *Driver) NewSession(ctx context.Context, headless bool) (domain.BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("mute-audio", true),
		chromedp.UserAgent(d.cfg.UserAgent),
		chromedp.WindowSize(800, 600),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	s := &session{
		tab: tab,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}
	// Start the browser now so launch failures surface here, not on the
	// first navigation.
	if err := s.run(ctx, startTimeout); err != nil {
		s.cancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	return s, nil
}

type session struct {
	tab    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab under its own timeout, aborting early if
// the caller's context is done first.
func (s *session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (s *session) OpenSearch(ctx context.Context, query string) error {
	if err := s.run(ctx, navigateTimeout,
		chromedp.Navigate(mapsHomeURL),
		chromedp.Evaluate(consentScript, nil),
		chromedp.WaitVisible(searchBoxSelector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("open search surface: %w", err)
	}
	if err := s.run(ctx, interactTimeout,
		chromedp.SetValue(searchBoxSelector, "", chromedp.ByQuery),
		chromedp.SendKeys(searchBoxSelector, query+kb.Enter, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("submit query: %w", err)
	}
	if err := s.run(ctx, renderTimeout,
		chromedp.WaitVisible(listingLinkSelector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("wait for listings: %w", err)
	}
	return nil
}

func (s *session) ListingCount(ctx context.Context) (int, error) {
	var n int
	if err := s.run(ctx, interactTimeout, chromedp.Evaluate(countScript, &n)); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

func (s *session) FocusListing(ctx context.Context, i int) error {
	var clicked bool
	if err := s.run(ctx, interactTimeout,
		chromedp.Evaluate(clickListingScript(i), &clicked),
		chromedp.Sleep(focusSettle),
	); err != nil {
		return fmt.Errorf("click listing %d: %w", i, err)
	}
	if !clicked {
		return fmt.Errorf("listing %d not present", i)
	}
	return nil
}

func (s *session) ListingLabel(ctx context.Context, i int) (string, error) {
	var label string
	if err := s.run(ctx, interactTimeout, chromedp.Evaluate(labelScript(i), &label)); err != nil {
		return "", fmt.Errorf("read listing %d label: %w", i, err)
	}
	return label, nil
}

func (s *session) DetailText(ctx context.Context, field domain.ListingField) (string, bool, error) {
	var script string
	switch field {
	case domain.FieldAddress:
		script = textFieldScript(addressSelector)
	case domain.FieldWebsite:
		script = textFieldScript(websiteSelector)
	case domain.FieldPhone:
		script = textFieldScript(phoneSelector)
	case domain.FieldRating:
		script = ratingScript
	case domain.FieldReviewCount:
		script = reviewCountScript
	default:
		return "", false, fmt.Errorf("unknown listing field %q", field)
	}

	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	if err := s.run(ctx, interactTimeout, chromedp.Evaluate(script, &res)); err != nil {
		return "", false, fmt.Errorf("read %s: %w", field, err)
	}
	return res.Text, res.Found, nil
}

func (s *session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, interactTimeout, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return u, nil
}

func (s *session) ScrollResults(ctx context.Context) error {
	if err := s.run(ctx, interactTimeout,
		chromedp.Evaluate(scrollScript, nil),
		chromedp.Sleep(scrollSettle),
	); err != nil {
		return fmt.Errorf("scroll results feed: %w", err)
	}
	return nil
}

func (s *session) EndOfResults(ctx context.Context) (bool, error) {
	var end bool
	if err := s.run(ctx, interactTimeout, chromedp.Evaluate(endOfListScript, &end)); err != nil {
		return false, fmt.Errorf("probe end of list: %w", err)
	}
	return end, nil
}

func (s *session) Close() error {
	s.cancel()
	log.Debug().Msg("browser session closed")
	return nil
}
