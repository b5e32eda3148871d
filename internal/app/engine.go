package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// EngineConfig tunes one scrape engine. Zero values fall back to the
// defaults below.
type EngineConfig struct {
	MaxListings   int           // server-side ceiling on the requested count
	DefaultBudget time.Duration // wall-clock budget when the request has none
	FocusRetries  int           // attempts to open a listing before skipping it
	FocusPause    time.Duration // pause between focus attempts
	StallLimit    int           // consecutive no-growth scrolls before giving up
	BatchCap      int           // listings attempted per scan pass; 0 = unbounded
}

const (
	defaultMaxListings  = 5
	defaultBudget       = 55 * time.Second
	defaultFocusRetries = 5
	defaultFocusPause   = 300 * time.Millisecond
	defaultStallLimit   = 10
)

func (c EngineConfig) withDefaults() EngineConfig {
	if c.MaxListings <= 0 {
		c.MaxListings = defaultMaxListings
	}
	if c.DefaultBudget <= 0 {
		c.DefaultBudget = defaultBudget
	}
	if c.FocusRetries <= 0 {
		c.FocusRetries = defaultFocusRetries
	}
	if c.FocusPause <= 0 {
		c.FocusPause = defaultFocusPause
	}
	if c.StallLimit <= 0 {
		c.StallLimit = defaultStallLimit
	}
	return c
}

// Engine drives one headless-browser session per invocation through search,
// scrolling, per-listing extraction and deduplication. It is the single
// configurable implementation behind domain.Engine; geography iteration,
// persistence and batch capping are options, not variants.
type Engine struct {
	browser domain.Browser
	sink    domain.Repository // optional; nil disables persistence
	cfg     EngineConfig
	now     func() time.Time
}

// NewEngine builds an engine. sink may be nil when results should only be
// returned to the caller.
func NewEngine(b domain.Browser, sink domain.Repository, cfg EngineConfig) *Engine {
	return &Engine{browser: b, sink: sink, cfg: cfg.withDefaults(), now: time.Now}
}

// Scrape runs one bounded scrape. The budget is cooperative: it is checked
// before every listing attempt and between sessions, and exhaustion returns
// whatever was collected so far.
func (e *Engine) Scrape(ctx context.Context, req domain.ScrapeRequest) ([]domain.Business, error) {
	target := req.NumListings
	if target <= 0 {
		target = 3
	}
	if target > e.cfg.MaxListings {
		target = e.cfg.MaxListings
	}
	budget := req.Budget
	if budget <= 0 {
		budget = e.cfg.DefaultBudget
	}
	deadline := e.now().Add(budget)

	sess, err := e.browser.NewSession(ctx, req.Headless)
	if err != nil {
		return nil, fmt.Errorf("start browser session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("browser session close failed")
		}
	}()

	set := domain.NewResultSet()

	if len(req.Geographies) == 0 {
		e.runSession(ctx, sess, req.Query, target, deadline, set)
	} else {
		// Draw geographies randomly without replacement until the target is
		// met, the pool runs dry, or the budget elapses.
		pool := append([]domain.Geography(nil), req.Geographies...)
		for len(pool) > 0 && set.Len() < target && e.withinBudget(deadline) && ctx.Err() == nil {
			i := rand.Intn(len(pool))
			g := pool[i]
			pool = append(pool[:i], pool[i+1:]...)
			q := fmt.Sprintf("%s in %s, %s", req.Query, g.City, g.State)
			e.runSession(ctx, sess, q, target, deadline, set)
		}
	}

	items := set.Items()
	if e.sink != nil && len(items) > 0 {
		if err := e.sink.UpsertBusinesses(ctx, req.Query, items); err != nil {
			log.Warn().Err(err).Str("query", req.Query).Msg("persist scrape results failed")
		}
	}
	log.Info().Str("query", req.Query).Int("collected", len(items)).Int("target", target).Msg("scrape finished")
	return items, nil
}

func (e *Engine) withinBudget(deadline time.Time) bool {
	return e.now().Before(deadline)
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
