package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/adapters/observability"
	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// paginationState is the scroll driver's position in one results view.
type paginationState int

const (
	stateScanning paginationState = iota // processing currently-rendered listings
	stateGrowing                         // scrolled, waiting for new content
	stateStalled                         // scroll produced no new listings
	stateExhausted                       // terminal for this view
)

func (s paginationState) String() string {
	switch s {
	case stateScanning:
		return "scanning"
	case stateGrowing:
		return "growing"
	case stateStalled:
		return "stalled"
	case stateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// runSession opens one search surface for query and harvests it until the
// pagination driver exhausts the view. Every failure here is soft: logged,
// the session abandoned, control handed back to the orchestrator.
func (e *Engine) runSession(ctx context.Context, sess domain.BrowserSession, query string, target int, deadline time.Time, set *domain.ResultSet) {
	if err := sess.OpenSearch(ctx, query); err != nil {
		log.Warn().Str("query", query).Err(err).Msg("search session abandoned")
		observability.ObserveEngine("session_failed")
		return
	}
	n, err := sess.ListingCount(ctx)
	if err != nil {
		log.Warn().Str("query", query).Err(err).Msg("listing count failed")
		observability.ObserveEngine("session_failed")
		return
	}
	if n == 0 {
		// Same treatment as a render timeout: move on.
		log.Warn().Str("query", query).Msg("search rendered zero listings")
		observability.ObserveEngine("session_failed")
		return
	}
	log.Info().Str("query", query).Int("initial_listings", n).Msg("search session open")

	e.harvest(ctx, sess, target, deadline, set)
	observability.ObserveEngine("session_ok")
}

// harvest is the pagination/scroll state machine over one results view.
// The wall-clock budget is checked before every listing attempt; elapsing
// mid-scan returns immediately with whatever the set holds.
func (e *Engine) harvest(ctx context.Context, sess domain.BrowserSession, target int, deadline time.Time, set *domain.ResultSet) {
	processed := 0 // index of the first unattempted listing
	stalls := 0
	state := stateScanning

	for state != stateExhausted {
		if ctx.Err() != nil {
			return
		}
		if !e.withinBudget(deadline) {
			log.Warn().Int("collected", set.Len()).Msg("scrape budget elapsed, returning partial results")
			observability.ObserveEngine("budget_exhausted")
			return
		}

		switch state {
		case stateScanning:
			n, err := sess.ListingCount(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("listing count failed mid-scan")
				return
			}
			batch := 0
			for i := processed; i < n; i++ {
				if !e.withinBudget(deadline) {
					log.Warn().Int("collected", set.Len()).Msg("scrape budget elapsed, returning partial results")
					observability.ObserveEngine("budget_exhausted")
					return
				}
				if ctx.Err() != nil {
					return
				}
				if set.Len() >= target {
					state = stateExhausted
					break
				}
				if e.cfg.BatchCap > 0 && batch >= e.cfg.BatchCap {
					break
				}
				processed++
				batch++

				b, ok := e.extractListing(ctx, sess, i)
				if !ok {
					continue
				}
				if set.Add(b) {
					log.Info().Str("name", b.Name).Int("collected", set.Len()).Msg("listing added")
				} else {
					log.Debug().Str("name", b.Name).Msg("duplicate listing rejected")
					observability.ObserveEngine("duplicate")
				}
			}
			if state == stateExhausted || set.Len() >= target {
				state = stateExhausted
				break
			}
			if end, eerr := sess.EndOfResults(ctx); eerr == nil && end {
				log.Debug().Msg("end-of-list marker visible")
				state = stateExhausted
				break
			}
			state = stateGrowing

		case stateGrowing:
			before, err := sess.ListingCount(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("listing count failed before scroll")
				return
			}
			if err := sess.ScrollResults(ctx); err != nil {
				log.Warn().Err(err).Msg("scroll gesture failed")
				return
			}
			after, err := sess.ListingCount(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("listing count failed after scroll")
				return
			}
			if after != before {
				stalls = 0
				state = stateScanning
			} else {
				stalls++
				observability.ObserveEngine("stall")
				state = stateStalled
				log.Debug().Stringer("state", state).Int("stalls", stalls).Msg("results feed did not grow")
			}

		case stateStalled:
			if stalls >= e.cfg.StallLimit {
				log.Debug().Int("stalls", stalls).Msg("stall bound exceeded")
				state = stateExhausted
			} else {
				state = stateGrowing
			}
		}
	}
}
