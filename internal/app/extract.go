package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/adapters/observability"
	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// extractListing focuses the i-th rendered listing and reads its record.
// Field failures are contained: a field that cannot be read keeps its
// sentinel default. Only a focus failure skips the listing entirely.
func (e *Engine) extractListing(ctx context.Context, sess domain.BrowserSession, i int) (domain.Business, bool) {
	if err := e.focusListing(ctx, sess, i); err != nil {
		log.Warn().Int("listing", i).Err(err).Msg("listing skipped: focus failed")
		observability.ObserveEngine("listing_skipped")
		return domain.Business{}, false
	}

	b := domain.NewBusiness()

	if label, err := sess.ListingLabel(ctx, i); err == nil {
		b.Name = CleanName(label)
	} else {
		log.Debug().Int("listing", i).Err(err).Msg("name read failed")
	}

	if text, ok := e.detailField(ctx, sess, domain.FieldAddress); ok {
		b.Address = text
	}
	if text, ok := e.detailField(ctx, sess, domain.FieldWebsite); ok {
		b.Website = text
	}
	if text, ok := e.detailField(ctx, sess, domain.FieldPhone); ok {
		b.PhoneNumber = text
	}
	if text, ok := e.detailField(ctx, sess, domain.FieldRating); ok {
		b.ReviewsAverage = ParseRating(text)
	}
	if text, ok := e.detailField(ctx, sess, domain.FieldReviewCount); ok {
		b.ReviewsCount = ParseReviewCount(text)
	}

	// The view URL reflects the just-focused listing, not the results page.
	if url, err := sess.CurrentURL(ctx); err == nil {
		if lat, lon, ok := CoordinatesFromURL(url); ok {
			b.Latitude = &lat
			b.Longitude = &lon
		}
	} else {
		log.Debug().Int("listing", i).Err(err).Msg("url read failed")
	}

	observability.ObserveEngine("listing_extracted")
	return b, true
}

// detailField reads one panel field, mapping read errors and absent
// elements alike to "keep the default".
func (e *Engine) detailField(ctx context.Context, sess domain.BrowserSession, f domain.ListingField) (string, bool) {
	text, found, err := sess.DetailText(ctx, f)
	if err != nil {
		log.Debug().Str("field", string(f)).Err(err).Msg("field extraction failed")
		return "", false
	}
	text = strings.TrimSpace(text)
	if !found || text == "" {
		return "", false
	}
	return text, true
}

// focusListing clicks the listing, retrying up to the configured bound with
// a brief pause between attempts.
func (e *Engine) focusListing(ctx context.Context, sess domain.BrowserSession, i int) error {
	var last error
	for attempt := 0; attempt < e.cfg.FocusRetries; attempt++ {
		if err := sess.FocusListing(ctx, i); err != nil {
			last = err
			if !sleepCtx(ctx, e.cfg.FocusPause) {
				return ctx.Err()
			}
			continue
		}
		return nil
	}
	return last
}
