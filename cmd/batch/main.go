package main

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/Zeecoworld/google-stuff/internal/adapters/browser"
	"github.com/Zeecoworld/google-stuff/internal/adapters/enrich"
	"github.com/Zeecoworld/google-stuff/internal/adapters/geocoder"
	"github.com/Zeecoworld/google-stuff/internal/adapters/observability"
	"github.com/Zeecoworld/google-stuff/internal/app"
	"github.com/Zeecoworld/google-stuff/internal/domain"
	"github.com/Zeecoworld/google-stuff/internal/shared"
	mysqlrepo "github.com/Zeecoworld/google-stuff/internal/storage/mysql"
)

// The batch scraper walks the configured query list with a bounded worker
// pool. Each worker runs a full scrape (drawing from the unprocessed
// geography pool when one exists), enriches the hits that expose a real
// website with a contact email, and persists everything through the
// repository sink.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.Serve()

	if len(cfg.BatchQueries) == 0 {
		log.Fatal().Msg("BATCH_QUERIES is required")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)

	geos, err := repo.ListGeographies(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("loading geography pool failed")
	}
	if len(geos) == 0 {
		log.Warn().Msg("no unprocessed geographies; running bare-query sessions")
	}

	if len(geos) > 0 {
		gc, err := geocoder.New(cfg.GeocoderBase, cfg.GeocoderUA, cfg.GeocoderEmail)
		if err != nil {
			log.Warn().Err(err).Msg("geocoder unavailable; skipping coordinate backfill")
		} else {
			resolveCoordinates(ctx, gc, repo, geos)
		}
	}

	finder := enrich.New(cfg.UserAgent, cfg.EnrichPages, 0)
	drv := browser.New(browser.Config{UserAgent: cfg.UserAgent})
	engine := app.NewEngine(drv, repo, app.EngineConfig{
		MaxListings:   cfg.MaxListings,
		DefaultBudget: cfg.ScrapeBudget,
	})

	sem := semaphore.NewWeighted(int64(cfg.BatchWorkers))
	var wg sync.WaitGroup
	var failures atomic.Int64

	for _, q := range cfg.BatchQueries {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Error().Err(err).Msg("semaphore acquire failed")
			failures.Add(1)
			break
		}
		wg.Add(1)
		go func(query string) {
			defer wg.Done()
			defer sem.Release(1)
			if err := runQuery(ctx, cfg, engine, finder, repo, query, geos); err != nil {
				log.Error().Err(err).Str("query", query).Msg("scrape failed")
				failures.Add(1)
			}
		}(q)
	}
	wg.Wait()

	// A failed or aborted run leaves the pool unprocessed so the next run
	// retries the same geographies.
	if n := failures.Load(); n > 0 {
		log.Warn().Int64("failures", n).Msg("batch run incomplete; geography pool left unprocessed")
	} else {
		for _, g := range geos {
			if err := repo.MarkGeographyProcessed(ctx, g); err != nil {
				log.Error().Err(err).Str("city", g.City).Msg("marking geography processed failed")
			}
		}
	}
	log.Info().Int("queries", len(cfg.BatchQueries)).Int("geographies", len(geos)).Msg("batch run complete")
}

// resolveCoordinates backfills stored coordinates for the geography pool
// via Nominatim. Failures are logged and skipped; the scrape itself only
// needs city and state.
func resolveCoordinates(ctx context.Context, gc domain.Geocoder, repo domain.Repository, geos []domain.Geography) {
	for _, g := range geos {
		c, err := gc.Geocode(ctx, g.City, g.State)
		if err != nil {
			log.Warn().Err(err).Str("city", g.City).Str("state", g.State).Msg("geocode failed")
			continue
		}
		if err := repo.UpdateGeographyCoords(ctx, g, c); err != nil {
			log.Error().Err(err).Str("city", g.City).Msg("storing coordinates failed")
		}
	}
}

func runQuery(ctx context.Context, cfg shared.Config, engine domain.Engine, finder domain.EmailFinder, repo domain.Repository, query string, geos []domain.Geography) error {
	results, err := engine.Scrape(ctx, domain.ScrapeRequest{
		Query:       query,
		NumListings: cfg.MaxListings,
		Headless:    cfg.Headless,
		Geographies: geos,
	})
	if err != nil {
		return err
	}

	enriched := 0
	for i := range results {
		if results[i].Website == domain.NoWebsite {
			continue
		}
		email, err := finder.FindEmail(ctx, results[i].Website)
		if err != nil || email == "" {
			continue
		}
		results[i].Email = email
		enriched++
	}
	if enriched > 0 {
		if err := repo.UpsertBusinesses(ctx, query, results); err != nil {
			log.Error().Err(err).Str("query", query).Msg("persisting enriched results failed")
		}
	}
	log.Info().Str("query", query).Int("results", len(results)).Int("enriched", enriched).Msg("query done")
	return nil
}
