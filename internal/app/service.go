package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// ScrapeService fronts the engine with a cache-aside layer so repeat scrape
// requests within the TTL skip the browser entirely.
type ScrapeService struct {
	engine      domain.Engine
	cache       domain.Cache
	cacheTTL    time.Duration
	maxListings int
}

func NewScrapeService(e domain.Engine, c domain.Cache, ttl time.Duration, maxListings int) *ScrapeService {
	if maxListings <= 0 {
		maxListings = defaultMaxListings
	}
	return &ScrapeService{engine: e, cache: c, cacheTTL: ttl, maxListings: maxListings}
}

func (s *ScrapeService) Scrape(ctx context.Context, req domain.ScrapeRequest) (domain.ScrapeResult, error) {
	// Normalize the requested count before keying so a request above the
	// ceiling shares its cache entry with one asking for the ceiling.
	if req.NumListings <= 0 {
		req.NumListings = 3
	}
	if req.NumListings > s.maxListings {
		req.NumListings = s.maxListings
	}

	// Inline geography pools change the result set, so only bare-query
	// requests are cacheable.
	cacheable := s.cache != nil && len(req.Geographies) == 0
	key := scrapeCacheKey(req)

	if cacheable {
		var out domain.ScrapeResult
		if ok, _ := s.cache.Get(ctx, key, &out); ok {
			return out, nil
		}
	}

	results, err := s.engine.Scrape(ctx, req)
	if err != nil {
		return domain.ScrapeResult{}, err
	}

	out := domain.ScrapeResult{Results: results}
	if len(results) == 0 {
		// "Nothing found" is not a request failure.
		out.Message = "No results found"
		out.Results = []domain.Business{}
	} else {
		out.Message = fmt.Sprintf("Found %d results", len(results))
	}

	if cacheable && len(results) > 0 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func scrapeCacheKey(req domain.ScrapeRequest) string {
	return fmt.Sprintf("scrape:%s:%d", strings.ToLower(strings.TrimSpace(req.Query)), req.NumListings)
}

// QueryService serves persisted scrape results, cache-aside.
type QueryService struct {
	repo     domain.Repository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.Repository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetResults(ctx context.Context, query string) ([]domain.Business, error) {
	key := "results:" + strings.ToLower(strings.TrimSpace(query))
	var cached []domain.Business
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	bs, err := s.repo.ListBusinesses(ctx, query)
	if err != nil {
		return nil, err
	}

	// copy before caching so later mutations of the repo's slice can't leak
	out := make([]domain.Business, len(bs))
	copy(out, bs)

	// size guard
	if b, _ := json.Marshal(out); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}
