package geocoder

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Zeecoworld/google-stuff/internal/adapters/observability"
	"github.com/Zeecoworld/google-stuff/internal/domain"
)

var (
	ErrNoMatch = errors.New("geocoder: no match")
	ErrBlocked = errors.New("geocoder: blocked")
)

// Client resolves city/state pairs against a Nominatim-compatible endpoint.
// Nominatim's usage policy caps anonymous clients at one request per second,
// so the limiter defaults accordingly.
type Client struct {
	base  string
	hc    *http.Client
	ua    string
	email string
	rl    *rate.Limiter
}

func New(base, ua, email string) (*Client, error) {
	if ua == "" {
		return nil, fmt.Errorf("a User-Agent is required")
	}
	return &Client{
		base:  strings.TrimRight(base, "?&"),
		hc:    &http.Client{Timeout: 20 * time.Second},
		ua:    ua,
		email: email,
		rl:    rate.NewLimiter(rate.Limit(1), 1),
	}, nil
}

func (c *Client) Geocode(ctx context.Context, city, state string) (domain.Coordinates, error) {
	q := city
	if state != "" {
		q = city + ", " + state
	}
	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", q)

	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := c.get(ctx, c.base+"?"+params.Encode(), &out); err != nil {
		return domain.Coordinates{}, err
	}
	if len(out) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%w: %s", ErrNoMatch, q)
	}
	lat, err := strconv.ParseFloat(out[0].Lat, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lat %q: %w", out[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(out[0].Lon, 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lon %q: %w", out[0].Lon, err)
	}
	return domain.Coordinates{Lat: lat, Lon: lon}, nil
}

// get performs a GET with client-side rate limiting, retries, and JSON
// decode into out. Retries on 429 and transient 5xx, honoring Retry-After.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "en")
		req.Header.Set("User-Agent", c.ua)
		if c.email != "" {
			req.Header.Set("From", c.email)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("geocoder", "search", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("%w: status %d (check GEOCODER_* settings)", ErrBlocked, resp.StatusCode)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay (200ms, 400ms, 800ms...)
// with up to +50% concurrency-safe jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
