package geocoder_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Zeecoworld/google-stuff/internal/adapters/geocoder"
)

func TestClient_Geocode_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			if got := r.URL.Query().Get("q"); got != "Austin, TX" {
				t.Errorf("unexpected query %q", got)
			}
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode([]map[string]any{{"lat": "30.2672", "lon": "-97.7431"}})
		}
	}))
	defer ts.Close()

	cl, err := geocoder.New(ts.URL, "mapscrape-test/1.0", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Geocode(ctx, "Austin", "TX")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Lat != 30.2672 || got.Lon != -97.7431 {
		t.Fatalf("unexpected coordinates: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Geocode_NoMatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	cl, err := geocoder.New(ts.URL, "mapscrape-test/1.0", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = cl.Geocode(ctx, "Nowhereville", "")
	if !errors.Is(err, geocoder.ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestNew_RequiresUserAgent(t *testing.T) {
	if _, err := geocoder.New("http://example.invalid", "", ""); err == nil {
		t.Fatalf("expected error for empty User-Agent")
	}
}
