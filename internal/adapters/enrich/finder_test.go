package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestFinder(validDomains map[string]bool) *Finder {
	f := New("mapscrape-test/1.0", 4, 2*time.Second)
	f.checkMX = func(domain string) bool { return validDomains[domain] }
	return f
}

func TestFindEmail_OnLandingPage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<p>Reach us at <a href="mailto:info@joespizza.com">info@joespizza.com</a></p>
		</body></html>`))
	}))
	defer ts.Close()

	f := newTestFinder(map[string]bool{"joespizza.com": true})
	email, err := f.FindEmail(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if email != "info@joespizza.com" {
		t.Fatalf("unexpected email %q", email)
	}
}

func TestFindEmail_FollowsContactAnchor(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/contact">Contact us</a></body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>office@clinic.example</body></html>`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newTestFinder(map[string]bool{"clinic.example": true})
	email, err := f.FindEmail(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if email != "office@clinic.example" {
		t.Fatalf("unexpected email %q", email)
	}
}

func TestFindEmail_ContinuesPastDeadEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<p>ghost@dead.example</p>
			<a href="/contact">Contact</a>
		</body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>office@clinic.example</body></html>`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	f := newTestFinder(map[string]bool{"clinic.example": true})
	email, err := f.FindEmail(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if email != "office@clinic.example" {
		t.Fatalf("unexpected email %q", email)
	}
}

func TestFindEmail_RejectsDomainWithoutMX(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>ghost@dead.example</body></html>`))
	}))
	defer ts.Close()

	f := newTestFinder(map[string]bool{}) // nothing resolves
	email, err := f.FindEmail(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if email != "" {
		t.Fatalf("expected no email, got %q", email)
	}
}

func TestFindEmail_InvalidURL(t *testing.T) {
	f := newTestFinder(nil)
	if _, err := f.FindEmail(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for blank website")
	}
}

func TestEmailDomain(t *testing.T) {
	if d := emailDomain("a@b.example"); d != "b.example" {
		t.Fatalf("got %q", d)
	}
	if d := emailDomain("not-an-email"); d != "" {
		t.Fatalf("got %q", d)
	}
}
