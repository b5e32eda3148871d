package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/miekg/dns"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxPages  = 6
	maxResponseBytes = 2 * 1024 * 1024
)

var (
	emailRegex = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

	// anchor texts worth following when the landing page has no email
	keywordAnchors = []string{
		"contact",
		"about",
		"team",
		"impressum",
		"kontakt",
	}
)

// Finder crawls a listing's website, bounded to a handful of same-host
// pages, hunting for a contact email whose domain accepts mail.
type Finder struct {
	hc        *http.Client
	ua        string
	maxPages  int
	resolvers []string
	checkMX   func(domain string) bool
}

func New(ua string, maxPages int, timeout time.Duration) *Finder {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	f := &Finder{
		hc:        &http.Client{Timeout: timeout},
		ua:        ua,
		maxPages:  maxPages,
		resolvers: []string{"8.8.8.8:53", "1.1.1.1:53"},
	}
	f.checkMX = f.hasMX
	return f
}

// FindEmail breadth-first crawls from website and returns the first email
// whose domain has MX records, or "" when none is found within the page
// budget. Fetch failures on individual pages are soft.
func (f *Finder) FindEmail(ctx context.Context, website string) (string, error) {
	start := ensureScheme(strings.TrimSpace(website))
	base, err := url.Parse(start)
	if err != nil || base.Host == "" {
		return "", fmt.Errorf("invalid website URL %q", website)
	}

	queue := []string{start}
	visited := make(map[string]struct{})
	pages := 0

	for len(queue) > 0 && pages < f.maxPages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		current := queue[0]
		queue = queue[1:]
		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		email, links, err := f.scanPage(ctx, current, base)
		if err != nil {
			log.Debug().Str("url", current).Err(err).Msg("page scan failed")
			continue
		}
		pages++
		if email != "" && f.checkMX(emailDomain(email)) {
			return email, nil
		}
		queue = append(queue, links...)
	}

	return "", nil
}

// scanPage fetches one page, returning any email found plus same-host links
// behind the keyword anchors.
func (f *Finder) scanPage(ctx context.Context, pageURL string, root *url.URL) (string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.hc.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("website %s responded with status %d", pageURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	if err != nil {
		return "", nil, err
	}

	// mailto links first, then anything email-shaped in the markup
	email := ""
	doc.Find(`a[href^="mailto:"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok {
			if m := emailRegex.FindString(href); m != "" {
				email = m
				return false
			}
		}
		return true
	})
	if email == "" {
		email = emailRegex.FindString(string(raw))
	}
	email = strings.ToLower(email)

	// Collect follow-up links even when an email was found; the caller may
	// reject it and continue the crawl.
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if !anchorMatches(text) {
			return
		}
		href, _ := s.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := root.ResolveReference(u)
		if abs.Host != root.Host {
			return
		}
		abs.Fragment = ""
		links = append(links, abs.String())
	})
	return email, links, nil
}

// hasMX reports whether the domain publishes MX records, asking public
// resolvers directly so the host's stub resolver config doesn't matter.
func (f *Finder) hasMX(domain string) bool {
	if domain == "" {
		return false
	}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), dns.TypeMX)
	c := new(dns.Client)
	c.Timeout = 5 * time.Second

	for _, resolver := range f.resolvers {
		resp, _, err := c.Exchange(m, resolver)
		if err != nil {
			continue
		}
		if resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0 {
			return true
		}
	}
	return false
}

func anchorMatches(text string) bool {
	for _, kw := range keywordAnchors {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 && i < len(email)-1 {
		return email[i+1:]
	}
	return ""
}

func ensureScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}
