package app

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Zeecoworld/google-stuff/internal/domain"
)

// Pure text parsers for values lifted out of the rendered page. All of them
// are total: malformed input yields the zero/sentinel value, never an error.

var (
	numberTokenRegex = regexp.MustCompile(`(\d+\.\d+|\d+)`)
	intTokenRegex    = regexp.MustCompile(`\d+`)
)

// visitedSuffix is the accessibility annotation the map UI appends to
// already-visited listing links.
const visitedSuffix = " · Visited link"

// CoordinatesFromURL extracts the trailing "@lat,lon" segment from a
// map-view URL. ok is false on any malformed structure, and then both
// coordinates are unset together.
func CoordinatesFromURL(url string) (lat, lon float64, ok bool) {
	idx := strings.LastIndex(url, "/@")
	if idx < 0 {
		return 0, 0, false
	}
	seg := url[idx+2:]
	if end := strings.IndexByte(seg, '/'); end >= 0 {
		seg = seg[:end]
	}
	parts := strings.Split(seg, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// ParseRating pulls the first numeric token out of a localized "N stars"
// label. Comma decimal separators are normalized to dots first.
func ParseRating(label string) float64 {
	s := strings.ReplaceAll(label, ",", ".")
	tok := numberTokenRegex.FindString(s)
	if tok == "" {
		return 0
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseReviewCount pulls the first integer token out of an "N reviews"
// string, tolerating thousands separators.
func ParseReviewCount(text string) int {
	s := strings.ReplaceAll(text, ",", "")
	tok := intTokenRegex.FindString(s)
	if tok == "" {
		return 0
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0
	}
	return n
}

// CleanName strips the visited-link annotation and surrounding whitespace
// from a raw listing label. Empty input yields the Unknown sentinel.
func CleanName(raw string) string {
	s := strings.TrimSpace(strings.ReplaceAll(raw, visitedSuffix, ""))
	if s == "" {
		return domain.UnknownName
	}
	return s
}
