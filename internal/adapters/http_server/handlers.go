package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/app"
	"github.com/Zeecoworld/google-stuff/internal/domain"
)

type Handlers struct {
	S *app.ScrapeService
	Q *app.QueryService // nil when no store is wired

	DefaultHeadless bool
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/api/scrape", h.scrape)
	if h.Q != nil {
		s.mux.Get("/api/results", h.results)
	}
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

type scrapeBody struct {
	Query       string             `json:"query"`
	NumListings int                `json:"num_listings"`
	Headless    *bool              `json:"headless"`
	Geographies []domain.Geography `json:"geographies"`
}

func (h *Handlers) scrape(w http.ResponseWriter, r *http.Request) {
	var body scrapeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "request body must be a JSON object")
		return
	}
	query := strings.TrimSpace(body.Query)
	if query == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Query", "missing 'query' parameter")
		return
	}

	n := body.NumListings
	if n <= 0 {
		n = 3
	}
	headless := h.DefaultHeadless
	if body.Headless != nil {
		headless = *body.Headless
	}

	req := domain.ScrapeRequest{
		Query:       query,
		NumListings: n, // clamped to the configured ceiling in the service
		Headless:    headless,
		Geographies: body.Geographies,
	}
	log.Info().Str("query", query).Int("num_listings", n).Msg("scrape requested")

	out, err := h.S.Scrape(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("scrape failed")
		writeProblem(w, http.StatusInternalServerError, "Scrape Failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) results(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeProblem(w, http.StatusBadRequest, "Missing Query", "missing 'query' parameter")
		return
	}

	bs, err := h.Q.GetResults(r.Context(), query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("results lookup failed")
		writeProblem(w, http.StatusInternalServerError, "Lookup Failed", "could not load stored results")
		return
	}
	if bs == nil {
		bs = []domain.Business{}
	}
	writeJSON(w, http.StatusOK, domain.ScrapeResult{
		Message: messageFor(len(bs)),
		Results: bs,
	})
}

func messageFor(n int) string {
	if n == 0 {
		return "No results found"
	}
	return fmt.Sprintf("Found %d results", n)
}
