package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	// Scrape engine
	MaxListings    int           // server-side ceiling for num_listings
	ScrapeBudget   time.Duration // cooperative wall-clock budget per scrape
	RequestTimeout time.Duration // hard watchdog on the HTTP route
	Headless       bool
	UserAgent      string

	// Batch scraper
	BatchWorkers int
	BatchQueries []string

	// Outbound collaborators
	GeocoderBase  string
	GeocoderUA    string
	GeocoderEmail string
	EnrichPages   int
}

func Load() Config {
	_ = godotenv.Load()

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	abool := func(k string, def bool) bool {
		if v := os.Getenv(k); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				return b
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/mapscrape?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,

		MaxListings:    atoi("MAX_LISTINGS", 5),
		ScrapeBudget:   time.Duration(atoi("SCRAPE_BUDGET_SECONDS", 55)) * time.Second,
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		Headless:       abool("HEADLESS", true),
		UserAgent: env("USER_AGENT",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"),

		BatchWorkers: atoi("BATCH_WORKERS", 2),
		BatchQueries: splitList(env("BATCH_QUERIES", "")),

		GeocoderBase:  env("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUA:    env("GEOCODER_USER_AGENT", "mapscrape/1.0"),
		GeocoderEmail: env("GEOCODER_EMAIL", ""),
		EnrichPages:   atoi("ENRICH_MAX_PAGES", 6),
	}
	if c.ScrapeBudget >= c.RequestTimeout {
		log.Warn().
			Dur("budget", c.ScrapeBudget).
			Dur("request_timeout", c.RequestTimeout).
			Msg("scrape budget should stay below the request timeout")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
