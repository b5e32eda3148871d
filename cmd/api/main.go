package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"github.com/Zeecoworld/google-stuff/internal/adapters/browser"
	server "github.com/Zeecoworld/google-stuff/internal/adapters/http_server"
	"github.com/Zeecoworld/google-stuff/internal/adapters/observability"
	redisad "github.com/Zeecoworld/google-stuff/internal/adapters/redis"
	"github.com/Zeecoworld/google-stuff/internal/app"
	"github.com/Zeecoworld/google-stuff/internal/shared"
	mysqlrepo "github.com/Zeecoworld/google-stuff/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db backs the stored-results read path
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	drv := browser.New(browser.Config{UserAgent: cfg.UserAgent})
	engine := app.NewEngine(drv, nil, app.EngineConfig{
		MaxListings:   cfg.MaxListings,
		DefaultBudget: cfg.ScrapeBudget,
	})
	scrapeSvc := app.NewScrapeService(engine, cache, cfg.CacheTTL, cfg.MaxListings)
	querySvc := app.NewQueryService(repo, cache, cfg.CacheTTL)

	// http
	srv := server.New(cfg.RequestTimeout)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: scrapeSvc, Q: querySvc, DefaultHeadless: cfg.Headless})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
