package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/yt-vantage/internal/config"
	httpapi "github.com/tbourn/yt-vantage/internal/http"
	"github.com/tbourn/yt-vantage/internal/http/handlers"
	"github.com/tbourn/yt-vantage/internal/jobs"
	"github.com/tbourn/yt-vantage/internal/repo"
	"github.com/tbourn/yt-vantage/internal/retry"
	"github.com/tbourn/yt-vantage/internal/services"
	"github.com/tbourn/yt-vantage/internal/sysutil"
	"github.com/tbourn/yt-vantage/internal/upstream"
	"github.com/tbourn/yt-vantage/internal/youtube"
)

// app holds the wired object graph shared by the subcommands.
type app struct {
	cfg    config.Config
	log    zerolog.Logger
	db     *gorm.DB
	store  *repo.Store
	pruner *jobs.Pruner
	engine *gin.Engine
}

// openStore loads the logger and database; it is enough for maintenance
// commands that never talk to the upstream API.
func openStore(cfg config.Config) (*app, error) {
	lg := sysutil.InitLogger(nil, cfg.LogLevel, cfg.LogPretty)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db %q: %w", cfg.DBPath, err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	store := repo.NewStore(db)
	pruner := jobs.NewPruner(store, cfg.Cache.MessageStateRetention)
	pruner.Interval = cfg.Cache.PruneInterval
	pruner.CacheTTL = cfg.Cache.PruneTTL

	return &app{cfg: cfg, log: lg, db: db, store: store, pruner: pruner}, nil
}

// buildServer wires the services around client and builds the HTTP engine.
func (a *app) buildServer(client upstream.Client) {
	cfg := a.cfg

	resolver := services.NewResolutionService(a.store, a.store, client)
	resolver.NegativeTTL = cfg.Cache.NegativeTTL
	resolver.StaleAfter = cfg.Cache.MappingStaleAfter

	fetcher := services.NewFetchService(a.store, client)
	fetcher.TTL = cfg.Cache.VideoTTL

	comparer := services.NewCompareService(resolver, fetcher, a.store)
	comparer.MaxNames = cfg.MaxCompareNames

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, handlers.Deps{
		Resolver:  resolver,
		Fetcher:   fetcher,
		Comparer:  comparer,
		States:    services.NewMessageStateService(a.store),
		Favorites: services.NewFavoritesService(a.store),
	}, cfg)
	a.engine = r
}

// newYouTube builds the production upstream client from cfg.
func newYouTube(ctx context.Context, cfg config.Config) (*youtube.Client, error) {
	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.Upstream.RetryMaxAttempts
	policy.InitialDelay = cfg.Upstream.RetryInitialDelay
	policy.Multiplier = cfg.Upstream.RetryBackoff

	return youtube.New(ctx, youtube.Config{
		APIKey:  cfg.Upstream.APIKey,
		Workers: cfg.Upstream.Workers,
		RPS:     cfg.Upstream.RPS,
		Burst:   cfg.Upstream.Burst,
		Retry:   policy,
	})
}

func (a *app) httpServer() *http.Server {
	return &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.engine,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}
}

func (a *app) close() {
	if a.pruner != nil {
		a.pruner.Stop()
	}
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("close db")
	}
}
