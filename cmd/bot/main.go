// Package main is the entry point for the Groovy Hub bot.
//
// Groovy Hub tracks the Beetle Adventure Racing individual-level
// leaderboards on speedrun.com: it periodically polls every track in
// both per-level categories, announces new runs and point-ranking
// changes to Discord, and answers slash commands about runs, world
// records, and the rankings table.
//
// The layout follows Clean Architecture:
//   - Domain: runs, snapshots, scoring, rankings (no external deps)
//   - Application: read-side query handlers
//   - Infrastructure: postgres, redis, speedrun.com and Discord clients,
//     the scheduler and its poll job
//   - Interface: HTTP server with the Discord interactions webhook
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/groovy-hub/groovy-hub/config"
	"github.com/groovy-hub/groovy-hub/internal/application/query"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/external/discord"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/external/srcom"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/persistence/postgres"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/persistence/redis"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/scheduler"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/scheduler/jobs"
	"github.com/groovy-hub/groovy-hub/internal/infrastructure/service"
	httpserver "github.com/groovy-hub/groovy-hub/internal/interface/http"
	"github.com/groovy-hub/groovy-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Groovy Hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
		"game", cfg.Srcom.GameName,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var standingsCache *redis.StandingsCache
	var redisCache *redis.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
		} else {
			defer redisCache.Close()
			standingsCache = redis.NewStandingsCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	runRepo := postgres.NewRunRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing external clients...")

	srcomConfig := srcom.DefaultClientConfig(cfg.Srcom.GameName)
	srcomConfig.BaseURL = cfg.Srcom.BaseURL
	srcomConfig.Timeout = cfg.Srcom.RequestTimeout
	srcomConfig.RateLimiterConfig.RequestsPerSecond = cfg.Srcom.RateLimit
	srcomConfig.RateLimiterConfig.BurstSize = cfg.Srcom.RateLimitBurst
	srcomConfig.RetryConfig.MaxRetries = cfg.Srcom.MaxRetries
	srcomConfig.RetryConfig.InitialBackoff = cfg.Srcom.RetryBaseDelay
	srcomConfig.RetryConfig.MaxBackoff = cfg.Srcom.RetryMaxDelay
	srcomConfig.Logger = log
	srcomConfig.Debug = cfg.App.Debug
	srcomClient := srcom.NewClient(srcomConfig)

	discordConfig := discord.DefaultClientConfig(cfg.Discord.BotToken)
	discordConfig.Timeout = cfg.Discord.RequestTimeout
	discordConfig.RetryAttempts = cfg.Discord.MaxRetries
	discordConfig.RetryDelay = cfg.Discord.RetryBaseDelay
	discordConfig.Logger = log
	discordConfig.Debug = cfg.App.Debug
	discordClient := discord.NewClient(discordConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. NOTIFICATION SERVICE
	// ─────────────────────────────────────────────────────────────────────────
	notifier := service.NewNotificationService(discordClient, cfg.Discord.AnnounceChannels, log)
	if len(cfg.Discord.AnnounceChannels) == 0 {
		log.Warn("no announce channels configured, announcements are disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. QUERY HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	playerRunQuery := query.NewGetPlayerRunHandler(runRepo, standingsCache)
	longestStandingQuery := query.NewGetLongestStandingHandler(runRepo)
	pointRankingsQuery := query.NewGetPointRankingsHandler(runRepo, standingsCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SCHEDULER & POLL JOB
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	sched := scheduler.NewScheduler(schedConfig)

	pollConfig := jobs.DefaultPollLeaderboardsConfig()
	pollConfig.Timeout = cfg.Scheduler.JobTimeout
	pollConfig.AnnounceOnBootstrap = cfg.Scheduler.AnnounceOnBootstrap
	pollJob := jobs.NewPollLeaderboardsJob(srcomClient, runRepo, notifier, standingsCache, log, pollConfig)

	if cfg.Scheduler.Enabled {
		schedule := scheduler.NewIntervalSchedule(cfg.Scheduler.PollInterval)
		if err := sched.Register(pollJob, schedule); err != nil {
			return fmt.Errorf("failed to register poll job: %w", err)
		}
	} else {
		log.Warn("scheduler disabled, leaderboards will not be polled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	var srv *httpserver.Server
	if cfg.HTTP.Enabled {
		httpConfig := httpserver.DefaultConfig()
		httpConfig.Host = cfg.HTTP.Host
		httpConfig.Port = cfg.HTTP.Port
		httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
		httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
		httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
		httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
		httpConfig.InteractionsPublicKey = cfg.Discord.PublicKey

		httpDeps := httpserver.Dependencies{
			GetPlayerRunHandler:       playerRunQuery,
			GetLongestStandingHandler: longestStandingQuery,
			GetPointRankingsHandler:   pointRankingsQuery,
			Logger:                    logger.Default(),
			HealthChecker: &healthChecker{
				db:      dbConn,
				cache:   redisCache,
				srcom:   srcomClient,
				discord: discordClient,
			},
		}

		srv, err = httpserver.NewServer(httpConfig, httpDeps)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. START SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 2)

	if cfg.Scheduler.Enabled {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	if srv != nil {
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server error: %w", err)
			}
		}()
	}

	log.Info("Groovy Hub is running",
		"poll_interval", cfg.Scheduler.PollInterval.String(),
		"http_enabled", cfg.HTTP.Enabled,
		"announce_channels", len(cfg.Discord.AnnounceChannels),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	// Stop polling first so no cycle commits mid-shutdown.
	if cfg.Scheduler.Enabled {
		log.Info("stopping scheduler...")
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Error("failed to stop scheduler gracefully", "error", err)
			shutdownErr = err
		}
	}

	if srv != nil {
		log.Info("stopping HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop HTTP server gracefully", "error", err)
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging: JSON in production for log
// aggregators, text in development for readability.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.IsProduction() || cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker reports health of all backing services for /health.
type healthChecker struct {
	db      *postgres.Connection
	cache   *redis.Cache
	srcom   *srcom.Client
	discord *discord.Client
}

func (h *healthChecker) CheckHealth(ctx context.Context) map[string]string {
	checks := make(map[string]string)

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = "unhealthy"
	} else {
		checks["postgres"] = "healthy"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["redis"] = "unhealthy"
		} else {
			checks["redis"] = "healthy"
		}
	}

	if h.srcom.IsHealthy(ctx) {
		checks["speedrun.com"] = "healthy"
	} else {
		checks["speedrun.com"] = "unhealthy"
	}

	if h.discord.IsHealthy(ctx) {
		checks["discord"] = "healthy"
	} else {
		checks["discord"] = "unhealthy"
	}

	return checks
}
