// Command server runs the progress engine: REST API, background cache
// warmup, and the in-process event bus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/promptcraft/progress-engine/config"
	"github.com/promptcraft/progress-engine/internal/application/command"
	"github.com/promptcraft/progress-engine/internal/application/eventhandler"
	"github.com/promptcraft/progress-engine/internal/application/query"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/internal/infrastructure/external/oracle"
	"github.com/promptcraft/progress-engine/internal/infrastructure/messaging"
	"github.com/promptcraft/progress-engine/internal/infrastructure/persistence/postgres"
	"github.com/promptcraft/progress-engine/internal/infrastructure/persistence/redis"
	"github.com/promptcraft/progress-engine/internal/infrastructure/scheduler"
	httpapi "github.com/promptcraft/progress-engine/internal/interface/http"
	"github.com/promptcraft/progress-engine/pkg/circuitbreaker"
	"github.com/promptcraft/progress-engine/pkg/logger"
	"github.com/promptcraft/progress-engine/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Log.Level)})
	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Storage
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := connectPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer conn.Close()

	if cfg.Database.RunMigrations {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	var boardCache *redis.LeaderboardCache
	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(ctx, redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer cache.Close()
		boardCache = redis.NewLeaderboardCache(cache)
	} else {
		log.Warn("redis disabled, leaderboards served from postgres only")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Repositories and services
	// ─────────────────────────────────────────────────────────────────────────
	ledgerRepo := postgres.NewLedgerRepository(conn)
	statsRepo := postgres.NewStatsRepository(conn)
	boardRepo := postgres.NewLeaderboardRepository(conn)
	achievementRepo := postgres.NewAchievementRepository(conn)
	contentRepo := postgres.NewContentRepository(conn)
	submissionStore := postgres.NewSubmissionStore(conn, ledgerRepo, statsRepo, boardRepo, achievementRepo)

	scoreOracle := oracle.NewClient(oracle.ClientConfig{
		BaseURL: cfg.Oracle.BaseURL,
		APIKey:  cfg.Oracle.APIKey,
		Timeout: cfg.Oracle.RequestTimeout,
		RetryConfig: retry.Config{
			MaxAttempts:  cfg.Oracle.MaxRetries,
			InitialDelay: cfg.Oracle.RetryBaseDelay,
			MaxDelay:     cfg.Oracle.RetryMaxDelay,
		},
		BreakerConfig: circuitbreaker.Config{
			Name:             "oracle",
			FailureThreshold: cfg.Oracle.BreakerThreshold,
			OpenTimeout:      cfg.Oracle.BreakerTimeout,
		},
		Logger: log,
	})

	bus := messaging.NewInMemoryBus(messaging.Config{Logger: log})
	defer bus.Close()

	// A new personal best must reach an already-warmed cached board before
	// the next scheduled warmup.
	if boardCache != nil {
		bus.Subscribe(eventhandler.NewBoardRefreshHandler(boardCache, log), shared.EventPersonalBest)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application handlers
	// ─────────────────────────────────────────────────────────────────────────
	evaluator := command.NewEvaluateAchievementsHandler(achievementRepo, log)

	streakHandler := query.NewGetStreakHandler(ledgerRepo)
	activityHandler := query.NewRecentActivityHandler(contentRepo, achievementRepo)

	deps := httpapi.Dependencies{
		SubmitPractice: command.NewSubmitPracticeHandler(contentRepo, scoreOracle, submissionStore, bus, log),
		UpdateProgress: command.NewUpdateProgressHandler(contentRepo, ledgerRepo, evaluator, bus, log),
		ToggleBookmark: command.NewToggleBookmarkHandler(contentRepo, ledgerRepo, evaluator, bus, log),
		RecordActivity: command.NewRecordActivityHandler(ledgerRepo, evaluator, log),

		GetStats:  query.NewGetStatsHandler(statsRepo),
		Analytics: query.NewChallengeAnalyticsHandler(statsRepo),
		GetStreak: streakHandler,
		GetLeaderboard: query.NewGetLeaderboardHandler(
			boardRepo, boardCacheOrNil(boardCache), log),
		RecentActivity: activityHandler,
		Dashboard: query.NewComposeDashboardHandler(
			statsRepo, streakHandler, achievementRepo, activityHandler, contentRepo, contentRepo, log),

		Health: &healthChecker{conn: conn, cache: cache},
		Logger: log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Background jobs
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Scheduler.Enabled && boardCache != nil {
		sched := scheduler.New(log)
		job := scheduler.NewWarmLeaderboardsJob(boardRepo, boardCache, log)
		if err := sched.Register(job, scheduler.NewIntervalSchedule(cfg.Scheduler.WarmBoardsInterval)); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	server := httpapi.NewServer(httpapi.Config{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, deps)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("stopped cleanly")
	return nil
}

func connectPostgres(ctx context.Context, cfg config.DatabaseConfig) (*postgres.Connection, error) {
	if cfg.URL != "" {
		return postgres.NewConnectionFromURL(ctx, cfg.URL)
	}
	return postgres.NewConnection(ctx, postgres.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Name,
		User:            cfg.User,
		Password:        cfg.Password,
		SSLMode:         cfg.SSLMode,
		MaxConns:        int32(cfg.MaxConns),
		MinConns:        int32(cfg.MinConns),
		MaxConnLifetime: cfg.ConnMaxLifetime,
		MaxConnIdleTime: cfg.ConnMaxIdleTime,
	})
}

// boardCacheOrNil avoids handing a typed-nil interface to the query layer.
func boardCacheOrNil(cache *redis.LeaderboardCache) query.BoardCache {
	if cache == nil {
		return nil
	}
	return cache
}

// healthChecker reports storage health for the /health endpoint.
type healthChecker struct {
	conn  *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) Healthy(ctx context.Context) error {
	if _, err := h.conn.Health(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
