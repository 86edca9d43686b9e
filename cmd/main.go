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
	"time"

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/games/connectfour"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/ledger"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/random"
	"github.com/Dosada05/tournament-engine/repositories"
	api "github.com/Dosada05/tournament-engine/routes"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// tournament-engine hash-operator-key <key> печатает значение для OPERATOR_KEY_HASH
	if len(os.Args) == 3 && os.Args[1] == "hash-operator-key" {
		hash, err := middleware.HashOperatorKey(os.Args[2])
		if err != nil {
			logger.Error("failed to hash operator key", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("db_driver", cfg.DatabaseDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DBConnectTimeout)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn, cfg.DatabaseDriver); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database connection established")

	// Инициализация репозиториев
	repos := services.PersistenceRepos{
		Events:  repositories.NewEventRepository(dbConn, cfg.DatabaseDriver),
		Records: repositories.NewMatchRecordRepository(dbConn, cfg.DatabaseDriver),
		Payouts: repositories.NewPayoutRepository(dbConn, cfg.DatabaseDriver),
		Stats:   repositories.NewPlayerStatsRepository(dbConn, cfg.DatabaseDriver),
	}
	logger.Info("Repositories initialized")

	// Инициализация WebSocket Hub
	wsHub := events.NewHub()
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	persistence := services.NewPersistenceSink(dbConn, repos, logger)
	sink := events.NewMultiSink(logger, persistence, wsHub)

	// Архив в R2 необязателен
	var archive services.ArchiveService
	if cfg.R2.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("initialize Cloudflare R2 uploader: %w", err)
		}
		archive = services.NewArchiveService(uploader, logger)
		sink.Add(archive)
		logger.Info("Cloudflare R2 archive enabled", slog.String("bucket", cfg.R2.BucketName))
	} else {
		logger.Info("Cloudflare R2 archive disabled")
	}

	// Инициализация движка
	clock := clockwork.NewRealClock()
	seed, err := random.NewSeed()
	if err != nil {
		return err
	}
	rng := random.NewKeccak(seed, clock)
	thresholds, err := cfg.Thresholds()
	if err != nil {
		return err
	}
	engine := services.NewTournamentEngine(services.EngineConfig{
		Owner:            cfg.Owner(),
		RaffleThresholds: thresholds,
		LeaderboardSize:  cfg.LeaderboardSize,
	}, services.EngineDeps{
		Game:   connectfour.New(rng),
		Ledger: ledger.New(),
		Random: rng,
		Clock:  clock,
		Sink:   sink,
		Logger: logger,
	})
	persistence.Attach(engine)
	history := services.NewHistoryService(repos.Events, repos.Records, repos.Payouts)
	logger.Info("Services initialized")

	if cfg.TiersFile != "" {
		if err := bootstrapTiers(ctx, engine, cfg.TiersFile, logger); err != nil {
			return err
		}
	}

	// Планировщик: монитор зависших матчей и повтор архивации
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	monitor := services.NewStallMonitor(engine, wsHub, clock, logger)
	if _, err := monitor.Schedule(scheduler, cfg.StallScanInterval); err != nil {
		return fmt.Errorf("schedule stall monitor: %w", err)
	}
	if archive != nil {
		if _, err := archive.ScheduleRetry(scheduler, cfg.ArchiveRetryEvery); err != nil {
			return fmt.Errorf("schedule archive retry: %w", err)
		}
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("scheduler shutdown failed", slog.Any("error", err))
		}
	}()
	logger.Info("Scheduler started", slog.Duration("stall_scan_interval", cfg.StallScanInterval))

	// Инициализация обработчиков HTTP
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		JWTSecret:       cfg.JWTSecretKey,
		OperatorKeyHash: cfg.OperatorKeyHash,
		AllowedOrigins:  cfg.AllowedOrigins,
		Logger:          logger,
	}, api.Handlers{
		Auth:      handlers.NewAuthHandler(cfg.JWTSecretKey, clock),
		Tier:      handlers.NewTierHandler(engine),
		Instance:  handlers.NewInstanceHandler(engine, history),
		Match:     handlers.NewMatchHandler(engine),
		Player:    handlers.NewPlayerHandler(engine, engine, history),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.AllowedOrigins),
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
	}
	return nil
}

// bootstrapTiers регистрирует тиры из TIERS_FILE. Уже известные тиры пропускаются.
func bootstrapTiers(ctx context.Context, tiers services.TierService, path string, logger *slog.Logger) error {
	configs, err := config.LoadTiers(path)
	if err != nil {
		return err
	}
	registered := 0
	for _, tier := range configs {
		err := tiers.RegisterTier(ctx, tier)
		switch {
		case err == nil:
			registered++
		case errors.Is(err, services.ErrTierExists):
			logger.Warn("tier from file already registered", slog.Int("tier_id", int(tier.TierID)))
		default:
			return fmt.Errorf("register tier %d from %s: %w", tier.TierID, path, err)
		}
	}
	logger.Info("Tiers bootstrapped", slog.String("file", path), slog.Int("registered", registered))
	return nil
}
