package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/adaptive-tictactoe/internal/api/controller"
	apirepository "ctchen222/adaptive-tictactoe/internal/api/repository"
	"ctchen222/adaptive-tictactoe/internal/api/service"
	"ctchen222/adaptive-tictactoe/internal/attest"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/config"
	"ctchen222/adaptive-tictactoe/internal/db"
	"ctchen222/adaptive-tictactoe/internal/events"
	applog "ctchen222/adaptive-tictactoe/internal/logger"
	"ctchen222/adaptive-tictactoe/internal/memory"
	"ctchen222/adaptive-tictactoe/internal/repository"
	"ctchen222/adaptive-tictactoe/internal/server"
	"ctchen222/adaptive-tictactoe/internal/session"
	"ctchen222/adaptive-tictactoe/internal/stats"
	"ctchen222/adaptive-tictactoe/internal/telemetry"

	"github.com/go-redis/redis/v8"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize telemetry before the logger so the slog bridge picks up
	// the log provider.
	if cfg.OtelEnabled {
		shutdown, err := telemetry.InitOtel(ctx, cfg.OtelCollectorAddr)
		if err != nil {
			log.Fatalf("failed to initialize telemetry: %v", err)
		}
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down telemetry: %v", err)
			}
		}()
	}
	logger := applog.Init(cfg.LogLevel)

	// Initialize SQLite DB
	DB, err := db.Connect(cfg.SQLitePath)
	if err != nil {
		fatal(logger, "failed to open sqlite db", err)
	}
	defer DB.Close()
	if err := db.Migrate(DB); err != nil {
		fatal(logger, "failed to migrate sqlite db", err)
	}

	// Initialize Redis. Only the redis memory backend requires it; without
	// it sessions stay in process and events are not published.
	rdb, err := db.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		if cfg.MemoryBackend == config.BackendRedis {
			fatal(logger, "failed to initialize redis", err)
		}
		logger.Warn("Redis unavailable, running standalone", "redis.addr", cfg.RedisAddr, "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Create memory tables and engine
	tables := memory.NewLocalTables(cfg.MemoryCapacity)
	if cfg.MemoryBackend == config.BackendRedis {
		tables = memory.NewRedisTables(rdb, cfg.MemoryCapacity)
	}
	engineOpts := []bot.Option{bot.WithLogger(logger)}
	if cfg.RandomSeed != 0 {
		engineOpts = append(engineOpts, bot.WithSeed(cfg.RandomSeed))
	}
	engineCfg := bot.DefaultConfig()
	engineCfg.AdaptivityLevel = cfg.AdaptivityLevel
	engine, err := bot.New(tables, engineCfg, engineOpts...)
	if err != nil {
		fatal(logger, "failed to create bot engine", err)
	}

	// Create repositories
	sessionRepo, publisher := standaloneOrRedis(rdb)
	statsRepo := repository.NewStatsRepository(DB)
	resultRepo := repository.NewResultRepository(DB)
	playerRepo := apirepository.NewPlayerRepository(DB)
	settingsRepo := apirepository.NewSettingsRepository(DB)

	saved, err := statsRepo.Load(ctx)
	if err != nil {
		fatal(logger, "failed to load stats", err)
	}
	tracker := stats.NewTracker(saved)

	signer, err := attest.LoadOrGenerate(cfg.AttestPrivateKey, cfg.AttestPublicKey, cfg.NodeID)
	if err != nil {
		fatal(logger, "failed to load attestation keys", err)
	}

	manager := session.NewManager(session.Deps{
		Engine:   engine,
		Sessions: sessionRepo,
		Stats:    statsRepo,
		Results:  resultRepo,
		Tracker:  tracker,
		Signer:   signer,
		Events:   publisher,
		Logger:   logger,
	})

	// Create services
	defaultDifficulty := bot.Difficulty(cfg.DefaultDifficulty)
	playerService := service.NewPlayerService(playerRepo, []byte(cfg.JWTSecret))
	settingsService := service.NewSettingsService(settingsRepo, defaultDifficulty)

	// Create the Gin-based server
	srv := server.NewServer(server.Options{
		Player:            controller.NewPlayerController(playerService),
		Settings:          controller.NewSettingsController(settingsService),
		Game:              controller.NewGameController(manager, settingsService),
		Stats:             controller.NewStatsController(tracker, resultRepo, signer),
		Move:              controller.NewMoveController(engine, defaultDifficulty),
		Players:           playerService,
		AIvsAI:            manager,
		AIDelay:           cfg.AIDelay,
		DefaultDifficulty: defaultDifficulty,
		Logger:            logger,
	})

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("HTTP server started", "addr", cfg.HTTPAddr, "memory.backend", cfg.MemoryBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "ListenAndServe failed", err)
		}
	}()

	<-stop

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exiting")
}

func standaloneOrRedis(rdb *redis.Client) (repository.SessionRepository, events.Publisher) {
	if rdb == nil {
		return repository.NewMemorySessionRepository(), nil
	}
	return repository.NewSessionRepository(rdb), events.NewRedisPublisher(rdb)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
