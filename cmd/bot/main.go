package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/m3rciful/todobot/internal/bot"
	"github.com/m3rciful/todobot/internal/cache"
	"github.com/m3rciful/todobot/internal/config"
	"github.com/m3rciful/todobot/internal/database"
	"github.com/m3rciful/todobot/internal/health"
	"github.com/m3rciful/todobot/internal/logger"
	"github.com/m3rciful/todobot/internal/service"
	"github.com/m3rciful/todobot/internal/storage"
	"log/slog"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("todobot: %v", err)
	}
}

func run() error {
	startedAt := time.Now()

	// Missing .env is fine; environment may come from the orchestrator.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	log.Printf("loading config: %s", cfgPath)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(cfg.LoggerConfig()); err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var todoCache *cache.TodoCache
	if cfg.Cache.Enabled {
		todoCache, err = cache.New(ctx, cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("cache: %w", err)
		}
		defer todoCache.Close()
	}

	users := service.NewUserService(storage.NewUserRepo(db))
	todos := service.NewTodoService(storage.NewTodoRepo(db), users, todoCache)

	app, err := bot.New(bot.Options{
		Config: cfg,
		Users:  users,
		Todos:  todos,
	})
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	probe := health.New(fmt.Sprintf("%s:%d", cfg.Health.Listen, cfg.Health.Port), db)
	go func() {
		if err := probe.Run(ctx); err != nil {
			logger.L.With("component", "health").Error("probe stopped",
				slog.String("event", "stop"),
				slog.String("err", err.Error()),
			)
		}
	}()

	logger.L.With("component", "app").Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	err = app.Run(ctx)

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}
