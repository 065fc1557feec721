package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/elparchetipk/sicora-app-sub000/internal/app"
	"github.com/elparchetipk/sicora-app-sub000/internal/config"
	"github.com/elparchetipk/sicora-app-sub000/internal/controller"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/base"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/cache"
	"github.com/elparchetipk/sicora-app-sub000/internal/service"
	"github.com/go-redis/redis/v8"
	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Scheduler stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting class scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Location.String()),
		zap.Bool("bot_enabled", cfg.BotEnabled()),
		zap.Bool("cache_enabled", cfg.CacheEnabled()),
	)

	// Подключение к БД
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("✅ Connected to PostgreSQL")

	// Миграции
	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	// Репозитории
	scheduleRepo := repository.NewScheduleRepository(pool)
	pgGroups := repository.NewGroupRepository(pool)
	pgVenues := repository.NewVenueRepository(pool)

	// Справочники через Redis, если он настроен. Без клиента кэш прозрачно читает из БД
	var client cache.Client
	if cfg.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			// Кэш не обязателен: при недоступном Redis чтения уходят в БД
			logger.Warn("Redis is unavailable, reference cache will fall back to database", zap.Error(err))
		} else {
			logger.Info("✅ Connected to Redis")
		}
		client = rdb
	}

	groupRepo := cache.NewGroupRepository(pgGroups, client, cfg.ReferenceCacheTTL, logger)
	venueRepo := cache.NewVenueRepository(pgVenues, client, cfg.ReferenceCacheTTL, logger)

	scheduleService := service.NewScheduleService(
		scheduleRepo,
		groupRepo,
		venueRepo,
		base.NewTxManager(pool),
		logger,
	)

	// Фоновое завершение прошедших расписаний
	scheduler := app.NewScheduler(scheduleService, cfg.CompletionInterval, cfg.Location, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	if !cfg.BotEnabled() {
		logger.Info("TELEGRAM_TOKEN is not set, running background jobs only")
		<-ctx.Done()
		logger.Info("Shutting down")
		return nil
	}

	if len(cfg.AdminTelegramIDs) == 0 {
		logger.Warn("ADMIN_TELEGRAM_IDS is empty, bot will reject every command")
	}

	botInstance, err := bot.New(cfg.TelegramToken)
	if err != nil {
		return err
	}

	botController := controller.NewBotController(
		botInstance,
		scheduleService,
		venueRepo,
		groupRepo,
		cfg.AdminTelegramIDs,
		cfg.Location,
		logger,
	)
	if err := botController.RegisterHandlers(ctx); err != nil {
		// Меню команд не критично
		logger.Warn("Bot commands menu was not set", zap.Error(err))
	}

	if err := botController.Start(ctx); err != nil {
		return err
	}

	logger.Info("Shutting down")
	return nil
}
