package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/absence-tracker-api/internal/config"
	"github.com/noah-isme/absence-tracker-api/internal/database"
	"github.com/noah-isme/absence-tracker-api/internal/handler"
	"github.com/noah-isme/absence-tracker-api/internal/middleware"
	"github.com/noah-isme/absence-tracker-api/internal/repository"
	"github.com/noah-isme/absence-tracker-api/internal/router"
	"github.com/noah-isme/absence-tracker-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	absenceRepo, eventRepo, err := openStores(cfg)
	if err != nil {
		log.Fatalf("failed to open record stores: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("report cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("record announcements disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	publisher := service.NewNATSRecordPublisher(natsConn, cfg.NATSSubject, logger)

	policy := service.FailClosed
	if cfg.FailOpen() {
		policy = service.FailOpen
	}
	classOrder := service.ClassOrder(cfg.ClassOrder)

	absenceService := service.NewAbsenceService(absenceRepo, redisClient, validate, publisher, service.AbsenceServiceOptions{
		Policy:     policy,
		ClassOrder: classOrder,
		CacheTTL:   cfg.ReportCacheTTL,
	}, logger)
	eventService := service.NewEventService(eventRepo, validate, publisher, service.EventServiceOptions{
		Policy:     policy,
		SkipBlank:  cfg.BlankParticipantPolicy == config.BlankParticipantSkip,
		ClassOrder: classOrder,
	}, logger)

	// A table that exists but cannot be read must not be replaced by an empty one on the next save.
	ctx := context.Background()
	if err := absenceService.Load(ctx); err != nil {
		log.Fatalf("failed to load absence table: %v", err)
	}
	if err := eventService.Load(ctx); err != nil {
		log.Fatalf("failed to load event table: %v", err)
	}

	absenceHandler := handler.NewAbsenceHandler(absenceService, logger)
	eventHandler := handler.NewEventHandler(eventService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSOrigins,
		AccessLog:    cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AbsenceHandler: absenceHandler,
		EventHandler:   eventHandler,
		SubmitLimiter:  middleware.RateLimit("submit", cfg.SubmitRateLimit, time.Minute),
	})

	logger.Info().
		Str("storage", cfg.StorageDriver).
		Str("persist_policy", cfg.PersistPolicy).
		Str("address", cfg.HTTPAddress()).
		Msg("starting server")

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func openStores(cfg config.Config) (repository.AbsenceRepository, repository.EventRepository, error) {
	switch cfg.StorageDriver {
	case config.StorageXLSX:
		return repository.NewAbsenceXLSXRepository(cfg.AbsencePath), repository.NewEventXLSXRepository(cfg.EventPath), nil
	case config.StorageCSV:
		return repository.NewAbsenceCSVRepository(cfg.AbsencePath), repository.NewEventCSVRepository(cfg.EventPath), nil
	case config.StoragePostgres, config.StorageSQLite:
		db, err := database.OpenSQLStore(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.MigrateSQLStore(db); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return repository.NewAbsenceSQLRepository(db), repository.NewEventSQLRepository(db), nil
	}
	return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
