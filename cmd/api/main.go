package main

import (
	"context"
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

	"github.com/noah-isme/jadwal-api/internal/config"
	"github.com/noah-isme/jadwal-api/internal/database"
	"github.com/noah-isme/jadwal-api/internal/handler"
	"github.com/noah-isme/jadwal-api/internal/middleware"
	"github.com/noah-isme/jadwal-api/internal/models"
	"github.com/noah-isme/jadwal-api/internal/repository"
	"github.com/noah-isme/jadwal-api/internal/router"
	"github.com/noah-isme/jadwal-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, 5*time.Second)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = database.RedisProbe(redisClient)
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	validate := validator.New(validator.WithRequiredStructEnabled())

	documents := repository.NewDocumentRepository(db)
	actionLogs := repository.NewActionLogRepository(db)

	feed := service.NewHistoryFeed(natsConn, cfg.NATSSubject, logger)
	feed.Start(rootCtx)

	logService := service.NewActionLogService(actionLogs, redisClient, cfg.HistoryCacheTTL, logger, feed)
	rollbackService := service.NewRollbackService(actionLogs, documents, logService, logger)
	settingsService := service.NewSettingsService(documents, logService, validate, logger)
	timetableService := service.NewTimetableService(documents, logService, validate, logger)
	dailyService := service.NewDailyAnnouncementService(documents, logService, settingsService, timetableService, validate, logger)
	inquiryService := service.NewInquiryService(documents, logService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:         &logger,
		AllowedOrigins: cfg.AllowedOrigins,
		AccessLog:      cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		HistoryHandler:             handler.NewHistoryHandler(logService, rollbackService, logger),
		HistoryStreamHandler:       handler.NewHistoryStreamHandler(feed, logger),
		SubjectHandler:             handler.NewRecordHandler[models.Subject](service.NewSubjectService(documents, logService, validate, logger), "subject", logger),
		EventHandler:               handler.NewRecordHandler[models.Event](service.NewEventService(documents, logService, validate, logger), "event", logger),
		GeneralAnnouncementHandler: handler.NewRecordHandler[models.GeneralAnnouncement](service.NewGeneralAnnouncementService(documents, logService, validate, logger), "general announcement", logger),
		AssignmentHandler:          handler.NewRecordHandler[models.Assignment](service.NewAssignmentService(documents, logService, validate, logger), "assignment", logger),
		SettingsHandler:            handler.NewSettingsHandler(settingsService, logger),
		TimetableHandler:           handler.NewTimetableHandler(timetableService, logger),
		DailyAnnouncementHandler:   handler.NewDailyAnnouncementHandler(dailyService, logger),
		InquiryHandler:             handler.NewInquiryHandler(inquiryService, logger),
		HealthProbes:               probes,
		JWTMiddleware:              middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
