package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"widgets/internal/config"
	"widgets/internal/database"
	"widgets/internal/handlers"
	"widgets/internal/middleware"
	"widgets/internal/models"
	"widgets/internal/repositories"
	"widgets/internal/services"
	"widgets/pkg/rabbitmq"
	"widgets/pkg/tracing"
)

const serviceName = "widget-service"

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// --- Tracing ---
	shutdownTracing, err := tracing.InitTracing(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// --- Storage ---
	var db *gorm.DB
	if cfg.DatabaseDriver != config.DriverMemory {
		db, err = database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		logger.Info("Database connection established", zap.String("driver", cfg.DatabaseDriver))
	}

	// --- Events ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		publisher = mqClient
	} else {
		logger.Info("RABBITMQ_URL not set, widget events are not published")
	}

	app, service := NewApp(cfg, db, publisher, logger)

	if cfg.SeedWidgets {
		seedWidgets(service, logger)
	}

	// --- Start HTTP Server ---
	logger.Info("Starting server", zap.String("port", cfg.AppPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			logger.Error("Error closing RabbitMQ client", zap.Error(err))
		}
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server gracefully stopped")
}

// NewApp wires repositories, services and handlers into a Fiber app.
// Widgets are kept in memory when db is nil.
func NewApp(cfg *config.Config, db *gorm.DB, publisher services.EventPublisher, logger *zap.Logger) (*fiber.App, *services.WidgetService) {
	var widgetRepo repositories.WidgetRepository
	if db != nil {
		widgetRepo = repositories.NewGORMWidgetRepository(db)
	} else {
		widgetRepo = repositories.NewMemoryWidgetRepository()
	}

	widgetService := services.NewWidgetService(widgetRepo, publisher, logger)
	widgetHandler := handlers.NewWidgetHandler(widgetService, logger)
	healthHandler := handlers.NewHealthHandler(db)

	app := fiber.New(fiber.Config{AppName: serviceName})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.Tracing(serviceName))
	app.Use(middleware.RequestLogger(logger))
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// --- Routes ---
	healthHandler.RegisterRoutes(app)
	app.Get("/metrics", middleware.PrometheusHandler())
	widgetHandler.RegisterRoutes(app.Group("/v1"))

	return app, widgetService
}

// newLogger builds a production logger, or a development one for LOG_LEVEL=debug.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

// seedWidgets populates an empty store with a few widgets.
func seedWidgets(service *services.WidgetService, logger *zap.Logger) {
	str := func(s string) *string { return &s }
	seeds := []models.WidgetRequest{
		{Name: str("Sprocket"), Description: str("Standard steel sprocket"), Price: models.MustAmount("12.50")},
		{Name: str("Gear Assembly"), Description: str("Twelve-tooth gear assembly"), Price: models.MustAmount("149.99")},
		{Name: str("Flux Capacitor"), Price: models.MustAmount("19999.99")},
	}

	for _, req := range seeds {
		widget, err := service.CreateWidget(context.Background(), req)
		if err != nil {
			logger.Warn("Skipping widget seed", zap.String("name", *req.Name), zap.Error(err))
			continue
		}
		logger.Info("Seeded widget", zap.String("name", widget.Name), zap.Uint("id", widget.ID))
	}
}
