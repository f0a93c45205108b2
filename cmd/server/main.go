package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	"github.com/sunriver-travel/nilecms/data"
	"github.com/sunriver-travel/nilecms/internal/config"
	"github.com/sunriver-travel/nilecms/internal/database"
	"github.com/sunriver-travel/nilecms/internal/handlers"
	"github.com/sunriver-travel/nilecms/internal/logger"
	"github.com/sunriver-travel/nilecms/internal/middleware"
	"github.com/sunriver-travel/nilecms/internal/registry"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/storage"
	"github.com/sunriver-travel/nilecms/internal/types"

	_ "github.com/sunriver-travel/nilecms/docs/api" // Swagger docs
)

// @title NileCMS API
// @version 1.0.0
// @description Content and availability backend for the Sun River dahabiya fleet
// @contact.name API Support
// @contact.url https://github.com/sunriver-travel/nilecms

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	reg, err := registry.Parse(data.ContentModels)
	if err != nil {
		appLog.Fatal("load content model registry", "error", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		appLog.Fatal("connect database", "error", err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		appLog.Fatal("run migrations", "error", err)
	}

	files, err := storage.NewDisk(cfg.UploadsDir, cfg.UploadsBaseURL)
	if err != nil {
		appLog.Fatal("init uploads storage", "error", err)
	}

	contentSvc := services.NewContentService(db, reg, files, appLog)
	availabilitySvc := services.NewAvailabilityService(db, appLog)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    32 * 1024 * 1024, // uploads come through here
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New())

	prometheus := fiberprometheus.New("nilecms")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/swagger/*", swagger.HandlerDefault)

	healthHandler := &handlers.HealthHandler{Cfg: cfg, DB: db}
	app.Get("/health", healthHandler.Health)

	app.Static(cfg.UploadsBaseURL, cfg.UploadsDir)

	api := app.Group("/api")
	api.Use(middleware.APIVersion())

	contentHandler := &handlers.ContentHandler{Service: contentSvc}
	modelsHandler := &handlers.ModelsHandler{Registry: reg}
	availabilityHandler := &handlers.AvailabilityHandler{Service: availabilitySvc}

	// Admin content routes: admins and managers.
	admin := api.Group("/admin",
		middleware.RequireRoles(cfg, "content.authorization", middleware.RoleAdmin, middleware.RoleManager))
	admin.Get("/models", modelsHandler.ListModels)
	admin.Get("/models/:modelId", modelsHandler.GetModel)
	admin.Get("/content/:modelId", contentHandler.ListItems)
	admin.Post("/content/:modelId", contentHandler.CreateItem)
	admin.Put("/content/:modelId", contentHandler.BulkAction)
	admin.Get("/content/:modelId/:itemId", contentHandler.GetItem)
	admin.Get("/content/:modelId/:itemId/versions", contentHandler.ListVersions)
	admin.Patch("/content/:modelId/:itemId", contentHandler.UpdateItem)
	admin.Delete("/content/:modelId/:itemId", contentHandler.DeleteItem)
	admin.Post("/content/:modelId/:itemId", contentHandler.RestoreItem)

	// Availability: reads are open to the booking pages, writes are admin-only.
	dashboard := api.Group("/dashboard")
	dashboard.Get("/dahabiyat/availability", availabilityHandler.GetRange)
	dashboard.Post("/dahabiyat/availability",
		middleware.RequireRoles(cfg, "availability.authorization", middleware.RoleAdmin),
		availabilityHandler.SeedMonth)
	dashboard.Patch("/dahabiyat/availability",
		middleware.RequireRoles(cfg, "availability.authorization", middleware.RoleAdmin),
		availabilityHandler.Toggle)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		appLog.Info("gracefully shutting down")
		_ = app.Shutdown()
	}()

	appLog.Info("starting server", "port", cfg.Port, "models", len(reg.All()))
	if err := app.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}

// errorHandler turns APIError and Fiber errors into the structured response
// body; everything else becomes a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	if e, ok := err.(*types.APIError); ok {
		code = e.Code
		message = e.Message
		errorType = e.Type
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
