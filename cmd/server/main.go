package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/axiomflow/api/internal/client"
	"github.com/axiomflow/api/internal/config"
	"github.com/axiomflow/api/internal/handler"
	"github.com/axiomflow/api/internal/middleware"
	"github.com/axiomflow/api/internal/service"
	ws "github.com/axiomflow/api/internal/websocket"
	"github.com/axiomflow/api/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize storage (optional; local disk is the fallback)
	var storage client.StorageClient
	if r2, err := client.NewR2Client(&cfg.R2); err != nil {
		log.Printf("R2 storage not configured, using local disk: %v", err)
	} else {
		storage = r2
	}

	// Initialize translation providers
	providers := client.NewProviderRegistry(
		client.NewGoogleClient(&cfg.Google),
		client.NewOllamaClient(&cfg.Ollama),
	)

	// Initialize PDF renderer (optional; export falls back to a mock URL)
	var renderer client.PDFRenderer
	rendererClient := client.NewRendererClient(&cfg.Renderer)
	if rendererClient.IsConfigured() {
		renderer = rendererClient
	}

	// Initialize services
	documentService := service.NewDocumentService(redisClient, storage, cfg.Storage.UploadsDir)
	jobService := service.NewJobService(redisClient, asynqClient)
	exportService := service.NewExportService(documentService, storage, renderer, cfg.Storage.ExportsDir)

	// Initialize handlers
	documentHandler := handler.NewDocumentHandler(documentService, jobService, validate)
	jobHandler := handler.NewJobHandler(jobService, documentService, validate)
	exportHandler := handler.NewExportHandler(exportService, validate)
	downloadHandler := handler.NewDownloadHandler(exportService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"service": "axiomflow-api", "timestamp": time.Now().Unix()})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "providers": providers.Names()})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Document routes
	documents := api.Group("/documents")
	documents.Post("/", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), documentHandler.Upload)
	documents.Get("/:id", documentHandler.Get)
	documents.Get("/:id/source", documentHandler.Source)
	documents.Get("/:id/progress", documentHandler.Progress)
	documents.Patch("/:id/blocks/:blockId", documentHandler.EditBlock)
	documents.Delete("/:id", documentHandler.Delete)

	// Job routes
	jobs := api.Group("/jobs")
	jobs.Post("/translate", rateLimiter.TranslateLimit(cfg.RateLimit.TranslatePerHour), jobHandler.Translate)
	jobs.Get("/:jobId", jobHandler.Status)
	jobs.Post("/:jobId/pause", jobHandler.Pause)
	jobs.Post("/:jobId/resume", jobHandler.Resume)
	jobs.Post("/:jobId/cancel", jobHandler.Cancel)
	jobs.Post("/:jobId/retry", jobHandler.Retry)

	// Export routes
	api.Post("/export", rateLimiter.ExportLimit(cfg.RateLimit.ExportPerHour), exportHandler.Export)
	api.Get("/downloads/:filename", downloadHandler.Get)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, documentService, jobService, providers, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(cfg *config.Config, docs *service.DocumentService, jobs *service.JobService, providers *client.ProviderRegistry, hub *ws.Hub) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"parse":     4,
				"translate": 6,
			},
		},
	)

	parseWorker := worker.NewParseWorker(docs, jobs, hub)
	translateWorker := worker.NewTranslateWorker(docs, jobs, providers, hub)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeParse, parseWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeTranslate, translateWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
