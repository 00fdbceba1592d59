package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/axiomflow/api/internal/auth"
	"github.com/axiomflow/api/internal/handler"
	"github.com/axiomflow/api/internal/middleware"
	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/internal/service"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app  *fiber.App
	docs *service.DocumentService
	jobs *service.JobService
}

// setupApp creates a Fiber app identical to main.go but with unconfigured
// external clients, so services use their mock/fallback paths.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — must be running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	validate := validator.New()

	// storage = nil → local disk; renderer = nil → mock export URLs
	documentService := service.NewDocumentService(redisClient, nil, t.TempDir())
	jobService := service.NewJobService(redisClient, asynqClient)
	exportService := service.NewExportService(documentService, nil, nil, t.TempDir())

	documentHandler := handler.NewDocumentHandler(documentService, jobService, validate)
	jobHandler := handler.NewJobHandler(jobService, documentService, validate)
	exportHandler := handler.NewExportHandler(exportService, validate)
	downloadHandler := handler.NewDownloadHandler(exportService)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024,
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", authMiddleware.Authenticate())

	// Very high rate limits so tests don't get blocked
	documents := api.Group("/documents")
	documents.Post("/", rateLimiter.UploadLimit(10000), documentHandler.Upload)
	documents.Get("/:id", documentHandler.Get)
	documents.Get("/:id/source", documentHandler.Source)
	documents.Get("/:id/progress", documentHandler.Progress)
	documents.Patch("/:id/blocks/:blockId", documentHandler.EditBlock)
	documents.Delete("/:id", documentHandler.Delete)

	jobs := api.Group("/jobs")
	jobs.Post("/translate", rateLimiter.TranslateLimit(10000), jobHandler.Translate)
	jobs.Get("/:jobId", jobHandler.Status)
	jobs.Post("/:jobId/pause", jobHandler.Pause)
	jobs.Post("/:jobId/resume", jobHandler.Resume)
	jobs.Post("/:jobId/cancel", jobHandler.Cancel)
	jobs.Post("/:jobId/retry", jobHandler.Retry)

	api.Post("/export", rateLimiter.ExportLimit(10000), exportHandler.Export)
	api.Get("/downloads/:filename", downloadHandler.Get)

	return &testApp{
		app:  app,
		docs: documentService,
		jobs: jobService,
	}
}

// seedDocument writes a parsed two-page document straight into the store.
func seedDocument(t *testing.T, ta *testApp) *model.DocumentRecord {
	t.Helper()

	now := time.Now()
	record := &model.DocumentRecord{
		Document: model.Document{
			ID:        "doc-" + t.Name() + "-" + now.Format("150405.000"),
			Title:     "Attention Is All You Need",
			NumPages:  2,
			LangIn:    "en",
			LangOut:   "zh",
			Status:    model.DocumentStatusParsed,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Pages: []model.Page{
			{
				Number: 1, Width: 612, Height: 792,
				Blocks: []model.Block{
					{ID: "b1", Type: model.BlockHeading, ReadingOrder: 0, Text: "Introduction",
						BBox: model.BBox{Page: 1, X0: 72, Y0: 72, X1: 540, Y1: 96}},
					{ID: "b2", Type: model.BlockParagraph, ReadingOrder: 1, Text: "The dominant sequence transduction models are based on recurrent networks.",
						BBox: model.BBox{Page: 1, X0: 72, Y0: 100, X1: 540, Y1: 180}},
					{ID: "b3", Type: model.BlockFigure, ReadingOrder: 2,
						BBox: model.BBox{Page: 1, X0: 72, Y0: 200, X1: 540, Y1: 400}},
				},
			},
			{
				Number: 2, Width: 612, Height: 792,
				Blocks: []model.Block{
					{ID: "b4", Type: model.BlockParagraph, ReadingOrder: 3, Text: "The dominant sequence transduction models are based on recurrent networks.",
						BBox: model.BBox{Page: 2, X0: 72, Y0: 72, X1: 540, Y1: 150}},
					{ID: "b5", Type: model.BlockParagraph, ReadingOrder: 4, Text: "Page footer", IsHeaderFooter: true,
						BBox: model.BBox{Page: 2, X0: 72, Y0: 760, X1: 540, Y1: 780}},
				},
			},
		},
	}

	if err := ta.docs.SaveRecord(context.Background(), record); err != nil {
		t.Fatalf("failed to seed document: %v", err)
	}
	return record
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T) string {
	t.Helper()
	signed, err := auth.GenerateToken("test-user-123", "test@example.com", testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t)
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
