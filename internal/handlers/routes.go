package handlers

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/careerforge/internal/metrics"
	"alfredoptarigan/careerforge/internal/services"
)

type AppOptions struct {
	BodyLimit    int
	MaxPDFSize   int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AccessLog    bool

	Chat        *ChatHandler
	Jobs        *JobsHandler
	Chats       *ChatsHandler      // nil when the database is disabled
	Evaluations *EvaluationHandler // nil when the database is disabled
	Metrics     *metrics.Metrics
}

// NewApp builds the fiber app with middleware and every route registered.
func NewApp(opts AppOptions) *fiber.App {
	if opts.MaxPDFSize <= 0 {
		opts.MaxPDFSize = services.DefaultValidationLimits().MaxPDFSize
	}

	// Multipart uploads are read in full before the handler runs, so an
	// oversized PDF gets a validation error instead of a reset connection.
	app := fiber.New(fiber.Config{
		AppName:           "CareerForge API",
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
		BodyLimit:         opts.BodyLimit,
		StreamRequestBody: true,
		ErrorHandler:      NewErrorHandler(opts.MaxPDFSize),
	})

	app.Use(recover.New())
	app.Use(LimitBody(opts.BodyLimit))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Forwarded-For",
		ExposeHeaders: "X-RateLimit-Remaining, X-Opik-Trace-ID, Retry-After",
	}))
	app.Use(MetricsMiddleware(opts.Metrics))

	app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))

	// Original route path kept for existing clients.
	app.Post("/chat", opts.Chat.HandleChat)

	api := app.Group("/api", SecurityHeaders())
	api.Post("/chat", opts.Chat.HandleChat)
	api.Get("/jobs", opts.Jobs.HandleList)

	if opts.Chats != nil {
		api.Get("/chats", opts.Chats.HandleList)
		api.Post("/chats", opts.Chats.HandleCreate)
		api.Get("/chats/:id", opts.Chats.HandleGet)
		api.Patch("/chats/:id", opts.Chats.HandleUpdate)
		api.Delete("/chats/:id", opts.Chats.HandleDelete)
	}
	if opts.Evaluations != nil {
		api.Get("/evaluations/:traceId", opts.Evaluations.HandleGet)
	}

	api.Get("/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CareerForge API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/chat",
				"GET /api/jobs",
				"GET /api/chats",
				"GET /api/evaluations/:traceId",
				"GET /api/v1/health",
			},
		})
	})

	return app
}

// LimitBody caps non-multipart request bodies at limit bytes. Multipart bodies
// are parsed by the server and size-checked per file by the chat validator.
func LimitBody(limit int) fiber.Handler {
	if limit <= 0 {
		limit = fiber.DefaultBodyLimit
	}

	return func(c *fiber.Ctx) error {
		if isMultipart(c) {
			return c.Next()
		}

		req := c.Request()
		length := req.Header.ContentLength()
		if length > limit {
			return rejectBody(c)
		}

		// Chunked bodies have no declared length; read at most limit+1 bytes.
		if stream := req.BodyStream(); stream != nil && length < 0 {
			body, err := io.ReadAll(io.LimitReader(stream, int64(limit)+1))
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Failed to read request body")
			}
			if len(body) > limit {
				return rejectBody(c)
			}
			req.SetBody(body)
		}

		return c.Next()
	}
}

// rejectBody closes the connection since the rest of the body is never read.
func rejectBody(c *fiber.Ctx) error {
	c.Context().SetConnectionClose()
	return fiber.ErrRequestEntityTooLarge
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// SecurityHeaders disables MIME sniffing and framing for API responses.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		return c.Next()
	}
}

// MetricsMiddleware records one observation per request, labelled by route pattern.
func MetricsMiddleware(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}

		route := ""
		if r := c.Route(); r != nil && r.Path != "/" {
			route = r.Path
		}
		m.ObserveRequest(c.Method(), route, status, time.Since(start))

		return err
	}
}
