package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alfredoptarigan/careerforge/internal/config"
	"alfredoptarigan/careerforge/internal/handlers"
	"alfredoptarigan/careerforge/internal/metrics"
	"alfredoptarigan/careerforge/internal/repositories"
	"alfredoptarigan/careerforge/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Initialize database (optional, enables chat history and stored evaluations)
	var chatRepo repositories.ChatRepository
	var evalRepo repositories.EvaluationRepository
	db, err := config.InitDatabase(cfg)
	switch {
	case errors.Is(err, config.ErrDatabaseDisabled):
		log.Println("⚠️  Database disabled, chat history and evaluation lookup are off")
	case err != nil:
		log.Fatalf("❌ Failed to initialize database: %v", err)
	default:
		chatRepo = repositories.NewChatRepository(db)
		evalRepo = repositories.NewEvaluationRepository(db)
		log.Println("✅ Repositories initialized successfully")
	}

	// Initialize Gemini AI. Without a key the chat endpoint answers with a configuration error.
	var geminiService services.GeminiService
	if cfg.Gemini.APIKey != "" {
		g, err := services.NewGeminiService(services.GeminiOptions{
			APIKey:          cfg.Gemini.APIKey,
			ChatModel:       cfg.Gemini.ChatModel,
			EmbedModel:      cfg.Gemini.EmbedModel,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
		}
		geminiService = g
		log.Println("✅ Gemini AI initialized successfully")
	} else {
		log.Println("⚠️  GEMINI_API_KEY is not set, chat requests will fail")
	}

	// Initialize Qdrant (optional, enables profile-to-job matching)
	var jobIndex services.JobIndex
	if cfg.Qdrant.URL != "" {
		idx, err := services.NewJobIndex(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
		if err != nil {
			log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
		}
		if err := idx.InitCollection(ctx); err != nil {
			log.Printf("⚠️  Qdrant unavailable, job matching disabled: %v\n", err)
		} else {
			jobIndex = idx
			log.Println("✅ Qdrant initialized successfully")
		}
	}

	var adzuna services.AdzunaClient
	if cfg.Adzuna.AppID != "" && cfg.Adzuna.AppKey != "" {
		adzuna = services.NewAdzunaClient(services.AdzunaOptions{
			AppID:  cfg.Adzuna.AppID,
			AppKey: cfg.Adzuna.AppKey,
		})
		log.Println("✅ Adzuna job search enabled")
	}

	// Initialize services
	jobService := services.NewJobService(nil, adzuna, jobIndex, geminiService)
	promptBuilder := services.NewPromptBuilder(cfg.Limits.HistoryMessages)
	pdfParser := services.NewPDFParserService(cfg.Limits.MaxPDFPages)

	limiter := services.NewRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	limiter.StartJanitor(ctx, cfg.RateLimit.SweepInterval)

	streamer := services.NewCompletionStreamer(geminiService, services.StreamerOptions{
		Model:       cfg.Gemini.ChatModel,
		Temperature: cfg.Gemini.ChatTemperature,
	}, m)
	log.Println("✅ Services initialized successfully")

	// Initialize evaluation sinks and worker
	var sinks []services.ObservabilitySink
	if cfg.Opik.APIKey != "" {
		sinks = append(sinks, services.NewOpikSink(services.OpikOptions{
			APIKey:    cfg.Opik.APIKey,
			Workspace: cfg.Opik.Workspace,
			Project:   cfg.Opik.Project,
			URL:       cfg.Opik.URL,
		}))
	}
	if evalRepo != nil {
		sinks = append(sinks, services.NewDatabaseSink(evalRepo))
	}

	var worker services.Worker
	if cfg.TracingEnabled() {
		evaluator := services.NewQualityEvaluator(
			geminiService,
			services.NewMultiSink(sinks...),
			promptBuilder,
			services.EvaluatorOptions{
				JudgeModel:  cfg.Gemini.JudgeModel,
				Temperature: cfg.Gemini.JudgeTemperature,
				MaxRetries:  cfg.Gemini.RetryMaxAttempts,
			},
			m,
		)
		worker = services.NewWorker(evaluator, cfg.Worker.Concurrency, cfg.Worker.QueueSize)
		worker.Start(ctx)
		log.Println("✅ Evaluation worker started successfully")
	}

	analysisService := services.NewAnalysisService(
		limiter,
		pdfParser,
		jobService,
		promptBuilder,
		streamer,
		worker,
		services.AnalysisOptions{TracingEnabled: cfg.TracingEnabled()},
		m,
	)

	// Initialize Handlers
	opts := handlers.AppOptions{
		BodyLimit:    cfg.BodyLimit(),
		MaxPDFSize:   cfg.Limits.MaxPDFSize,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		AccessLog:    true,
		Chat: handlers.NewChatHandler(analysisService, services.ValidationLimits{
			MaxMessageLength: cfg.Limits.MaxMessageLength,
			MaxPDFSize:       cfg.Limits.MaxPDFSize,
		}),
		Jobs:    handlers.NewJobsHandler(jobService),
		Metrics: m,
	}
	if chatRepo != nil {
		opts.Chats = handlers.NewChatsHandler(chatRepo)
	}
	if evalRepo != nil {
		opts.Evaluations = handlers.NewEvaluationHandler(evalRepo)
	}
	log.Println("✅ Handlers initialized")

	app := handlers.NewApp(opts)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if worker != nil {
			worker.Stop()
		}
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)
	log.Printf("📖 API Documentation: http://localhost%s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
