package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/careerforge/internal/metrics"
	"alfredoptarigan/careerforge/internal/models"
)

// ChatResult is a started analysis ready to be streamed.
type ChatResult struct {
	Completion *Completion
	TraceID    string
	RateLimit  RateLimitResult
	Job        models.JobPosting
}

type AnalysisService interface {
	// Analyze runs rate limiting, extraction, job lookup and prompt composition,
	// then starts the stream. ctx must outlive the streamed response.
	Analyze(ctx context.Context, clientID string, req *InboundRequest) (*ChatResult, error)
}

type AnalysisOptions struct {
	TracingEnabled bool
}

type analysisService struct {
	limiter       RateLimiter
	pdfParser     PDFParserService
	jobs          JobService
	promptBuilder *PromptBuilder
	streamer      CompletionStreamer
	worker        Worker
	tracing       bool
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewAnalysisService(
	limiter RateLimiter,
	pdfParser PDFParserService,
	jobs JobService,
	promptBuilder *PromptBuilder,
	streamer CompletionStreamer,
	worker Worker,
	opts AnalysisOptions,
	m *metrics.Metrics,
) AnalysisService {
	return &analysisService{
		limiter:       limiter,
		pdfParser:     pdfParser,
		jobs:          jobs,
		promptBuilder: promptBuilder,
		streamer:      streamer,
		worker:        worker,
		tracing:       opts.TracingEnabled && worker != nil,
		metrics:       m,
		now:           time.Now,
	}
}

func (a *analysisService) Analyze(ctx context.Context, clientID string, req *InboundRequest) (*ChatResult, error) {
	limit := a.limiter.Check(clientID)
	if !limit.Allowed {
		a.metrics.RecordRateLimited()
		retryAfter := int(math.Ceil(limit.ResetAt.Sub(a.now()).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		log.Printf("🚦 Rate limit exceeded for %s, retry in %ds\n", clientID, retryAfter)
		return nil, NewRateLimitedError(retryAfter)
	}

	var extracted string
	if req.PDF != nil {
		text, err := a.pdfParser.ExtractText(req.PDF.Data)
		if err != nil {
			a.metrics.RecordExtractionFailure(ExtractionReason(err))
			return nil, err
		}
		extracted = text
		log.Printf("📄 Extracted %d characters from %s\n", len(extracted), req.PDF.Filename)
	}

	job := a.jobs.Resolve(ctx, req.JobID, strings.TrimSpace(extracted+"\n"+req.Message))
	bundle := a.promptBuilder.Compose(extracted, req.Message, job, req.PriorMessages)

	completion, err := a.streamer.Start(ctx, bundle)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{
		Completion: completion,
		RateLimit:  limit,
		Job:        job,
	}

	if a.tracing {
		result.TraceID = NewTraceID(a.now())
		go a.scheduleEvaluation(completion, result.TraceID, bundle)
	}

	return result, nil
}

// scheduleEvaluation waits for the full text and queues it for judging.
// Cancelled, failed or empty generations are skipped. A client disconnect
// cancels generation, so a request whose client went away is never evaluated.
func (a *analysisService) scheduleEvaluation(completion *Completion, traceID string, bundle PromptBundle) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Evaluation scheduling panic for trace %s: %v\n", traceID, r)
		}
	}()

	text, err := completion.Wait(context.Background())
	if err != nil {
		log.Printf("⚠️  Skipping evaluation for trace %s: %v\n", traceID, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		log.Printf("⚠️  Skipping evaluation for trace %s: empty response\n", traceID)
		return
	}

	a.worker.Enqueue(EvaluationJob{
		TraceID: traceID,
		JobID:   bundle.JobID,
		Input: EvaluationInput{
			UserProfile:     bundle.UserProfile,
			JobRequirements: bundle.JobRequirements,
			AIAnalysis:      text,
		},
	})
}

// NewTraceID returns "<unix millis>-<8 hex chars>".
func NewTraceID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.New().String()[:8])
}
