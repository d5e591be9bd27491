package services

import (
	"context"
	"log"
	"time"

	"alfredoptarigan/careerforge/internal/metrics"
)

// Evaluation statuses reported to metrics.
const (
	EvaluationCompleted   = "completed"
	EvaluationParseFailed = "parse_failed"
	EvaluationJudgeFailed = "judge_failed"
)

// EvaluationJob is one finished analysis waiting to be judged.
type EvaluationJob struct {
	TraceID string
	JobID   string
	Input   EvaluationInput
}

type QualityEvaluator interface {
	// Evaluate always returns usable scores; failures degrade to neutral defaults.
	Evaluate(ctx context.Context, job EvaluationJob) EvaluationResult
}

type EvaluatorOptions struct {
	JudgeModel  string
	Temperature float32
	MaxRetries  int
}

type qualityEvaluator struct {
	geminiService GeminiService
	sink          ObservabilitySink
	promptBuilder *PromptBuilder
	judgeModel    string
	temperature   float32
	maxRetries    int
	metrics       *metrics.Metrics
}

func NewQualityEvaluator(
	geminiService GeminiService,
	sink ObservabilitySink,
	promptBuilder *PromptBuilder,
	opts EvaluatorOptions,
	m *metrics.Metrics,
) QualityEvaluator {
	if sink == nil {
		sink = NewNoopSink()
	}
	if opts.JudgeModel == "" {
		opts.JudgeModel = DefaultJudgeModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultJudgeTemperature
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	return &qualityEvaluator{
		geminiService: geminiService,
		sink:          sink,
		promptBuilder: promptBuilder,
		judgeModel:    opts.JudgeModel,
		temperature:   opts.Temperature,
		maxRetries:    opts.MaxRetries,
		metrics:       m,
	}
}

func (e *qualityEvaluator) Evaluate(ctx context.Context, job EvaluationJob) EvaluationResult {
	started := time.Now()
	log.Printf("⚖️  Evaluating analysis for trace %s\n", job.TraceID)

	scores, status := e.judge(ctx, job.Input)

	result := EvaluationResult{
		TraceID:    job.TraceID,
		JobID:      job.JobID,
		Input:      job.Input,
		Scores:     scores,
		JudgeModel: e.judgeModel,
		LatencyMs:  time.Since(started).Milliseconds(),
	}
	e.metrics.RecordEvaluation(status, scores.Dimensions())

	sinkID, err := e.sink.Record(ctx, result)
	if err != nil {
		log.Printf("⚠️  Failed to report evaluation for trace %s: %v\n", job.TraceID, err)
	}
	result.SinkTraceID = sinkID

	log.Printf("✅ Evaluation finished for trace %s (%s): %s\n", job.TraceID, status, formatScores(scores))
	return result
}

func (e *qualityEvaluator) judge(ctx context.Context, input EvaluationInput) (EvaluationScores, string) {
	if e.geminiService == nil {
		return fallbackScores(reasoningJudgeFailed), EvaluationJudgeFailed
	}

	prompt := e.promptBuilder.BuildJudgePrompt(input)
	response, err := e.geminiService.GenerateTextWithRetry(ctx, CompletionRequest{
		Model:       e.judgeModel,
		Messages:    UserPrompt(prompt),
		Temperature: e.temperature,
	}, e.maxRetries)
	if err != nil {
		log.Printf("❌ Judge call failed: %v\n", err)
		return fallbackScores(reasoningJudgeFailed), EvaluationJudgeFailed
	}

	scores, err := parseJudgeScores(response)
	if err != nil {
		log.Printf("⚠️  Failed to parse judge response: %v\n", err)
		return fallbackScores(reasoningParseFailed), EvaluationParseFailed
	}

	return scores, EvaluationCompleted
}
