package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultOpikURL = "https://www.comet.com/opik/api"

	opikTraceName = "skill-gap-evaluation"
)

type OpikOptions struct {
	APIKey     string
	Workspace  string
	Project    string
	URL        string
	HTTPClient *http.Client
}

type opikSink struct {
	apiKey    string
	workspace string
	project   string
	baseURL   string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[string]
}

// NewOpikSink reports evaluations to the Opik REST API. After repeated failures
// the breaker opens and calls fail fast until it half-opens again.
func NewOpikSink(opts OpikOptions) ObservabilitySink {
	if opts.URL == "" {
		opts.URL = DefaultOpikURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "opik",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("⚠️  Circuit breaker %s changed from %s to %s\n", name, from.String(), to.String())
		},
	})

	return &opikSink{
		apiKey:    opts.APIKey,
		workspace: opts.Workspace,
		project:   opts.Project,
		baseURL:   strings.TrimRight(opts.URL, "/"),
		client:    opts.HTTPClient,
		breaker:   breaker,
	}
}

type opikTrace struct {
	ID          string                 `json:"id"`
	ProjectName string                 `json:"project_name"`
	Name        string                 `json:"name"`
	StartTime   string                 `json:"start_time"`
	EndTime     string                 `json:"end_time"`
	Input       map[string]interface{} `json:"input"`
	Output      map[string]interface{} `json:"output"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type opikFeedbackScore struct {
	ID          string  `json:"id"`
	ProjectName string  `json:"project_name"`
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Reason      string  `json:"reason,omitempty"`
	Source      string  `json:"source"`
}

type opikFeedbackBatch struct {
	Scores []opikFeedbackScore `json:"scores"`
}

func (o *opikSink) Record(ctx context.Context, result EvaluationResult) (string, error) {
	return o.breaker.Execute(func() (string, error) {
		return o.send(ctx, result)
	})
}

func (o *opikSink) send(ctx context.Context, result EvaluationResult) (string, error) {
	traceID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate trace id: %w", err)
	}

	end := time.Now().UTC()
	start := end.Add(-time.Duration(result.LatencyMs) * time.Millisecond)
	scores := result.Scores

	trace := opikTrace{
		ID:          traceID.String(),
		ProjectName: o.project,
		Name:        opikTraceName,
		StartTime:   start.Format(time.RFC3339Nano),
		EndTime:     end.Format(time.RFC3339Nano),
		Input: map[string]interface{}{
			"userProfile":     truncateRunes(result.Input.UserProfile, 500),
			"jobRequirements": truncateRunes(result.Input.JobRequirements, 500),
			"aiAnalysis":      truncateRunes(result.Input.AIAnalysis, 1000),
		},
		Output: map[string]interface{}{
			"accuracy":       scores.Accuracy,
			"completeness":   scores.Completeness,
			"relevance":      scores.Relevance,
			"falsePositives": scores.FalsePositives,
			"actionability":  scores.Actionability,
			"overall":        scores.Overall,
			"reasoning":      scores.Reasoning,
		},
		Metadata: map[string]interface{}{
			"evaluationType": "llm-as-judge",
			"judgeModel":     result.JudgeModel,
			"latencyMs":      result.LatencyMs,
			"requestTraceId": result.TraceID,
			"jobId":          result.JobID,
		},
	}

	if err := o.do(ctx, http.MethodPost, "/v1/private/traces", trace); err != nil {
		return "", fmt.Errorf("failed to create opik trace: %w", err)
	}

	named := []struct {
		name  string
		value float64
	}{
		{"accuracy", scores.Accuracy},
		{"completeness", scores.Completeness},
		{"relevance", scores.Relevance},
		{"false-positives", scores.FalsePositives},
		{"actionability", scores.Actionability},
		{"overall", scores.Overall},
	}

	batch := opikFeedbackBatch{Scores: make([]opikFeedbackScore, 0, len(named))}
	for _, s := range named {
		batch.Scores = append(batch.Scores, opikFeedbackScore{
			ID:          trace.ID,
			ProjectName: o.project,
			Name:        s.name,
			Value:       s.value / 100,
			Source:      "sdk",
		})
	}

	if err := o.do(ctx, http.MethodPut, "/v1/private/traces/feedback-scores", batch); err != nil {
		return trace.ID, fmt.Errorf("failed to send opik feedback scores: %w", err)
	}

	log.Printf("📈 Evaluation logged to Opik trace %s\n", trace.ID)
	return trace.ID, nil
}

func (o *opikSink) do(ctx context.Context, method, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", o.apiKey)
	if o.workspace != "" {
		req.Header.Set("Comet-Workspace", o.workspace)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
