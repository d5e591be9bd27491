package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"alfredoptarigan/careerforge/internal/models"
	"alfredoptarigan/careerforge/internal/repositories"
)

// EvaluationResult is one scored analysis ready to be reported.
type EvaluationResult struct {
	TraceID     string
	SinkTraceID string
	JobID       string
	Input       EvaluationInput
	Scores      EvaluationScores
	JudgeModel  string
	LatencyMs   int64
}

// ObservabilitySink receives finished evaluations. Record returns the id the
// sink assigned to the result, if any.
type ObservabilitySink interface {
	Record(ctx context.Context, result EvaluationResult) (string, error)
}

type noopSink struct{}

func NewNoopSink() ObservabilitySink {
	return noopSink{}
}

func (noopSink) Record(ctx context.Context, result EvaluationResult) (string, error) {
	return "", nil
}

type multiSink struct {
	sinks []ObservabilitySink
}

// NewMultiSink fans out to every non-nil sink in order. The first id returned
// is passed to the sinks after it.
func NewMultiSink(sinks ...ObservabilitySink) ObservabilitySink {
	var active []ObservabilitySink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return NewNoopSink()
	}
	if len(active) == 1 {
		return active[0]
	}
	return &multiSink{sinks: active}
}

func (m *multiSink) Record(ctx context.Context, result EvaluationResult) (string, error) {
	var errs []error
	for _, s := range m.sinks {
		id, err := s.Record(ctx, result)
		if err != nil {
			errs = append(errs, err)
		}
		if id != "" && result.SinkTraceID == "" {
			result.SinkTraceID = id
		}
	}
	return result.SinkTraceID, errors.Join(errs...)
}

type databaseSink struct {
	evalRepo repositories.EvaluationRepository
}

// NewDatabaseSink stores evaluations so they can be fetched by trace id.
func NewDatabaseSink(evalRepo repositories.EvaluationRepository) ObservabilitySink {
	return &databaseSink{evalRepo: evalRepo}
}

func (d *databaseSink) Record(ctx context.Context, result EvaluationResult) (string, error) {
	eval := &models.Evaluation{
		TraceID:        result.TraceID,
		JobID:          result.JobID,
		Accuracy:       result.Scores.Accuracy,
		Completeness:   result.Scores.Completeness,
		Relevance:      result.Scores.Relevance,
		FalsePositives: result.Scores.FalsePositives,
		Actionability:  result.Scores.Actionability,
		Overall:        result.Scores.Overall,
		Reasoning:      result.Scores.Reasoning,
		JudgeModel:     result.JudgeModel,
		LatencyMs:      result.LatencyMs,
	}
	if result.SinkTraceID != "" {
		sinkID := result.SinkTraceID
		eval.SinkTraceID = &sinkID
	}

	if err := d.evalRepo.Create(eval); err != nil {
		return "", fmt.Errorf("failed to store evaluation: %w", err)
	}

	log.Printf("💾 Evaluation stored for trace %s\n", result.TraceID)
	return "", nil
}
