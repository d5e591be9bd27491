package services

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
)

const (
	DefaultJudgeTemperature float32 = 0.3

	fallbackScore        = 50
	reasoningMissing     = "No reasoning provided"
	reasoningParseFailed = "Failed to parse evaluation response"
	reasoningJudgeFailed = "Evaluation failed: judge model unavailable"
)

// Overall score weights per dimension; they sum to 1.
const (
	WeightAccuracy       = 0.30
	WeightCompleteness   = 0.25
	WeightRelevance      = 0.20
	WeightFalsePositives = 0.15
	WeightActionability  = 0.10
)

type EvaluationScores struct {
	Accuracy       float64 `json:"accuracy"`
	Completeness   float64 `json:"completeness"`
	Relevance      float64 `json:"relevance"`
	FalsePositives float64 `json:"falsePositives"`
	Actionability  float64 `json:"actionability"`
	Overall        float64 `json:"overall"`
	Reasoning      string  `json:"reasoning"`
}

// Dimensions returns the score per metric name, including overall.
func (s EvaluationScores) Dimensions() map[string]float64 {
	return map[string]float64{
		"accuracy":        s.Accuracy,
		"completeness":    s.Completeness,
		"relevance":       s.Relevance,
		"false_positives": s.FalsePositives,
		"actionability":   s.Actionability,
		"overall":         s.Overall,
	}
}

func CalculateOverallScore(s EvaluationScores) float64 {
	return s.Accuracy*WeightAccuracy +
		s.Completeness*WeightCompleteness +
		s.Relevance*WeightRelevance +
		s.FalsePositives*WeightFalsePositives +
		s.Actionability*WeightActionability
}

func fallbackScores(reasoning string) EvaluationScores {
	return EvaluationScores{
		Accuracy:       fallbackScore,
		Completeness:   fallbackScore,
		Relevance:      fallbackScore,
		FalsePositives: fallbackScore,
		Actionability:  fallbackScore,
		Overall:        fallbackScore,
		Reasoning:      reasoning,
	}
}

type judgeResponse struct {
	Accuracy       *float64 `json:"accuracy"`
	Completeness   *float64 `json:"completeness"`
	Relevance      *float64 `json:"relevance"`
	FalsePositives *float64 `json:"falsePositives"`
	Actionability  *float64 `json:"actionability"`
	Reasoning      *string  `json:"reasoning"`
}

var fencedJSONPattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseJudgeResponse never fails: unparseable output yields neutral scores.
func ParseJudgeResponse(response string) EvaluationScores {
	scores, err := parseJudgeScores(response)
	if err != nil {
		log.Printf("⚠️  Failed to parse judge response: %v\n", err)
		return fallbackScores(reasoningParseFailed)
	}
	return scores
}

func parseJudgeScores(response string) (EvaluationScores, error) {
	var parsed judgeResponse
	if err := json.Unmarshal([]byte(judgeJSON(response)), &parsed); err != nil {
		return EvaluationScores{}, fmt.Errorf("failed to unmarshal judge JSON: %w", err)
	}
	if parsed.Accuracy == nil && parsed.Completeness == nil && parsed.Relevance == nil &&
		parsed.FalsePositives == nil && parsed.Actionability == nil {
		return EvaluationScores{}, fmt.Errorf("judge response has no scores")
	}

	scores := EvaluationScores{
		Accuracy:       clampScore(parsed.Accuracy),
		Completeness:   clampScore(parsed.Completeness),
		Relevance:      clampScore(parsed.Relevance),
		FalsePositives: clampScore(parsed.FalsePositives),
		Actionability:  clampScore(parsed.Actionability),
		Reasoning:      reasoningMissing,
	}
	if parsed.Reasoning != nil && strings.TrimSpace(*parsed.Reasoning) != "" {
		scores.Reasoning = *parsed.Reasoning
	}
	scores.Overall = CalculateOverallScore(scores)

	return scores, nil
}

func judgeJSON(response string) string {
	if match := fencedJSONPattern.FindStringSubmatch(response); match != nil {
		return match[1]
	}
	return extractJSON(response)
}

// extractJSON tries to extract a JSON object from text that might contain markdown or other formatting
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

func clampScore(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 100:
		return 100
	}
	return *v
}

func formatScores(s EvaluationScores) string {
	return fmt.Sprintf("accuracy=%.0f completeness=%.0f relevance=%.0f false_positives=%.0f actionability=%.0f overall=%.1f",
		s.Accuracy, s.Completeness, s.Relevance, s.FalsePositives, s.Actionability, s.Overall)
}
