package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOverallScore(t *testing.T) {
	scores := EvaluationScores{Accuracy: 100, Completeness: 80, Relevance: 60, FalsePositives: 40, Actionability: 20}
	assert.InDelta(t, 30+20+12+6+2, CalculateOverallScore(scores), 1e-9)

	uniform := EvaluationScores{Accuracy: 70, Completeness: 70, Relevance: 70, FalsePositives: 70, Actionability: 70}
	assert.InDelta(t, 70, CalculateOverallScore(uniform), 1e-9)
}

func TestParseJudgeResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     EvaluationScores
	}{
		{
			name: "fenced json",
			response: "Here is my evaluation:\n```json\n" +
				`{"accuracy": 80, "completeness": 70, "relevance": 90, "falsePositives": 60, "actionability": 50, "reasoning": "Solid."}` +
				"\n```\nThanks",
			want: EvaluationScores{Accuracy: 80, Completeness: 70, Relevance: 90, FalsePositives: 60, Actionability: 50, Overall: 24 + 17.5 + 18 + 9 + 5, Reasoning: "Solid."},
		},
		{
			name:     "bare object",
			response: `Result {"accuracy": 100, "completeness": 100, "relevance": 100, "falsePositives": 100, "actionability": 100, "reasoning": "Perfect"} done`,
			want:     EvaluationScores{Accuracy: 100, Completeness: 100, Relevance: 100, FalsePositives: 100, Actionability: 100, Overall: 100, Reasoning: "Perfect"},
		},
		{
			name:     "missing fields",
			response: `{"accuracy": 40}`,
			want:     EvaluationScores{Accuracy: 40, Overall: 12, Reasoning: "No reasoning provided"},
		},
		{
			name:     "out of range values are clamped",
			response: `{"accuracy": 150, "completeness": -20, "relevance": 100, "falsePositives": 100, "actionability": 100, "reasoning": "x"}`,
			want:     EvaluationScores{Accuracy: 100, Completeness: 0, Relevance: 100, FalsePositives: 100, Actionability: 100, Overall: 75, Reasoning: "x"},
		},
		{
			name:     "not json",
			response: "I cannot evaluate this.",
			want:     fallbackScores("Failed to parse evaluation response"),
		},
		{
			name:     "null",
			response: "null",
			want:     fallbackScores("Failed to parse evaluation response"),
		},
		{
			name:     "no scores",
			response: `{"reasoning": "Looks fine"}`,
			want:     fallbackScores("Failed to parse evaluation response"),
		},
		{
			name:     "wrong types",
			response: `{"accuracy": "high"}`,
			want:     fallbackScores("Failed to parse evaluation response"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseJudgeResponse(tt.response)
			assert.InDelta(t, tt.want.Overall, got.Overall, 1e-9)
			got.Overall = tt.want.Overall
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsedScoresStayInRange(t *testing.T) {
	got := ParseJudgeResponse(`{"accuracy": 1e9, "completeness": -1e9, "relevance": 55.5, "falsePositives": 0, "actionability": 100}`)
	for name, v := range got.Dimensions() {
		assert.GreaterOrEqual(t, v, 0.0, name)
		assert.LessOrEqual(t, v, 100.0, name)
	}
}
