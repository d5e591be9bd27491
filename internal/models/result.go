package models

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code"`
}

type ChatSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ChatMessageInput struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type CreateChatRequest struct {
	Title    *string            `json:"title"`
	Messages []ChatMessageInput `json:"messages"`
}

type UpdateChatRequest struct {
	Title    *string             `json:"title"`
	Messages *[]ChatMessageInput `json:"messages"`
}

type EvaluationResponse struct {
	TraceID        string  `json:"trace_id"`
	SinkTraceID    *string `json:"sink_trace_id,omitempty"`
	Accuracy       float64 `json:"accuracy"`
	Completeness   float64 `json:"completeness"`
	Relevance      float64 `json:"relevance"`
	FalsePositives float64 `json:"false_positives"`
	Actionability  float64 `json:"actionability"`
	Overall        float64 `json:"overall"`
	Reasoning      string  `json:"reasoning"`
	LatencyMs      int64   `json:"latency_ms"`
}
