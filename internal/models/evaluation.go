package models

import (
	"time"

	"github.com/google/uuid"
)

// Evaluation is the stored judge verdict for one streamed analysis.
type Evaluation struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TraceID        string    `gorm:"type:text;uniqueIndex;not null" json:"trace_id"`
	SinkTraceID    *string   `gorm:"type:text" json:"sink_trace_id,omitempty"`
	JobID          string    `gorm:"type:text" json:"job_id"`
	Accuracy       float64   `gorm:"type:decimal(5,2)" json:"accuracy"`
	Completeness   float64   `gorm:"type:decimal(5,2)" json:"completeness"`
	Relevance      float64   `gorm:"type:decimal(5,2)" json:"relevance"`
	FalsePositives float64   `gorm:"type:decimal(5,2)" json:"false_positives"`
	Actionability  float64   `gorm:"type:decimal(5,2)" json:"actionability"`
	Overall        float64   `gorm:"type:decimal(5,2)" json:"overall"`
	Reasoning      string    `gorm:"type:text" json:"reasoning"`
	JudgeModel     string    `gorm:"type:text" json:"judge_model"`
	LatencyMs      int64     `json:"latency_ms"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}
