package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/careerforge/internal/models"
	"alfredoptarigan/careerforge/internal/repositories"
)

type EvaluationHandler struct {
	evalRepo repositories.EvaluationRepository
}

func NewEvaluationHandler(evalRepo repositories.EvaluationRepository) *EvaluationHandler {
	return &EvaluationHandler{evalRepo: evalRepo}
}

// HandleGet returns the judge scores for a streamed analysis. Scores appear
// only after the background evaluation finishes.
func (h *EvaluationHandler) HandleGet(c *fiber.Ctx) error {
	traceID := c.Params("traceId")
	if traceID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Missing trace ID", "", CodeInvalidRequest)
	}

	eval, err := h.evalRepo.FindByTraceID(traceID)
	if err != nil {
		if errors.Is(err, repositories.ErrEvaluationNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Evaluation not found", "The evaluation may still be running.", CodeNotFound)
		}
		log.Printf("❌ Failed to fetch evaluation %s: %v\n", traceID, err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch evaluation", "", CodeInternal)
	}

	return c.JSON(models.EvaluationResponse{
		TraceID:        eval.TraceID,
		SinkTraceID:    eval.SinkTraceID,
		Accuracy:       eval.Accuracy,
		Completeness:   eval.Completeness,
		Relevance:      eval.Relevance,
		FalsePositives: eval.FalsePositives,
		Actionability:  eval.Actionability,
		Overall:        eval.Overall,
		Reasoning:      eval.Reasoning,
		LatencyMs:      eval.LatencyMs,
	})
}
