package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/careerforge/internal/services"
)

type JobsHandler struct {
	jobService services.JobService
}

func NewJobsHandler(jobService services.JobService) *JobsHandler {
	return &JobsHandler{jobService: jobService}
}

// HandleList serves GET /api/jobs?q=&country=&limit=.
func (h *JobsHandler) HandleList(c *fiber.Ctx) error {
	params := services.JobSearchParams{
		Query:   c.Query("q", "software developer"),
		Country: c.Query("country", "us"),
		Limit:   services.ClampJobLimit(c.QueryInt("limit", services.DefaultJobListLimit)),
	}

	jobs, err := h.jobService.List(c.UserContext(), params)
	if err != nil {
		log.Printf("❌ Failed to fetch jobs: %v\n", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch jobs", "", CodeInternal)
	}

	return c.JSON(jobs)
}
