package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/careerforge/internal/services"
)

type ChatHandler struct {
	analysisService services.AnalysisService
	limits          services.ValidationLimits
}

func NewChatHandler(analysisService services.AnalysisService, limits services.ValidationLimits) *ChatHandler {
	return &ChatHandler{
		analysisService: analysisService,
		limits:          limits,
	}
}

// HandleChat validates the form, starts the analysis and streams the answer as plain text.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	input, err := h.readInput(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request", "Request body must be multipart/form-data.", CodeInvalidRequest)
	}

	inbound, err := services.ValidateChatInput(input, h.limits)
	if err != nil {
		return writeError(c, err)
	}

	clientID := services.ClientIdentifier(c.Get(fiber.HeaderXForwardedFor))
	log.Printf("💬 Chat request from %s (message: %d chars, pdf: %t, history: %d)\n",
		clientID, len(inbound.Message), inbound.PDF != nil, len(inbound.PriorMessages))

	// The body is written after this handler returns, so the stream must not
	// depend on the request context.
	result, err := h.analysisService.Analyze(context.Background(), clientID, inbound)
	if err != nil {
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.RateLimit.Remaining))
	if result.TraceID != "" {
		c.Set("X-Opik-Trace-ID", result.TraceID)
	}

	completion := result.Completion
	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer completion.Cancel()

		for chunk := range completion.Chunks() {
			if _, err := w.WriteString(chunk); err != nil {
				log.Printf("⚠️  Client went away: %v\n", err)
				return
			}
			if err := w.Flush(); err != nil {
				log.Printf("⚠️  Client went away: %v\n", err)
				return
			}
		}

		if _, err := completion.Wait(context.Background()); err != nil {
			log.Printf("⚠️  Stream ended early: %v\n", err)
		}
	})

	return nil
}

func (h *ChatHandler) readInput(c *fiber.Ctx) (services.ChatInput, error) {
	if !isMultipart(c) {
		return services.ChatInput{
			Message:  c.FormValue("message"),
			Messages: c.FormValue("messages"),
			JobID:    c.FormValue("jobId"),
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return services.ChatInput{}, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	input := services.ChatInput{
		Message:  firstValue(form.Value, "message"),
		Messages: firstValue(form.Value, "messages"),
		JobID:    firstValue(form.Value, "jobId"),
	}

	files := form.File["pdf"]
	if len(files) == 0 {
		return input, nil
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return services.ChatInput{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	// Oversized files are rejected by validation without being read.
	var data []byte
	if header.Size <= h.limits.MaxPDFSize {
		data, err = io.ReadAll(file)
		if err != nil {
			return services.ChatInput{}, fmt.Errorf("failed to read uploaded file: %w", err)
		}
	}

	input.File = &services.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Data:        data,
	}
	return input, nil
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
