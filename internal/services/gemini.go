package services

import (
	"context"
	"fmt"
	"iter"
	"log"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultChatModel  = "gemini-2.5-flash-lite"
	DefaultJudgeModel = "gemini-2.0-flash-lite"
	DefaultEmbedModel = "text-embedding-004"
)

// CompletionRequest describes one chat-model call. Model falls back to the
// service default when empty.
type CompletionRequest struct {
	Model           string
	SystemPrompt    string
	Messages        []PromptMessage
	Temperature     float32
	MaxOutputTokens int32
}

type GeminiService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, req CompletionRequest) (string, error)
	GenerateTextWithRetry(ctx context.Context, req CompletionRequest, maxRetries int) (string, error)
	StreamText(ctx context.Context, req CompletionRequest) iter.Seq2[string, error]
}

type GeminiOptions struct {
	APIKey          string
	ChatModel       string
	EmbedModel      string
	MaxOutputTokens int32
}

type geminiService struct {
	client          *genai.Client
	modelName       string
	embedModel      string
	maxOutputTokens int32
}

func NewGeminiService(opts GeminiOptions) (GeminiService, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	g := &geminiService{
		client:          client,
		modelName:       opts.ChatModel,
		embedModel:      opts.EmbedModel,
		maxOutputTokens: opts.MaxOutputTokens,
	}
	if g.modelName == "" {
		g.modelName = DefaultChatModel
	}
	if g.embedModel == "" {
		g.embedModel = DefaultEmbedModel
	}
	if g.maxOutputTokens <= 0 {
		g.maxOutputTokens = 4096
	}

	return g, nil
}

// GenerateEmbedding implements GeminiService.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	// Truncate text if too long (max ~10000 tokens for embedding)
	if len(text) > 40000 {
		text = text[:40000]
	}

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

// GenerateText implements GeminiService.
func (g *geminiService) GenerateText(ctx context.Context, req CompletionRequest) (string, error) {
	model, contents, config := g.buildRequest(req)

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		log.Printf("❌ Gemini API error: %v\n", err)
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if resp == nil {
		log.Println("❌ Gemini API returned nil response")
		return "", fmt.Errorf("no response generated (nil response)")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		log.Println("❌ No text content in response")
		return "", fmt.Errorf("no text content in response")
	}

	return text, nil
}

// GenerateTextWithRetry implements GeminiService.
func (g *geminiService) GenerateTextWithRetry(ctx context.Context, req CompletionRequest, maxRetries int) (string, error) {
	return generateWithRetry(ctx, g, req, maxRetries)
}

// StreamText implements GeminiService. Each yielded value is one text fragment
// in arrival order; empty fragments are skipped.
func (g *geminiService) StreamText(ctx context.Context, req CompletionRequest) iter.Seq2[string, error] {
	model, contents, config := g.buildRequest(req)

	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				yield("", fmt.Errorf("failed to stream text: %w", err))
				return
			}
			if resp == nil {
				continue
			}

			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}

func (g *geminiService) buildRequest(req CompletionRequest) (string, []*genai.Content, *genai.GenerateContentConfig) {
	model := req.Model
	if model == "" {
		model = g.modelName
	}

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = g.maxOutputTokens
	}

	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == ChatRoleAssistant {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}

	return model, contents, config
}

func generateWithRetry(ctx context.Context, g GeminiService, req CompletionRequest, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, err := g.GenerateText(ctx, req)
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Check if context is cancelled
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if attempt < maxRetries {
			log.Printf("⚠️ Attempt %d failed: %v. Retrying...\n", attempt, err)
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// UserPrompt wraps a single prompt as a one-turn conversation.
func UserPrompt(prompt string) []PromptMessage {
	return []PromptMessage{{Role: ChatRoleUser, Content: prompt}}
}
