package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const PDFMimeType = "application/pdf"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID      string   `json:"id"`
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// ChatInput carries the raw multipart fields of a chat request.
type ChatInput struct {
	Message  string
	File     *UploadedFile
	Messages string
	JobID    string
}

type InboundRequest struct {
	Message       string
	PDF           *UploadedFile
	PriorMessages []ChatMessage
	JobID         string
}

type ValidationLimits struct {
	MaxMessageLength int
	MaxPDFSize       int64
}

func DefaultValidationLimits() ValidationLimits {
	return ValidationLimits{
		MaxMessageLength: 50000,
		MaxPDFSize:       10 * 1024 * 1024,
	}
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeMessage strips HTML-like tags and collapses whitespace.
func NormalizeMessage(message string) string {
	message = tagPattern.ReplaceAllString(message, " ")
	message = whitespacePattern.ReplaceAllString(message, " ")
	return strings.TrimSpace(message)
}

func NewFileTooLargeError(maxPDFSize int64) *AppError {
	return NewValidationError(
		"File too large",
		fmt.Sprintf("PDF must be at most %d MB.", maxPDFSize/(1024*1024)),
	)
}

// ValidateChatInput applies the request checks in order and stops at the first failure.
func ValidateChatInput(input ChatInput, limits ValidationLimits) (*InboundRequest, error) {
	message := NormalizeMessage(input.Message)

	if utf8.RuneCountInString(message) > limits.MaxMessageLength {
		return nil, NewValidationError(
			"Message too long",
			fmt.Sprintf("Message must be at most %d characters.", limits.MaxMessageLength),
		)
	}

	if message == "" && input.File == nil {
		return nil, NewValidationError(
			"Missing input",
			"Please provide a message or upload a PDF resume.",
		)
	}

	if input.File != nil && input.File.Size > 0 {
		if input.File.ContentType != PDFMimeType {
			return nil, NewValidationError(
				"Invalid file type",
				"Only PDF files are supported. Please upload your resume as a PDF.",
			)
		}
		if input.File.Size > limits.MaxPDFSize {
			return nil, NewFileTooLargeError(limits.MaxPDFSize)
		}
	}

	return &InboundRequest{
		Message:       message,
		PDF:           input.File,
		PriorMessages: ParseMessages(input.Messages),
		JobID:         strings.TrimSpace(input.JobID),
	}, nil
}

type rawChatMessage struct {
	ID      *string `json:"id"`
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// ParseMessages decodes the serialized history. Any malformed entry discards the whole list.
func ParseMessages(raw string) []ChatMessage {
	if strings.TrimSpace(raw) == "" {
		return []ChatMessage{}
	}

	var parsed []rawChatMessage
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return []ChatMessage{}
	}

	messages := make([]ChatMessage, 0, len(parsed))
	for _, m := range parsed {
		if m.ID == nil || m.Role == nil || m.Content == nil {
			return []ChatMessage{}
		}
		role := ChatRole(*m.Role)
		if role != ChatRoleUser && role != ChatRoleAssistant {
			return []ChatMessage{}
		}
		messages = append(messages, ChatMessage{ID: *m.ID, Role: role, Content: *m.Content})
	}

	return messages
}
