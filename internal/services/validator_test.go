package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error, message string) *AppError {
	t.Helper()
	appErr, ok := AsAppError(err)
	require.True(t, ok, "expected *AppError, got %v", err)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, message, appErr.Message)
	return appErr
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "I know React", want: "I know React"},
		{name: "tags removed", input: "<b>Go</b> and <script>alert(1)</script>SQL", want: "Go and alert(1) SQL"},
		{name: "whitespace collapsed", input: "  React\n\n\tNode.js   ", want: "React Node.js"},
		{name: "only tags", input: "<br/><p></p>", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMessage(tt.input))
		})
	}
}

func TestValidateRejectsLongMessage(t *testing.T) {
	limits := DefaultValidationLimits()

	_, err := ValidateChatInput(ChatInput{Message: strings.Repeat("a", limits.MaxMessageLength+1)}, limits)
	requireValidationError(t, err, "Message too long")

	// Length is checked before everything else, even with an invalid file attached.
	_, err = ValidateChatInput(ChatInput{
		Message: strings.Repeat("é", limits.MaxMessageLength+1),
		File:    &UploadedFile{ContentType: "image/png", Size: 10},
	}, limits)
	requireValidationError(t, err, "Message too long")
}

func TestValidateAcceptsMessageAtLimit(t *testing.T) {
	limits := DefaultValidationLimits()
	req, err := ValidateChatInput(ChatInput{Message: strings.Repeat("é", limits.MaxMessageLength)}, limits)
	require.NoError(t, err)
	assert.Len(t, []rune(req.Message), limits.MaxMessageLength)
}

func TestValidateRejectsMissingInput(t *testing.T) {
	for _, message := range []string{"", "   ", "<p> </p>"} {
		_, err := ValidateChatInput(ChatInput{Message: message}, DefaultValidationLimits())
		appErr := requireValidationError(t, err, "Missing input")
		assert.Equal(t, "Please provide a message or upload a PDF resume.", appErr.Details)
	}
}

func TestValidateRejectsNonPDFType(t *testing.T) {
	for _, contentType := range []string{"image/png", "application/octet-stream", "application/pdf; charset=binary", ""} {
		_, err := ValidateChatInput(ChatInput{
			File: &UploadedFile{Filename: "resume.pdf", ContentType: contentType, Size: 1024},
		}, DefaultValidationLimits())
		requireValidationError(t, err, "Invalid file type")
	}
}

func TestValidateRejectsOversizePDF(t *testing.T) {
	limits := DefaultValidationLimits()

	_, err := ValidateChatInput(ChatInput{
		File: &UploadedFile{Filename: "resume.pdf", ContentType: PDFMimeType, Size: limits.MaxPDFSize + 1},
	}, limits)
	requireValidationError(t, err, "File too large")

	req, err := ValidateChatInput(ChatInput{
		File: &UploadedFile{Filename: "resume.pdf", ContentType: PDFMimeType, Size: limits.MaxPDFSize},
	}, limits)
	require.NoError(t, err)
	assert.NotNil(t, req.PDF)
}

func TestValidateEmptyFileCountsAsPresent(t *testing.T) {
	req, err := ValidateChatInput(ChatInput{
		File: &UploadedFile{Filename: "blank", ContentType: "text/plain", Size: 0},
	}, DefaultValidationLimits())
	require.NoError(t, err)
	assert.NotNil(t, req.PDF)
}

func TestValidateNormalizesFields(t *testing.T) {
	req, err := ValidateChatInput(ChatInput{
		Message:  " <i>I know</i>  Go ",
		Messages: `[{"id":"1","role":"user","content":"hi"}]`,
		JobID:    " 2 ",
	}, DefaultValidationLimits())
	require.NoError(t, err)
	assert.Equal(t, "I know Go", req.Message)
	assert.Equal(t, "2", req.JobID)
	assert.Equal(t, []ChatMessage{{ID: "1", Role: ChatRoleUser, Content: "hi"}}, req.PriorMessages)
}

func TestParseMessages(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []ChatMessage
	}{
		{name: "empty", raw: "", want: []ChatMessage{}},
		{name: "invalid json", raw: "{not json", want: []ChatMessage{}},
		{name: "not an array", raw: `{"id":"1"}`, want: []ChatMessage{}},
		{name: "bad role", raw: `[{"id":"1","role":"system","content":"x"}]`, want: []ChatMessage{}},
		{name: "missing content", raw: `[{"id":"1","role":"user"}]`, want: []ChatMessage{}},
		{name: "one bad entry drops all", raw: `[{"id":"1","role":"user","content":"a"},{"id":2,"role":"user","content":"b"}]`, want: []ChatMessage{}},
		{
			name: "valid with unknown keys",
			raw:  `[{"id":"1","role":"user","content":"a","extra":true},{"id":"2","role":"assistant","content":"b"}]`,
			want: []ChatMessage{
				{ID: "1", Role: ChatRoleUser, Content: "a"},
				{ID: "2", Role: ChatRoleAssistant, Content: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMessages(tt.raw))
		})
	}
}
