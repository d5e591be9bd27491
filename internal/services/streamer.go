package services

import (
	"context"
	"errors"
	"iter"
	"log"
	"strings"
	"sync"
	"time"

	"alfredoptarigan/careerforge/internal/metrics"
)

const DefaultChatTemperature float32 = 0.7

// Stream outcomes reported to metrics.
const (
	StreamCompleted = "completed"
	StreamCancelled = "cancelled"
	StreamFailed    = "error"
)

type CompletionStreamer interface {
	// Start begins generation and waits only for the first fragment, so setup
	// failures surface before any byte reaches the client.
	Start(ctx context.Context, bundle PromptBundle) (*Completion, error)
}

type StreamerOptions struct {
	Model       string
	Temperature float32
}

type completionStreamer struct {
	gemini      GeminiService
	model       string
	temperature float32
	metrics     *metrics.Metrics
}

// NewCompletionStreamer returns a streamer; a nil gemini means no API key was configured.
func NewCompletionStreamer(gemini GeminiService, opts StreamerOptions, m *metrics.Metrics) CompletionStreamer {
	if opts.Model == "" {
		opts.Model = DefaultChatModel
	}
	if opts.Temperature == 0 {
		opts.Temperature = DefaultChatTemperature
	}
	return &completionStreamer{
		gemini:      gemini,
		model:       opts.Model,
		temperature: opts.Temperature,
		metrics:     m,
	}
}

func (s *completionStreamer) Start(ctx context.Context, bundle PromptBundle) (*Completion, error) {
	if s.gemini == nil {
		log.Println("❌ GEMINI_API_KEY is not set")
		return nil, NewConfigurationError(
			"API key not configured",
			"Please set GEMINI_API_KEY in your environment and restart the server",
		)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	next, stop := iter.Pull2(s.gemini.StreamText(streamCtx, CompletionRequest{
		Model:        s.model,
		SystemPrompt: bundle.SystemPrompt,
		Messages:     bundle.Messages,
		Temperature:  s.temperature,
	}))

	started := time.Now()
	first, err, ok := next()
	if err != nil {
		stop()
		cancel()
		s.metrics.RecordStream(StreamFailed, time.Since(started))
		log.Printf("❌ Failed to start completion stream: %v\n", err)
		return nil, NewUpstreamError(err)
	}

	log.Printf("🤖 Completion stream started with %d messages\n", len(bundle.Messages))

	c := &Completion{
		chunks: make(chan string),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go c.pump(streamCtx, first, ok, next, stop, func(outcome string) {
		s.metrics.RecordStream(outcome, time.Since(started))
	})

	return c, nil
}

// Completion is a running generation. Fragments arrive on Chunks; the full
// text resolves through Wait once generation ends.
type Completion struct {
	chunks chan string
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	text string
	err  error
}

// Chunks is closed when generation ends for any reason.
func (c *Completion) Chunks() <-chan string {
	return c.chunks
}

// Done is closed after the final text and error are set.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Cancel abandons generation. Wait then returns the text produced so far and context.Canceled.
func (c *Completion) Cancel() {
	c.once.Do(c.cancel)
}

// Wait blocks until generation ends or ctx is done.
func (c *Completion) Wait(ctx context.Context) (string, error) {
	select {
	case <-c.done:
		return c.text, c.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Completion) pump(
	ctx context.Context,
	first string,
	ok bool,
	next func() (string, error, bool),
	stop func(),
	record func(outcome string),
) {
	defer close(c.done)
	defer close(c.chunks)
	defer stop()
	defer c.Cancel()

	var builder strings.Builder
	fragment := first

	for ok {
		select {
		case c.chunks <- fragment:
			builder.WriteString(fragment)
		case <-ctx.Done():
			c.finish(builder.String(), ctx.Err(), record)
			return
		}

		var err error
		fragment, err, ok = next()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			c.finish(builder.String(), err, record)
			return
		}
	}

	c.finish(builder.String(), nil, record)
}

func (c *Completion) finish(text string, err error, record func(outcome string)) {
	c.text = text
	c.err = err

	switch {
	case err == nil:
		record(StreamCompleted)
	case errors.Is(err, context.Canceled):
		log.Printf("⚠️  Completion stream cancelled after %d bytes\n", len(text))
		record(StreamCancelled)
	default:
		log.Printf("❌ Completion stream failed mid-response: %v\n", err)
		record(StreamFailed)
	}
}
