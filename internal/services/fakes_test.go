package services

import (
	"context"
	"errors"
	"iter"
	"sync"
)

// fakeGemini streams fixed fragments. When hold is set the stream blocks after
// the first fragment until ctx is done.
type fakeGemini struct {
	mu sync.Mutex

	chunks    []string
	startErr  error
	midErr    error
	hold      bool
	text      string
	textErrs  []error
	embedding []float32
	embedErr  error

	requests  []CompletionRequest
	textCalls int
}

func (f *fakeGemini) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedding, nil
}

func (f *fakeGemini) GenerateText(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	call := f.textCalls
	f.textCalls++
	if call < len(f.textErrs) && f.textErrs[call] != nil {
		return "", f.textErrs[call]
	}
	return f.text, nil
}

func (f *fakeGemini) GenerateTextWithRetry(ctx context.Context, req CompletionRequest, maxRetries int) (string, error) {
	return generateWithRetry(ctx, f, req, maxRetries)
}

func (f *fakeGemini) StreamText(ctx context.Context, req CompletionRequest) iter.Seq2[string, error] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	return func(yield func(string, error) bool) {
		if f.startErr != nil {
			yield("", f.startErr)
			return
		}
		for i, chunk := range f.chunks {
			if !yield(chunk, nil) {
				return
			}
			if i == 0 && f.hold {
				<-ctx.Done()
				yield("", ctx.Err())
				return
			}
		}
		if f.midErr != nil {
			yield("", f.midErr)
		}
	}
}

func (f *fakeGemini) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeGemini) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.textCalls
}

var errUpstream = errors.New("upstream exploded: key=secret")

// recordingSink captures evaluation results.
type recordingSink struct {
	mu      sync.Mutex
	results []EvaluationResult
	err     error
}

func (s *recordingSink) Record(ctx context.Context, result EvaluationResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return "sink-" + result.TraceID, s.err
}

func (s *recordingSink) recorded() []EvaluationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]EvaluationResult(nil), s.results...)
}
