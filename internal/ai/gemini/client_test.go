package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu    sync.Mutex
	calls []fakeCall
	queue []fakeResponse
}

type fakeCall struct {
	model  string
	prompt string
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prompt := ""
	for _, content := range contents {
		for _, part := range content.Parts {
			prompt += part.Text
		}
	}
	f.calls = append(f.calls, fakeCall{model: model, prompt: prompt})

	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func stubWait(t *testing.T) {
	t.Helper()
	originalWait := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = originalWait })
}

func TestGeneratorRetriesOnTemporaryError(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	models.enqueue(nil, tempErr)
	models.enqueue(textResponse("retry ok"), nil)

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	output, err := g.GenerateContent(context.Background(), "next question please")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output != "retry ok" {
		t.Fatalf("unexpected output: %q", output)
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}

	for _, call := range models.calls {
		if call.model != "gemini-pro" {
			t.Fatalf("unexpected model: %q", call.model)
		}
		if call.prompt != "next question please" {
			t.Fatalf("unexpected prompt: %q", call.prompt)
		}
	}
}

func TestGeneratorStopsAfterRetriesExhausted(t *testing.T) {
	stubWait(t)

	models := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}
	models.enqueue(nil, tempErr)
	models.enqueue(nil, tempErr)

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 2,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}

	if len(models.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{}
	quotaErr := genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}
	models.enqueue(nil, quotaErr)

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error when quota delay too long")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorDoesNotRetryClientErrors(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(nil, genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"})

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 3,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected single call, got %d", len(models.calls))
	}
}

func TestGeneratorRejectsEmptyPrompt(t *testing.T) {
	g := &Generator{
		models:     &fakeModels{},
		model:      "gemini-pro",
		maxRetries: 1,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatal("expected error for blank prompt")
	}
}

func TestGeneratorRejectsEmptyResponse(t *testing.T) {
	models := &fakeModels{}
	models.enqueue(&genai.GenerateContentResponse{}, nil)

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 1,
		logger:     zap.NewNop(),
	}

	if _, err := g.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestCollectTextConcatenatesCandidateParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " first "}, {Text: ""}}}},
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}

	if got := collectText(resp); got != "first\nsecond" {
		t.Fatalf("unexpected collected text: %q", got)
	}
}

func TestGeneratorLogsTruncatedPreviews(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)

	models := &fakeModels{}
	models.enqueue(textResponse(strings.Repeat("r", 300)), nil)

	g := &Generator{
		models:     models,
		model:      "gemini-pro",
		maxRetries: 1,
		maxLogLen:  10,
		logger:     zap.New(core),
	}

	longPrompt := strings.Repeat("p", 300)
	if _, err := g.GenerateContent(context.Background(), longPrompt); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	requests := observed.FilterMessage("gemini generate content request").All()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request log entry, got %d", len(requests))
	}
	preview, ok := requests[0].ContextMap()["prompt_preview"].(string)
	if !ok || len([]rune(preview)) >= 300 {
		t.Fatalf("prompt preview not truncated: %q", preview)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", preview)
	}

	responses := observed.FilterMessage("gemini generate content response").All()
	if len(responses) != 1 {
		t.Fatalf("expected 1 response log entry, got %d", len(responses))
	}
	preview, ok = responses[0].ContextMap()["response_preview"].(string)
	if !ok || len([]rune(preview)) >= 300 {
		t.Fatalf("response preview not truncated: %q", preview)
	}
}
