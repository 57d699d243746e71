package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/knowlumi/interview-panel/internal/logger"
	"github.com/knowlumi/interview-panel/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel        = "gemini-2.5-flash"
	defaultMaxRetries   = 2
	defaultMaxLogLength = 200
	retryBaseDelay      = 2 * time.Second

	// Quota errors sometimes carry a suggested delay. Waiting longer than
	// this inside a live interview is pointless.
	maxQuotaDelay = 30 * time.Second
)

var (
	retryAfterRe = regexp.MustCompile(`retry after (\d+) seconds`)

	// Replaceable in tests.
	wait = utils.WaitFor
)

// contentCaller is the slice of genai.Models the generator needs. Tests
// substitute a fake.
type contentCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide simple prompt-based interactions.
type Generator struct {
	models     contentCaller
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey, model string, maxRetries, maxLogLength int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Generator{
		models:     client.Models,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLength,
		logger:     logger.WithCommonFields(log, "gemini", model),
	}, nil
}

// GenerateContent sends the prompt to Gemini and returns the first textual
// response, retrying transient API errors up to the configured attempt count.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.previewLimit())),
	)

	var lastErr error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		if err == nil {
			output := collectText(resp)
			if output == "" {
				return "", errors.New("gemini api returned empty response")
			}

			g.logger.Debug("gemini generate content response",
				zap.Int("response_length", utf8.RuneCountInString(output)),
				zap.String("response_preview", logger.TruncateForLog(output, g.previewLimit())),
			)
			return output, nil
		}

		lastErr = err

		delay, retryable := retryDelay(err)
		if !retryable || attempt == g.maxRetries {
			break
		}

		g.logger.Warn("retrying gemini request",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if waitErr := wait(ctx, delay); waitErr != nil {
			return "", waitErr
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) previewLimit() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLength
	}
	return g.maxLogLen
}

// retryDelay classifies an error as retryable and returns the delay to wait
// before the next attempt. Server-side errors use a fixed base delay; quota
// errors honor the suggested delay unless it exceeds maxQuotaDelay.
func retryDelay(err error) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	switch {
	case apiErr.Code >= http.StatusInternalServerError:
		return retryBaseDelay, true
	case apiErr.Code == http.StatusTooManyRequests:
		suggested := suggestedDelay(apiErr.Message)
		if suggested > maxQuotaDelay {
			return 0, false
		}
		if suggested <= 0 {
			suggested = retryBaseDelay
		}
		return suggested, true
	default:
		return 0, false
	}
}

func suggestedDelay(message string) time.Duration {
	match := retryAfterRe.FindStringSubmatch(strings.ToLower(message))
	if len(match) != 2 {
		return 0
	}
	seconds, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
