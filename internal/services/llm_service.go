package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"golang.org/x/time/rate"
)

// Extractor answers a single natural-language question about a page.
// An empty answer means the model had nothing usable to say.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

type LLMService struct {
	Client  llms.Model
	limiter *rate.Limiter
}

// NewLLMService builds the Gemini client through langchaingo.
func NewLLMService(ctx context.Context, apiKey, model string, requestsPerMinute int) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &LLMService{
		Client:  llm,
		limiter: NewRequestLimiter(requestsPerMinute),
	}, nil
}

// NewLLMServiceWithModel wraps an existing model, e.g. a fake in tests.
func NewLLMServiceWithModel(model llms.Model, requestsPerMinute int) *LLMService {
	return &LLMService{Client: model, limiter: NewRequestLimiter(requestsPerMinute)}
}

func (s *LLMService) Extract(ctx context.Context, prompt string) (string, error) {
	if err := waitLimiter(ctx, s.limiter); err != nil {
		return "", err
	}

	resp, err := s.Client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if errors.Is(err, googleai.ErrNoContentInResponse) {
		return "", nil
	}
	if err != nil {
		return "", classifyExtraction("extract", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// NewRequestLimiter paces outbound extraction calls. A non-positive rate
// means no pacing and returns nil.
func NewRequestLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	// Burst of three lets a single link's title/company/location calls go out back to back.
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3)
}

func waitLimiter(ctx context.Context, lim *rate.Limiter) error {
	if lim == nil {
		return nil
	}
	if err := lim.Wait(ctx); err != nil {
		return newProcessError(KindTimeout, "extract", fmt.Errorf("waiting for extraction slot: %w", err))
	}
	return nil
}
