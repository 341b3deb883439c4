package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GenAIService talks to Gemini through the google.golang.org/genai SDK.
type GenAIService struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

func NewGenAIService(ctx context.Context, cc *genai.ClientConfig, model string, limiter *rate.Limiter) (*GenAIService, error) {
	if cc == nil || cc.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cc.Backend == genai.BackendUnspecified {
		cc.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GenAIService{client: client, model: model, limiter: limiter}, nil
}

func (s *GenAIService) Extract(ctx context.Context, prompt string) (string, error) {
	if err := waitLimiter(ctx, s.limiter); err != nil {
		return "", err
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyExtraction("extract", err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}
