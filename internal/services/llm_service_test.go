package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
	"github.com/tmc/langchaingo/llms/googleai"
)

func TestLLMService_Extract(t *testing.T) {
	svc := NewLLMServiceWithModel(fake.NewFakeLLM([]string{"Platform Engineer"}), 0)

	got, err := svc.Extract(context.Background(), "What is the job title?")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Platform Engineer" {
		t.Errorf("Extract = %q, want %q", got, "Platform Engineer")
	}
}

type errModel struct{ err error }

func (m errModel) GenerateContent(context.Context, []llms.MessageContent, ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, m.err
}

func (m errModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return "", m.err
}

func TestLLMService_NoContentIsEmptyAnswer(t *testing.T) {
	svc := NewLLMServiceWithModel(errModel{err: googleai.ErrNoContentInResponse}, 0)

	got, err := svc.Extract(context.Background(), "q")
	if err != nil || got != "" {
		t.Errorf("Extract = (%q, %v), want empty answer and no error", got, err)
	}
}

func TestLLMService_ErrorsAreTagged(t *testing.T) {
	svc := NewLLMServiceWithModel(errModel{err: llms.NewError(llms.ErrCodeRateLimit, "googleai", "quota")}, 0)

	_, err := svc.Extract(context.Background(), "q")
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindExtractionRateLimited {
		t.Fatalf("err = %v, want KindExtractionRateLimited", err)
	}
}

func TestNewRequestLimiter(t *testing.T) {
	if NewRequestLimiter(0) != nil {
		t.Error("zero rate should disable pacing")
	}

	lim := NewRequestLimiter(1)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if !lim.Allow() {
			t.Fatalf("call %d within burst was not allowed", i+1)
		}
	}

	// The fourth call would wait close to a minute; a short deadline fails it.
	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := waitLimiter(ctx, lim)
	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindTimeout {
		t.Fatalf("waitLimiter = %v, want KindTimeout", err)
	}
}
