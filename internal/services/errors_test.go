package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/tmc/langchaingo/llms"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKind_StatusAndCode(t *testing.T) {
	tests := []struct {
		err      *ProcessError
		wantCode string
		want     int
	}{
		{&ProcessError{Kind: KindInvalidURL}, "invalid_url", 400},
		{&ProcessError{Kind: KindExtractionBadRequest}, "extraction_bad_request", 400},
		{&ProcessError{Kind: KindExtractionAuth}, "extraction_auth_failed", 403},
		{&ProcessError{Kind: KindExtractionRateLimited}, "extraction_rate_limited", 429},
		{&ProcessError{Kind: KindExtractionFailed, Status: 500}, "extraction_failed", 500},
		{&ProcessError{Kind: KindExtractionFailed}, "extraction_failed", 502},
		{&ProcessError{Kind: KindMailAuth}, "mail_auth_failed", 500},
		{&ProcessError{Kind: KindUnavailable}, "service_unavailable", 503},
		{&ProcessError{Kind: KindTimeout}, "timeout", 504},
		{&ProcessError{Kind: KindNotFound}, "not_found", 404},
		{&ProcessError{Kind: KindTooLarge}, "payload_too_large", 413},
		{&ProcessError{Kind: KindUnknown}, "internal_error", 500},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			if got := tt.err.Kind.Code(); got != tt.wantCode {
				t.Errorf("Code() = %q, want %q", got, tt.wantCode)
			}
			if got := tt.err.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTransportKind(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"refused", refused, KindUnavailable},
		{"refused wins over deadline", fmt.Errorf("%w; %w", refused, context.DeadlineExceeded), KindUnavailable},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, KindTimeout},
		{"dns not found", &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true}, KindNotFound},
		{"dns timeout wins", &net.DNSError{Err: "timeout", Name: "slow.example", IsTimeout: true, IsNotFound: true}, KindTimeout},
		{"max bytes", &http.MaxBytesError{Limit: 10}, KindTooLarge},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transportKind(tt.err); got != tt.want {
				t.Errorf("transportKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyExtraction(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantKind   Kind
		wantStatus int
	}{
		{"genai 400", genai.APIError{Code: 400}, KindExtractionBadRequest, 400},
		{"genai 401", genai.APIError{Code: 401}, KindExtractionAuth, 403},
		{"genai 403 wrapped", fmt.Errorf("call: %w", genai.APIError{Code: 403}), KindExtractionAuth, 403},
		{"genai 429", genai.APIError{Code: 429}, KindExtractionRateLimited, 429},
		{"genai 500 passthrough", genai.APIError{Code: 500}, KindExtractionFailed, 500},
		{"genai 503 passthrough", genai.APIError{Code: 503}, KindExtractionFailed, 503},
		{"googleapi 429", &googleapi.Error{Code: 429}, KindExtractionRateLimited, 429},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), KindExtractionRateLimited, 429},
		{"grpc permission denied", status.Error(codes.PermissionDenied, "key"), KindExtractionAuth, 403},
		{"grpc invalid argument", status.Error(codes.InvalidArgument, "bad"), KindExtractionBadRequest, 400},
		{"llms rate limit", llms.NewError(llms.ErrCodeRateLimit, "googleai", "slow down"), KindExtractionRateLimited, 429},
		{"llms auth", llms.NewError(llms.ErrCodeAuthentication, "googleai", "bad key"), KindExtractionAuth, 403},
		{"deadline", context.DeadlineExceeded, KindTimeout, 504},
		{"unknown", errors.New("boom"), KindUnknown, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := classifyExtraction("extract", tt.err)
			if pe.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", pe.Kind, tt.wantKind)
			}
			if got := pe.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("status = %d, want %d", got, tt.wantStatus)
			}
			if pe.Err == nil {
				t.Errorf("ProcessError dropped the original error")
			}
		})
	}
}

func TestAsProcessError_PassesThroughTagged(t *testing.T) {
	orig := newProcessError(KindMailAuth, "send mail", errors.New("535"))
	wrapped := fmt.Errorf("outer: %w", orig)

	if got := AsProcessError("other", wrapped); got != orig {
		t.Errorf("AsProcessError returned %v, want the original", got)
	}
}
