package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/tmc/langchaingo/llms"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind tags a failure of the link pipeline. Each kind maps to exactly one
// response code, in the order the constants are declared.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidURL
	KindExtractionBadRequest
	KindExtractionAuth
	KindExtractionRateLimited
	KindExtractionFailed
	KindMailAuth
	KindUnavailable
	KindTimeout
	KindNotFound
	KindTooLarge
)

var kindCodes = map[Kind]string{
	KindUnknown:               "internal_error",
	KindInvalidURL:            "invalid_url",
	KindExtractionBadRequest:  "extraction_bad_request",
	KindExtractionAuth:        "extraction_auth_failed",
	KindExtractionRateLimited: "extraction_rate_limited",
	KindExtractionFailed:      "extraction_failed",
	KindMailAuth:              "mail_auth_failed",
	KindUnavailable:           "service_unavailable",
	KindTimeout:               "timeout",
	KindNotFound:              "not_found",
	KindTooLarge:              "payload_too_large",
}

// Code is the machine-readable error string returned to API clients.
func (k Kind) Code() string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return kindCodes[KindUnknown]
}

func (k Kind) String() string { return k.Code() }

// ProcessError is the single error type the link pipeline surfaces.
type ProcessError struct {
	Kind Kind
	// Status is the upstream HTTP status for KindExtractionFailed.
	Status int
	// Op names the step that failed ("fetch", "extract title", "send mail"...).
	Op  string
	Err error
}

func (e *ProcessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind.Code())
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// HTTPStatus is the response status for this failure.
func (e *ProcessError) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidURL, KindExtractionBadRequest:
		return http.StatusBadRequest
	case KindExtractionAuth:
		return http.StatusForbidden
	case KindExtractionRateLimited:
		return http.StatusTooManyRequests
	case KindExtractionFailed:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindMailAuth:
		return http.StatusInternalServerError
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindNotFound:
		return http.StatusNotFound
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

func newProcessError(kind Kind, op string, err error) *ProcessError {
	return &ProcessError{Kind: kind, Op: op, Err: err}
}

// AsProcessError returns err as a *ProcessError, classifying anything that
// isn't one yet as a transport failure.
func AsProcessError(op string, err error) *ProcessError {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe
	}
	return newProcessError(transportKind(err), op, err)
}

// transportKind classifies network-level failures. A refused connection wins
// over a timeout, which wins over an unresolvable host.
func transportKind(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return KindUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return KindNotFound
	}
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return KindTooLarge
	}
	return KindUnknown
}

// classifyExtraction tags an error returned by an extraction backend. Typed
// provider errors carry a status that decides the kind; anything else falls
// back to transport classification.
func classifyExtraction(op string, err error) *ProcessError {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe
	}

	if code, ok := extractionStatus(err); ok {
		return extractionStatusError(op, code, err)
	}

	var llmErr *llms.Error
	if errors.As(err, &llmErr) {
		switch llmErr.Code {
		case llms.ErrCodeInvalidRequest, llms.ErrCodeTokenLimit:
			return newProcessError(KindExtractionBadRequest, op, err)
		case llms.ErrCodeAuthentication:
			return newProcessError(KindExtractionAuth, op, err)
		case llms.ErrCodeRateLimit, llms.ErrCodeQuotaExceeded:
			return newProcessError(KindExtractionRateLimited, op, err)
		case llms.ErrCodeProviderUnavailable:
			return newProcessError(KindUnavailable, op, err)
		case llms.ErrCodeTimeout:
			return newProcessError(KindTimeout, op, err)
		}
	}

	return newProcessError(transportKind(err), op, err)
}

func extractionStatusError(op string, code int, err error) *ProcessError {
	switch code {
	case http.StatusBadRequest:
		return newProcessError(KindExtractionBadRequest, op, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return newProcessError(KindExtractionAuth, op, err)
	case http.StatusTooManyRequests:
		return newProcessError(KindExtractionRateLimited, op, err)
	}
	return &ProcessError{Kind: KindExtractionFailed, Status: code, Op: op, Err: err}
}

// extractionStatus digs an HTTP status out of the error types the Gemini
// clients return: genai REST errors, googleapi errors, and gax/gRPC errors
// from the generative-ai-go client used by langchaingo.
func extractionStatus(err error) (int, bool) {
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Code != 0 {
		return genaiErr.Code, true
	}
	var genaiPtr *genai.APIError
	if errors.As(err, &genaiPtr) && genaiPtr != nil && genaiPtr.Code != 0 {
		return genaiPtr.Code, true
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code, true
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if c := apiErr.HTTPCode(); c > 0 {
			return c, true
		}
		if st := apiErr.GRPCStatus(); st != nil {
			if c, ok := grpcToHTTP(st.Code()); ok {
				return c, true
			}
		}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		if c, ok := grpcToHTTP(st.Code()); ok {
			return c, true
		}
	}
	return 0, false
}

func grpcToHTTP(c codes.Code) (int, bool) {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest, true
	case codes.Unauthenticated:
		return http.StatusUnauthorized, true
	case codes.PermissionDenied:
		return http.StatusForbidden, true
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, true
	case codes.NotFound:
		return http.StatusNotFound, true
	case codes.Unavailable:
		return http.StatusServiceUnavailable, true
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, true
	case codes.Internal:
		return http.StatusInternalServerError, true
	}
	return 0, false
}
