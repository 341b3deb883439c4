package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// errNotText is returned when a fetched page isn't something the extractor can read.
var errNotText = errors.New("response is not text")

// FetchService downloads job postings.
type FetchService struct {
	Client *http.Client
	// MaxBodyRead caps how much of a page is read off the wire.
	MaxBodyRead int64
}

func NewFetchService(timeout time.Duration) *FetchService {
	return &FetchService{
		Client:      &http.Client{Timeout: timeout},
		MaxBodyRead: 2 << 20,
	}
}

// Fetch returns the body of link as a string. Non-text bodies, 4xx/5xx
// responses and transport failures come back as *ProcessError.
func (s *FetchService) Fetch(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", newProcessError(KindInvalidURL, "fetch", err)
	}
	req.Header.Set("User-Agent", "JobTracker/1.0 (+link-processor)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	res, err := s.Client.Do(req)
	if err != nil {
		return "", AsProcessError("fetch", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		return "", newProcessError(KindNotFound, "fetch", fmt.Errorf("GET %s: status %d", link, res.StatusCode))
	case res.StatusCode >= 500:
		return "", newProcessError(KindUnavailable, "fetch", fmt.Errorf("GET %s: status %d", link, res.StatusCode))
	case res.StatusCode >= 400:
		return "", newProcessError(KindUnknown, "fetch", fmt.Errorf("GET %s: status %d", link, res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, s.MaxBodyRead))
	if err != nil {
		return "", AsProcessError("fetch", fmt.Errorf("read body: %w", err))
	}

	if !isText(res.Header.Get("Content-Type"), body) {
		return "", newProcessError(KindUnknown, "fetch", fmt.Errorf("%w: %s", errNotText, mimetype.Detect(body).String()))
	}
	return string(body), nil
}

// isText accepts a declared text-like content type, or falls back to sniffing
// the body when the server sent none or a generic one.
func isText(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt != "application/octet-stream" {
		if strings.HasPrefix(mt, "text/") || strings.HasSuffix(mt, "+xml") || strings.HasSuffix(mt, "+json") ||
			mt == "application/json" || mt == "application/xml" {
			return true
		}
		return false
	}
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// Truncate keeps the first max characters of s.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
