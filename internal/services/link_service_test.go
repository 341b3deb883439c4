package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/genai"
)

type fakeFetcher struct {
	content string
	err     error
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.content, f.err
}

type fakeExtractor struct {
	answers []string
	errs    []error
	prompts []string
}

func (f *fakeExtractor) Extract(_ context.Context, prompt string) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.answers) {
		return f.answers[i], nil
	}
	return "", nil
}

type fakeMailer struct {
	sent []MailMessage
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg MailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestLinkService(fetcher *fakeFetcher, ex *fakeExtractor, mailer *fakeMailer) *LinkService {
	return NewLinkService(LinkServiceConfig{}, fetcher, ex, mailer)
}

func TestProcess_InvalidURLMakesNoCalls(t *testing.T) {
	for _, link := range []string{"not a url", "", "   ", "ftp://example.com/job", "/jobs/1", "http://"} {
		t.Run(link, func(t *testing.T) {
			fetcher := &fakeFetcher{content: "page"}
			ex := &fakeExtractor{}
			mailer := &fakeMailer{}

			_, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), link, "me@example.com")

			var pe *ProcessError
			if !errors.As(err, &pe) || pe.Kind != KindInvalidURL {
				t.Fatalf("err = %v, want KindInvalidURL", err)
			}
			if pe.HTTPStatus() != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", pe.HTTPStatus())
			}
			if fetcher.calls != 0 || len(ex.prompts) != 0 || len(mailer.sent) != 0 {
				t.Errorf("outbound calls made: fetch=%d extract=%d mail=%d", fetcher.calls, len(ex.prompts), len(mailer.sent))
			}
		})
	}
}

func TestProcess_EmptyAnswersUseSentinels(t *testing.T) {
	fetcher := &fakeFetcher{content: "<html>Senior Gopher</html>"}
	ex := &fakeExtractor{answers: []string{"", "  \n", ""}}
	mailer := &fakeMailer{}

	got, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), "https://jobs.example.com/1", "me@example.com")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := &NotificationRequest{
		To:               "me@example.com",
		Link:             "https://jobs.example.com/1",
		ExtractionResult: NewExtractionResult(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mailer.sent))
	}
	for _, s := range []string{UnknownJob, UnknownCompany, UnknownLocation} {
		if !strings.Contains(mailer.sent[0].Body, s) {
			t.Errorf("body missing %q:\n%s", s, mailer.sent[0].Body)
		}
	}
}

func TestProcess_EachFieldFallsBackIndependently(t *testing.T) {
	fetcher := &fakeFetcher{content: "page"}
	ex := &fakeExtractor{answers: []string{" Backend Engineer\n", "", "Berlin"}}
	mailer := &fakeMailer{}

	got, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), "https://jobs.example.com/2", "me@example.com")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := ExtractionResult{JobTitle: "Backend Engineer", CompanyName: UnknownCompany, CompanyLocation: "Berlin"}
	if diff := cmp.Diff(want, got.ExtractionResult); diff != "" {
		t.Errorf("extraction mismatch (-want +got):\n%s", diff)
	}
	if len(ex.prompts) != 3 {
		t.Errorf("extract calls = %d, want 3", len(ex.prompts))
	}
}

func TestProcess_RateLimitedFirstCallSendsNothing(t *testing.T) {
	fetcher := &fakeFetcher{content: "page"}
	ex := &fakeExtractor{errs: []error{genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}}}
	mailer := &fakeMailer{}

	_, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), "https://jobs.example.com/3", "me@example.com")

	var pe *ProcessError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ProcessError", err)
	}
	if pe.Kind != KindExtractionRateLimited || pe.HTTPStatus() != http.StatusTooManyRequests {
		t.Errorf("kind=%v status=%d, want extraction_rate_limited/429", pe.Kind, pe.HTTPStatus())
	}
	if pe.Op != "extract title" {
		t.Errorf("op = %q, want %q", pe.Op, "extract title")
	}
	if len(ex.prompts) != 1 {
		t.Errorf("extract calls = %d, want 1", len(ex.prompts))
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent %d emails, want 0", len(mailer.sent))
	}
}

func TestProcess_MailAuthFailureIs500(t *testing.T) {
	fetcher := &fakeFetcher{content: "page"}
	ex := &fakeExtractor{answers: []string{"Gopher", "Acme", "Remote"}}
	mailer := &fakeMailer{err: newProcessError(KindMailAuth, "send mail", errors.New("535 bad credentials"))}

	_, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), "https://jobs.example.com/4", "me@example.com")

	var pe *ProcessError
	if !errors.As(err, &pe) || pe.Kind != KindMailAuth {
		t.Fatalf("err = %v, want KindMailAuth", err)
	}
	if pe.HTTPStatus() != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", pe.HTTPStatus())
	}
	if pe.Kind.Code() != "mail_auth_failed" {
		t.Errorf("code = %q", pe.Kind.Code())
	}
}

func TestProcess_FetchErrorStopsBeforeExtraction(t *testing.T) {
	fetcher := &fakeFetcher{err: newProcessError(KindNotFound, "fetch", errors.New("status 404"))}
	ex := &fakeExtractor{}
	mailer := &fakeMailer{}

	_, err := newTestLinkService(fetcher, ex, mailer).Process(context.Background(), "https://jobs.example.com/gone", "me@example.com")

	var pe *ProcessError
	if !errors.As(err, &pe) || pe.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 ProcessError", err)
	}
	if len(ex.prompts) != 0 || len(mailer.sent) != 0 {
		t.Errorf("calls after failed fetch: extract=%d mail=%d", len(ex.prompts), len(mailer.sent))
	}
}

func TestProcess_TruncatesContentInPrompt(t *testing.T) {
	fetcher := &fakeFetcher{content: strings.Repeat("é", 50)}
	ex := &fakeExtractor{}
	svc := NewLinkService(LinkServiceConfig{MaxContentChars: 10}, fetcher, ex, &fakeMailer{})

	if _, err := svc.Process(context.Background(), "https://jobs.example.com/5", "me@example.com"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, p := range ex.prompts {
		if !strings.HasSuffix(p, "### JOB POSTING CONTENT:\n"+strings.Repeat("é", 10)) {
			t.Errorf("prompt not truncated to 10 runes: %q", p)
		}
	}
}

func TestComposeNotification_Deterministic(t *testing.T) {
	req := NotificationRequest{
		To:   "me@example.com",
		Link: "https://jobs.example.com/6",
		ExtractionResult: ExtractionResult{
			JobTitle:        "Gopher",
			CompanyName:     "Acme",
			CompanyLocation: "Remote",
		},
	}

	a, b := ComposeNotification(req), ComposeNotification(req)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("composition differs between runs:\n%s", diff)
	}

	wantBody := "Hello,\n\n" +
		"A new job application link was added to your tracker.\n\n" +
		"Job Title: Gopher\n" +
		"Company: Acme\n" +
		"Location: Remote\n" +
		"Link: https://jobs.example.com/6\n\n" +
		"Good luck with your application!\n"
	want := MailMessage{
		To:      "me@example.com",
		Subject: "Job Application Saved: Gopher at Acme",
		Body:    wantBody,
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("message mismatch (-want +got):\n%s", diff)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"日本語テキスト", 3, "日本語"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
