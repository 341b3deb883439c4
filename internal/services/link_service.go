package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
)

const (
	UnknownJob      = "Unknown Job"
	UnknownCompany  = "Unknown Company"
	UnknownLocation = "Unknown Location"
)

// ExtractionResult holds what the model found on a job posting. A field the
// model couldn't answer keeps its Unknown sentinel.
type ExtractionResult struct {
	JobTitle        string `json:"job_title"`
	CompanyName     string `json:"company_name"`
	CompanyLocation string `json:"company_location"`
}

func NewExtractionResult() ExtractionResult {
	return ExtractionResult{
		JobTitle:        UnknownJob,
		CompanyName:     UnknownCompany,
		CompanyLocation: UnknownLocation,
	}
}

// NotificationRequest is everything the confirmation email is built from.
type NotificationRequest struct {
	To   string
	Link string
	ExtractionResult
}

// PageFetcher retrieves the raw content behind a link.
type PageFetcher interface {
	Fetch(ctx context.Context, link string) (string, error)
}

type LinkServiceConfig struct {
	FetchTimeout    time.Duration
	ExtractTimeout  time.Duration
	MailTimeout     time.Duration
	MaxContentChars int
}

// LinkService turns a job-posting link into a confirmation email.
type LinkService struct {
	cfg       LinkServiceConfig
	Fetcher   PageFetcher
	Extractor Extractor
	Mailer    Mailer
}

func NewLinkService(cfg LinkServiceConfig, fetcher PageFetcher, extractor Extractor, mailer Mailer) *LinkService {
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if cfg.ExtractTimeout == 0 {
		cfg.ExtractTimeout = 10 * time.Second
	}
	if cfg.MailTimeout == 0 {
		cfg.MailTimeout = 10 * time.Second
	}
	if cfg.MaxContentChars == 0 {
		cfg.MaxContentChars = 10000
	}
	return &LinkService{cfg: cfg, Fetcher: fetcher, Extractor: extractor, Mailer: mailer}
}

type attribute struct {
	name     string
	question string
	set      func(r *ExtractionResult, v string)
}

var attributes = []attribute{
	{
		name:     "title",
		question: "What is the job title of the position advertised in this job posting? Reply with the job title only, no extra words.",
		set:      func(r *ExtractionResult, v string) { r.JobTitle = v },
	},
	{
		name:     "company",
		question: "What is the name of the company that is hiring in this job posting? Reply with the company name only, no extra words.",
		set:      func(r *ExtractionResult, v string) { r.CompanyName = v },
	},
	{
		name:     "location",
		question: "Where is the job in this job posting located (city, region or country, or 'Remote')? Reply with the location only, no extra words.",
		set:      func(r *ExtractionResult, v string) { r.CompanyLocation = v },
	},
}

func extractionPrompt(question, content string) string {
	return fmt.Sprintf("%s\n\n### JOB POSTING CONTENT:\n%s", question, content)
}

// ValidateLink accepts absolute http(s) URLs with a host.
func ValidateLink(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, newProcessError(KindInvalidURL, "validate", errors.New("link is empty"))
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, newProcessError(KindInvalidURL, "validate", fmt.Errorf("invalid link %q: %w", raw, err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, newProcessError(KindInvalidURL, "validate", fmt.Errorf("invalid link %q: scheme must be http or https", raw))
	}
	if u.Hostname() == "" {
		return nil, newProcessError(KindInvalidURL, "validate", fmt.Errorf("invalid link %q: missing host", raw))
	}
	return u, nil
}

// Process fetches link, extracts title/company/location and mails the result
// to email. Every failure is a *ProcessError; nothing is retried.
func (s *LinkService) Process(ctx context.Context, link, email string) (*NotificationRequest, error) {
	u, err := ValidateLink(link)
	if err != nil {
		return nil, err
	}
	link = strings.TrimSpace(link)
	logPrefix := fmt.Sprintf("[Link: %s]", u.Host)

	log.Printf("%s 📥 START processing for %s", logPrefix, email)

	content, err := s.fetch(ctx, link)
	if err != nil {
		log.Printf("%s ❌ Fetch failed: %v", logPrefix, err)
		return nil, err
	}
	content = Truncate(content, s.cfg.MaxContentChars)

	result, err := s.extract(ctx, content)
	if err != nil {
		log.Printf("%s ❌ Extraction failed: %v", logPrefix, err)
		return nil, err
	}
	log.Printf("%s 🧠 Extracted: %s | %s | %s", logPrefix, result.JobTitle, result.CompanyName, result.CompanyLocation)

	req := &NotificationRequest{To: email, Link: link, ExtractionResult: result}

	mailCtx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()
	if err := s.Mailer.Send(mailCtx, ComposeNotification(*req)); err != nil {
		pe := AsProcessError("send mail", err)
		log.Printf("%s ❌ Email failed: %v", logPrefix, pe)
		return nil, pe
	}

	log.Printf("%s ✅ Confirmation sent to %s", logPrefix, email)
	return req, nil
}

func (s *LinkService) fetch(ctx context.Context, link string) (string, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	content, err := s.Fetcher.Fetch(fetchCtx, link)
	if err != nil {
		return "", AsProcessError("fetch", err)
	}
	return content, nil
}

// extract asks one question per attribute, in order. An empty answer keeps the
// sentinel; an error from the service stops the run.
func (s *LinkService) extract(ctx context.Context, content string) (ExtractionResult, error) {
	result := NewExtractionResult()
	for _, attr := range attributes {
		answer, err := s.ask(ctx, extractionPrompt(attr.question, content))
		if err != nil {
			pe := classifyExtraction("extract "+attr.name, err)
			pe.Op = "extract " + attr.name
			return result, pe
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			attr.set(&result, answer)
		}
	}
	return result, nil
}

func (s *LinkService) ask(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	defer cancel()
	return s.Extractor.Extract(callCtx, prompt)
}

// ComposeNotification renders the confirmation email. The output depends only
// on req.
func ComposeNotification(req NotificationRequest) MailMessage {
	var sb strings.Builder
	sb.WriteString("Hello,\n\n")
	sb.WriteString("A new job application link was added to your tracker.\n\n")
	sb.WriteString(fmt.Sprintf("Job Title: %s\n", req.JobTitle))
	sb.WriteString(fmt.Sprintf("Company: %s\n", req.CompanyName))
	sb.WriteString(fmt.Sprintf("Location: %s\n", req.CompanyLocation))
	sb.WriteString(fmt.Sprintf("Link: %s\n\n", req.Link))
	sb.WriteString("Good luck with your application!\n")

	return MailMessage{
		To:      req.To,
		Subject: fmt.Sprintf("Job Application Saved: %s at %s", req.JobTitle, req.CompanyName),
		Body:    sb.String(),
	}
}
