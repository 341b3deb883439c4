package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// GmailMailer sends through the Gmail API as the account that owns the OAuth token.
type GmailMailer struct {
	GmailClient *gmail.Service
	From        string
}

func NewGmailMailer(svc *gmail.Service, from string) *GmailMailer {
	return &GmailMailer{GmailClient: svc, From: from}
}

func (s *GmailMailer) Send(ctx context.Context, msg MailMessage) error {
	if s.GmailClient == nil {
		return newProcessError(KindMailAuth, "send mail", errors.New("gmail client not configured"))
	}

	var buf bytes.Buffer
	if _, err := newMessage(s.From, msg).WriteTo(&buf); err != nil {
		return newProcessError(KindUnknown, "send mail", fmt.Errorf("render message: %w", err))
	}

	raw := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(buf.Bytes())}
	sent, err := s.GmailClient.Users.Messages.Send("me", raw).Context(ctx).Do()
	if err != nil {
		log.Printf("Email error: gmail send to %s failed: %v", msg.To, err)
		return classifyGmail(err)
	}

	log.Printf("Email sent via Gmail: %s (id %s)", msg.Subject, sent.Id)
	return nil
}

func classifyGmail(err error) *ProcessError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return newProcessError(KindMailAuth, "send mail", err)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		switch {
		case gErr.Code == http.StatusUnauthorized || gErr.Code == http.StatusForbidden:
			return newProcessError(KindMailAuth, "send mail", err)
		case gErr.Code == http.StatusTooManyRequests || gErr.Code >= 500:
			return newProcessError(KindUnavailable, "send mail", err)
		}
		return newProcessError(KindUnknown, "send mail", err)
	}
	return newProcessError(transportKind(err), "send mail", err)
}
