package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/textproto"
	"time"

	gomail "gopkg.in/mail.v2"
)

// MailMessage is a rendered plain-text email.
type MailMessage struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message. Failures are *ProcessError.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// SMTPConfig holds SMTP configuration for sending emails.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg}
}

func (s *SMTPMailer) Send(ctx context.Context, msg MailMessage) error {
	if err := ctx.Err(); err != nil {
		return AsProcessError("send mail", err)
	}

	m := newMessage(s.cfg.From, msg)

	dialer := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	dialer.Timeout = s.cfg.Timeout
	dialer.RetryFailure = false

	// Dial covers connect, STARTTLS and AUTH; anything but a network failure
	// there is a relay configuration or credentials problem.
	sc, err := dialer.Dial()
	if err != nil {
		log.Printf("Email error: relay %s:%d refused session: %v", s.cfg.Host, s.cfg.Port, err)
		return classifySMTPDial(err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m); err != nil {
		log.Printf("Email error: failed to send to %s (Subject: %s): %v", msg.To, msg.Subject, err)
		return classifySMTPSend(err)
	}

	log.Printf("Email sent: %s", msg.Subject)
	return nil
}

func newMessage(from string, msg MailMessage) *gomail.Message {
	m := gomail.NewMessage()
	// Gmail fills in the sender itself when From is empty.
	if from != "" {
		m.SetHeader("From", from)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

func classifySMTPDial(err error) *ProcessError {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && tpErr.Code == 421 {
		return newProcessError(KindUnavailable, "send mail", err)
	}
	if k := transportKind(err); k != KindUnknown {
		return newProcessError(k, "send mail", err)
	}
	return newProcessError(KindMailAuth, "send mail", fmt.Errorf("mail relay rejected session: %w", err))
}

func classifySMTPSend(err error) *ProcessError {
	cause := err
	var sendErr *gomail.SendError
	if errors.As(err, &sendErr) && sendErr.Cause != nil {
		cause = sendErr.Cause
	}

	var tpErr *textproto.Error
	if errors.As(cause, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535, 538:
			return newProcessError(KindMailAuth, "send mail", err)
		case 421:
			return newProcessError(KindUnavailable, "send mail", err)
		}
	}
	return newProcessError(transportKind(cause), "send mail", err)
}
