package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// Mailer delivers verification codes
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// CodeTTL is only used to tell the reader how long the code is valid
	CodeTTL time.Duration
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) SendVerificationCode(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := NewVerificationMessage(m.cfg.From, to, code, m.cfg.CodeTTL)
	if err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send verification mail, %w", err)
	}

	return nil
}

// NewVerificationMessage builds the mail carrying code
func NewVerificationMessage(from, to, code string, ttl time.Duration) (*gomail.Message, error) {
	if to == "" || to == from {
		return nil, errors.New("invalid email address")
	}

	minutes := int(ttl.Minutes())
	if minutes <= 0 {
		minutes = 10
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your verification code")
	m.SetBody("text/plain", fmt.Sprintf(
		"Your verification code is %s\n\nThe code is valid for %d minutes. If you didn't sign up, ignore this mail.",
		code, minutes,
	))
	m.AddAlternative("text/html", fmt.Sprintf(
		"<p>Your verification code is <b>%s</b></p><p>The code is valid for %d minutes.</p>",
		code, minutes,
	))

	return m, nil
}
