package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/domodwyer/mailyak/v3"
	"go.uber.org/zap"
)

// SMTPConfig holds the SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends code emails through an SMTP server.
type SMTPMailer struct {
	cfg    SMTPConfig
	otpTTL time.Duration
	log    *zap.Logger
}

// NewSMTPMailer creates an SMTPMailer. otpTTL is only used in the email text.
func NewSMTPMailer(cfg SMTPConfig, otpTTL time.Duration, log *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, otpTTL: otpTTL, log: log}
}

// SendOTP emails code to the given address.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, name, code string) error {
	return m.Send(ctx, OTPMessage{Email: email, Name: name, Code: code})
}

// Send delivers msg, giving up when ctx is done.
func (m *SMTPMailer) Send(ctx context.Context, msg OTPMessage) error {
	body, err := renderOTP(msg, m.otpTTL.String())
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	mail := mailyak.New(fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port), auth)
	mail.To(msg.Email)
	mail.From(m.cfg.From)
	mail.Subject(otpSubject)
	mail.HTML().Set(body)

	done := make(chan error, 1)
	go func() {
		done <- mail.Send()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send otp email: %w", err)
		}
	}

	m.log.Info("otp email sent", zap.String("email", msg.Email))
	return nil
}
