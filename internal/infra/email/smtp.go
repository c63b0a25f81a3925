package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/klabs/account-service/internal/infra/config"
)

// SMTPSender delivers account mail over SMTP with implicit TLS (port 465).
type SMTPSender struct {
	settings config.SMTPSettings
}

func NewSMTPSender(settings config.SMTPSettings) *SMTPSender {
	return &SMTPSender{settings: settings}
}

func (s *SMTPSender) SendVerificationCode(ctx context.Context, email, code string) error {
	subject := "Confirm your account"
	body := fmt.Sprintf(
		"<p>Your verification code is <b>%s</b>.</p><p>The code expires in 10 minutes.</p>",
		code,
	)
	return s.send(ctx, email, subject, body)
}

func (s *SMTPSender) SendPasswordResetLink(ctx context.Context, email, resetToken string) error {
	subject := "Reset your password"
	body := fmt.Sprintf(
		"<p>Use this token to reset your password: <b>%s</b>.</p><p>If you did not request a reset, ignore this message.</p>",
		resetToken,
	)
	return s.send(ctx, email, subject, body)
}

func (s *SMTPSender) SendEmailChangeNotification(ctx context.Context, oldEmail, newEmail string) error {
	subject := "Your account email was changed"
	body := fmt.Sprintf(
		"<p>The email address on your account was changed to %s.</p><p>If this was not you, contact support immediately.</p>",
		newEmail,
	)
	return s.send(ctx, oldEmail, subject, body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte(
		fmt.Sprintf("From: %s\r\n", s.settings.From) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	addr := fmt.Sprintf("%s:%d", s.settings.Host, s.settings.Port)

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.settings.Host})
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.settings.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Quit()

	if s.settings.Username != "" {
		auth := smtp.PlainAuth("", s.settings.Username, s.settings.Password, s.settings.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.settings.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return nil
}
