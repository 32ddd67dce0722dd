// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/treenza/storefront/internal/config"
	"codeberg.org/treenza/storefront/internal/i18n"
	"codeberg.org/treenza/storefront/internal/models"
	"github.com/wneessen/go-mail"
)

// Service delivers verification codes over SMTP.
type Service struct {
	cfg     *config.SMTPConfig
	codeTTL time.Duration
}

// NewService creates a new email service. codeTTL is quoted in the mail body.
func NewService(cfg *config.SMTPConfig, codeTTL time.Duration) (*Service, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("SMTP from address is required")
	}

	return &Service{
		cfg:     cfg,
		codeTTL: codeTTL,
	}, nil
}

// SendVerificationCode mails code to the recipient in the locale carried by ctx.
func (s *Service) SendVerificationCode(ctx context.Context, to, code string, purpose models.Purpose) error {
	msg, err := s.buildMessage(ctx, to, code, purpose)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *Service) buildMessage(ctx context.Context, to, code string, purpose models.Purpose) (*mail.Msg, error) {
	subjectID, bodyID := "email_code_subject_registration", "email_code_body_registration"
	if purpose == models.PurposePasswordReset {
		subjectID, bodyID = "email_code_subject_password_reset", "email_code_body_password_reset"
	}

	data := map[string]any{
		"AppName": i18n.T(ctx, "app_name"),
		"Code":    code,
		"Minutes": int(s.codeTTL.Minutes()),
	}

	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(i18n.TData(ctx, subjectID, data))
	msg.SetBodyString(mail.TypeTextPlain, i18n.TData(ctx, bodyID, data))

	return msg, nil
}

// clientOptions derives the go-mail options from the SMTP config.
func (s *Service) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	if s.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.cfg.Timeout))
	}

	return opts
}

func (s *Service) send(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
