package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/klabs/account-service/internal/infra/logger"
)

// NoopSender logs outbound mail instead of delivering it. Used when SMTP
// is disabled.
type NoopSender struct {
	logger *zap.Logger
}

func NewNoopSender(log *zap.Logger) *NoopSender {
	return &NoopSender{logger: log}
}

func (s *NoopSender) SendVerificationCode(_ context.Context, email, code string) error {
	s.logger.Info("verification code mail suppressed",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("code", code),
	)
	return nil
}

func (s *NoopSender) SendPasswordResetLink(_ context.Context, email, resetToken string) error {
	s.logger.Info("password reset mail suppressed",
		zap.String("email", logger.MaskEmail(email)),
		zap.String("token", logger.MaskString(resetToken)),
	)
	return nil
}

func (s *NoopSender) SendEmailChangeNotification(_ context.Context, oldEmail, newEmail string) error {
	s.logger.Info("email change notification suppressed",
		zap.String("old_email", logger.MaskEmail(oldEmail)),
		zap.String("new_email", logger.MaskEmail(newEmail)),
	)
	return nil
}
