package port

import "context"

// EmailSender delivers account-related mail. Sends are fire-and-forget from
// the core's perspective; failures are not retried here.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetLink(ctx context.Context, email, resetToken string) error
	SendEmailChangeNotification(ctx context.Context, oldEmail, newEmail string) error
}
