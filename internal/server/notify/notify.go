// Package notify delivers out-of-band messages to users: one-time codes and
// password-reset links. Delivery is fire-and-forget; the auth flows never
// fail because a notification could not be sent.
package notify

import (
	"context"

	"github.com/machrent/machrent/internal/logging"
)

// Notifier sends authentication-related messages to an email address.
type Notifier interface {
	OtpCode(ctx context.Context, email, code string)
	PasswordResetLink(ctx context.Context, email, url string)
}

// LogNotifier writes notifications to the log instead of sending email.
// Useful in development; production wires a real mail sender here.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) OtpCode(ctx context.Context, email, code string) {
	n.log.Info(ctx, "otp code issued", "email", email, "code", code)
}

func (n *LogNotifier) PasswordResetLink(ctx context.Context, email, url string) {
	n.log.Info(ctx, "password reset link issued", "email", email, "url", url)
}

var _ Notifier = (*LogNotifier)(nil)
