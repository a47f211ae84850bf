package notify

import (
	"context"
	"log/slog"

	"github.com/loopline/accountd/pkg/slogx"
)

// LogMailer logs mails instead of sending them. Used in dev and as the
// fallback when no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) SendMail(ctx context.Context, m Mail) error {
	slogx.FromContext(ctx).Info("mail (not sent: no relay configured)",
		slog.String("to", m.To),
		slog.String("subject", m.Subject),
	)
	return nil
}

// LogSMSSender logs messages instead of sending them.
type LogSMSSender struct{}

func (LogSMSSender) SendSMS(ctx context.Context, s SMS) error {
	slogx.FromContext(ctx).Info("sms (not sent: no gateway configured)",
		slog.String("to", s.To),
	)
	return nil
}
