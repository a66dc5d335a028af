package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

var _ Sender = (*LogSender)(nil)

// LogSender writes codes to the log instead of delivering mail. Development
// fallback for when no SMTP account is configured.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) SendCode(_ context.Context, email, code string, ttl time.Duration, locale string) error {
	l.log.Info().
		Str("email", email).
		Str("code", code).
		Dur("ttl", ttl).
		Str("locale", locale).
		Msg("code delivery (log sender)")
	return nil
}
