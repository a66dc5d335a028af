package notify

import (
	"context"
	"fmt"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/pkg/errors"
)

var _ Sender = (*SMTPSender)(nil)

// SMTPSender delivers one-time codes over SMTP as multipart text+HTML mail.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
}

// NewSMTPSender creates an SMTPSender with the given dialer parameters.
func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host: host,
		Port: port,
		From: from,
		User: user,
		Pass: pass,
	}
}

// SendCode implements Sender.
func (s *SMTPSender) SendCode(ctx context.Context, email, code string, ttl time.Duration, locale string) error {
	subject, textBody, htmlBody := codeMessage(code, ttl, locale)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case err := <-done:
		return errors.Wrap(err, "[SMTPSender.SendCode] DialAndSend")
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "[SMTPSender.SendCode] cancelled")
	}
}

// codeMessage renders the subject and bodies for a code mail. Locale handling
// is a passthrough: unknown locales fall back to English.
func codeMessage(code string, ttl time.Duration, locale string) (subject, text, html string) {
	minutes := int(ttl.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	switch locale {
	case "ru":
		subject = "Ваш код подтверждения"
		text = fmt.Sprintf("Ваш код: %s. Действует %d мин.", code, minutes)
		html = fmt.Sprintf("Ваш код подтверждения: <b>%s</b><br/>Код действует %d минут.", code, minutes)
	default:
		subject = "Your verification code"
		text = fmt.Sprintf("Your code: %s. Valid for %d min.", code, minutes)
		html = fmt.Sprintf("Your verification code: <b>%s</b><br/>The code is valid for %d minutes.", code, minutes)
	}
	return subject, text, html
}
