package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender sends email through a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port
	Auth smtp.Auth
}

func (s *SMTPSender) Send(_ context.Context, to, from, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(s.Addr, s.Auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
