package email

import (
	"context"
	"log/slog"
)

// LogSender logs emails instead of sending them. Stand-in transport for
// development and tests.
type LogSender struct {
	Logger *slog.Logger

	// Last records the most recent send, so tests can capture dispatched
	// secrets.
	Last struct {
		To, From, Subject, Body string
	}
}

func (s *LogSender) Send(_ context.Context, to, from, subject, htmlBody string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email",
		slog.String("to", to),
		slog.String("from", from),
		slog.String("subject", subject),
		slog.String("body", htmlBody),
	)
	s.Last.To, s.Last.From, s.Last.Subject, s.Last.Body = to, from, subject, htmlBody
	return nil
}
