// Package audit records security-relevant account events.
package audit

import (
	"log/slog"
	"strings"
)

// Event type constants.
const (
	OperationSuccess = "OPERATION_SUCCESS"
	OperationFailure = "OPERATION_FAILURE"
	Exception        = "ERROR_EXCEPTION"
	InvalidRequest   = "ERROR_INVALID_REQUEST"
	Login            = "SESSION_LOGIN"
	Logout           = "SESSION_LOGOUT"
	PermissionError  = "SESSION_PERMISSION_ERROR"
	LoginFailure     = "SESSION_LOGIN_FAILURE"
	AccountChange    = "SESSION_ACCOUNT_DETAILS_CHANGE"
	AccountSearch    = "ACCOUNT_SEARCH"
	AccountCreate    = "ACCOUNT_CREATE"
	AccountRead      = "ACCOUNT_READ"
	AccountUpdate    = "ACCOUNT_UPDATE"
	AccountDelete    = "ACCOUNT_DELETE"
	Success          = "_SUCCESS"
	Failure          = "_FAILURE"
)

// Sink receives audit events. Source identifies the actor, formatted as
// "accountID@clientIP" (or "anonymous@clientIP").
type Sink interface {
	Audit(source, event string, details ...string)
}

// FormatSource builds the actor identifier for an audit event.
func FormatSource(accountID, clientIP string) string {
	if accountID == "" {
		accountID = "anonymous"
	}
	return accountID + "@" + clientIP
}

// SlogSink writes audit events through a structured logger.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a Sink backed by the given logger, or slog.Default
// when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Audit(source, event string, details ...string) {
	s.logger.Info("audit",
		slog.String("source", source),
		slog.String("event", event),
		slog.String("details", strings.Join(details, " ")),
	)
}

// Discard is a Sink that drops every event. Useful in tests.
type Discard struct{}

func (Discard) Audit(string, string, ...string) {}
