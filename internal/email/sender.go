// Package email sends account emails through pluggable transports.
package email

import (
	"context"
	"fmt"
	"regexp"
)

// Filter validates an address before an email is sent to it.
type Filter interface {
	// Name identifies the filter in rejection errors.
	Name() string

	// Allows reports whether the address may be sent to.
	Allows(ctx context.Context, address string) (bool, error)
}

// Sender sends an email after running the address through every filter.
type Sender interface {
	Send(ctx context.Context, to, from, subject, htmlBody string) error
}

// Filtered wraps a transport with address filters.
type Filtered struct {
	Transport Sender
	Filters   []Filter
}

func (f *Filtered) Send(ctx context.Context, to, from, subject, htmlBody string) error {
	for _, filter := range f.Filters {
		ok, err := filter.Allows(ctx, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s does not allow specified email address: %q", filter.Name(), to)
		}
	}
	return f.Transport.Send(ctx, to, from, subject, htmlBody)
}

var addressRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SyntaxFilter rejects addresses that are not shaped like an email.
type SyntaxFilter struct{}

func (SyntaxFilter) Name() string { return "syntax" }

func (SyntaxFilter) Allows(_ context.Context, address string) (bool, error) {
	return addressRe.MatchString(address), nil
}
