package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntaxFilter(t *testing.T) {
	ctx := context.Background()
	f := SyntaxFilter{}

	tests := []struct {
		address string
		valid   bool
	}{
		{"alice@example.com", true},
		{"alice+tag@sub.example.org", true},
		{"not-an-address", false},
		{"missing@tld", false},
		{"two@@example.com", false},
		{"spaces in@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, err := f.Allows(ctx, tt.address)
		require.NoError(t, err)
		assert.Equal(t, tt.valid, ok, "address %q", tt.address)
	}
}

func TestFilteredRejectsBeforeTransport(t *testing.T) {
	transport := &LogSender{}
	sender := &Filtered{
		Transport: transport,
		Filters:   []Filter{SyntaxFilter{}},
	}

	err := sender.Send(context.Background(), "garbage", "no-reply@example.com", "Subject", "<p>hi</p>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax does not allow specified email address")
	assert.Empty(t, transport.Last.To)
}

func TestFilteredPassesThrough(t *testing.T) {
	transport := &LogSender{}
	sender := &Filtered{
		Transport: transport,
		Filters:   []Filter{SyntaxFilter{}},
	}

	err := sender.Send(context.Background(), "alice@example.com", "no-reply@example.com", "Subject", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", transport.Last.To)
	assert.Equal(t, "Subject", transport.Last.Subject)
}
