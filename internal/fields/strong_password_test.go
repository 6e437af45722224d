package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{"long passwords always pass", "this is a long passphrase", true},
		{"thirteen characters pass", "aaaaaaaaaaaaa", true},
		{"too short", "aB1!xpmq", false},
		{"missing uppercase", "ab1!xpmqr7wk", false},
		{"missing symbol", "aB1xpmqr7wkC", false},
		{"contains whitespace", "aB1! pmqr7w", false},
		{"alphabet run", "abcB1!pmq7", false},
		{"digit run", "x123B!pmqr", false},
		{"repeated run", "xaaaB1!pmq", false},
		{"qwerty run", "xqweB1!pm7", false},
		{"mixed ten characters", "xG7!mQ2&pz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckStrongPassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestGeneratePassesStrengthCheck(t *testing.T) {
	for i := 0; i < 50; i++ {
		password := Generate(10)
		assert.Len(t, password, 10)
		assert.NoError(t, CheckStrongPassword(password))
	}
}

func TestGenerateDefaultsLength(t *testing.T) {
	assert.Len(t, Generate(0), 10)
}
