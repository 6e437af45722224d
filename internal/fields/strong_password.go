package fields

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"strings"
)

// Reference sequences a password must not follow for 3+ characters:
// alphabet, dvorak home rows, digits, qwerty rows, shifted number row.
var sequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"pyfgcrlaoeuidhtnsqjkxbmwvz",
	"0123456789",
	"qwertyuiop[]asdfghjkl;'zxcvbnm,./",
	"!@#$%^&*()_+",
}

var (
	lowerRe      = regexp.MustCompile(`[a-z]`)
	upperRe      = regexp.MustCompile(`[A-Z]`)
	digitRe      = regexp.MustCompile(`[0-9]`)
	symbolRe     = regexp.MustCompile(`[^a-zA-Z0-9]`)
	whitespaceRe = regexp.MustCompile(`\s`)
)

var errWeakComposition = errors.New("password must consist of lowercase, uppercase letters, numbers and symbols")

// CheckStrongPassword validates password strength. Passwords longer than
// 12 characters pass unconditionally; shorter ones must be at least 10
// characters, mix all four character classes, contain no whitespace and no
// repeated or sequential run of 3+ characters.
func CheckStrongPassword(password string) error {
	if len(password) > 12 {
		return nil
	}

	if len(password) < 10 {
		return errors.New("password must be provided and must be at least 10 characters; " +
			"must consist of lowercase, uppercase letters, numbers, symbols; " +
			"must not contain spaces; must not be sequential")
	}
	if !lowerRe.MatchString(password) {
		return errWeakComposition
	}
	if !upperRe.MatchString(password) {
		return errWeakComposition
	}
	if !digitRe.MatchString(password) {
		return errWeakComposition
	}
	if !symbolRe.MatchString(password) {
		return errWeakComposition
	}
	if whitespaceRe.MatchString(password) {
		return errors.New("password must not contain whitespace characters")
	}
	if maxSequenceSize(password) > 2 {
		return errors.New("password must not contain sequences longer than 2 characters")
	}
	return nil
}

// maxSequenceSize returns the longest run of repeated or sequential
// characters found against any reference sequence.
func maxSequenceSize(password string) int {
	maxRun := 0
	lowered := strings.ToLower(password)

	for _, sequence := range sequences {
		converted := make([]int, 0, len(lowered))
		for _, c := range lowered {
			converted = append(converted, strings.IndexRune(sequence, c))
		}

		progressive, same := 1, 1
		for x := 1; x < len(converted); x++ {
			if converted[x] == converted[x-1] && converted[x] != -1 {
				same++
			} else {
				maxRun = max(maxRun, same)
				same = 1
			}
			if converted[x] == converted[x-1]+1 && converted[x-1] != -1 {
				progressive++
			} else {
				maxRun = max(maxRun, progressive)
				progressive = 1
			}
		}
		maxRun = max(maxRun, same, progressive)
	}
	return maxRun
}

var generatorGroups = []string{
	"0123456789",
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"!@$%^*_",
}

// Generate produces a random password of the given length that passes
// CheckStrongPassword, cycling through digit, lowercase, uppercase and
// symbol groups so adjacent characters never form a run.
func Generate(length int) string {
	if length <= 0 {
		length = 10
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		group := generatorGroups[i%len(generatorGroups)]
		b.WriteByte(group[randomIndex(len(group))])
	}
	return b.String()
}

func randomIndex(n int) int {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails if the platform source is broken
		panic(err)
	}
	return int(idx.Int64())
}
