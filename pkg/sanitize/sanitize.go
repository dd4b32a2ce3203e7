package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// PhoneMaxDigits is the length of a local mobile number (09xxxxxxxxx).
const PhoneMaxDigits = 11

var (
	strict = bluemonday.StrictPolicy()

	reEmail = regexp.MustCompile(`(?i)[A-Z0-9._%+\-]+@[A-Z0-9.\-]+\.[A-Z]{2,}`)
	// Loose phone shape: digits with spaces, dashes, dots, parens or a leading +.
	rePhone = regexp.MustCompile(`\+?\d[\d\s\-\.()]{7,}\d`)
)

// Digits keeps only ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// IsDigits reports whether s is empty or made of ASCII digits only.
func IsDigits(s string) bool {
	return Digits(s) == s
}

// Phone strips everything but digits and truncates to PhoneMaxDigits.
// Phone(Phone(x)) == Phone(x).
func Phone(s string) string {
	d := Digits(s)
	if len(d) > PhoneMaxDigits {
		d = d[:PhoneMaxDigits]
	}
	return d
}

// Text strips markup from free-text input and trims surrounding space.
func Text(s string) string {
	if s == "" {
		return s
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.TrimFunc(out, unicode.IsSpace)
}

// RedactPII masks emails and phone numbers before text goes to the logs.
func RedactPII(s string) string {
	if s == "" {
		return s
	}
	s = reEmail.ReplaceAllString(s, "[redacted email]")
	s = rePhone.ReplaceAllString(s, "[redacted phone]")
	return s
}
