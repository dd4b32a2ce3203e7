package users

import (
	"unicode/utf8"
)

// PasswordChecklist is the live strength meter shown under the new-user
// password field. It is advisory and never blocks a submit.
type PasswordChecklist struct {
	HasMinLength   bool `json:"hasMinLength"`
	HasUpperCase   bool `json:"hasUpperCase"`
	HasNumbers     bool `json:"hasNumbers"`
	HasSpecialChar bool `json:"hasSpecialChar"`
}

// ValidatePassword fills the checklist: at least 10 characters, an ASCII
// uppercase letter, a digit, and any character outside [A-Za-z0-9].
func ValidatePassword(pw string) PasswordChecklist {
	var out PasswordChecklist
	out.HasMinLength = utf8.RuneCountInString(pw) >= 10
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			out.HasUpperCase = true
		case r >= '0' && r <= '9':
			out.HasNumbers = true
		case r >= 'a' && r <= 'z':
		default:
			out.HasSpecialChar = true
		}
	}
	return out
}

// ProfilePasswordHint is the profile editor's rule: 8+ characters, exactly
// one uppercase letter, at least one special character and one lowercase letter.
const ProfilePasswordHint = "Use 8+ chars, one uppercase, one special; others lowercase."

// CheckProfilePassword returns ProfilePasswordHint when pw breaks the rule.
// An empty password means "unchanged" and has no hint.
func CheckProfilePassword(pw string) string {
	if pw == "" {
		return ""
	}
	var upper int
	var lower, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
		default:
			special = true
		}
	}
	if utf8.RuneCountInString(pw) >= 8 && special && lower && upper == 1 {
		return ""
	}
	return ProfilePasswordHint
}
