package password

import (
	"unicode"
	"unicode/utf8"
)

// Policy defines the registration strength requirements.
type Policy struct {
	MinLength int
	MaxLength int

	// MinClasses is the minimum number of distinct character classes
	// (lower, upper, digit, other) the password must contain.
	MinClasses int
}

// DefaultPolicy returns the baseline policy: at least 8 characters
// drawing from at least two character classes.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:  8,
		MaxLength:  256,
		MinClasses: 2,
	}
}

// CheckStrength validates plain against the policy. Pure and synchronous.
// Returns nil when the password is acceptable, otherwise one of the
// Err* sentinels naming the reason.
func (p Policy) CheckStrength(plain string) error {
	// Count runes, not bytes, to be user-friendly.
	n := utf8.RuneCountInString(plain)
	if n < p.MinLength {
		return ErrPasswordTooShort
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return ErrPasswordTooLong
	}

	if classCount(plain) < p.MinClasses {
		return ErrWeakPassword
	}
	return nil
}

func classCount(s string) int {
	var lower, upper, digit, other bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}

	n := 0
	for _, b := range []bool{lower, upper, digit, other} {
		if b {
			n++
		}
	}
	return n
}
