package identity

import "strings"

// NormalizeEmail case-folds and trims an email address. All lookups and the
// uniqueness constraint operate on the normalized form.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
