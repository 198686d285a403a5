// Package auth decides what a user may do: the access tier computed
// from their stored phone and the allow-list, the fixed administrator
// set, and the phone normalization every write path must share.
package auth

import "strings"

// Normalizer rewrites phone numbers into the canonical international
// form used for allow-list membership.  The rules match how contacts
// arrive from the chat transport: either already international
// ("+972541234567" or "972541234567") or local with a trunk prefix
// ("0541234567").
type Normalizer struct {
	CountryCode string // e.g. "972"
	TrunkPrefix string // e.g. "0"
}

// Normalize returns the canonical form of phone.  The function is
// idempotent: feeding its own output back yields the same string, which
// is what makes exact-string allow-list matching safe.  Separator
// characters (spaces, dashes, parentheses) are dropped first because
// humans type them and transports occasionally include them.
func (n Normalizer) Normalize(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, n.CountryCode) {
		return digits
	}
	if n.TrunkPrefix != "" && strings.HasPrefix(digits, n.TrunkPrefix) {
		digits = strings.TrimPrefix(digits, n.TrunkPrefix)
		// Hand-typed forms like "0972..." hide the country code behind
		// the trunk zero; don't prepend it twice.
		if strings.HasPrefix(digits, n.CountryCode) {
			return digits
		}
	}
	return n.CountryCode + digits
}
