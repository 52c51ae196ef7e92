package cache

import "strings"

const keyNamespace = "askbox"

// Key joins parts under the service namespace, skipping blanks:
// Key("session", "access", id) == "askbox:session:access:<id>".
func Key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

// SessionKey is where the refresh token for an access id lives.
func SessionKey(accessID string) string { return Key("session", "access", accessID) }

// RateLimitKey is the counter key for a rate-limit scope.
func RateLimitKey(scope string) string { return Key("rate_limit", scope) }
