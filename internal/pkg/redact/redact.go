// Package redact provides helpers to keep credential material out of log
// lines and status responses.
package redact

import "strings"

const redactedValue = "***REDACTED***"

// Key masks an API key for logging: the last four characters stay visible
// so operators can tell keys apart, everything else is dropped. Short keys
// are fully masked.
func Key(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return redactedValue
	}
	return "..." + key[len(key)-4:]
}

// Message scrubs bearer tokens that backends occasionally echo into error
// strings before they are logged or served on the status surface.
func Message(s string) string {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, "bearer ")
	if idx < 0 {
		return s
	}
	end := idx + len("bearer ")
	for end < len(s) && s[end] != ' ' && s[end] != '"' {
		end++
	}
	return s[:idx] + "Bearer " + redactedValue + s[end:]
}
