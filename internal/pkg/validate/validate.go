// Package validate provides input validation for resource IDs and request
// payload fields before they are interpolated into API paths.
package validate

import (
	"regexp"
	"strings"
)

// IDMaxLen is the maximum accepted length for a resource ID used in a path.
const IDMaxLen = 64

// ID validates a resource ID from user input: alphanumeric, hyphen,
// underscore; 1-IDMaxLen. Rejects anything that could alter the request
// path (slashes, dots, encoded sequences).
func ID(id string) bool {
	if id == "" || len(id) > IDMaxLen {
		return false
	}
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return false
	}
	return true
}

// emailRe is a conservative subset of RFC 5322: one @, no spaces, a dotted
// domain. The backend performs full validation; this catches typos early.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email validates an email address well enough to reject obvious typos.
func Email(s string) bool {
	return len(s) <= 254 && emailRe.MatchString(s)
}

// LinkedInURL validates a contact's LinkedIn profile URL. Empty is valid:
// the field is optional.
func LinkedInURL(s string) bool {
	if s == "" {
		return true
	}
	if len(s) > 512 {
		return false
	}
	return strings.HasPrefix(s, "https://www.linkedin.com/") || strings.HasPrefix(s, "https://linkedin.com/")
}
