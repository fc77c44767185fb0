package validation

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	urlPattern   = regexp.MustCompile(`^(https?|ftp)://[^\s/$.?#].[^\s]*$`)

	// embeddedURLPattern finds links inside free text, with or without scheme.
	embeddedURLPattern = regexp.MustCompile(`(?i)\b(?:(?:https?|ftp)://|www\.)\S+`)
	spaceRun           = regexp.MustCompile(`\s{2,}`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateURL validates URL format
func ValidateURL(url string) bool {
	return urlPattern.MatchString(url)
}

// ContainsURL reports whether s contains a link.
func ContainsURL(s string) bool {
	return embeddedURLPattern.MatchString(s)
}

// StripURLs removes links from s and collapses the whitespace left behind.
func StripURLs(s string) string {
	if !ContainsURL(s) {
		return s
	}
	out := embeddedURLPattern.ReplaceAllString(s, "")
	out = spaceRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
