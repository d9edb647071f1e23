package utils

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	emailRegex   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// StripHTML removes all HTML tags from a string
func StripHTML(input string) string {
	return htmlTagRegex.ReplaceAllString(input, "")
}

// CleanText strips tags and surrounding whitespace from free-form listing text.
func CleanText(input string, maxLen int) string {
	return TruncateString(strings.TrimSpace(StripHTML(input)), maxLen)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether the address looks deliverable.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// TruncateString safely truncates a string to max length in runes
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
