package messaging

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the longest body accepted, in characters.
const MaxMessageLength = 4000

var (
	scriptTagRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	onEventRegex   = regexp.MustCompile(`(?i)\s+on\w+\s*=`)
)

// sanitizeBody cleans a message body for storage. An empty result with a nil
// error means there is nothing left to send.
func sanitizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", nil
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return "", ErrMessageTooLong
	}

	body = scriptTagRegex.ReplaceAllString(body, "")
	body = onEventRegex.ReplaceAllString(body, " ")
	body = html.EscapeString(body)

	return strings.TrimSpace(body), nil
}
