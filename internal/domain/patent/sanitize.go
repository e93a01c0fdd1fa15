package patent

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML element from s and trims surrounding space.
// Entities produced by the policy are decoded again so that "AT&T" is stored
// as written.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strictPolicy.Sanitize(s))
	if strings.ContainsRune(out, '<') {
		// escaped markup in the input becomes real markup once decoded
		out = html.UnescapeString(strictPolicy.Sanitize(out))
	}
	return strings.TrimSpace(out)
}
