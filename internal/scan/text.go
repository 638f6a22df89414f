package scan

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.StrictPolicy()

// CleanText turns a free-text value lifted from markup (or from an escaped
// attribute) into plain text: entities decoded, tags dropped, whitespace
// trimmed.
func CleanText(raw string) string {
	s := html.UnescapeString(raw)
	s = textPolicy.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(s))
}
