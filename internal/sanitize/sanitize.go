// Package sanitize strips markup from user-supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// Text removes every HTML element from s and returns plain text. Entities are
// decoded so ordinary characters like "&" survive; any angle bracket that
// decoding reintroduces is dropped.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(angleBrackets.Replace(out))
}

// Fields sanitizes the string values of m in place for the named keys.
func Fields(m map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			m[k] = Text(v)
		}
	}
}
