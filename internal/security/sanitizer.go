package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString strips any markup from admin-supplied text (theme
// titles, question and answer texts) before it reaches the database.
func SanitizeString(input string) string {
	return strings.TrimSpace(htmlPolicy.Sanitize(input))
}
