package annotations

import (
	"regexp"
	"unicode/utf8"
)

var markupTagPattern = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips markup-like tags from user-supplied text and truncates the
// result to maxLength bytes, backing off to a rune boundary so truncation
// never splits a character. The limits are byte ceilings, so multibyte text
// may keep fewer characters than the nominal maximum. It never fails:
// oversized input is cut, not rejected.
func Sanitize(value string, maxLength int) string {
	stripped := markupTagPattern.ReplaceAllString(value, "")
	if len(stripped) <= maxLength {
		return stripped
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(stripped[cut]) {
		cut--
	}
	return stripped[:cut]
}
