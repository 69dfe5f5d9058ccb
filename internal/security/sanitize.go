// Package security holds the input validation and sanitization rules
// applied at every boundary where user data enters the system.
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/MrSnakeDoc/dashlink/internal/domain"
)

// DefaultTextLength is the limit used when callers pass a non-positive one.
const DefaultTextLength = 255

var strict = bluemonday.StrictPolicy()

// SanitizeText trims text, strips all markup, entity-encodes what is left
// and truncates the result to maxLength runes.
func SanitizeText(text string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultTextLength
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	// bluemonday escapes the surviving text; unescape+escape normalizes the
	// entity form so `&amp;` and `&` end up identical.
	clean := strict.Sanitize(text)
	clean = html.EscapeString(html.UnescapeString(clean))
	clean = strings.TrimSpace(clean)

	if utf8.RuneCountInString(clean) > maxLength {
		clean = string([]rune(clean)[:maxLength])
	}
	return clean
}

// SanitizeOptional applies SanitizeText to a nullable value. Empty results
// become nil.
func SanitizeOptional(text *string, maxLength int) *string {
	if text == nil {
		return nil
	}
	clean := SanitizeText(*text, maxLength)
	if clean == "" {
		return nil
	}
	return &clean
}

// ValidateInteger checks min <= value <= max.
func ValidateInteger(value, minimum, maximum int) error {
	if value < minimum || value > maximum {
		return domain.Invalid("Value must be between %d and %d", minimum, maximum)
	}
	return nil
}
