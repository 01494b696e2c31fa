package utils

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/carrydesk/carrydesk/internal/shared/errors"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips every HTML element from s and trims surrounding
// whitespace. The strict policy escapes entities, which are decoded again so
// plain punctuation survives unchanged.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeBounded sanitizes s and rejects results longer than maxRunes.
func SanitizeBounded(field, s string, maxRunes int) (string, error) {
	clean := SanitizeText(s)
	if maxRunes > 0 && utf8.RuneCountInString(clean) > maxRunes {
		return "", errors.NewValidationError(fmt.Sprintf("%s must be at most %d characters long", field, maxRunes))
	}
	return clean, nil
}

// SanitizeOptional is SanitizeBounded for pointer fields; nil stays nil.
func SanitizeOptional(field string, s *string, maxRunes int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	clean, err := SanitizeBounded(field, *s, maxRunes)
	if err != nil {
		return nil, err
	}
	return &clean, nil
}
