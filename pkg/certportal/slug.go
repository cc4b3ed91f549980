package certportal

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug from an event name: lower-cased, runs of
// whitespace collapsed to single hyphens, and anything that is not a
// letter, digit, hyphen or underscore dropped. Unicode letters are kept so
// non-Latin event names still produce a usable slug.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-':
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ValidSlug reports whether s is usable as a routing key and storage path
// prefix: non-empty and composed only of letters, digits, hyphens and
// underscores.
func ValidSlug(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}
