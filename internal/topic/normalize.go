package topic

import "strings"

// Normalize folds a raw topic identifier into the canonical comparable key:
// trimmed, lowercased, whitespace and hyphens collapsed to single
// underscores, everything outside [a-z0-9_] dropped. Empty input yields an
// empty key.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-' || r == '_':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return b.String()
}
