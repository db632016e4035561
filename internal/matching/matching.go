// Package matching holds the fuzzy name comparisons shared by the resolvers.
// Every function here is pure: no I/O, no configuration lookups.
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minWordLen is the shortest word that counts toward a word-overlap match.
// Shorter tokens ("FC", "SK", "CF") appear in too many club names.
const minWordLen = 4

// Fold lowercases s and strips diacritics, so "Beşiktaş" and "besiktas" compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	// dotless i has no decomposition
	s = strings.ReplaceAll(s, "ı", "i")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Sanitize turns a team name into the logo cache key.
func Sanitize(name string) string {
	return strings.ReplaceAll(Fold(name), " ", "_")
}

// Compact keeps only letters and digits of the folded name.
func Compact(s string) string {
	var b strings.Builder
	for _, r := range Fold(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CompactMatch compares two names letters-and-digits only: equal, or either contains the other.
func CompactMatch(a, b string) bool {
	ca, cb := Compact(a), Compact(b)
	if ca == "" || cb == "" {
		return false
	}
	return ca == cb || strings.Contains(ca, cb) || strings.Contains(cb, ca)
}

// StripSuffixes removes club suffixes ("FC", "S.K.") from the end of name.
// Suffixes are removed in list order; each must follow a space or a dot.
func StripSuffixes(name string, suffixes []string) (string, bool) {
	cleaned := strings.TrimSpace(name)
	changed := false
	for _, suffix := range suffixes {
		lower := strings.ToLower(cleaned)
		s := strings.ToLower(suffix)
		if strings.HasSuffix(lower, " "+s) || strings.HasSuffix(lower, "."+s) {
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)-1])
			changed = true
		}
	}
	return cleaned, changed && cleaned != ""
}

// LeagueMatch decides whether a roster entry found during a league scan matches query.
// It accepts the entry when its name or an alternate contains the query, or when a
// long enough name appears inside the query ("Lyon" for "Olympique Lyonnais Lyon").
func LeagueMatch(query, name string, alternates []string) bool {
	q := Fold(query)
	n := Fold(name)
	if q == "" {
		return false
	}
	if strings.Contains(n, q) {
		return true
	}
	for _, alt := range alternates {
		if a := Fold(alt); a != "" && strings.Contains(a, q) {
			return true
		}
	}
	return utf8.RuneCountInString(n) >= minWordLen && strings.Contains(q, n)
}

// Participates reports whether target names one side of a fixture.
func Participates(target, home, away string) bool {
	t := Fold(target)
	h, a := Fold(home), Fold(away)
	if t == "" {
		return false
	}
	if strings.Contains(a, t) || strings.Contains(h, t) {
		return true
	}
	if (a != "" && strings.Contains(t, a)) || (h != "" && strings.Contains(t, h)) {
		return true
	}
	for _, w := range SignificantWords(t) {
		if strings.Contains(a, w) || strings.Contains(h, w) {
			return true
		}
	}
	return false
}

// SameSide reports whether requested refers to the recorded home team.
func SameSide(requested, recordedHome string) bool {
	r, h := Fold(requested), Fold(recordedHome)
	if r == "" || h == "" {
		return false
	}
	if strings.Contains(h, r) || strings.Contains(r, h) {
		return true
	}
	for _, w := range SignificantWords(r) {
		if strings.Contains(h, w) {
			return true
		}
	}
	return false
}

// SignificantWords splits s on whitespace and keeps words of at least four runes.
func SignificantWords(s string) []string {
	var words []string
	for _, w := range strings.Fields(s) {
		if utf8.RuneCountInString(w) >= minWordLen {
			words = append(words, w)
		}
	}
	return words
}
