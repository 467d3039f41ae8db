package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle returns the comparison form of a title.
func NormalizeTitle(title string) string {
	fields := strings.Fields(norm.NFC.String(title))
	if len(fields) == 0 {
		return ""
	}
	// cases.Caser is stateful; a fresh one keeps this safe for concurrent use.
	return cases.Fold().String(strings.Join(fields, " "))
}

// EqualTitles reports whether two titles are equal after normalization.
// Blank titles never match.
func EqualTitles(a, b string) bool {
	na := NormalizeTitle(a)
	if na == "" {
		return false
	}
	return na == NormalizeTitle(b)
}

// UniqueTitles trims titles, drops blanks, and removes later entries that
// normalize to an earlier one. Order is preserved.
func UniqueTitles(titles []string) []string {
	if len(titles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(titles))
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		trimmed := strings.TrimSpace(title)
		key := NormalizeTitle(trimmed)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
