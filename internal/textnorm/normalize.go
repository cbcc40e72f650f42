// Package textnorm canonicalizes free text coming from order CSVs and
// spreadsheet templates so that comparisons survive Turkish spelling and
// accent variation. Every string comparison in the pipeline must go through
// this package; a single raw comparison is the dominant source of match
// failures.
package textnorm

import (
	"strings"
	"unicode"
)

// turkishFold maps locale-specific letters to their unaccented Latin
// equivalents. Generic Unicode stripping does not fold dotless ı correctly,
// so the table is explicit.
var turkishFold = map[rune]rune{
	'ı': 'I', 'İ': 'I',
	'ğ': 'G', 'Ğ': 'G',
	'ş': 'S', 'Ş': 'S',
	'ö': 'O', 'Ö': 'O',
	'ç': 'C', 'Ç': 'C',
	'ü': 'U', 'Ü': 'U',
}

// synonyms rewrites product and branch spellings that the organization uses
// interchangeably. Applied after folding and uppercasing.
var synonyms = [][2]string{
	{"GOGUSLU", "GOGSU"},
	{"GOGSULU", "GOGSU"},
	{"HARMANDALI", "EFESUS"},
	{"AMASRA", "DADAYLI"},
}

// Normalize folds Turkish letters, uppercases, applies synonym rewrites,
// strips punctuation and collapses internal whitespace.
func Normalize(s string) string {
	s = foldUpper(s)
	for _, syn := range synonyms {
		s = strings.ReplaceAll(s, syn[0], syn[1])
	}
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			// punctuation and whitespace both collapse to a single space
			space = true
		}
	}
	return b.String()
}

// NormalizeKeepPunct folds and uppercases but keeps punctuation intact.
// Size tokens such as "3,5 KG" or "1*3,5" are only distinguishable from the
// bare number "350" while the punctuation survives.
func NormalizeKeepPunct(s string) string {
	return foldUpper(s)
}

// NormalizeStrict is Normalize with all whitespace removed, used where the
// templates concatenate words inconsistently ("EKMEK KADAYIFI" vs
// "EKMEKKADAYIFI").
func NormalizeStrict(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

func foldUpper(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if f, ok := turkishFold[r]; ok {
			b.WriteRune(f)
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return strings.TrimSpace(b.String())
}

// SignificantWords returns the normalized words of s with length >= 3.
// Short connective tokens carry no matching signal.
func SignificantWords(s string) []string {
	fields := strings.Fields(Normalize(s))
	out := fields[:0]
	for _, w := range fields {
		if len(w) >= 3 {
			out = append(out, w)
		}
	}
	return out
}
