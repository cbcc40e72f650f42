// Package match decides where one order line lands: which category, which
// product row, which size or variant column. Precedence between competing
// keywords is expressed as ordered rule lists, never as incidental code
// order.
package match

import (
	"regexp"
	"strings"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// SizeClass is a frozen-goods package size. The zero value means no size
// token was found.
type SizeClass string

const (
	SizeNone  SizeClass = ""
	Size35KG  SizeClass = "3,5KG"
	Size350GR SizeClass = "350GR"
	Size150GR SizeClass = "150GR"
)

// Large-size patterns are checked first: "3,5 KG" and friends must win
// before any 350/150 check can fire, and a bare "350" with no unit matches
// nothing at all. Patterns run against NormalizeKeepPunct output, because
// stripping punctuation first would collapse "3,5" into the same digits as
// "35".
var (
	size35Patterns = []*regexp.Regexp{
		regexp.MustCompile(`1\s*[*X]\s*3[,.]?5\b`),
		regexp.MustCompile(`\b3[,.]?5\s*KG\b`),
		regexp.MustCompile(`\b3[,.]50\s*KG\b`),
		regexp.MustCompile(`KL[\s_-]*3[,.]?5`),
	}
	size350Pattern = regexp.MustCompile(`\b350\s*(GR|G)\b`)
	size150Pattern = regexp.MustCompile(`\b150\s*(GR|G)\b`)

	// header cells may carry the bare "3,5" without a unit
	size35Header = regexp.MustCompile(`\b3[,.]5\b|\b35\s*KG\b`)
)

// DetectSize extracts the size class from a product name and its unit text.
// Only an explicit weight marker counts as the large size; "350" alone with
// a gram unit is the small size; "350" with no unit is nothing.
func DetectSize(name, unit string) SizeClass {
	n := textnorm.NormalizeKeepPunct(name)
	u := textnorm.NormalizeKeepPunct(unit)
	for _, p := range size35Patterns {
		if p.MatchString(n) || p.MatchString(u) {
			return Size35KG
		}
	}
	if size350Pattern.MatchString(n) || size350Pattern.MatchString(u) {
		return Size350GR
	}
	if size150Pattern.MatchString(n) || size150Pattern.MatchString(u) {
		return Size150GR
	}
	return SizeNone
}

// DetectSizeLabel classifies a template header cell. Headers are looser
// than order lines: a column headed just "3,5" is the large size.
func DetectSizeLabel(label string) SizeClass {
	up := textnorm.NormalizeKeepPunct(label)
	if up == "" {
		return SizeNone
	}
	for _, p := range size35Patterns {
		if p.MatchString(up) {
			return Size35KG
		}
	}
	if size35Header.MatchString(up) {
		return Size35KG
	}
	if size350Pattern.MatchString(up) {
		return Size350GR
	}
	if size150Pattern.MatchString(up) {
		return Size150GR
	}
	return SizeNone
}

// IsSizeLike reports whether a header token is a size header rather than a
// named variant.
func IsSizeLike(label string) bool {
	if DetectSizeLabel(label) != SizeNone {
		return true
	}
	up := textnorm.Normalize(label)
	for _, tok := range []string{"KG", "GR"} {
		if containsWord(up, tok) {
			return true
		}
	}
	return false
}

func containsWord(s, w string) bool {
	for _, f := range strings.Fields(s) {
		if f == w {
			return true
		}
	}
	return false
}
