package match

import (
	"regexp"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// Dessert name aliasing. Templates abbreviate some compound names; the
// longer, more specific pattern must rewrite before the generic name it
// contains ("TAVUK GOGSU KAZ" is the kazandibi compound, not plain tavuk
// gogsu). Patterns are matched on the spaceless strict form and listed
// longest first.
var nameAliases = []struct {
	From string
	To   string
}{
	{From: "TAVUKGOGSUKAZANDIBI", To: "TAVUK GOGSU KAZANDIBI"},
	{From: "KAZANDIBITAVUKGOGSU", To: "TAVUK GOGSU KAZANDIBI"},
	{From: "TAVUKGOGSUKAZ", To: "TAVUK GOGSU KAZANDIBI"},
}

// CanonicalName applies the static alias table to a normalized product
// name. Unknown names pass through unchanged.
func CanonicalName(normalized string) string {
	strict := textnorm.NormalizeStrict(normalized)
	for _, a := range nameAliases {
		if strings.Contains(strict, a.From) {
			return a.To
		}
	}
	return normalized
}

// ExactOnly reports whether a product family forbids fuzzy matching. The
// kazandibi family shares words across distinct variants, so containment
// matching would cross-match them.
func ExactOnly(normalized string) bool {
	return strings.Contains(textnorm.NormalizeStrict(normalized), "KAZ")
}

// NameMatches decides whether a template row label and a CSV product name
// refer to the same dessert. Exact equality (after aliasing) always wins;
// containment either way is accepted only outside exact-only families.
func NameMatches(templateName, csvName string) bool {
	tn := CanonicalName(templateName)
	cn := CanonicalName(csvName)
	if tn == cn {
		return true
	}
	ts := textnorm.NormalizeStrict(tn)
	cs := textnorm.NormalizeStrict(cn)
	if ts == cs {
		return true
	}
	if ExactOnly(tn) || ExactOnly(cn) {
		return false
	}
	return ts != "" && cs != "" && (strings.Contains(cs, ts) || strings.Contains(ts, cs))
}

var (
	bracedRe       = regexp.MustCompile(`\{.*?\}`)
	parenVariantRe = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)`)
	trayWordRe     = regexp.MustCompile(`\bTEPSI\b`)
	tray42Re       = regexp.MustCompile(`42\s?LI?\b`)
	tray1x42Re     = regexp.MustCompile(`1[*X]?42`)
	bare42Re       = regexp.MustCompile(`\b42\b`)
	countPairRe    = regexp.MustCompile(`\d+X\d+`)
	nonNameRe      = regexp.MustCompile(`[^A-Z0-9\s*()]`)
	spacesRe       = regexp.MustCompile(`\s+`)
)

// trailing words recognized as an inline variant when no parenthetical is
// present; two-word form first
var trailingVariants = []string{"TEKLI PAKET", "TEKLI", "PAKET", "KASE", "BUYUK", "ADET", "TEPSI"}

// SplitNameVariant separates a raw product string into its base name and
// variant token. The parenthetical form "NAME (VARYANT)" takes precedence;
// otherwise a recognized trailing word is peeled off. Tray markers buried
// in the name ("TEPSI", "42 LI", "1*42") are stripped from the name and
// force the TEPSI variant.
func SplitNameVariant(raw string) (name, variant string) {
	s := textnorm.NormalizeKeepPunct(raw)
	s = strings.ReplaceAll(s, "*", "X")
	s = bracedRe.ReplaceAllString(s, "")
	s = nonNameRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))

	if m := parenVariantRe.FindStringSubmatch(s); m != nil {
		name = strings.TrimSpace(m[1])
		variant = strings.TrimSpace(m[2])
	} else {
		name = s
	}

	if variant == "" {
		for _, w := range trailingVariants {
			if strings.HasSuffix(name, " "+w) {
				name = strings.TrimSpace(strings.TrimSuffix(name, w))
				variant = w
				break
			}
		}
	}

	if trayWordRe.MatchString(name) || tray42Re.MatchString(name) || tray1x42Re.MatchString(name) {
		name = trayWordRe.ReplaceAllString(name, "")
		name = tray42Re.ReplaceAllString(name, "")
		name = tray1x42Re.ReplaceAllString(name, "")
		name = strings.TrimSpace(spacesRe.ReplaceAllString(name, " "))
		variant = VariantTepsi
	}
	return strings.TrimSpace(name), strings.TrimSpace(variant)
}

// Canonical variant tokens.
const (
	VariantTepsi = "TEPSI"
	VariantBuyuk = "BUYUK"
	VariantKase  = "KASE"
	VariantTekli = "TEKLI"
	VariantPaket = "PAKET"
	VariantAdet  = "ADET"
)

// unitOnlyProducts always ship by piece regardless of what the variant
// token says.
var unitOnlyProducts = map[string]bool{
	"EKMEK KADAYIFI": true,
	"SEKERPARE":      true,
}

// NormalizeVariant folds a raw variant token to its canonical form. The
// product name participates because a handful of products force a variant.
func NormalizeVariant(raw, productName string) string {
	if unitOnlyProducts[textnorm.Normalize(productName)] {
		return VariantAdet
	}
	if raw == "" {
		return ""
	}
	v := textnorm.NormalizeKeepPunct(raw)
	v = strings.ReplaceAll(v, "*", "X")
	v = strings.ReplaceAll(v, "EKONOMIK PAKET", VariantBuyuk)
	v = strings.ReplaceAll(v, "EKONOMIKPAKET", VariantBuyuk)
	v = strings.ReplaceAll(v, "TEKLI PAKET", VariantPaket)
	v = strings.ReplaceAll(v, "TEKLIPAKET", VariantPaket)
	switch {
	case strings.Contains(v, "TEPSI"), bare42Re.MatchString(v), tray1x42Re.MatchString(v):
		return VariantTepsi
	case strings.Contains(v, VariantBuyuk):
		return VariantBuyuk
	case strings.Contains(v, VariantKase):
		return VariantKase
	case strings.Contains(v, VariantTekli):
		return VariantTekli
	case strings.Contains(v, VariantPaket):
		return VariantPaket
	case countPairRe.MatchString(v), strings.Contains(v, VariantAdet),
		strings.Contains(v, "PK"), strings.Contains(v, "GR"):
		return VariantAdet
	}
	return textnorm.Normalize(v)
}

// VariantMatches decides whether a template cell's variant accepts a CSV
// line's variant. An ADET cell (and a cell with no variant at all) also
// accepts lines that carry no variant token.
func VariantMatches(templateVar, csvVar string) bool {
	if templateVar == csvVar {
		return true
	}
	switch templateVar {
	case VariantTepsi:
		return csvVar == VariantTepsi
	case VariantAdet, "":
		return csvVar == "" || csvVar == VariantAdet
	}
	return false
}

// UnitOnly reports whether the product always lands in the piece cell,
// even when the CSV says tray.
func UnitOnly(productName string) bool {
	return unitOnlyProducts[textnorm.Normalize(productName)]
}

// Scorer ranks fuzzy candidates when exact matching fails. Shared
// significant words are weighted by length, with bonuses for a shared
// leading word and for the discriminating key words. Candidates below
// Threshold are rejected.
type Scorer struct {
	Threshold int
	KeyWords  []string
}

// DefaultKeyWords carry extra weight: they distinguish products whose
// remaining words are too generic to tell apart.
var DefaultKeyWords = []string{"KAZANDIBI", "KADAYIFI", "KUNEFE", "SUTLAC", "GULLAC"}

// NewScorer returns a scorer with the given minimum score.
func NewScorer(threshold int) *Scorer {
	return &Scorer{Threshold: threshold, KeyWords: DefaultKeyWords}
}

// Score computes the similarity of two normalized names. Zero means no
// usable overlap.
func (sc *Scorer) Score(a, b string) int {
	aw := textnorm.SignificantWords(a)
	bw := textnorm.SignificantWords(b)
	if len(aw) == 0 || len(bw) == 0 {
		return 0
	}
	bset := make(map[string]bool, len(bw))
	for _, w := range bw {
		bset[w] = true
	}
	score := 0
	for _, w := range aw {
		if bset[w] {
			score += len(w)
			for _, kw := range sc.KeyWords {
				if w == kw {
					score += 4
					break
				}
			}
		}
	}
	if score == 0 {
		// no shared words: grade subsequence closeness by edit rank, so
		// a near spelling clears the threshold and a distant one stays out
		rank := fuzzy.RankMatchNormalizedFold(a, b)
		if r := fuzzy.RankMatchNormalizedFold(b, a); rank < 0 || (r >= 0 && r < rank) {
			rank = r
		}
		if rank < 0 {
			return 0
		}
		if s := sc.Threshold + 1 - rank; s > 0 {
			return s
		}
		return 0
	}
	if aw[0] == bw[0] {
		score += 5
	}
	return score
}

// Best returns the highest-scoring candidate at or above the threshold.
// Exact-only families never reach here; callers filter them first. Ties
// keep the earliest candidate.
func (sc *Scorer) Best(name string, candidates []string) (best string, score int, ok bool) {
	for _, c := range candidates {
		if s := sc.Score(name, c); s > score {
			best, score = c, s
		}
	}
	if score < sc.Threshold {
		return "", 0, false
	}
	return best, score, true
}
