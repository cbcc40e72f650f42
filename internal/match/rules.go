package match

import (
	"github.com/cloudflare/ahocorasick"
)

// Rule is one entry of an ordered keyword table. A rule fires when every
// All keyword and at least one Any keyword is contained in the normalized
// input. Rules are evaluated strictly in declaration order; the first hit
// wins, so precedence lives in the table, not in control flow.
type Rule struct {
	Tag string
	Any []string
	All []string
}

// RuleSet evaluates an ordered rule table. All keywords across all rules
// are compiled into a single Aho-Corasick automaton, so one pass over the
// input discovers the full presence set; the ordered scan then only checks
// set membership.
type RuleSet struct {
	rules    []Rule
	matcher  *ahocorasick.Matcher
	patterns []string
}

// NewRuleSet compiles the rule table. Keyword order inside a rule does not
// matter; rule order does.
func NewRuleSet(rules []Rule) *RuleSet {
	seen := make(map[string]int)
	var patterns []string
	add := func(kw string) {
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = len(patterns)
		patterns = append(patterns, kw)
	}
	for _, r := range rules {
		for _, kw := range r.Any {
			add(kw)
		}
		for _, kw := range r.All {
			add(kw)
		}
	}

	rs := &RuleSet{rules: rules, patterns: patterns}
	if len(patterns) > 0 {
		bytePatterns := make([][]byte, len(patterns))
		for i, p := range patterns {
			bytePatterns[i] = []byte(p)
		}
		rs.matcher = ahocorasick.NewMatcher(bytePatterns)
	}
	return rs
}

// Match returns the tag of the first rule satisfied by the normalized text.
func (rs *RuleSet) Match(normalized string) (string, bool) {
	present := rs.presence(normalized)
	if len(present) == 0 {
		return "", false
	}
	for _, r := range rs.rules {
		if rs.satisfied(r, present) {
			return r.Tag, true
		}
	}
	return "", false
}

// MatchOnly behaves like Match but only considers rules whose tag passes
// the filter. Used when a caller has already excluded some targets (e.g. a
// sheet row that is taken).
func (rs *RuleSet) MatchOnly(normalized string, allow func(tag string) bool) (string, bool) {
	present := rs.presence(normalized)
	if len(present) == 0 {
		return "", false
	}
	for _, r := range rs.rules {
		if !allow(r.Tag) {
			continue
		}
		if rs.satisfied(r, present) {
			return r.Tag, true
		}
	}
	return "", false
}

func (rs *RuleSet) presence(normalized string) map[string]bool {
	if rs.matcher == nil || normalized == "" {
		return nil
	}
	hits := rs.matcher.Match([]byte(normalized))
	if len(hits) == 0 {
		return nil
	}
	present := make(map[string]bool, len(hits))
	for _, idx := range hits {
		if idx >= 0 && idx < len(rs.patterns) {
			present[rs.patterns[idx]] = true
		}
	}
	return present
}

func (rs *RuleSet) satisfied(r Rule, present map[string]bool) bool {
	for _, kw := range r.All {
		if !present[kw] {
			return false
		}
	}
	if len(r.Any) == 0 {
		return len(r.All) > 0
	}
	for _, kw := range r.Any {
		if present[kw] {
			return true
		}
	}
	return false
}

// Frozen flavor grid tags. BLUE must outrank SADE (a "BLUE SKY SADE" label
// is the special edition, not plain), LIGHT must outrank the flavor it
// modifies, and SADE is shelved on the plain-milk row.
const (
	FlavorBlue    = "BLUE"
	FlavorLight   = "LIGHT"
	FlavorSutlu   = "SUTLU"
	FlavorKakaolu = "KAKAOLU"
	FlavorAntep   = "ANTEP"
	FlavorKrokan  = "KROKAN"
	FlavorKaradut = "KARADUT"
	FlavorLimon   = "LIMON"
	FlavorDamla   = "DAMLA"
	FlavorCilek   = "CILEK"
	FlavorCark    = "CARK"
	FlavorDosido  = "DOSIDO"
)

// FlavorRules maps an order-line name to its flavor row tag.
var FlavorRules = []Rule{
	{Tag: FlavorBlue, Any: []string{"BLUE", "SKY"}},
	{Tag: FlavorLight, Any: []string{"LIGHT"}},
	{Tag: FlavorSutlu, Any: []string{"SADE", "SUTLU"}},
	{Tag: FlavorKakaolu, Any: []string{"KAKAOLU"}},
	{Tag: FlavorAntep, Any: []string{"ANTEP", "FISTIK"}},
	{Tag: FlavorKrokan, Any: []string{"KROKAN"}},
	{Tag: FlavorKaradut, Any: []string{"KARADUT"}},
	{Tag: FlavorLimon, Any: []string{"LIMON"}},
	{Tag: FlavorDamla, Any: []string{"DAMLA", "SAKIZ"}},
	{Tag: FlavorCilek, Any: []string{"CILEK"}},
	{Tag: FlavorCark, Any: []string{"CARK", "CARKIFELEK"}},
	{Tag: FlavorDosido, Any: []string{"DOSIDO"}},
}

// FlavorRowRules recognizes the same tags on template row labels. Sheet
// rows never say SADE, they say SUTLU; otherwise identical to FlavorRules.
var FlavorRowRules = []Rule{
	{Tag: FlavorSutlu, Any: []string{"SUTLU"}},
	{Tag: FlavorKakaolu, Any: []string{"KAKAOLU"}},
	{Tag: FlavorAntep, Any: []string{"ANTEP", "FISTIK"}},
	{Tag: FlavorKrokan, Any: []string{"KROKAN"}},
	{Tag: FlavorKaradut, Any: []string{"KARADUT"}},
	{Tag: FlavorLimon, Any: []string{"LIMON"}},
	{Tag: FlavorDamla, Any: []string{"DAMLA", "SAKIZ"}},
	{Tag: FlavorCilek, Any: []string{"CILEK"}},
	{Tag: FlavorLight, Any: []string{"LIGHT"}},
	{Tag: FlavorBlue, Any: []string{"BLUE", "SKY"}},
	{Tag: FlavorCark, Any: []string{"CARK", "CARKIFELEK"}},
	{Tag: FlavorDosido, Any: []string{"DOSIDO"}},
}

// Frozen matrix block group tags. These are both the sheet header labels
// and the routing targets.
const (
	GroupTost       = "TOST"
	GroupEkmek      = "EKMEK"
	GroupCheesecake = "CHEESECAKE"
	GroupCatalBorek = "CATAL BOREK"
)

// GroupRules routes an order line to a matrix block. CHEESE and TRILECE
// must be tested before BOREK; EKMEK before TOST.
var GroupRules = []Rule{
	{Tag: GroupCheesecake, Any: []string{"CHEESE", "CHEESECAKE", "TRILECE"}},
	{Tag: GroupCatalBorek, Any: []string{"BOREK", "CATAL", "KOL BOREGI", "SU BOREGI", "ISPANAKLI", "PATATESLI", "KIYMALI"}},
	{Tag: GroupEkmek, Any: []string{"EKMEK"}},
	{Tag: GroupTost, Any: []string{"TOST"}},
}

// MatrixGroupKeywords are the block headers scanned for in the label
// column; encountering any of them also terminates the previous block's
// product rows.
var MatrixGroupKeywords = []string{GroupTost, GroupEkmek, GroupCheesecake, GroupCatalBorek, "DONDURMALAR"}

// ColumnPick assigns a product to a span of variant sub-columns, by
// zero-based position among the block's discovered sub-columns (From..To
// inclusive, clipped to what the block actually has).
type ColumnPick struct {
	Any  []string
	All  []string
	From int
	To   int
}

// MatrixRules: per block, the ordered sub-column assignments. Positions
// follow the template convention (first sub-column leftmost).
var MatrixRules = map[string][]ColumnPick{
	GroupTost: {
		{Any: []string{"KASAR"}, From: 0, To: 0},
		{Any: []string{"KEPEK"}, From: 1, To: 1},
		{Any: []string{"KARISIK"}, From: 2, To: 3},
	},
	GroupEkmek: {
		{All: []string{"EKMEK", "BEYAZ"}, From: 0, To: 0},
		{All: []string{"EKMEK", "ESMER"}, From: 1, To: 1},
		{Any: []string{"KIYMALI", "KIYMA"}, All: []string{"BORE"}, From: 2, To: 3},
	},
	GroupCheesecake: {
		{Any: []string{"SEBASTIAN"}, From: 0, To: 1},
		{Any: []string{"FRAMBUAZ"}, From: 2, To: 3},
	},
	GroupCatalBorek: {
		{Any: []string{"PATATES"}, From: 0, To: 0},
		{Any: []string{"ISPANAK"}, From: 1, To: 1},
		{All: []string{"SU", "BORE"}, From: 2, To: 3},
	},
}

// PickSet is a compiled ColumnPick list.
type PickSet struct {
	picks []ColumnPick
	rs    *RuleSet
}

// NewPickSet compiles the picks into a shared keyword automaton.
func NewPickSet(picks []ColumnPick) *PickSet {
	rules := make([]Rule, len(picks))
	for i, p := range picks {
		rules[i] = Rule{Any: p.Any, All: p.All}
	}
	return &PickSet{picks: picks, rs: NewRuleSet(rules)}
}

// Columns resolves the ordered sub-column assignment for a normalized
// product name. Returns the selected columns, or nil when no pick fires or
// the selected positions do not exist in this template.
func (ps *PickSet) Columns(normalized string, subCols []int) []int {
	present := ps.rs.presence(normalized)
	for _, p := range ps.picks {
		if !ps.rs.satisfied(Rule{Any: p.Any, All: p.All}, present) {
			continue
		}
		var cols []int
		for i := p.From; i <= p.To && i < len(subCols); i++ {
			if i >= 0 {
				cols = append(cols, subCols[i])
			}
		}
		if len(cols) > 0 {
			return cols
		}
	}
	return nil
}

// Pasta cake rows and their keyword tables.
const (
	PastaKrokanli = "KROKANLI"
	PastaFistikli = "FISTIKLI"
	PastaOrman    = "ORMAN"
	PastaGanaj    = "GANAJ"
	PastaAnanas   = "ANANAS"
)

var PastaRules = []Rule{
	{Tag: PastaKrokanli, Any: []string{"KROKAN"}},
	{Tag: PastaFistikli, Any: []string{"FISTIK"}},
	{Tag: PastaOrman, Any: []string{"ORMAN", "MEYVELI"}},
	{Tag: PastaGanaj, Any: []string{"GANAJ"}},
	{Tag: PastaAnanas, Any: []string{"ANANAS"}},
}

// PastaSizes are the fixed sub-column labels of the pasta grid, leftmost
// first.
var PastaSizes = []string{"MONO", "KUCUK", "BUYUK"}

// LogisticsGroups are the CSV category values handled by the sundries
// workbook.
var LogisticsGroups = map[string]bool{
	"SARF":      true,
	"KURABIYE":  true,
	"CIKOLATA":  true,
	"HEDIYELIK": true,
	"ICECEK":    true,
}
