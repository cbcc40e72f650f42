package workbook

import (
	"strings"
	"unicode"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// Span is the contiguous column range belonging to one branch on a sheet.
type Span struct {
	MinCol, MaxCol int
	AnchorRow      int
}

// headerScanRows bounds the cell-by-cell branch scan: branch labels live in
// the top band of every observed template.
const headerScanRows = 25

// Locator finds the worksheet and column span belonging to a branch.
type Locator struct {
	// Margin is how far a found span may be widened to the right to pick up
	// adjacent size sub-columns.
	Margin int
	// MinWidth is the minimum widened span width; single-cell labels still
	// own a handful of value columns.
	MinWidth int
}

// NewLocator returns a locator with the span-widening defaults.
func NewLocator(margin int) Locator {
	return Locator{Margin: margin, MinWidth: 12}
}

// LocateBranch finds the sheet and span for the first candidate that
// matches anything. Candidates arrive in priority order (primary before
// fallback). Per candidate the passes run in strict order:
//
//  1. exact normalized match against merged-range master cells, because an
//     exact hit must never lose to a longer label containing it;
//  2. exact match scanning the top rows cell by cell, expanded to the
//     enclosing merge when present;
//  3. substring containment, kept only for legacy templates with partial
//     labels.
//
// sheetHints, when non-empty, order matching sheets first (day-variant
// selection); they never invent a match.
func (l Locator) LocateBranch(b *Book, candidates []string, sheetHints []string) (*Sheet, Span, error) {
	sheets, err := orderedSheets(b, sheetHints)
	if err != nil {
		return nil, Span{}, err
	}

	for _, cand := range candidates {
		up := textnorm.Normalize(cand)
		if up == "" {
			continue
		}
		for _, pass := range []func(*Sheet, string) (Span, bool){
			findExactMerged,
			findExactCell,
			findSubstring,
		} {
			for _, s := range sheets {
				if span, ok := pass(s, up); ok {
					return s, l.widen(s, span), nil
				}
			}
		}
	}
	return nil, Span{}, ErrBranchNotFound
}

func orderedSheets(b *Book, hints []string) ([]*Sheet, error) {
	names := b.SheetNames()
	ordered := make([]string, 0, len(names))
	if len(hints) > 0 {
		for _, h := range hints {
			hu := textnorm.Normalize(h)
			for _, n := range names {
				if sheetNameMatches(textnorm.Normalize(n), hu) && !contains(ordered, n) {
					ordered = append(ordered, n)
				}
			}
		}
	}
	for _, n := range names {
		if !contains(ordered, n) {
			ordered = append(ordered, n)
		}
	}

	sheets := make([]*Sheet, 0, len(ordered))
	for _, n := range ordered {
		s, err := b.Sheet(n)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

// sheetNameMatches accepts exact names and word-overlap matches, so the hint
// "Salı İzmir" finds the sheet "SALI IZMIR".
func sheetNameMatches(name, hint string) bool {
	if name == hint {
		return true
	}
	nameWords := strings.Fields(name)
	for _, w := range strings.Fields(hint) {
		for _, nw := range nameWords {
			if w == nw {
				return true
			}
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func findExactMerged(s *Sheet, up string) (Span, bool) {
	for _, m := range s.merges {
		if s.Norm(m.MinRow, m.MinCol) == up {
			return Span{MinCol: m.MinCol, MaxCol: m.MaxCol, AnchorRow: m.MinRow}, true
		}
	}
	return Span{}, false
}

func findExactCell(s *Sheet, up string) (Span, bool) {
	maxRow := s.MaxRow()
	if maxRow > headerScanRows {
		maxRow = headerScanRows
	}
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= s.MaxCol(); c++ {
			if s.Norm(r, c) != up {
				continue
			}
			if m, ok := s.MergeAt(r, c); ok {
				return Span{MinCol: m.MinCol, MaxCol: m.MaxCol, AnchorRow: m.MinRow}, true
			}
			return Span{MinCol: c, MaxCol: c, AnchorRow: r}, true
		}
	}
	return Span{}, false
}

func findSubstring(s *Sheet, up string) (Span, bool) {
	maxRow := s.MaxRow()
	if maxRow > headerScanRows {
		maxRow = headerScanRows
	}
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= s.MaxCol(); c++ {
			v := s.Norm(r, c)
			if v == "" {
				continue
			}
			if !strings.Contains(v, up) && !strings.Contains(up, v) {
				continue
			}
			if m, ok := s.MergeAt(r, c); ok {
				return Span{MinCol: m.MinCol, MaxCol: m.MaxCol, AnchorRow: m.MinRow}, true
			}
			return Span{MinCol: c, MaxCol: c, AnchorRow: r}, true
		}
	}
	return Span{}, false
}

// widen extends the span to the right so size and variant sub-columns next
// to the label are searchable, stopping before the next branch's column.
func (l Locator) widen(s *Sheet, span Span) Span {
	target := span.MaxCol + l.Margin
	if min := span.MinCol + l.MinWidth; min > target {
		target = min
	}
	if mc := s.MaxCol(); target > mc {
		target = mc
	}

	for c := span.MaxCol + 1; c <= target; c++ {
		if isBranchBoundary(s, span.AnchorRow, c) {
			target = c - 1
			break
		}
	}
	if target < span.MaxCol {
		target = span.MaxCol
	}
	return Span{MinCol: span.MinCol, MaxCol: target, AnchorRow: span.AnchorRow}
}

// isBranchBoundary reports whether the anchor-row cell starts another
// branch's label: non-blank, letter-led, and not a date.
func isBranchBoundary(s *Sheet, row, col int) bool {
	raw := strings.TrimSpace(s.Value(row, col))
	if raw == "" {
		return false
	}
	letters := 0
	for _, r := range raw {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 3 {
		// dates, sizes and counters are digit-dominant
		return false
	}
	first := []rune(raw)[0]
	return unicode.IsLetter(first)
}
