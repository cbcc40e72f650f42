package workbook

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seyhanlar/sevkiyat/pkg/quantity"
)

// Writer applies aggregated values to a sheet. Write failures never abort
// the run; they are recorded per cell so a partially written workbook
// still saves.
type Writer struct {
	s    *Sheet
	span Span

	Failures []WriteFailure
}

// WriteFailure records one cell that could not be written.
type WriteFailure struct {
	Row, Col int
	Err      error
}

// NewWriter returns a writer bounded by one branch span.
func NewWriter(s *Sheet, span Span) *Writer {
	return &Writer{s: s, span: span}
}

// ResolveNumericCol steps a target column out of a label merge so the
// number lands in a writable cell: first jump to the merge's right edge
// (bounded by the span), then keep stepping right while still inside a
// merge whose master is elsewhere.
func (w *Writer) ResolveNumericCol(row, col int) int {
	if m, ok := w.s.MergeAt(row, col); ok && m.MinCol != col {
		col = m.MaxCol
		if w.span.MaxCol < col {
			col = w.span.MaxCol
		}
	}
	for {
		m, ok := w.s.MergeAt(row, col)
		if !ok || m.MinCol == col {
			break
		}
		if col >= w.span.MaxCol {
			break
		}
		col++
	}
	return col
}

// WriteNumber writes an aggregated quantity as a raw number. On failure it
// retries the merge's master cell; a second failure is recorded, not
// raised.
func (w *Writer) WriteNumber(row, col int, v decimal.Decimal) {
	cc := w.ResolveNumericCol(row, col)
	if err := w.s.SetValue(row, cc, quantity.Number(v)); err != nil {
		mr, mc := w.s.MasterOf(row, cc)
		if err2 := w.s.SetValue(mr, mc, quantity.Number(v)); err2 != nil {
			w.Failures = append(w.Failures, WriteFailure{Row: row, Col: cc, Err: err2})
		}
	}
}

var numericCellRe = regexp.MustCompile(`^[0-9.,]+$`)

// ClearNumeric erases a stale numeric value. Text labels survive; only
// numbers and numeric strings are cleared.
func (w *Writer) ClearNumeric(row, col int) {
	cc := w.ResolveNumericCol(row, col)
	v := strings.TrimSpace(w.s.Value(row, cc))
	if v == "" || !numericCellRe.MatchString(v) {
		return
	}
	if err := w.s.SetValue(row, cc, nil); err != nil {
		w.Failures = append(w.Failures, WriteFailure{Row: row, Col: cc, Err: err})
	}
}

// MutateLabel rewrites a text-mutation cell to carry the new running
// total. Any previously appended quantity suffix is stripped first, which
// is what makes a rerun write the same text instead of stacking suffixes.
// A label already carrying an "=" keeps the equals form; otherwise the
// quantity (and unit, when given) is appended after the label.
func (w *Writer) MutateLabel(row, col int, qty decimal.Decimal, unit string) {
	existing := w.s.Value(row, col)
	if err := w.s.SetValue(row, col, MutatedLabel(existing, qty, unit)); err != nil {
		w.Failures = append(w.Failures, WriteFailure{Row: row, Col: col, Err: err})
	}
}

// MutateLabelEquals is MutateLabel in the "LABEL = N" form used by the
// running-total cells.
func (w *Writer) MutateLabelEquals(row, col int, qty decimal.Decimal) {
	existing := w.s.Value(row, col)
	if err := w.s.SetValue(row, col, MutatedLabelEquals(existing, qty)); err != nil {
		w.Failures = append(w.Failures, WriteFailure{Row: row, Col: col, Err: err})
	}
}

// MutatedLabel renders the new cell text for a text-mutation target.
func MutatedLabel(existing string, qty decimal.Decimal, unit string) string {
	n := quantity.Format(qty)
	if left, _, found := strings.Cut(existing, "="); found {
		return strings.TrimSpace(left) + " = " + n
	}
	base := StripQuantitySuffix(existing)
	if unit != "" {
		return base + " " + n + " " + unit
	}
	return base + " " + n
}

// MutatedLabelEquals renders the equals form. A label already carrying an
// "=" keeps everything left of it, so reruns rewrite the same text.
func MutatedLabelEquals(existing string, qty decimal.Decimal) string {
	n := quantity.Format(qty)
	if left, _, found := strings.Cut(existing, "="); found {
		return strings.TrimSpace(left) + " = " + n
	}
	return StripQuantitySuffix(existing) + " = " + n
}

var (
	numberTokenRe = regexp.MustCompile(`^[0-9]+([.,][0-9]+)?$`)
	unitWords     = map[string]bool{"ADET": true, "KG": true, "GR": true, "PK": true, "TEPSI": true}
)

// StripQuantitySuffix removes a trailing quantity suffix from a label: a
// run of number and unit-keyword tokens at the end of the string,
// optionally preceded by a dangling separator. The label itself is left
// untouched when no number appears in the trailing run.
func StripQuantitySuffix(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	cut := len(fields)
	sawNumber := false
	for cut > 0 {
		tok := fields[cut-1]
		up := strings.ToUpper(tok)
		if numberTokenRe.MatchString(tok) {
			sawNumber = true
			cut--
			continue
		}
		if unitWords[up] {
			cut--
			continue
		}
		break
	}
	if !sawNumber || cut == len(fields) {
		return strings.TrimSpace(text)
	}
	// drop a separator the suffix was hung on
	if cut > 0 && (fields[cut-1] == "-" || fields[cut-1] == "=") {
		cut--
	}
	return strings.Join(fields[:cut], " ")
}
