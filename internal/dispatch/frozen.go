// Package dispatch runs the per-category writers: each one resolves the
// branch's place in its workbook template, aggregates the matching order
// lines and flushes the totals. Structural failures skip the category;
// per-line failures become counts.
package dispatch

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seyhanlar/sevkiyat/internal/match"
	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/internal/textnorm"
	"github.com/seyhanlar/sevkiyat/internal/workbook"
)

// Stats summarizes one category writer's run.
type Stats struct {
	Matched   int
	Unmatched int
	Written   int
	Skipped   bool
	Err       error
}

// textTotal is a named running total written as a text mutation instead of
// a grid cell. Line keywords route CSV rows into the total; cell keywords
// find the label cell inside the branch's columns. Mirrors repeat the same
// total into a second label (the syrup cell always carries the kunefe
// count).
type textTotal struct {
	key     string
	lineAny []string
	lineAll []string
	cellAll []string
	mirrors [][]string
}

// frozen text totals, checked in order before any grid routing; all are
// written in the "LABEL = N" form
var frozenTextTotals = []textTotal{
	{key: "EKLER", lineAny: []string{"EKLER"}, cellAll: []string{"EKLER"}},
	{key: "ROKOKO", lineAll: []string{"MEYVELI", "ROKOKO"}, cellAll: []string{"ROKOKO"}},
	{key: "KUNEFE", lineAny: []string{"KUNEFE"}, cellAll: []string{"KUNEFE"}, mirrors: [][]string{{"SERBET"}}},
	{key: "TRILECE", lineAny: []string{"TRILECE"}, cellAll: []string{"DONUK", "TRILECE"}},
}

// matrixGroups are the CSV group labels routed through the matrix blocks.
var matrixGroups = map[string]bool{"TATLI": true, "BOREK": true}

// FrozenWriter distributes order lines into the frozen-goods workbook: the
// flavor×size grid, the matrix blocks, the pasta grid and the named text
// totals.
type FrozenWriter struct {
	log     *slog.Logger
	locator workbook.Locator

	flavorLines *match.RuleSet
	flavorRows  *match.RuleSet
	groups      *match.RuleSet
	pastaRules  *match.RuleSet
	picks       map[string]*match.PickSet
}

// NewFrozenWriter compiles the routing tables once.
func NewFrozenWriter(log *slog.Logger, spanMargin int) *FrozenWriter {
	picks := make(map[string]*match.PickSet, len(match.MatrixRules))
	for g, rules := range match.MatrixRules {
		picks[g] = match.NewPickSet(rules)
	}
	return &FrozenWriter{
		log:         log.With("category", "donuk"),
		locator:     workbook.NewLocator(spanMargin),
		flavorLines: match.NewRuleSet(match.FlavorRules),
		flavorRows:  match.NewRuleSet(match.FlavorRowRules),
		groups:      match.NewRuleSet(match.GroupRules),
		pastaRules:  match.NewRuleSet(match.PastaRules),
		picks:       picks,
	}
}

// Run aggregates every order line against the branch's span in the frozen
// workbook and flushes the totals. The workbook is mutated, not saved;
// saving is the coordinator's job.
func (w *FrozenWriter) Run(book *workbook.Book, f *order.File, sheetHints []string) Stats {
	sheet, span, err := w.locator.LocateBranch(book, f.Identity.Candidates(), sheetHints)
	if err != nil {
		w.log.Warn("branch not found in frozen workbook", "primary", f.Identity.Primary, "fallback", f.Identity.Fallback)
		return Stats{Skipped: true, Err: err}
	}
	w.log.Debug("branch span located", "sheet", sheet.Name, "min_col", span.MinCol, "max_col", span.MaxCol)

	layout := w.discoverLayout(sheet, span)
	agg := match.NewAggregator()
	stats := Stats{}

	for _, line := range f.Lines {
		if w.aggregateLine(layout, line, agg) {
			stats.Matched++
		} else {
			stats.Unmatched++
			w.log.Debug("frozen line unmatched", "product", line.Product, "row", line.Row)
		}
	}

	stats.Written = w.flush(sheet, span, layout, agg, f.Identity)
	return stats
}

// frozenLayout is everything discovered about the branch's area of the
// template before any line is routed.
type frozenLayout struct {
	grid      *workbook.Block // DONDURMALAR header, may be nil
	flavorRow map[string]int
	sizeCols  map[match.SizeClass]int
	blocks    map[string]*workbook.Block
	pastaRow  map[string]int
	pastaCols map[string]int
}

func (w *FrozenWriter) discoverLayout(sheet *workbook.Sheet, span workbook.Span) *frozenLayout {
	l := &frozenLayout{
		flavorRow: make(map[string]int),
		pastaRow:  make(map[string]int),
		pastaCols: make(map[string]int),
	}

	grid, err := workbook.LocateBlock(sheet, span, "DONDURMALAR", match.MatrixGroupKeywords)
	if err == nil {
		l.grid = grid
	} else {
		w.log.Debug("no flavor grid on this sheet")
	}

	for r := 1; r <= sheet.MaxRow(); r++ {
		label := sheet.Norm(r, 1)
		if label == "" {
			continue
		}
		tag, ok := w.flavorRows.MatchOnly(label, func(t string) bool {
			_, taken := l.flavorRow[t]
			return !taken
		})
		if ok {
			l.flavorRow[tag] = r
		}
	}

	rowHint := 0
	if l.grid != nil {
		rowHint = l.grid.HeaderRow
	}
	l.sizeCols = workbook.FindSizeColumns(sheet, span, rowHint)

	l.blocks = workbook.LocateMatrixBlocks(sheet, span, []string{
		match.GroupTost, match.GroupEkmek, match.GroupCheesecake, match.GroupCatalBorek,
	})

	// pasta rows sit below the grid header; columns follow the template
	// convention of hanging off the branch's first column
	start := 1
	if l.grid != nil {
		start = l.grid.HeaderRow
	}
	for r := start; r <= sheet.MaxRow(); r++ {
		label := sheet.Norm(r, 1)
		if label == "" || !strings.Contains(label, "PASTA") {
			continue
		}
		tag, ok := w.pastaRules.MatchOnly(label, func(t string) bool {
			_, taken := l.pastaRow[t]
			return !taken
		})
		if ok {
			l.pastaRow[tag] = r
		}
	}
	for i, size := range match.PastaSizes {
		c := span.MinCol + 1 + i
		if c <= sheet.MaxCol() {
			l.pastaCols[size] = c
		}
	}
	return l
}

// aggregateLine routes one order line. Check order is load-bearing: text
// totals first, then the matrix blocks for the pastry groups, then the
// pasta grid, then the flavor grid.
func (w *FrozenWriter) aggregateLine(l *frozenLayout, line order.Line, agg *match.Aggregator) bool {
	up := textnorm.Normalize(line.Product)
	group := textnorm.Normalize(line.Group)

	for _, tt := range frozenTextTotals {
		if containsAny(up, tt.lineAny) || containsAllOf(up, tt.lineAll) {
			agg.AddNamed(tt.key, line.Quantity)
			return true
		}
	}

	if matrixGroups[group] {
		if tag, ok := w.groups.Match(up); ok {
			if blk := l.blocks[tag]; blk != nil {
				if cols := w.picks[tag].Columns(up, blk.SubCols); cols != nil {
					for _, c := range cols {
						agg.AddCell(blk.WriteRow, c, line.Quantity)
					}
					return true
				}
			}
			return false
		}
	}

	// the pasta grid only claims lines carrying a pasta size token;
	// everything else falls through to the flavor grid
	if size := pastaSizeFromName(up); size != "" {
		if tag, ok := w.pastaRules.Match(up); ok {
			row, okRow := l.pastaRow[tag]
			col, okCol := l.pastaCols[size]
			if okRow && okCol {
				agg.AddCell(row, col, line.Quantity)
				return true
			}
			return false
		}
	}

	if tag, ok := w.flavorLines.Match(up); ok {
		row, okRow := l.flavorRow[tag]
		if !okRow {
			return false
		}
		size := match.DetectSize(line.Product, line.Unit)
		if size == match.SizeNone {
			// the only documented sizeless default
			if tag != match.FlavorDosido {
				return false
			}
			size = match.Size35KG
		}
		col, okCol := l.sizeCols[size]
		if !okCol {
			return false
		}
		agg.AddCell(row, col, line.Quantity)
		return true
	}
	return false
}

var mono36Re = regexp.MustCompile(`\b36\b`)

func pastaSizeFromName(up string) string {
	switch {
	case strings.Contains(up, "MONO"), strings.Contains(up, "TEK"), mono36Re.MatchString(up):
		return "MONO"
	case strings.Contains(up, "KUCUK"):
		return "KUCUK"
	case strings.Contains(up, "BUYUK"):
		return "BUYUK"
	}
	return ""
}

// flush clears stale values then writes the aggregated totals. The clear
// pass covers every legitimate grid target of this branch, written or not,
// so a previous run's value never survives.
func (w *FrozenWriter) flush(sheet *workbook.Sheet, span workbook.Span, l *frozenLayout, agg *match.Aggregator, id order.Identity) int {
	cw := workbook.NewWriter(sheet, span)

	headerRow := 0
	if l.grid != nil {
		headerRow = l.grid.HeaderRow
	}
	var sizeCols []int
	for _, c := range l.sizeCols {
		sizeCols = append(sizeCols, c)
	}
	for _, r := range l.flavorRow {
		if r <= headerRow {
			continue
		}
		for _, c := range sizeCols {
			cw.ClearNumeric(r, c)
		}
	}
	for cell := range agg.Cells() {
		cw.ClearNumeric(cell.Row, cell.Col)
	}

	written := 0
	for cell, total := range agg.Cells() {
		cw.WriteNumber(cell.Row, cell.Col, total)
		written++
	}

	branchCols := branchColumns(sheet, id)
	for _, tt := range frozenTextTotals {
		total, ok := agg.Named(tt.key)
		if !ok || total.IsZero() {
			continue
		}
		if mutateFirstLabel(cw, sheet, branchCols, tt.cellAll, total) {
			written++
		}
		for _, mirror := range tt.mirrors {
			if mutateFirstLabel(cw, sheet, branchCols, mirror, total) {
				written++
			}
		}
	}

	for _, fail := range cw.Failures {
		w.log.Warn("cell write failed", "row", fail.Row, "col", fail.Col, "err", fail.Err)
	}
	return written
}

// branchColumns are the columns whose top-band header mentions the branch;
// text-mutation labels are only touched inside them.
func branchColumns(sheet *workbook.Sheet, id order.Identity) []int {
	var cols []int
	seen := make(map[int]bool)
	for _, cand := range id.Candidates() {
		up := textnorm.Normalize(cand)
		for r := 1; r <= 3 && r <= sheet.MaxRow(); r++ {
			for c := 1; c <= sheet.MaxCol(); c++ {
				if seen[c] {
					continue
				}
				if v := sheet.Norm(r, c); v != "" && strings.Contains(v, up) {
					seen[c] = true
					cols = append(cols, c)
				}
			}
		}
		if len(cols) > 0 {
			break
		}
	}
	return cols
}

// mutateFirstLabel rewrites the first label cell in the branch columns
// matching all keywords. Only the first hit is updated.
func mutateFirstLabel(cw *workbook.Writer, sheet *workbook.Sheet, branchCols []int, keywords []string, total decimal.Decimal) bool {
	for r := 1; r <= sheet.MaxRow(); r++ {
		for _, c := range branchCols {
			up := sheet.Norm(r, c)
			if up == "" || !containsAllOf(up, keywords) {
				continue
			}
			cw.MutateLabelEquals(r, c, total)
			return true
		}
	}
	return false
}

func containsAny(up string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(up, k) {
			return true
		}
	}
	return false
}

func containsAllOf(up string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, k := range keywords {
		if !strings.Contains(up, k) {
			return false
		}
	}
	return true
}
