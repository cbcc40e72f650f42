package dispatch

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seyhanlar/sevkiyat/internal/match"
	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/internal/textnorm"
	"github.com/seyhanlar/sevkiyat/internal/workbook"
	"github.com/seyhanlar/sevkiyat/pkg/quantity"
)

// logisticsHeaderRows is the top band searched for a branch column header.
const logisticsHeaderRows = 3

// logisticsBodyStart is the first row items may land on.
const logisticsBodyStart = 3

// LogisticsWriter renders the sundries groups as "NAME - N ADET" lines in
// the branch's column. This is the one writer allowed to grow the
// template: a branch with no column yet gets one appended at the end of
// the header row.
type LogisticsWriter struct {
	log *slog.Logger
}

func NewLogisticsWriter(log *slog.Logger) *LogisticsWriter {
	return &LogisticsWriter{log: log.With("category", "lojistik")}
}

// Run aggregates the logistics-group lines per product and rewrites the
// branch column. Lines already present for a product are replaced in
// place; new products append at the first empty non-merged row.
func (w *LogisticsWriter) Run(book *workbook.Book, f *order.File, sheetHints []string) Stats {
	totals, stats := w.aggregate(f.Lines)
	if len(totals) == 0 {
		return stats
	}

	sheet, err := w.pickSheet(book, f.Identity, sheetHints)
	if err != nil {
		return Stats{Skipped: true, Err: err}
	}
	col, appended := w.findOrAddBranchCol(sheet, f.Identity)
	if appended {
		w.log.Info("appended branch column", "sheet", sheet.Name, "col", col)
	}

	existing := w.indexColumn(sheet, col)
	nextFree := w.firstEmptyRow(sheet, col)

	for _, name := range sortedKeys(totals) {
		it := totals[name]
		text := it.display + " - " + quantity.Format(it.qty) + " ADET"
		row, ok := existing[name]
		if !ok {
			row = nextFree
			for {
				if _, merged := sheet.MergeAt(row, col); !merged && sheet.Value(row, col) == "" {
					break
				}
				row++
			}
			nextFree = row + 1
		}
		if err := sheet.SetValue(row, col, text); err != nil {
			w.log.Warn("line write failed", "row", row, "col", col, "err", err)
			continue
		}
		stats.Written++
	}
	return stats
}

// logisticsItem keys aggregation on the normalized name but renders the
// source spelling on the sheet.
type logisticsItem struct {
	display string
	qty     decimal.Decimal
}

func (w *LogisticsWriter) aggregate(lines []order.Line) (map[string]logisticsItem, Stats) {
	totals := make(map[string]logisticsItem)
	stats := Stats{}
	for _, line := range lines {
		if !match.LogisticsGroups[textnorm.Normalize(line.Group)] {
			continue
		}
		display := cleanDisplay(line.Product)
		up := textnorm.Normalize(display)
		if up == "" {
			stats.Unmatched++
			continue
		}
		it, seen := totals[up]
		if !seen {
			it.display = display
		}
		it.qty = it.qty.Add(line.Quantity)
		totals[up] = it
		stats.Matched++
	}
	return totals, stats
}

var curlyRe = regexp.MustCompile(`\{[^}]*\}`)

// cleanDisplay keeps the product's source casing and parentheticals; only
// the {...} annotation blocks are cut and whitespace collapsed.
func cleanDisplay(raw string) string {
	return strings.Join(strings.Fields(curlyRe.ReplaceAllString(raw, "")), " ")
}

// pickSheet prefers a hinted sheet, then a sheet mentioning the branch in
// its top band, then the first sheet. The logistics template is a simple
// list, so unlike the grid writers an unmatched branch is not fatal here;
// the column append below handles it.
func (w *LogisticsWriter) pickSheet(book *workbook.Book, id order.Identity, sheetHints []string) (*workbook.Sheet, error) {
	names := book.SheetNames()
	if len(names) == 0 {
		return nil, workbook.ErrBranchNotFound
	}
	for _, h := range sheetHints {
		for _, n := range names {
			if textnorm.Normalize(n) == textnorm.Normalize(h) {
				return book.Sheet(n)
			}
		}
	}
	for _, cand := range id.Candidates() {
		up := textnorm.Normalize(cand)
		for _, n := range names {
			sheet, err := book.Sheet(n)
			if err != nil {
				return nil, err
			}
			for r := 1; r <= logisticsHeaderRows && r <= sheet.MaxRow(); r++ {
				for c := 1; c <= sheet.MaxCol(); c++ {
					v := sheet.Norm(r, c)
					if v == "" {
						continue
					}
					if v == up || strings.Contains(v, up) || strings.Contains(up, v) {
						return sheet, nil
					}
				}
			}
		}
	}
	return book.Sheet(names[0])
}

// findOrAddBranchCol resolves the branch's column in the header band:
// exact match, then containment, then best word overlap. A branch with no
// header at all gets a fresh column appended; that is the single place
// this system creates workbook structure.
func (w *LogisticsWriter) findOrAddBranchCol(sheet *workbook.Sheet, id order.Identity) (int, bool) {
	bestCol, bestScore := 0, 0
	for _, cand := range id.Candidates() {
		up := textnorm.Normalize(cand)
		upWords := strings.Fields(up)
		for r := 1; r <= logisticsHeaderRows && r <= sheet.MaxRow(); r++ {
			for c := 1; c <= sheet.MaxCol(); c++ {
				v := sheet.Norm(r, c)
				if v == "" {
					continue
				}
				if v == up {
					return c, false
				}
				if strings.Contains(v, up) || strings.Contains(up, v) {
					return c, false
				}
				common := 0
				for _, wd := range upWords {
					for _, vw := range strings.Fields(v) {
						if wd == vw {
							common++
						}
					}
				}
				if common > bestScore {
					bestScore, bestCol = common, c
				}
			}
		}
	}
	if bestCol > 0 {
		return bestCol, false
	}

	col := sheet.MaxCol() + 1
	label := id.Primary
	if label == "" {
		label = id.Fallback
	}
	if err := sheet.SetValue(1, col, label); err != nil {
		w.log.Warn("branch header write failed", "col", col, "err", err)
	}
	return col, true
}

// indexColumn maps the stripped base text of each existing line to its
// row, so a rerun replaces instead of appending.
func (w *LogisticsWriter) indexColumn(sheet *workbook.Sheet, col int) map[string]int {
	index := make(map[string]int)
	for r := logisticsBodyStart; r <= sheet.MaxRow(); r++ {
		v := sheet.Value(r, col)
		if v == "" {
			continue
		}
		base := textnorm.Normalize(workbook.StripQuantitySuffix(v))
		if base != "" {
			index[base] = r
		}
	}
	return index
}

func (w *LogisticsWriter) firstEmptyRow(sheet *workbook.Sheet, col int) int {
	row := logisticsBodyStart
	for {
		if m, merged := sheet.MergeAt(row, col); merged {
			row = m.MaxRow + 1
			continue
		}
		if strings.TrimSpace(sheet.Value(row, col)) == "" {
			return row
		}
		row++
	}
}

func sortedKeys(m map[string]logisticsItem) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
