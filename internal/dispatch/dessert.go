package dispatch

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seyhanlar/sevkiyat/internal/match"
	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/internal/textnorm"
	"github.com/seyhanlar/sevkiyat/internal/workbook"
)

// branchHeaderRow is where the dessert template lists branch names; each
// branch owns a four-column band (tray, tray spill, piece, piece spill).
const branchHeaderRow = 2

// trayCutoffRow: template rows at or above it carry both a tray and a
// piece cell; rows below carry a single cell keyed by their variant.
const trayCutoffRow = 7

// metadata labels in the template's name column that are not products
var dessertSkipLabels = []string{"SIPARIS TARIHI", "SIPARIS ALAN", "TESLIM TARIHI", "TEYID EDEN"}

// DessertWriter fills the dessert workbook: per-branch tray/piece columns
// against the template's product-name rows.
type DessertWriter struct {
	log    *slog.Logger
	scorer *match.Scorer
	now    func() time.Time
}

// NewDessertWriter uses the configured fuzzy threshold for its loose-match
// fallback.
func NewDessertWriter(log *slog.Logger, fuzzyThreshold int) *DessertWriter {
	return &DessertWriter{
		log:    log.With("category", "tatli"),
		scorer: match.NewScorer(fuzzyThreshold),
		now:    time.Now,
	}
}

// dessertCell is one writable target in the template.
type dessertCell struct {
	name    string // normalized product name from the template row
	variant string // canonical variant this cell accepts
	row     int
	col     int
}

// Run distributes the TATLI group lines. Every target cell is first reset
// to "-", so a rerun and a day with no orders both leave clean cells.
func (w *DessertWriter) Run(book *workbook.Book, f *order.File, sheetHints []string) Stats {
	sheet, tepsiCol, adetCol, err := w.findBranch(book, f.Identity, sheetHints)
	if err != nil {
		w.log.Warn("branch not found in dessert workbook", "primary", f.Identity.Primary, "fallback", f.Identity.Fallback)
		return Stats{Skipped: true, Err: err}
	}

	if err := sheet.SetValue(branchHeaderRow, 1, w.now().Format("02.01.2006")); err != nil {
		w.log.Warn("date cell write failed", "err", err)
	}

	cells := w.templateCells(sheet, tepsiCol, adetCol)
	index := w.indexLines(f.Lines)

	for _, cell := range cells {
		if err := sheet.SetValue(cell.row, cell.col, "-"); err != nil {
			w.log.Warn("clear failed", "row", cell.row, "col", cell.col, "err", err)
		}
	}

	stats := Stats{}
	consumed := make(map[string]bool)
	for _, cell := range cells {
		qty, csvName, ok := w.lookup(cell, index)
		if !ok {
			continue
		}
		if err := sheet.SetValue(cell.row, cell.col, qty.InexactFloat64()); err != nil {
			w.log.Warn("write failed", "row", cell.row, "col", cell.col, "err", err)
			continue
		}
		consumed[csvName+"|"+cell.variant] = true
		stats.Matched++
		stats.Written++
	}

	for name, entries := range index {
		for variant := range entries {
			if !consumed[name+"|"+variant] && !consumedLoose(consumed, name) {
				stats.Unmatched++
				w.log.Debug("dessert line unmatched", "product", name, "variant", variant)
			}
		}
	}
	return stats
}

// consumedLoose treats a CSV name as matched when any of its variants
// landed somewhere; the per-variant bookkeeping only counts fully stranded
// products.
func consumedLoose(consumed map[string]bool, name string) bool {
	for k := range consumed {
		if strings.HasPrefix(k, name+"|") {
			return true
		}
	}
	return false
}

// findBranch locates the sheet whose branch header row carries the
// identity, exactly. The tray column is the header's own column; the piece
// column sits two to its right.
func (w *DessertWriter) findBranch(book *workbook.Book, id order.Identity, sheetHints []string) (*workbook.Sheet, int, int, error) {
	names := book.SheetNames()
	ordered := make([]string, 0, len(names))
	for _, h := range sheetHints {
		for _, n := range names {
			if textnorm.Normalize(n) == textnorm.Normalize(h) {
				ordered = append(ordered, n)
			}
		}
	}
	for _, n := range names {
		found := false
		for _, o := range ordered {
			if o == n {
				found = true
			}
		}
		if !found {
			ordered = append(ordered, n)
		}
	}

	for _, cand := range id.Candidates() {
		up := textnorm.Normalize(cand)
		for _, name := range ordered {
			sheet, err := book.Sheet(name)
			if err != nil {
				return nil, 0, 0, err
			}
			for c := 2; c <= sheet.MaxCol(); c++ {
				if sheet.Norm(branchHeaderRow, c) == up {
					return sheet, c, c + 2, nil
				}
			}
		}
	}
	return nil, 0, 0, workbook.ErrBranchNotFound
}

// templateCells indexes the writable cells of the template's name column.
func (w *DessertWriter) templateCells(sheet *workbook.Sheet, tepsiCol, adetCol int) []dessertCell {
	var cells []dessertCell
	for r := branchHeaderRow + 1; r <= sheet.MaxRow(); r++ {
		raw := sheet.Value(r, 1)
		if raw == "" {
			continue
		}
		name, variant := match.SplitNameVariant(raw)
		up := textnorm.Normalize(name)
		if up == "" || isSkipLabel(up) {
			continue
		}
		if strings.Contains(up, "MIKTAR") || strings.Contains(up, "ADET") || strings.Contains(up, "TEPSI") {
			continue
		}
		v := match.NormalizeVariant(variant, up)
		if r <= trayCutoffRow {
			cells = append(cells,
				dessertCell{name: up, variant: match.VariantTepsi, row: r, col: tepsiCol},
				dessertCell{name: up, variant: match.VariantAdet, row: r, col: adetCol},
			)
			continue
		}
		if v == "" {
			v = match.VariantAdet
		}
		cells = append(cells, dessertCell{name: up, variant: v, row: r, col: tepsiCol})
	}
	return cells
}

func isSkipLabel(up string) bool {
	for _, k := range dessertSkipLabels {
		if up == k || strings.HasPrefix(up, k) {
			return true
		}
	}
	return false
}

// indexLines aggregates the TATLI lines per (name, variant); several CSV
// lines for the same product and variant sum before any write.
func (w *DessertWriter) indexLines(lines []order.Line) map[string]map[string]decimal.Decimal {
	index := make(map[string]map[string]decimal.Decimal)
	for _, line := range lines {
		if textnorm.Normalize(line.Group) != order.DefaultGroup {
			continue
		}
		name, variant := match.SplitNameVariant(line.Product)
		up := textnorm.Normalize(name)
		if up == "" {
			continue
		}
		v := match.NormalizeVariant(variant, up)
		if index[up] == nil {
			index[up] = make(map[string]decimal.Decimal)
		}
		index[up][v] = index[up][v].Add(line.Quantity)
	}
	return index
}

// lookup finds the CSV quantity for one template cell: exact name first,
// then the loose name match, then the scored fallback for families where
// fuzzy matching is allowed.
func (w *DessertWriter) lookup(cell dessertCell, index map[string]map[string]decimal.Decimal) (decimal.Decimal, string, bool) {
	if entries, ok := index[cell.name]; ok {
		if qty, name, ok := pickVariant(cell, cell.name, entries); ok {
			return qty, name, true
		}
	}

	// fixed iteration order so reruns bind the same CSV line
	names := make([]string, 0, len(index))
	for csvName := range index {
		names = append(names, csvName)
	}
	sort.Strings(names)

	for _, csvName := range names {
		if csvName == cell.name || !match.NameMatches(cell.name, csvName) {
			continue
		}
		if qty, name, ok := pickVariant(cell, csvName, index[csvName]); ok {
			return qty, name, true
		}
	}

	if match.ExactOnly(cell.name) {
		return decimal.Zero, "", false
	}
	candidates := make([]string, 0, len(names))
	for _, csvName := range names {
		if !match.ExactOnly(csvName) {
			candidates = append(candidates, csvName)
		}
	}
	if best, _, ok := w.scorer.Best(cell.name, candidates); ok {
		if qty, name, ok := pickVariant(cell, best, index[best]); ok {
			return qty, name, true
		}
	}
	return decimal.Zero, "", false
}

// pickVariant sums every entry the cell accepts; a bare line and an
// explicit "(ADET)" line for the same product both land in the piece cell
// and must add up.
func pickVariant(cell dessertCell, csvName string, entries map[string]decimal.Decimal) (decimal.Decimal, string, bool) {
	total := decimal.Zero
	found := false
	for csvVar, qty := range entries {
		if match.VariantMatches(cell.variant, csvVar) {
			total = total.Add(qty)
			found = true
			continue
		}
		// unit-only products land in the piece cell even when the CSV
		// says tray
		if cell.variant == match.VariantAdet && csvVar == match.VariantTepsi && match.UnitOnly(cell.name) {
			total = total.Add(qty)
			found = true
		}
	}
	if !found {
		return decimal.Zero, "", false
	}
	return total, csvName, true
}
