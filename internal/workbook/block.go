package workbook

import (
	"regexp"
	"strings"

	"github.com/seyhanlar/sevkiyat/internal/match"
	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// labelCol is where templates carry category headers and product names.
const labelCol = 1

// variantMargin extends the variant scan past the span's right edge; some
// templates hang a block's last sub-column just outside the branch label
// merge.
const variantMargin = 12

// Block is one category block inside a branch span: the header row, its
// variant sub-columns and the product rows beneath it.
type Block struct {
	Group      string
	HeaderRow  int
	VariantRow int
	// Variants maps normalized sub-column label to its resolved column
	// (rightmost of the label's merge).
	Variants map[string]int
	// SubCols are the variant columns left to right; matrix routing rules
	// address them by position.
	SubCols []int
	// Rows maps product row to its normalized label. A block without
	// explicit product rows gets one anonymous row.
	Rows map[int]string
	// WriteRow is the first product row.
	WriteRow int
}

// LocateBlock finds the category block for one header keyword. The header
// is the first label-column cell containing the keyword; variant
// sub-columns float up to two rows below it; product rows run until the
// next block header.
func LocateBlock(s *Sheet, span Span, keyword string, stops []string) (*Block, error) {
	kw := textnorm.Normalize(keyword)
	headerRow := 0
	for r := 1; r <= s.MaxRow(); r++ {
		if strings.Contains(s.Norm(r, labelCol), kw) {
			headerRow = r
			break
		}
	}
	if headerRow == 0 {
		return nil, ErrBlockNotFound
	}

	variants, variantRow := scanVariantColumns(s, span, headerRow)
	writeRow := headerRow + 1
	if len(variants) > 0 {
		writeRow = variantRow + 1
	}
	rows := scanProductRows(s, writeRow, stops)

	return &Block{
		Group:      kw,
		HeaderRow:  headerRow,
		VariantRow: variantRow,
		Variants:   variants,
		SubCols:    orderedColumns(variants),
		Rows:       rows,
		WriteRow:   writeRow,
	}, nil
}

// LocateMatrixBlocks discovers every matrix block (tost, ekmek,
// cheesecake, catal borek) in one pass. Headers are exact label matches;
// each block's product rows are bounded by the next header below it.
// Blocks whose variant sub-columns cannot be found are dropped, because
// there is nowhere to route into.
func LocateMatrixBlocks(s *Sheet, span Span, groups []string) map[string]*Block {
	headers := make(map[string]int, len(groups))
	var positions []int
	for r := 1; r <= s.MaxRow(); r++ {
		up := s.Norm(r, labelCol)
		if up == "" {
			continue
		}
		for _, g := range groups {
			if up == textnorm.Normalize(g) {
				if _, taken := headers[g]; !taken {
					headers[g] = r
					positions = append(positions, r)
				}
			}
		}
	}

	blocks := make(map[string]*Block, len(headers))
	for g, r := range headers {
		next := s.MaxRow() + 1
		for _, p := range positions {
			if p > r && p < next {
				next = p
			}
		}
		variants, variantRow := scanVariantColumns(s, span, r)
		if len(variants) == 0 {
			continue
		}
		writeRow := variantRow + 1
		rows := boundedProductRows(s, writeRow, next)
		blocks[g] = &Block{
			Group:      g,
			HeaderRow:  r,
			VariantRow: variantRow,
			Variants:   variants,
			SubCols:    orderedColumns(variants),
			Rows:       rows,
			WriteRow:   writeRow,
		}
	}
	return blocks
}

// scanVariantColumns looks for named sub-column headers on the header row
// first, then one and two rows below it; the first row yielding anything
// wins. Size headers, section labels, bare numbers and two-letter noise
// are not variants.
func scanVariantColumns(s *Sheet, span Span, headerRow int) (map[string]int, int) {
	scan := func(row int) map[string]int {
		variants := make(map[string]int)
		cEnd := span.MaxCol + variantMargin
		if mc := s.MaxCol(); cEnd > mc {
			cEnd = mc
		}
		for c := span.MinCol; c <= cEnd; c++ {
			raw := s.Value(row, c)
			if raw == "" {
				continue
			}
			up := textnorm.Normalize(raw)
			if up == "" || skipVariantToken(raw, up) {
				continue
			}
			variants[up] = s.RightmostOfMerge(row, c)
		}
		return variants
	}

	for _, row := range []int{headerRow, headerRow + 1, headerRow + 2} {
		if row > s.MaxRow() {
			break
		}
		if v := scan(row); len(v) > 0 {
			return v, row
		}
	}
	return nil, headerRow
}

var hasLetter = regexp.MustCompile(`[A-Z]`)

func skipVariantToken(raw, up string) bool {
	if match.IsSizeLike(raw) {
		return true
	}
	for _, noise := range []string{"350", "150", "DONDURMALAR"} {
		if strings.Contains(up, noise) {
			return true
		}
	}
	if !hasLetter.MatchString(up) {
		return true
	}
	return len(up) <= 2
}

// scanProductRows collects labeled rows below a block header until another
// section header appears or the sheet ends. No explicit rows still yields
// one anonymous catch-all row.
func scanProductRows(s *Sheet, startRow int, stops []string) map[int]string {
	rows := make(map[int]string)
	for r := startRow; r <= s.MaxRow(); r++ {
		up := s.Norm(r, labelCol)
		if up == "" {
			continue
		}
		if isSectionHeader(up, stops) {
			break
		}
		rows[r] = up
	}
	if len(rows) == 0 {
		rows[startRow] = ""
	}
	return rows
}

func boundedProductRows(s *Sheet, startRow, stopRow int) map[int]string {
	rows := make(map[int]string)
	for r := startRow; r < stopRow && r <= s.MaxRow(); r++ {
		up := s.Norm(r, labelCol)
		if up == "" {
			continue
		}
		if isSectionHeader(up, match.MatrixGroupKeywords) {
			break
		}
		rows[r] = up
	}
	if len(rows) == 0 {
		rows[startRow] = ""
	}
	return rows
}

func isSectionHeader(up string, stops []string) bool {
	for _, st := range stops {
		if up == textnorm.Normalize(st) {
			return true
		}
	}
	return false
}

func orderedColumns(variants map[string]int) []int {
	cols := make([]int, 0, len(variants))
	for _, c := range variants {
		cols = append(cols, c)
	}
	for i := 1; i < len(cols); i++ {
		for j := i; j > 0 && cols[j] < cols[j-1]; j-- {
			cols[j], cols[j-1] = cols[j-1], cols[j]
		}
	}
	return cols
}

// FindSizeColumns locates the weight-class columns of the frozen flavor
// grid: near the header first, then anywhere in the top rows. Each class
// takes the first cell whose label resolves to it; merged labels resolve
// to their rightmost column.
func FindSizeColumns(s *Sheet, span Span, rowHint int) map[match.SizeClass]int {
	sizes := make(map[match.SizeClass]int, 3)

	scan := func(r1, r2 int) {
		cStart := span.MinCol
		cEnd := span.MaxCol
		if cEnd < cStart {
			cEnd = cStart
		}
		// a single-column span still owns the unit headers to its right
		if cStart == cEnd && cEnd < s.MaxCol() {
			cEnd += 6
			if mc := s.MaxCol(); cEnd > mc {
				cEnd = mc
			}
		}
		if r1 < 1 {
			r1 = 1
		}
		if mr := s.MaxRow(); r2 > mr {
			r2 = mr
		}
		for r := r1; r <= r2; r++ {
			for c := cStart; c <= cEnd; c++ {
				raw := s.Value(r, c)
				if raw == "" {
					continue
				}
				cls := match.DetectSizeLabel(raw)
				if cls == match.SizeNone {
					continue
				}
				if _, taken := sizes[cls]; !taken {
					sizes[cls] = s.RightmostOfMerge(r, c)
				}
			}
		}
	}

	if rowHint > 0 {
		scan(rowHint, rowHint+3)
	}
	if len(sizes) < 3 {
		scan(1, headerScanRows)
	}
	return sizes
}
