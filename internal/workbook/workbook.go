// Package workbook wraps excelize with the lookups the distribution engine
// needs: branch span location, category block discovery and merge-aware cell
// writes against externally authored templates. The template layout is never
// restructured; only cell values change.
package workbook

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

var (
	// ErrBranchNotFound means neither the primary nor the fallback branch
	// name matched any sheet. The category writer must skip, never guess a
	// default sheet.
	ErrBranchNotFound = errors.New("workbook: branch not found on any sheet")
	// ErrBlockNotFound means the expected category header keyword is absent.
	ErrBlockNotFound = errors.New("workbook: category block not found")
)

// Book is an open workbook. It caches sheet contents for scanning; writes go
// through to excelize and keep the cache coherent.
type Book struct {
	f      *excelize.File
	path   string
	sheets map[string]*Sheet
}

// Open loads a workbook template from disk.
func Open(path string) (*Book, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", path, err)
	}
	return &Book{f: f, path: path, sheets: make(map[string]*Sheet)}, nil
}

// Save writes the workbook back to the path it was opened from.
func (b *Book) Save() error {
	if err := b.f.Save(); err != nil {
		return fmt.Errorf("workbook: save %s: %w", b.path, err)
	}
	return nil
}

// Close releases the underlying file.
func (b *Book) Close() error {
	return b.f.Close()
}

// Path returns the file path this workbook was opened from.
func (b *Book) Path() string { return b.path }

// SheetNames returns the worksheet names in workbook order.
func (b *Book) SheetNames() []string {
	return b.f.GetSheetList()
}

// Sheet returns a cached scan view of one worksheet.
func (b *Book) Sheet(name string) (*Sheet, error) {
	if s, ok := b.sheets[name]; ok {
		return s, nil
	}
	rows, err := b.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("workbook: read sheet %s: %w", name, err)
	}
	merged, err := b.f.GetMergeCells(name)
	if err != nil {
		return nil, fmt.Errorf("workbook: merges of %s: %w", name, err)
	}
	merges := make([]MergeRange, 0, len(merged))
	for _, m := range merged {
		minCol, minRow, err1 := excelize.CellNameToCoordinates(m.GetStartAxis())
		maxCol, maxRow, err2 := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		merges = append(merges, MergeRange{MinRow: minRow, MinCol: minCol, MaxRow: maxRow, MaxCol: maxCol})
	}
	s := &Sheet{book: b, Name: name, rows: rows, merges: merges}
	b.sheets[name] = s
	return s, nil
}

// MergeRange is one merged cell region, 1-based inclusive bounds.
type MergeRange struct {
	MinRow, MinCol, MaxRow, MaxCol int
}

// Contains reports whether (row, col) lies inside the range.
func (m MergeRange) Contains(row, col int) bool {
	return m.MinRow <= row && row <= m.MaxRow && m.MinCol <= col && col <= m.MaxCol
}

// Sheet is a scan view over one worksheet.
type Sheet struct {
	book   *Book
	Name   string
	rows   [][]string
	merges []MergeRange
}

// MaxRow returns the last row carrying any content.
func (s *Sheet) MaxRow() int { return len(s.rows) }

// MaxCol returns the widest row's column count.
func (s *Sheet) MaxCol() int {
	max := 0
	for _, r := range s.rows {
		if len(r) > max {
			max = len(r)
		}
	}
	for _, m := range s.merges {
		if m.MaxCol > max {
			max = m.MaxCol
		}
	}
	return max
}

// Value returns the raw cell text at 1-based (row, col), empty outside the
// used range.
func (s *Sheet) Value(row, col int) string {
	if row < 1 || col < 1 || row > len(s.rows) {
		return ""
	}
	r := s.rows[row-1]
	if col > len(r) {
		return ""
	}
	return r[col-1]
}

// Norm returns the normalized cell text.
func (s *Sheet) Norm(row, col int) string {
	return textnorm.Normalize(s.Value(row, col))
}

// MergeAt returns the merged range containing (row, col), if any.
func (s *Sheet) MergeAt(row, col int) (MergeRange, bool) {
	for _, m := range s.merges {
		if m.Contains(row, col) {
			return m, true
		}
	}
	return MergeRange{}, false
}

// MasterOf resolves (row, col) to its merge master, or itself when unmerged.
func (s *Sheet) MasterOf(row, col int) (int, int) {
	if m, ok := s.MergeAt(row, col); ok {
		return m.MinRow, m.MinCol
	}
	return row, col
}

// RightmostOfMerge returns the rightmost column of the merge containing
// (row, col), or col when unmerged. Label merges put the writable cell at
// their visual right edge.
func (s *Sheet) RightmostOfMerge(row, col int) int {
	if m, ok := s.MergeAt(row, col); ok {
		return m.MaxCol
	}
	return col
}

// SetValue writes a cell value and keeps the scan cache coherent.
func (s *Sheet) SetValue(row, col int, v any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := s.book.f.SetCellValue(s.Name, axis, v); err != nil {
		return err
	}
	s.cache(row, col, v)
	return nil
}

func (s *Sheet) cache(row, col int, v any) {
	for len(s.rows) < row {
		s.rows = append(s.rows, nil)
	}
	r := s.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	switch t := v.(type) {
	case nil:
		r[col-1] = ""
	case string:
		r[col-1] = t
	default:
		r[col-1] = fmt.Sprint(v)
	}
	s.rows[row-1] = r
}
