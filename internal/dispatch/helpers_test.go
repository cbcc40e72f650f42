package dispatch

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seyhanlar/sevkiyat/internal/workbook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func set(t *testing.T, f *excelize.File, sheet, axis string, v any) {
	t.Helper()
	require.NoError(t, f.SetCellValue(sheet, axis, v))
}

func merge(t *testing.T, f *excelize.File, sheet, from, to string) {
	t.Helper()
	require.NoError(t, f.MergeCell(sheet, from, to))
}

// saveBook persists a built fixture and reopens it through the workbook
// layer, the same path production takes.
func saveBook(t *testing.T, f *excelize.File) *workbook.Book {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	book, err := workbook.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })
	return book
}

func sheetOf(t *testing.T, book *workbook.Book, name string) *workbook.Sheet {
	t.Helper()
	s, err := book.Sheet(name)
	require.NoError(t, err)
	return s
}
