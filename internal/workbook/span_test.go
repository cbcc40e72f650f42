package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestBook(t *testing.T, build func(f *excelize.File)) *Book {
	t.Helper()
	f := excelize.NewFile()
	build(f)
	return &Book{f: f, path: "test.xlsx", sheets: make(map[string]*Sheet)}
}

func set(t *testing.T, f *excelize.File, sheet, axis string, v any) {
	t.Helper()
	require.NoError(t, f.SetCellValue(sheet, axis, v))
}

func merge(t *testing.T, f *excelize.File, sheet, from, to string) {
	t.Helper()
	require.NoError(t, f.MergeCell(sheet, from, to))
}

func TestLocateBranch_ExactMergedBeatsSubstring(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		// the exact label lives to the right of a longer one containing it
		set(t, f, "Sheet1", "B1", "KARSIYAKA AVM")
		set(t, f, "Sheet1", "F1", "KARSIYAKA")
		merge(t, f, "Sheet1", "F1", "H1")
	})

	s, span, err := NewLocator(2).LocateBranch(b, []string{"KARŞIYAKA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", s.Name)
	assert.Equal(t, 6, span.MinCol)
	assert.Equal(t, 1, span.AnchorRow)
	assert.GreaterOrEqual(t, span.MaxCol, 8)
}

func TestLocateBranch_ExactCellNeverSwallowedByLongerLabel(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "B1", "BORNOVA ANNEX")
		set(t, f, "Sheet1", "J1", "BORNOVA")
	})

	_, span, err := NewLocator(2).LocateBranch(b, []string{"BORNOVA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, span.MinCol, "exact cell must win over the longer label")
}

func TestLocateBranch_PrimaryBeforeFallback(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "B1", "HATAY")    // fallback (outer)
		set(t, f, "Sheet1", "H1", "BALCOVA") // primary (inner)
	})

	_, span, err := NewLocator(2).LocateBranch(b, []string{"BALÇOVA", "HATAY"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, span.MinCol)
}

func TestLocateBranch_FallbackUsedWhenPrimaryAbsent(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "D1", "HATAY")
	})

	_, span, err := NewLocator(2).LocateBranch(b, []string{"BALCOVA", "HATAY"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, span.MinCol)
}

func TestLocateBranch_SubstringOnlyAsLastResort(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "C1", "FOLKART VEGA AVM SUBESI")
	})

	_, span, err := NewLocator(2).LocateBranch(b, []string{"FOLKART VEGA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, span.MinCol)
}

func TestLocateBranch_NotFound(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "A1", "GAZIEMIR")
	})

	_, _, err := NewLocator(2).LocateBranch(b, []string{"MAVIBAHCE"}, nil)
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestLocateBranch_SheetHintOrdersCandidates(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "B1", "URLA")
		_, err := f.NewSheet("CUMARTESI IZMIR")
		require.NoError(t, err)
		set(t, f, "CUMARTESI IZMIR", "E1", "URLA")
	})

	s, span, err := NewLocator(2).LocateBranch(b, []string{"URLA"}, []string{"CUMARTESI IZMIR"})
	require.NoError(t, err)
	assert.Equal(t, "CUMARTESI IZMIR", s.Name)
	assert.Equal(t, 5, span.MinCol)
}

func TestWiden_StopsBeforeNextBranch(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "B1", "GUZELBAHCE")
		merge(t, f, "Sheet1", "B1", "D1")
		set(t, f, "Sheet1", "G1", "NARLIDERE")
		// give the sheet enough width for widening to have room
		set(t, f, "Sheet1", "T30", "x")
	})

	_, span, err := NewLocator(4).LocateBranch(b, []string{"GUZELBAHCE"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, span.MinCol)
	assert.Equal(t, 6, span.MaxCol, "widening must stop before the next branch label")
}

func TestWiden_IgnoresDatesAndNumbersOnAnchorRow(t *testing.T) {
	b := newTestBook(t, func(f *excelize.File) {
		set(t, f, "Sheet1", "B1", "SEFERIHISAR")
		set(t, f, "Sheet1", "D1", "3,5 KG")
		set(t, f, "Sheet1", "E1", "29.08.2026")
		set(t, f, "Sheet1", "T30", "x")
	})

	_, span, err := NewLocator(4).LocateBranch(b, []string{"SEFERIHISAR"}, nil)
	require.NoError(t, err)
	assert.Greater(t, span.MaxCol, 5, "digit-dominant cells are not branch boundaries")
}
