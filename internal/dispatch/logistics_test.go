package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seyhanlar/sevkiyat/internal/order"
)

func logisticsFixture(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	const s = "LOJISTIK"
	require.NoError(t, f.SetSheetName("Sheet1", s))

	set(t, f, s, "B1", "KIZILAY")
	set(t, f, s, "C1", "BORNOVA")
	set(t, f, s, "B3", "PİRİNÇ - 2 ADET")
	return f
}

func TestLogisticsWriterRun(t *testing.T) {
	book := saveBook(t, logisticsFixture(t))
	w := NewLogisticsWriter(testLogger())

	file := &order.File{
		Identity: kizilay(),
		Lines: []order.Line{
			{Product: "PİRİNÇ", Quantity: dec(t, "5"), Group: "SARF"},
			{Product: "KOLİ BANDI", Quantity: dec(t, "2"), Group: "SARF"},
			{Product: "KUTU KURABİYE", Quantity: dec(t, "1"), Group: "KURABİYE"},
			{Product: "FIRIN SÜTLAÇ", Quantity: dec(t, "3"), Group: "TATLI"},
		},
	}

	stats := w.Run(book, file, nil)
	require.NoError(t, stats.Err)
	assert.Equal(t, 3, stats.Matched)
	assert.Equal(t, 3, stats.Written)

	s := sheetOf(t, book, "LOJISTIK")
	assert.Equal(t, "PİRİNÇ - 5 ADET", s.Value(3, 2), "existing line is replaced, not duplicated")
	assert.Equal(t, "KOLİ BANDI - 2 ADET", s.Value(4, 2))
	assert.Equal(t, "KUTU KURABİYE - 1 ADET", s.Value(5, 2))
	assert.Equal(t, "", s.Value(3, 3), "other branches stay untouched")
}

func TestLogisticsWriterRerunIsIdempotent(t *testing.T) {
	book := saveBook(t, logisticsFixture(t))
	w := NewLogisticsWriter(testLogger())

	file := &order.File{
		Identity: kizilay(),
		Lines: []order.Line{
			{Product: "KOLİ BANDI", Quantity: dec(t, "2"), Group: "SARF"},
		},
	}

	w.Run(book, file, nil)
	w.Run(book, file, nil)

	s := sheetOf(t, book, "LOJISTIK")
	assert.Equal(t, "KOLİ BANDI - 2 ADET", s.Value(4, 2))
	assert.Equal(t, "", s.Value(5, 2), "second run rewrites in place")
}

func TestLogisticsWriterKeepsSourceSpelling(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "LOJISTIK"))
	set(t, f, "LOJISTIK", "B1", "KIZILAY")
	set(t, f, "LOJISTIK", "B3", "PİRİNÇ BALDO - 1 ADET")
	book := saveBook(t, f)

	w := NewLogisticsWriter(testLogger())
	file := &order.File{
		Identity: kizilay(),
		Lines: []order.Line{
			{Product: "Pirinç  Baldo {iç}", Quantity: dec(t, "3"), Group: "SARF"},
		},
	}
	stats := w.Run(book, file, nil)
	require.NoError(t, stats.Err)

	s := sheetOf(t, book, "LOJISTIK")
	assert.Equal(t, "Pirinç Baldo - 3 ADET", s.Value(3, 2),
		"annotation cut, casing kept, stale line replaced by normalized key")
}

func TestLogisticsWriterAppendsMissingBranchColumn(t *testing.T) {
	book := saveBook(t, logisticsFixture(t))
	w := NewLogisticsWriter(testLogger())

	file := &order.File{
		Identity: order.Identity{Primary: "URLA"},
		Lines: []order.Line{
			{Product: "PEÇETE", Quantity: dec(t, "10"), Group: "SARF"},
		},
	}

	stats := w.Run(book, file, nil)
	require.NoError(t, stats.Err)
	assert.Equal(t, 1, stats.Written)

	s := sheetOf(t, book, "LOJISTIK")
	assert.Equal(t, "URLA", s.Value(1, 4), "unknown branch gets a fresh column")
	assert.Equal(t, "PEÇETE - 10 ADET", s.Value(3, 4))
}

func TestLogisticsWriterWordOverlapHeader(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "LOJISTIK"))
	set(t, f, "LOJISTIK", "B1", "ANKARA KIZILAY MAĞAZA")
	book := saveBook(t, f)

	w := NewLogisticsWriter(testLogger())
	file := &order.File{
		Identity: order.Identity{Primary: "KIZILAY MERKEZ"},
		Lines: []order.Line{
			{Product: "POŞET", Quantity: dec(t, "4"), Group: "SARF"},
		},
	}

	stats := w.Run(book, file, nil)
	require.NoError(t, stats.Err)

	s := sheetOf(t, book, "LOJISTIK")
	assert.Equal(t, "POŞET - 4 ADET", s.Value(3, 2), "shared word binds to the existing column")
	assert.Equal(t, "ANKARA KIZILAY MAĞAZA", s.Value(1, 2), "no duplicate column is created")
}
