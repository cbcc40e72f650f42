package dispatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/seyhanlar/sevkiyat/internal/order"
	"github.com/seyhanlar/sevkiyat/internal/workbook"
	"github.com/seyhanlar/sevkiyat/pkg/config"
)

const serviceCSV = "Bayi Sipariş Raporu;;\n" +
	"ŞUBE KODU/ADI: 187 - ANKARA(KIZILAY);;\n" +
	"STOK KODU;MİKTAR;GRUP;BİRİM\n" +
	"SÜTLÜ DONDURMA 3,5 KG;2;DONDURMA;1*3,5\n" +
	"FIRIN SÜTLAÇ (TEPSİ);2;TATLI;ADET\n" +
	"PİRİNÇ;5;SARF;ADET\n" +
	"BOZUK SATIR;abc;TATLI;\n"

func writeTemplate(t *testing.T, dir, name string, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func serviceFixture(t *testing.T) (*Service, *config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Templates: config.TemplateConfig{
			FrozenPath:    writeTemplate(t, dir, "donuk.xlsx", frozenFixture(t)),
			DessertPath:   writeTemplate(t, dir, "tatli.xlsx", dessertFixture(t)),
			LogisticsPath: writeTemplate(t, dir, "lojistik.xlsx", logisticsFixture(t)),
		},
		Matching: config.MatchingConfig{FuzzyThreshold: 6, SpanMargin: 4},
		Archive:  config.ArchiveConfig{Dir: filepath.Join(dir, "arsiv")},
	}
	csvPath := filepath.Join(dir, "siparis.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(serviceCSV), 0o644))

	svc, err := New(cfg, testLogger(), order.DefaultAliasTable())
	require.NoError(t, err)
	return svc, cfg, csvPath
}

func cellOf(t *testing.T, path, sheet string, row, col int) string {
	t.Helper()
	book, err := workbook.Open(path)
	require.NoError(t, err)
	defer book.Close()
	s, err := book.Sheet(sheet)
	require.NoError(t, err)
	return s.Value(row, col)
}

func TestServiceRun(t *testing.T) {
	svc, cfg, csvPath := serviceFixture(t)

	sum, err := svc.Run(context.Background(), csvPath, "")
	require.NoError(t, err)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", sum.RunID.String())
	assert.Equal(t, "KIZILAY", sum.Branch.Primary)
	assert.Equal(t, "ANKARA", sum.Branch.Fallback)
	assert.Equal(t, 1, sum.Dropped)

	assert.Equal(t, 1, sum.Frozen.Matched)
	assert.Equal(t, 1, sum.Dessert.Written)
	assert.Equal(t, 1, sum.Logistics.Written)
	assert.False(t, sum.Frozen.Skipped)
	assert.NotEmpty(t, sum.Archived, "the processed CSV lands in the run archive")

	// each workbook was saved with its category's values
	assert.Equal(t, "2", cellOf(t, cfg.Templates.FrozenPath, "SALI IZMIR", 4, 3))
	assert.Equal(t, "2", cellOf(t, cfg.Templates.DessertPath, "TATLI", 3, 2))
	assert.Equal(t, "PİRİNÇ - 5 ADET", cellOf(t, cfg.Templates.LogisticsPath, "LOJISTIK", 3, 2))
}

func TestServiceRunTwiceMatchesFirstRun(t *testing.T) {
	svc, cfg, csvPath := serviceFixture(t)

	_, err := svc.Run(context.Background(), csvPath, "")
	require.NoError(t, err)
	sum, err := svc.Run(context.Background(), csvPath, "")
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Logistics.Written)
	assert.Equal(t, "2", cellOf(t, cfg.Templates.FrozenPath, "SALI IZMIR", 4, 3))
	assert.Equal(t, "PİRİNÇ - 5 ADET", cellOf(t, cfg.Templates.LogisticsPath, "LOJISTIK", 3, 2))
	assert.Equal(t, "", cellOf(t, cfg.Templates.LogisticsPath, "LOJISTIK", 6, 2))
}

func TestServiceRunNoIdentity(t *testing.T) {
	svc, _, _ := serviceFixture(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "anon.csv")
	data := "STOK KODU;MİKTAR;GRUP\nKÜNEFE;3;TATLI\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := svc.Run(context.Background(), path, "")
	assert.ErrorIs(t, err, ErrNoBranchIdentity)
}

func TestServiceClear(t *testing.T) {
	svc, cfg, csvPath := serviceFixture(t)

	_, err := svc.Run(context.Background(), csvPath, "")
	require.NoError(t, err)
	require.Equal(t, "2", cellOf(t, cfg.Templates.FrozenPath, "SALI IZMIR", 4, 3))

	sum, err := svc.Clear(context.Background(), "Kızılay", "")
	require.NoError(t, err)
	assert.False(t, sum.Frozen.Skipped)

	assert.Equal(t, "", cellOf(t, cfg.Templates.FrozenPath, "SALI IZMIR", 4, 3))
	assert.Equal(t, "-", cellOf(t, cfg.Templates.DessertPath, "TATLI", 3, 2))
}

func TestServiceRunMissingTemplateSkipsCategory(t *testing.T) {
	svc, cfg, csvPath := serviceFixture(t)
	require.NoError(t, os.Remove(cfg.Templates.FrozenPath))

	sum, err := svc.Run(context.Background(), csvPath, "")
	require.NoError(t, err)

	assert.True(t, sum.Frozen.Skipped)
	assert.Error(t, sum.Frozen.Err)
	assert.Equal(t, 1, sum.Dessert.Written, "other categories still run")
	assert.Equal(t, 1, sum.Logistics.Written)
}
