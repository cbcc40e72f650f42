package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Bayi Sipariş Raporu;;\n" +
	"ŞUBE KODU/ADI: 187 - ANKARA(KIZILAY);;\n" +
	"STOK KODU;MİKTAR;GRUP;BİRİM\n" +
	"SÜTLÜ DONDURMA 3,5 KG;2;DONDURMA;1*3,5\n" +
	"KÜNEFE;12,5;TATLI;ADET\n" +
	"FISTIKLI PASTA;0;PASTA;ADET\n" +
	"BOZUK SATIR;abc;TATLI;\n" +
	";;;\n"

func TestDetectLayout(t *testing.T) {
	layout, err := DetectLayout([]byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, layout.SkipLines)
	assert.Equal(t, ';', layout.Delimiter)
	assert.Len(t, layout.Preamble, 2)
	assert.Contains(t, layout.Headers, "STOK KODU")
}

func TestDetectLayoutHeaderAtTop(t *testing.T) {
	data := "STOK KODU,MIKTAR,GRUP\nKÜNEFE,3,TATLI\n"
	layout, err := DetectLayout([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 0, layout.SkipLines)
	assert.Equal(t, ',', layout.Delimiter)
	assert.Empty(t, layout.Preamble)
}

func TestDetectLayoutErrors(t *testing.T) {
	_, err := DetectLayout(nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = DetectLayout([]byte("tarih,tutar\n1,2\n"))
	assert.ErrorIs(t, err, ErrNoHeadersFound)
}

func TestRead(t *testing.T) {
	file, err := Read([]byte(sampleCSV), DefaultAliasTable())
	require.NoError(t, err)

	assert.Equal(t, "KIZILAY", file.Identity.Primary)
	assert.Equal(t, "ANKARA", file.Identity.Fallback)

	// zero-quantity, non-numeric and blank rows are dropped, never zeroed
	require.Len(t, file.Lines, 2)
	assert.Equal(t, 3, file.Dropped)

	first := file.Lines[0]
	assert.Equal(t, "SÜTLÜ DONDURMA 3,5 KG", first.Product)
	assert.Equal(t, "2", first.Quantity.String())
	assert.Equal(t, "DONDURMA", first.Group)
	assert.Equal(t, "1*3,5", first.Unit)

	second := file.Lines[1]
	assert.Equal(t, "12.5", second.Quantity.String())
}

func TestReadDefaultsGroup(t *testing.T) {
	data := "STOK KODU,MIKTAR\nKAZANDİBİ,4\n"
	file, err := Read([]byte(data), DefaultAliasTable())
	require.NoError(t, err)
	require.Len(t, file.Lines, 1)
	assert.Equal(t, DefaultGroup, file.Lines[0].Group)
	assert.True(t, file.Identity.IsZero())
}

func TestReadHeaderSynonyms(t *testing.T) {
	data := "KOD,ADET,KATEGORI ADI\nŞEKERPARE,6,TATLI\n"
	file, err := Read([]byte(data), DefaultAliasTable())
	require.NoError(t, err)
	require.Len(t, file.Lines, 1)
	assert.Equal(t, "ŞEKERPARE", file.Lines[0].Product)
	assert.Equal(t, "6", file.Lines[0].Quantity.String())
	assert.Equal(t, "TATLI", file.Lines[0].Group)
}
