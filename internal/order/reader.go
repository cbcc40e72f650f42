package order

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
	"github.com/seyhanlar/sevkiyat/pkg/quantity"
)

// csvRow is the raw CSV body row. Tags carry the accepted header synonyms;
// headers are normalized before matching so accent and case variants of the
// same column name all bind.
type csvRow struct {
	Product  string `csv:"STOK KODU"`
	Product2 string `csv:"STOKKODU"`
	Product3 string `csv:"STOK KOD"`
	Product4 string `csv:"KOD"`

	Quantity  string `csv:"MIKTAR"`
	Quantity2 string `csv:"ADET"`

	Group  string `csv:"GRUP"`
	Group2 string `csv:"GRUP ADI"`
	Group3 string `csv:"KATEGORI"`
	Group4 string `csv:"KATEGORI ADI"`

	Unit string `csv:"BIRIM"`
}

func (r csvRow) product() string {
	return firstNonEmpty(r.Product, r.Product2, r.Product3, r.Product4)
}

func (r csvRow) quantity() string {
	return firstNonEmpty(r.Quantity, r.Quantity2)
}

func (r csvRow) group() string {
	return firstNonEmpty(r.Group, r.Group2, r.Group3, r.Group4)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func init() {
	// Bind headers through the same normalization used everywhere else, so
	// "Stok Kodu", "STOK KODU" and "STOK KODU " are the same column.
	gocsv.SetHeaderNormalizer(textnorm.Normalize)
}

// ReadFile ingests an order CSV from disk.
func ReadFile(path string, aliases *AliasTable) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("order: read %s: %w", path, err)
	}
	f, err := Read(data, aliases)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Read ingests an order CSV from memory: layout sniffing, branch identity
// resolution from the preamble, then body parsing. Rows with a zero or
// unparseable quantity are dropped and counted, never written as zero.
func Read(data []byte, aliases *AliasTable) (*File, error) {
	layout, err := DetectLayout(data)
	if err != nil {
		return nil, err
	}

	body := strings.Join(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")[layout.SkipLines:], "\n")

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = layout.Delimiter
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1
		return r
	})

	var rows []csvRow
	if err := gocsv.UnmarshalString(body, &rows); err != nil {
		return nil, fmt.Errorf("order: parse body: %w", err)
	}

	file := &File{
		Preamble: layout.Preamble,
		Lines:    make([]Line, 0, len(rows)),
		Identity: ResolveIdentity(layout.Preamble, aliases),
	}

	for i, row := range rows {
		name := row.product()
		if name == "" {
			file.Dropped++
			continue
		}
		qty, err := quantity.Parse(row.quantity())
		if err != nil || qty.IsZero() {
			file.Dropped++
			continue
		}
		group := row.group()
		if group == "" {
			group = DefaultGroup
		}
		file.Lines = append(file.Lines, Line{
			Product:  name,
			Quantity: qty,
			Group:    group,
			Unit:     row.Unit,
			Row:      layout.SkipLines + i + 2, // 1-indexed, after header
		})
	}

	return file, nil
}
