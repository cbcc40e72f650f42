package order

import (
	"errors"
	"strings"

	"github.com/seyhanlar/sevkiyat/internal/textnorm"
)

// Header keywords that mark the body's header row. The export tool places
// the header at row 1 or row 3 depending on version, so the row is found by
// content, never by position.
var headerKeywords = []string{
	"STOK KODU", "STOKKODU", "STOK KOD",
	"MIKTAR", "ADET",
	"GRUP", "KATEGORI",
}

// maxProbeLines bounds the header search; metadata preambles observed in the
// wild are at most a handful of lines.
const maxProbeLines = 8

var (
	ErrEmptyFile      = errors.New("order: file is empty")
	ErrNoHeadersFound = errors.New("order: could not find data headers")
)

// Layout describes where the tabular body starts inside a raw CSV file.
type Layout struct {
	Delimiter rune
	SkipLines int      // metadata lines above the header row
	Preamble  []string // the skipped lines, verbatim
	Headers   []string // trimmed header cells
}

// DetectLayout finds the header row and delimiter of an order CSV.
func DetectLayout(data []byte) (*Layout, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	limit := maxProbeLines
	if limit > len(lines) {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		up := textnorm.Normalize(lines[i])
		if up == "" {
			continue
		}
		hits := 0
		for _, kw := range headerKeywords {
			if strings.Contains(up, kw) {
				hits++
			}
		}
		// a real header row names at least two of the logical columns
		if hits < 2 {
			continue
		}
		delim := detectDelimiter(lines[i])
		headers := splitHeader(lines[i], delim)
		return &Layout{
			Delimiter: delim,
			SkipLines: i,
			Preamble:  append([]string(nil), lines[:i]...),
			Headers:   headers,
		}, nil
	}
	return nil, ErrNoHeadersFound
}

// detectDelimiter picks the separator with the most occurrences on the
// header line. Exports use ',' but ';' shows up in hand-edited files.
func detectDelimiter(line string) rune {
	best, bestCount := ',', strings.Count(line, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

func splitHeader(line string, delim rune) []string {
	parts := strings.Split(line, string(delim))
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
