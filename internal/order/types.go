// Package order ingests a branch's daily order CSV: it sniffs the file
// layout, parses the tabular body into order lines, and resolves the branch
// identity from the metadata preamble.
package order

import (
	"github.com/shopspring/decimal"
)

// Line is one usable order row from the CSV body. Lines with a zero or
// non-numeric quantity never become a Line.
type Line struct {
	Product  string          // raw product text, may carry a parenthetical variant
	Quantity decimal.Decimal // exact decimal, ',' or '.' source separator
	Group    string          // coarse group label; defaults to DefaultGroup
	Unit     string          // unit column text, a secondary size hint
	Row      int             // 1-based source row, for diagnostics
}

// DefaultGroup is assumed when the CSV carries no group column.
const DefaultGroup = "TATLI"

// File is a fully ingested order CSV.
type File struct {
	Path     string
	Preamble []string // metadata lines above the header row
	Lines    []Line
	Dropped  int // rows removed for zero/unparseable quantity
	Identity Identity
}
