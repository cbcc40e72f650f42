package match

import (
	"github.com/shopspring/decimal"
)

// Cell is a (row, column) aggregation key for grid targets.
type Cell struct {
	Row int
	Col int
}

// Aggregator sums quantities per target before anything is written, so
// that several order lines landing on the same cell produce one value.
// Keys are either grid coordinates or semantic names (running text totals
// like a dessert's daily sum). Purely additive.
type Aggregator struct {
	cells map[Cell]decimal.Decimal
	named map[string]decimal.Decimal
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		cells: make(map[Cell]decimal.Decimal),
		named: make(map[string]decimal.Decimal),
	}
}

// AddCell accumulates into a grid target.
func (a *Aggregator) AddCell(row, col int, qty decimal.Decimal) {
	k := Cell{Row: row, Col: col}
	a.cells[k] = a.cells[k].Add(qty)
}

// AddNamed accumulates into a semantic total.
func (a *Aggregator) AddNamed(key string, qty decimal.Decimal) {
	a.named[key] = a.named[key].Add(qty)
}

// Cells returns the accumulated grid totals.
func (a *Aggregator) Cells() map[Cell]decimal.Decimal {
	return a.cells
}

// Named returns one semantic total and whether anything accumulated
// under it.
func (a *Aggregator) Named(key string) (decimal.Decimal, bool) {
	v, ok := a.named[key]
	return v, ok
}

// HasCells reports whether any grid target accumulated a value.
func (a *Aggregator) HasCells() bool {
	return len(a.cells) > 0
}
